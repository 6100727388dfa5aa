package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"

	"budget-backend/internal/app/dsn"
	"budget-backend/internal/app/repository"
)

// Archives every budget from past fiscal years together with its
// allocations and documents. Intended to run once at year rollover.
func main() {
	_ = godotenv.Load()

	dsnStr := dsn.FromEnv()
	if dsnStr == "" {
		log.Fatal("DSN string is empty. Check your .env file")
	}

	repo, err := repository.New(dsnStr)
	if err != nil {
		log.Fatalf("Failed to init repository: %v", err)
	}

	n, err := repo.ArchivePastYears(time.Now())
	if err != nil {
		log.Fatalf("Failed to archive past years: %v", err)
	}
	log.Printf("Archived %d budget(s) from past fiscal years", n)
}
