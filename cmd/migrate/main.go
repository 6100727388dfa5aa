package main

import (
	"log"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/dsn"
)

func main() {
	_ = godotenv.Load()

	dsnStr := dsn.FromEnv()
	if dsnStr == "" {
		log.Fatal("DSN string is empty. Check your .env file")
	}

	db, err := gorm.Open(postgres.Open(dsnStr), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Connected to database successfully")

	err = db.AutoMigrate(
		&ds.User{},
		&ds.ApprovedBudget{},
		&ds.BudgetAllocation{},
		&ds.ExpenditurePlan{},
		&ds.LineItem{},
		&ds.PurchaseRequest{},
		&ds.PurchaseAllocation{},
		&ds.ActivityRequest{},
		&ds.ActivityAllocation{},
		&ds.Realignment{},
		&ds.BudgetTransaction{},
		&ds.SupportingDocument{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Database migration completed successfully")
}
