package workflow

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"budget-backend/internal/app/ds"
)

// Event describes one completed status transition. Delta is the amount
// the transition moved in the ledger; zero for transitions that only
// change status.
type Event struct {
	Timestamp time.Time       `json:"timestamp"`
	DocType   ds.DocumentType `json:"doc_type"`
	DocID     string          `json:"doc_id"`
	Action    Action          `json:"action"`
	From      ds.Status       `json:"from"`
	To        ds.Status       `json:"to"`
	Delta     decimal.Decimal `json:"delta"`
	ActorID   *uint           `json:"actor_id,omitempty"`
}

// Notifier receives events after the transaction that produced them
// has committed.
type Notifier interface {
	Notify(Event)
}

// LogNotifier writes transition events to the structured log.
type LogNotifier struct {
	Log *logrus.Logger
}

func (n *LogNotifier) Notify(e Event) {
	fields := logrus.Fields{
		"doc_type": e.DocType,
		"doc_id":   e.DocID,
		"action":   e.Action,
		"from":     e.From,
		"to":       e.To,
		"delta":    e.Delta,
	}
	if e.ActorID != nil {
		fields["actor_id"] = *e.ActorID
	}
	n.Log.WithFields(fields).Info("workflow transition")
}
