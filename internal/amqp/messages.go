package amqp

import (
	"encoding/json"
	"time"
)

// Event operations carried on the sync queue
const (
	OperationSync   = "sync"
	OperationDelete = "delete"
)

// TransactionEvent is the lightweight envelope published for every write.
// It carries only the ID and version; the worker fetches the full
// transaction from storage so the queue never holds stale payloads.
type TransactionEvent struct {
	Operation string    `json:"operation"`
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncEvent creates an event asking the worker to export a transaction
func NewSyncEvent(id string, version int64) *TransactionEvent {
	return &TransactionEvent{
		Operation: OperationSync,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// NewDeleteEvent creates an event asking the worker to remove a
// transaction from the export target
func NewDeleteEvent(id string, version int64) *TransactionEvent {
	return &TransactionEvent{
		Operation: OperationDelete,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON parses an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var event TransactionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
