package services

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type publishedEvent struct {
	id      string
	version int64
}

// fakePublisher records events instead of talking to a broker.
type fakePublisher struct {
	syncs   []publishedEvent
	deletes []publishedEvent
	failing bool
	closed  bool
}

func (f *fakePublisher) PublishTransactionSync(_ context.Context, id string, version int64) error {
	if f.failing {
		return errors.New("broker unavailable")
	}
	f.syncs = append(f.syncs, publishedEvent{id: id, version: version})
	return nil
}

func (f *fakePublisher) PublishTransactionDelete(_ context.Context, id string, version int64) error {
	if f.failing {
		return errors.New("broker unavailable")
	}
	f.deletes = append(f.deletes, publishedEvent{id: id, version: version})
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func validTransaction() core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2025, 6, 15),
		Description: "Groceries",
		Amount:      core.Money{Cents: -4550},
		Category:    "Food",
		Type:        core.TypeExpense,
	}
}

func TestTransactionService_CreateTransaction(t *testing.T) {
	store := storage.NewMemoryRepository()
	publisher := &fakePublisher{}
	service := NewTransactionService(store, publisher)
	ctx := context.Background()

	created, err := service.CreateTransaction(ctx, validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if created.ID == "" {
		t.Error("CreateTransaction() should assign an ID")
	}

	stored, err := store.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if stored.Description != "Groceries" {
		t.Errorf("Stored description = %q, want Groceries", stored.Description)
	}

	if len(publisher.syncs) != 1 {
		t.Fatalf("Published sync events = %d, want 1", len(publisher.syncs))
	}
	if publisher.syncs[0].id != created.ID || publisher.syncs[0].version != 1 {
		t.Errorf("Sync event = %+v, want {%s 1}", publisher.syncs[0], created.ID)
	}
}

func TestTransactionService_CreateTransaction_KeepsCallerID(t *testing.T) {
	store := storage.NewMemoryRepository()
	service := NewTransactionService(store, &fakePublisher{})

	tx := validTransaction()
	tx.ID = "tx-fixed"

	created, err := service.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if created.ID != "tx-fixed" {
		t.Errorf("CreateTransaction() ID = %s, want tx-fixed", created.ID)
	}
}

func TestTransactionService_CreateTransaction_Invalid(t *testing.T) {
	store := storage.NewMemoryRepository()
	publisher := &fakePublisher{}
	service := NewTransactionService(store, publisher)
	ctx := context.Background()

	tx := validTransaction()
	tx.Description = ""

	if _, err := service.CreateTransaction(ctx, tx); err == nil {
		t.Fatal("CreateTransaction() should reject an empty description")
	}

	list, err := store.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Store should stay empty after a rejected create, got %d rows", len(list))
	}
	if len(publisher.syncs) != 0 {
		t.Errorf("No events should be published for a rejected create, got %d", len(publisher.syncs))
	}
}

func TestTransactionService_CreateTransaction_PublishFailureIsNotFatal(t *testing.T) {
	store := storage.NewMemoryRepository()
	service := NewTransactionService(store, &fakePublisher{failing: true})
	ctx := context.Background()

	created, err := service.CreateTransaction(ctx, validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() should succeed when publish fails, got %v", err)
	}

	if _, err := store.GetTransaction(ctx, created.ID); err != nil {
		t.Errorf("Transaction should be stored despite publish failure: %v", err)
	}
}

func TestTransactionService_CreateTransaction_NilPublisher(t *testing.T) {
	store := storage.NewMemoryRepository()
	service := NewTransactionService(store, nil)

	if _, err := service.CreateTransaction(context.Background(), validTransaction()); err != nil {
		t.Fatalf("CreateTransaction() should succeed without a publisher, got %v", err)
	}
}

func TestTransactionService_UpdateTransaction(t *testing.T) {
	store := storage.NewMemoryRepository()
	publisher := &fakePublisher{}
	service := NewTransactionService(store, publisher)
	ctx := context.Background()

	created, err := service.CreateTransaction(ctx, validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	created.Amount = core.Money{Cents: -5000}
	if _, err := service.UpdateTransaction(ctx, created); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}

	stored, err := store.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if stored.Amount.Cents != -5000 {
		t.Errorf("Stored amount = %d, want -5000", stored.Amount.Cents)
	}

	if len(publisher.syncs) != 2 {
		t.Fatalf("Published sync events = %d, want 2", len(publisher.syncs))
	}
	if publisher.syncs[1].version != 2 {
		t.Errorf("Update event version = %d, want 2", publisher.syncs[1].version)
	}
}

func TestTransactionService_DeleteTransaction(t *testing.T) {
	store := storage.NewMemoryRepository()
	publisher := &fakePublisher{}
	service := NewTransactionService(store, publisher)
	ctx := context.Background()

	created, err := service.CreateTransaction(ctx, validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if err := service.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}

	if _, err := store.GetTransaction(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction() after delete error = %v, want ErrNotFound", err)
	}

	if len(publisher.deletes) != 1 {
		t.Fatalf("Published delete events = %d, want 1", len(publisher.deletes))
	}
	if publisher.deletes[0].id != created.ID || publisher.deletes[0].version != 2 {
		t.Errorf("Delete event = %+v, want {%s 2}", publisher.deletes[0], created.ID)
	}
}

func TestTransactionService_DeleteTransaction_NotFound(t *testing.T) {
	service := NewTransactionService(storage.NewMemoryRepository(), &fakePublisher{})

	err := service.DeleteTransaction(context.Background(), "missing")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTransaction() error = %v, want ErrNotFound", err)
	}
}

func TestTransactionService_ImportTransactions(t *testing.T) {
	store := storage.NewMemoryRepository()
	publisher := &fakePublisher{}
	service := NewTransactionService(store, publisher)
	ctx := context.Background()

	batch := []core.Transaction{validTransaction(), validTransaction(), validTransaction()}

	imported, err := service.ImportTransactions(ctx, batch)
	if err != nil {
		t.Fatalf("ImportTransactions() error = %v", err)
	}
	if len(imported) != 3 {
		t.Errorf("ImportTransactions() imported %d, want 3", len(imported))
	}

	list, err := store.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(list) != 3 {
		t.Errorf("Stored transactions = %d, want 3", len(list))
	}
	if len(publisher.syncs) != 3 {
		t.Errorf("Published sync events = %d, want 3", len(publisher.syncs))
	}
}

func TestTransactionService_ImportTransactions_AllOrNothing(t *testing.T) {
	store := storage.NewMemoryRepository()
	publisher := &fakePublisher{}
	service := NewTransactionService(store, publisher)
	ctx := context.Background()

	bad := validTransaction()
	bad.Category = ""
	batch := []core.Transaction{validTransaction(), bad, validTransaction()}

	if _, err := service.ImportTransactions(ctx, batch); err == nil {
		t.Fatal("ImportTransactions() should reject a batch with an invalid row")
	}

	list, err := store.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Nothing should be stored after a rejected import, got %d rows", len(list))
	}
	if len(publisher.syncs) != 0 {
		t.Errorf("No events should be published for a rejected import, got %d", len(publisher.syncs))
	}
}

func TestTransactionService_Close(t *testing.T) {
	publisher := &fakePublisher{}
	service := NewTransactionService(storage.NewMemoryRepository(), publisher)

	if err := service.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !publisher.closed {
		t.Error("Close() should close the publisher")
	}

	t.Run("nil components", func(t *testing.T) {
		service := &TransactionService{}
		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})
}
