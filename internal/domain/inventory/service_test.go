package inventory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/farmaconnect/farmaconnect/internal/platform/websocket"
)

// -- Mock Repository --

type itemKey struct {
	pharmacyID int64
	code       string
}

type metric struct {
	dispensedCount int
	demandScore    float64
}

type mockRepo struct {
	items   map[itemKey]*Item
	txns    []*Transaction
	metrics map[itemKey]*metric
	nextID  int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		items:   make(map[itemKey]*Item),
		metrics: make(map[itemKey]*metric),
	}
}

func (m *mockRepo) Dispense(_ context.Context, req DispenseRequest) error {
	key := itemKey{req.PharmacyID, req.MedicationCode}
	item, ok := m.items[key]
	if !ok {
		return ErrInventoryNotFound
	}
	if item.CurrentStock < req.Quantity {
		return ErrInsufficientStock
	}

	item.CurrentStock -= req.Quantity
	item.LastUpdated = time.Now()

	m.nextID++
	m.txns = append(m.txns, &Transaction{
		ID:              m.nextID,
		PharmacyID:      req.PharmacyID,
		MedicationCode:  req.MedicationCode,
		TransactionType: TxTypeDispensed,
		Quantity:        req.Quantity,
		BatchNumber:     req.BatchNumber,
		OperatorID:      req.OperatorID,
		CreatedAt:       time.Now(),
	})

	if met, ok := m.metrics[key]; ok {
		met.dispensedCount++
		met.demandScore = math.Min(10.0, met.demandScore+0.1)
	} else {
		m.metrics[key] = &metric{dispensedCount: 1, demandScore: 1.0}
	}
	return nil
}

func (m *mockRepo) Restock(_ context.Context, req DispenseRequest) error {
	key := itemKey{req.PharmacyID, req.MedicationCode}
	item, ok := m.items[key]
	if !ok {
		return ErrInventoryNotFound
	}
	item.CurrentStock += req.Quantity
	m.nextID++
	m.txns = append(m.txns, &Transaction{
		ID:              m.nextID,
		PharmacyID:      req.PharmacyID,
		MedicationCode:  req.MedicationCode,
		TransactionType: TxTypeRestocked,
		Quantity:        req.Quantity,
		CreatedAt:       time.Now(),
	})
	return nil
}

func (m *mockRepo) Adjust(_ context.Context, pharmacyID int64, code string, delta int, operatorID *string) error {
	key := itemKey{pharmacyID, code}
	item, ok := m.items[key]
	if !ok {
		return ErrInventoryNotFound
	}
	if item.CurrentStock+delta < 0 {
		return ErrInsufficientStock
	}
	item.CurrentStock += delta
	m.nextID++
	m.txns = append(m.txns, &Transaction{
		ID:              m.nextID,
		PharmacyID:      pharmacyID,
		MedicationCode:  code,
		TransactionType: TxTypeAdjustment,
		Quantity:        delta,
		OperatorID:      operatorID,
		CreatedAt:       time.Now(),
	})
	return nil
}

func (m *mockRepo) UpsertItem(_ context.Context, item *Item) error {
	key := itemKey{item.PharmacyID, item.MedicationCode}
	if existing, ok := m.items[key]; ok {
		item.ID = existing.ID
	} else {
		m.nextID++
		item.ID = m.nextID
	}
	item.LastUpdated = time.Now()
	m.items[key] = item
	return nil
}

func (m *mockRepo) GetItem(_ context.Context, pharmacyID int64, code string) (*Item, error) {
	item, ok := m.items[itemKey{pharmacyID, code}]
	if !ok {
		return nil, ErrInventoryNotFound
	}
	return item, nil
}

func (m *mockRepo) ListByPharmacy(_ context.Context, pharmacyID int64) ([]*View, error) {
	var views []*View
	for key, item := range m.items {
		if key.pharmacyID != pharmacyID {
			continue
		}
		v := &View{
			MedicationCode: item.MedicationCode,
			CurrentStock:   item.CurrentStock,
			MinThreshold:   item.MinThreshold,
			Status:         StockStatus(item.CurrentStock, item.MinThreshold),
			LastUpdated:    item.LastUpdated,
		}
		if met, ok := m.metrics[key]; ok {
			v.DemandScore = met.demandScore
			v.DispensedToday = met.dispensedCount
		}
		views = append(views, v)
	}
	return views, nil
}

func (m *mockRepo) ListTransactions(_ context.Context, pharmacyID int64, limit, offset int) ([]*Transaction, int, error) {
	var result []*Transaction
	for _, t := range m.txns {
		if t.PharmacyID == pharmacyID {
			result = append(result, t)
		}
	}
	return result, len(result), nil
}

// -- Mock Publisher --

type mockPublisher struct {
	events []websocket.Event
}

func (m *mockPublisher) Publish(_ context.Context, event websocket.Event) error {
	m.events = append(m.events, event)
	return nil
}

func newTestService() (*Service, *mockRepo, *mockPublisher) {
	repo := newMockRepo()
	pub := &mockPublisher{}
	return NewService(repo, pub, zerolog.Nop()), repo, pub
}

func seedItem(repo *mockRepo, pharmacyID int64, code string, stock, threshold int) {
	repo.UpsertItem(context.Background(), &Item{
		PharmacyID:     pharmacyID,
		MedicationCode: code,
		CurrentStock:   stock,
		MinThreshold:   threshold,
	})
}

// -- Tests --

func TestDispense(t *testing.T) {
	svc, repo, pub := newTestService()
	seedItem(repo, 1, "MED001", 20, 5)

	err := svc.Dispense(context.Background(), DispenseRequest{
		PharmacyID: 1, MedicationCode: "MED001", Quantity: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item, _ := repo.GetItem(context.Background(), 1, "MED001")
	if item.CurrentStock != 17 {
		t.Errorf("expected stock 17, got %d", item.CurrentStock)
	}
	if len(repo.txns) != 1 || repo.txns[0].TransactionType != TxTypeDispensed {
		t.Errorf("expected one dispensed ledger row, got %+v", repo.txns)
	}

	if len(pub.events) != 1 || pub.events[0].Type != websocket.EventInventoryUpdated {
		t.Errorf("expected inventory_updated event, got %+v", pub.events)
	}
}

func TestDispense_InsufficientStock(t *testing.T) {
	svc, repo, pub := newTestService()
	seedItem(repo, 1, "MED001", 2, 5)

	err := svc.Dispense(context.Background(), DispenseRequest{
		PharmacyID: 1, MedicationCode: "MED001", Quantity: 3,
	})
	if err != ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// A rejected dispense leaves no trace.
	item, _ := repo.GetItem(context.Background(), 1, "MED001")
	if item.CurrentStock != 2 {
		t.Errorf("stock must be untouched, got %d", item.CurrentStock)
	}
	if len(repo.txns) != 0 {
		t.Errorf("expected no ledger rows, got %d", len(repo.txns))
	}
	if len(repo.metrics) != 0 {
		t.Errorf("expected no demand metric, got %d", len(repo.metrics))
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no events, got %d", len(pub.events))
	}
}

func TestDispense_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.Dispense(context.Background(), DispenseRequest{
		PharmacyID: 1, MedicationCode: "NOPE", Quantity: 1,
	})
	if err != ErrInventoryNotFound {
		t.Errorf("expected ErrInventoryNotFound, got %v", err)
	}
}

func TestDispense_Validation(t *testing.T) {
	svc, repo, _ := newTestService()
	seedItem(repo, 1, "MED001", 20, 5)

	if err := svc.Dispense(context.Background(), DispenseRequest{PharmacyID: 1, MedicationCode: "MED001", Quantity: 0}); err == nil {
		t.Error("expected error for zero quantity")
	}
	if err := svc.Dispense(context.Background(), DispenseRequest{PharmacyID: 1, MedicationCode: "MED001", Quantity: -2}); err == nil {
		t.Error("expected error for negative quantity")
	}
	if err := svc.Dispense(context.Background(), DispenseRequest{PharmacyID: 1, Quantity: 1}); err == nil {
		t.Error("expected error for missing medication code")
	}
}

func TestDispense_DemandScoreProgression(t *testing.T) {
	svc, repo, _ := newTestService()
	seedItem(repo, 1, "MED001", 100, 5)

	dispense := func() {
		if err := svc.Dispense(context.Background(), DispenseRequest{
			PharmacyID: 1, MedicationCode: "MED001", Quantity: 1,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	dispense()
	met := repo.metrics[itemKey{1, "MED001"}]
	if met.demandScore != 1.0 || met.dispensedCount != 1 {
		t.Fatalf("first dispense: expected score 1.0 count 1, got %+v", met)
	}

	dispense()
	if math.Abs(met.demandScore-1.1) > 1e-9 || met.dispensedCount != 2 {
		t.Fatalf("second dispense: expected score 1.1 count 2, got %+v", met)
	}
}

func TestDispense_DemandScoreClamp(t *testing.T) {
	svc, repo, _ := newTestService()
	seedItem(repo, 1, "MED001", 1000, 5)
	repo.metrics[itemKey{1, "MED001"}] = &metric{dispensedCount: 90, demandScore: 10.0}

	if err := svc.Dispense(context.Background(), DispenseRequest{
		PharmacyID: 1, MedicationCode: "MED001", Quantity: 1,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	met := repo.metrics[itemKey{1, "MED001"}]
	if met.demandScore != 10.0 {
		t.Errorf("demand score must clamp at 10.0, got %v", met.demandScore)
	}
	if met.dispensedCount != 91 {
		t.Errorf("dispensed count must keep incrementing, got %d", met.dispensedCount)
	}
}

func TestRestock(t *testing.T) {
	svc, repo, pub := newTestService()
	seedItem(repo, 1, "MED001", 2, 5)

	err := svc.Restock(context.Background(), DispenseRequest{
		PharmacyID: 1, MedicationCode: "MED001", Quantity: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item, _ := repo.GetItem(context.Background(), 1, "MED001")
	if item.CurrentStock != 52 {
		t.Errorf("expected stock 52, got %d", item.CurrentStock)
	}
	if len(repo.metrics) != 0 {
		t.Error("restock must not touch demand metrics")
	}
	if len(pub.events) != 1 {
		t.Errorf("expected inventory_updated event, got %d", len(pub.events))
	}
}

func TestAdjust(t *testing.T) {
	svc, repo, _ := newTestService()
	seedItem(repo, 1, "MED001", 10, 5)

	if err := svc.Adjust(context.Background(), 1, "MED001", -4, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	item, _ := repo.GetItem(context.Background(), 1, "MED001")
	if item.CurrentStock != 6 {
		t.Errorf("expected stock 6, got %d", item.CurrentStock)
	}

	// Adjustment may not take stock below zero.
	if err := svc.Adjust(context.Background(), 1, "MED001", -10, nil); err != ErrInsufficientStock {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}

	if err := svc.Adjust(context.Background(), 1, "MED001", 0, nil); err == nil {
		t.Error("expected error for zero delta")
	}
}

func TestGetInventory_DerivesStatus(t *testing.T) {
	svc, repo, _ := newTestService()
	seedItem(repo, 1, "MED001", 0, 5)
	seedItem(repo, 1, "MED002", 5, 5)
	seedItem(repo, 1, "MED003", 50, 5)

	views, err := svc.GetInventory(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byCode := make(map[string]*View)
	for _, v := range views {
		byCode[v.MedicationCode] = v
	}

	if byCode["MED001"].Status != StatusOutOfStock {
		t.Errorf("MED001: expected out_of_stock, got %s", byCode["MED001"].Status)
	}
	if byCode["MED002"].Status != StatusLowStock {
		t.Errorf("MED002: expected low_stock, got %s", byCode["MED002"].Status)
	}
	if byCode["MED003"].Status != StatusAvailable {
		t.Errorf("MED003: expected available, got %s", byCode["MED003"].Status)
	}
}

func TestUpsertItem_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.UpsertItem(context.Background(), &Item{PharmacyID: 1, MedicationCode: "MED001", CurrentStock: -1})
	if err == nil {
		t.Error("expected error for negative stock")
	}
	err = svc.UpsertItem(context.Background(), &Item{PharmacyID: 1, MedicationCode: "MED001", MinThreshold: -1})
	if err == nil {
		t.Error("expected error for negative threshold")
	}
}
