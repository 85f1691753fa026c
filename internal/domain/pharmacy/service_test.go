package pharmacy

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockRepo struct {
	pharmacies  map[int64]*Pharmacy
	medications map[string]*Medication
	nextID      int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		pharmacies:  make(map[int64]*Pharmacy),
		medications: make(map[string]*Medication),
	}
}

func (m *mockRepo) Create(_ context.Context, p *Pharmacy) error {
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	m.pharmacies[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Pharmacy, error) {
	p, ok := m.pharmacies[id]
	if !ok {
		return nil, ErrPharmacyNotFound
	}
	return p, nil
}

func (m *mockRepo) List(_ context.Context) ([]*Pharmacy, error) {
	var result []*Pharmacy
	for _, p := range m.pharmacies {
		result = append(result, p)
	}
	return result, nil
}

func (m *mockRepo) CreateMedication(_ context.Context, med *Medication) error {
	if _, ok := m.medications[med.Code]; ok {
		return ErrDuplicateMedication
	}
	med.CreatedAt = time.Now()
	m.medications[med.Code] = med
	return nil
}

func (m *mockRepo) GetMedication(_ context.Context, code string) (*Medication, error) {
	med, ok := m.medications[code]
	if !ok {
		return nil, ErrMedicationNotFound
	}
	return med, nil
}

func (m *mockRepo) ListMedications(_ context.Context) ([]*Medication, error) {
	var result []*Medication
	for _, med := range m.medications {
		result = append(result, med)
	}
	return result, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, zerolog.Nop()), repo
}

// -- Tests --

func TestService_Create(t *testing.T) {
	svc, _ := newTestService()

	p := &Pharmacy{Name: "Farmacia Central", DailyDigitalTurnLimit: 30}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected id to be assigned")
	}
	if p.DailyDigitalTurnLimit != 30 {
		t.Errorf("expected limit 30, got %d", p.DailyDigitalTurnLimit)
	}
}

func TestService_Create_DefaultLimit(t *testing.T) {
	svc, _ := newTestService()

	p := &Pharmacy{Name: "Farmacia Norte"}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DailyDigitalTurnLimit != DefaultDailyTurnLimit {
		t.Errorf("expected default limit %d, got %d", DefaultDailyTurnLimit, p.DailyDigitalTurnLimit)
	}
}

func TestService_Create_RequiresName(t *testing.T) {
	svc, _ := newTestService()

	if err := svc.Create(context.Background(), &Pharmacy{}); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestService_Create_RejectsNegativeLimit(t *testing.T) {
	svc, _ := newTestService()

	p := &Pharmacy{Name: "Farmacia Sur", DailyDigitalTurnLimit: -5}
	if err := svc.Create(context.Background(), p); err == nil {
		t.Error("expected error for negative turn limit")
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), 999)
	if err != ErrPharmacyNotFound {
		t.Errorf("expected ErrPharmacyNotFound, got %v", err)
	}
}

func TestService_CreateMedication(t *testing.T) {
	svc, _ := newTestService()

	m := &Medication{Code: "MED001", Name: "Acetaminofen 500mg"}
	if err := svc.CreateMedication(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetMedication(context.Background(), "MED001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Acetaminofen 500mg" {
		t.Errorf("unexpected name %q", got.Name)
	}
}

func TestService_CreateMedication_Duplicate(t *testing.T) {
	svc, _ := newTestService()

	m := &Medication{Code: "MED001", Name: "Acetaminofen 500mg"}
	if err := svc.CreateMedication(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.CreateMedication(context.Background(), &Medication{Code: "MED001", Name: "Other"})
	if err != ErrDuplicateMedication {
		t.Errorf("expected ErrDuplicateMedication, got %v", err)
	}
}

func TestService_CreateMedication_Validation(t *testing.T) {
	svc, _ := newTestService()

	if err := svc.CreateMedication(context.Background(), &Medication{Name: "no code"}); err == nil {
		t.Error("expected error for missing code")
	}
	if err := svc.CreateMedication(context.Background(), &Medication{Code: "MED002"}); err == nil {
		t.Error("expected error for missing name")
	}
}
