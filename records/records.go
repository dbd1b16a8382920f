// Package records serves the criminal records consulted during a session.
package records

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
)

var validate = validator.New()

// Store is where criminal records live
type Store interface {
	All(ctx context.Context) ([]models.CriminalRecord, error)
	Add(ctx context.Context, record models.CriminalRecord) error
	Count(ctx context.Context) (int64, error)
}

// Seed is the demonstration data set loaded into an empty store
func Seed() []models.CriminalRecord {
	return []models.CriminalRecord{
		{Name: "Vikram Singh", Status: models.RecordFlagged, Crime: "Assault (Section 323)", Year: "2021",
			Details: "History of aggressive behavior in court."},
		{Name: "Amit Verma", Status: models.RecordClean, Crime: "None", Year: "N/A",
			Details: "No prior criminal record found."},
		{Name: "Rajesh Kumar", Status: models.RecordFlagged, Crime: "Theft (Section 379)", Year: "2019",
			Details: "Multiple theft cases, currently on bail."},
		{Name: "Priya Sharma", Status: models.RecordClean, Crime: "None", Year: "N/A",
			Details: "No prior criminal record found."},
		{Name: "Suresh Patel", Status: models.RecordFlagged, Crime: "Fraud (Section 420)", Year: "2020",
			Details: "Convicted of financial fraud, served 6 months."},
	}
}

// Memory is an in-process Store
type Memory struct {
	mu      sync.RWMutex
	records []models.CriminalRecord
}

// NewMemory creates a Memory store holding records
func NewMemory(records ...models.CriminalRecord) *Memory {
	return &Memory{records: append([]models.CriminalRecord(nil), records...)}
}

// All implements Store
func (m *Memory) All(context.Context) ([]models.CriminalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.CriminalRecord{}, m.records...), nil
}

// Add implements Store
func (m *Memory) Add(_ context.Context, record models.CriminalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

// Count implements Store
func (m *Memory) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

// Manager answers record lookups over a Store
type Manager struct {
	store Store
}

// NewManager creates a records manager
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// EnsureSeeded loads the demonstration records into an empty store
func (m *Manager) EnsureSeeded(ctx context.Context) error {
	n, err := m.store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, r := range Seed() {
		if err := m.store.Add(ctx, r); err != nil {
			return fmt.Errorf("seed %s: %w", r.Name, err)
		}
	}
	zap.S().Infow("seeded criminal records", "count", len(Seed()))
	return nil
}

// All returns every record
func (m *Manager) All(ctx context.Context) ([]models.CriminalRecord, error) {
	return m.store.All(ctx)
}

// Flagged returns the records with a Flagged status
func (m *Manager) Flagged(ctx context.Context) ([]models.CriminalRecord, error) {
	all, err := m.store.All(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(r models.CriminalRecord, _ int) bool {
		return r.Status == models.RecordFlagged
	}), nil
}

// Search returns the first record whose name contains name, ignoring case
func (m *Manager) Search(ctx context.Context, name string) (models.CriminalRecord, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return models.CriminalRecord{}, fmt.Errorf("%w: name is required", registry.ErrValidation)
	}
	all, err := m.store.All(ctx)
	if err != nil {
		return models.CriminalRecord{}, err
	}
	record, ok := lo.Find(all, func(r models.CriminalRecord) bool {
		return strings.Contains(strings.ToLower(r.Name), needle)
	})
	if !ok {
		return models.CriminalRecord{}, fmt.Errorf("record for %q: %w", name, registry.ErrNotFound)
	}
	return record, nil
}

// Add validates and stores a record
func (m *Manager) Add(ctx context.Context, record models.CriminalRecord) error {
	record.Name = strings.TrimSpace(record.Name)
	if err := validate.Struct(record); err != nil {
		return fmt.Errorf("%w: %v", registry.ErrValidation, err)
	}
	if err := m.store.Add(ctx, record); err != nil {
		return err
	}
	zap.S().Infow("criminal record added", "name", record.Name, "status", record.Status)
	return nil
}

// Format renders one record for the assistant's context
func Format(r models.CriminalRecord) string {
	return fmt.Sprintf("\nCriminal Record:\n- Name: %s\n- Status: %s\n- Crime: %s\n- Year: %s\n- Details: %s\n",
		r.Name, r.Status, r.Crime, r.Year, r.Details)
}

// Text renders the whole database for the assistant's context
func (m *Manager) Text(ctx context.Context) (string, error) {
	all, err := m.store.All(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Criminal Records Database:\n\n")
	for _, r := range all {
		b.WriteString(Format(r))
		b.WriteString("\n")
	}
	return b.String(), nil
}
