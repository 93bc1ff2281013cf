package store

import (
	"context"
	"time"

	"github.com/openhealth/openhealth/internal/model"
)

// Store exposes the narrow read/append surface the core needs from the
// metrics log. Implementations live under internal/store/<driver>/.
//
// Appends are whole-record atomic; the store assigns UTC timestamps and a
// monotonic per-table sequence so insertion order is never ambiguous.
// List operations return records ascending by (timestamp, seq).
type Store interface {
	Profiles() Profiles
	Vitals() Vitals
	Symptoms() Symptoms
	Medications() Medications
}

type Profiles interface {
	Create(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error)
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Update(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error)
}

type Vitals interface {
	Append(ctx context.Context, r *model.VitalReading) (*model.VitalReading, error)
	List(ctx context.Context, req model.ListVitalsRequest) ([]*model.VitalReading, error)
}

type Symptoms interface {
	Append(ctx context.Context, e *model.SymptomEntry) (*model.SymptomEntry, error)
	List(ctx context.Context, req model.ListSymptomsRequest) ([]*model.SymptomEntry, error)
}

type Medications interface {
	Create(ctx context.Context, m *model.MedicationEntry) (*model.MedicationEntry, error)
	List(ctx context.Context, userID string) ([]*model.MedicationEntry, error)
	Discontinue(ctx context.Context, userID, medicationID string, end time.Time) (*model.MedicationEntry, error)
}
