package medication

import (
	"context"

	"github.com/google/uuid"
)

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, id uuid.UUID, u *MedicationUpdate) (*Medication, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Medication, error)
}

type StockRepository interface {
	Create(ctx context.Context, s *MedicationStock) error
	GetByID(ctx context.Context, postID, id uuid.UUID) (*MedicationStock, error)
	Update(ctx context.Context, postID, id uuid.UUID, u *StockUpdate) (*MedicationStock, error)
	Delete(ctx context.Context, postID, id uuid.UUID) error
	List(ctx context.Context, postID uuid.UUID, f StockFilter, limit, offset int) ([]*MedicationStock, int, error)
}

// PrescriptionRepository scopes prescriptions to a post through the
// consultation's practitioner. The item methods act on a prescription whose
// ownership the caller has already checked.
type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, postID, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, postID, id uuid.UUID, u *PrescriptionUpdate) error
	Delete(ctx context.Context, postID, id uuid.UUID) error
	List(ctx context.Context, postID uuid.UUID, consultationID *uuid.UUID, limit, offset int) ([]*Prescription, int, error)

	ReplaceItems(ctx context.Context, id uuid.UUID, medicationIDs []uuid.UUID) error
	AddItem(ctx context.Context, id, medicationID uuid.UUID) error
	RemoveItem(ctx context.Context, id, medicationID uuid.UUID) error
	Medications(ctx context.Context, id uuid.UUID) ([]*Medication, error)
}
