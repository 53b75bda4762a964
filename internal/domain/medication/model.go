package medication

import (
	"time"

	"github.com/google/uuid"
)

// Medication is an entry of the catalog shared by every post.
type Medication struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CreateMedicationRequest struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
}

type MedicationUpdate struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=255"`
}

// MedicationStock is a lot of one medication held by a post.
type MedicationStock struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PostID          uuid.UUID  `db:"post_id" json:"post_id"`
	MedicationID    uuid.UUID  `db:"medication_id" json:"medication_id"`
	CurrentQuantity int        `db:"current_quantity" json:"current_quantity"`
	MinimumQuantity int        `db:"minimum_quantity" json:"minimum_quantity"`
	ExpiresOn       *time.Time `db:"expires_on" json:"expires_on,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

func (s *MedicationStock) Low() bool {
	return s.CurrentQuantity <= s.MinimumQuantity
}

type CreateStockRequest struct {
	MedicationID    uuid.UUID  `json:"medication_id" validate:"required"`
	CurrentQuantity int        `json:"current_quantity" validate:"gte=0"`
	MinimumQuantity int        `json:"minimum_quantity" validate:"gte=0"`
	ExpiresOn       *time.Time `json:"expires_on"`
}

type StockUpdate struct {
	CurrentQuantity *int       `json:"current_quantity" validate:"omitempty,gte=0"`
	MinimumQuantity *int       `json:"minimum_quantity" validate:"omitempty,gte=0"`
	ExpiresOn       *time.Time `json:"expires_on"`
}

func (u *StockUpdate) empty() bool {
	return u.CurrentQuantity == nil && u.MinimumQuantity == nil && u.ExpiresOn == nil
}

type StockFilter struct {
	MedicationID *uuid.UUID
	LowOnly      bool
}

// Prescription belongs to a consultation and lists the prescribed
// medications by id.
type Prescription struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	ConsultationID uuid.UUID   `db:"consultation_id" json:"consultation_id"`
	IssuedAt       time.Time   `db:"issued_at" json:"issued_at"`
	Content        *string     `db:"content" json:"content,omitempty"`
	MedicationIDs  []uuid.UUID `json:"medications"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

type CreatePrescriptionRequest struct {
	ConsultationID uuid.UUID   `json:"consultation_id" validate:"required"`
	IssuedAt       *time.Time  `json:"issued_at"`
	Content        *string     `json:"content"`
	MedicationIDs  []uuid.UUID `json:"medications" validate:"dive,required"`
}

// PrescriptionUpdate replaces the medication set when MedicationIDs is
// present, even if it is empty.
type PrescriptionUpdate struct {
	IssuedAt      *time.Time   `json:"issued_at"`
	Content       *string      `json:"content"`
	MedicationIDs *[]uuid.UUID `json:"medications"`
}

func (u *PrescriptionUpdate) empty() bool {
	return u.IssuedAt == nil && u.Content == nil && u.MedicationIDs == nil
}

func (u *PrescriptionUpdate) hasFields() bool {
	return u.IssuedAt != nil || u.Content != nil
}
