package immunization

import (
	"time"

	"github.com/google/uuid"
)

// Vaccine is an entry of the catalog shared by every post.
type Vaccine struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Manufacturer  *string   `db:"manufacturer" json:"manufacturer,omitempty"`
	DosesRequired int       `db:"doses_required" json:"doses_required"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type CreateVaccineRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=255"`
	Manufacturer  *string `json:"manufacturer" validate:"omitempty,max=255"`
	DosesRequired *int    `json:"doses_required" validate:"omitempty,gte=1"`
}

type VaccineUpdate struct {
	Name          *string `json:"name" validate:"omitempty,min=2,max=255"`
	Manufacturer  *string `json:"manufacturer" validate:"omitempty,max=255"`
	DosesRequired *int    `json:"doses_required" validate:"omitempty,gte=1"`
}

func (u *VaccineUpdate) empty() bool {
	return u.Name == nil && u.Manufacturer == nil && u.DosesRequired == nil
}

// VaccineStock is a lot of one vaccine held by a post.
type VaccineStock struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PostID            uuid.UUID  `db:"post_id" json:"post_id"`
	VaccineID         uuid.UUID  `db:"vaccine_id" json:"vaccine_id"`
	MinimumQuantity   int        `db:"minimum_quantity" json:"minimum_quantity"`
	AvailableQuantity int        `db:"available_quantity" json:"available_quantity"`
	ExpiresOn         *time.Time `db:"expires_on" json:"expires_on,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Low reports whether the lot is at or below its minimum.
func (s *VaccineStock) Low() bool {
	return s.AvailableQuantity <= s.MinimumQuantity
}

type CreateStockRequest struct {
	VaccineID         uuid.UUID  `json:"vaccine_id" validate:"required"`
	MinimumQuantity   int        `json:"minimum_quantity" validate:"gte=0"`
	AvailableQuantity int        `json:"available_quantity" validate:"gte=0"`
	ExpiresOn         *time.Time `json:"expires_on"`
}

// StockUpdate changes the quantities or expiry of a lot. The vaccine of a lot
// is fixed.
type StockUpdate struct {
	MinimumQuantity   *int       `json:"minimum_quantity" validate:"omitempty,gte=0"`
	AvailableQuantity *int       `json:"available_quantity" validate:"omitempty,gte=0"`
	ExpiresOn         *time.Time `json:"expires_on"`
}

func (u *StockUpdate) empty() bool {
	return u.MinimumQuantity == nil && u.AvailableQuantity == nil && u.ExpiresOn == nil
}

type StockFilter struct {
	VaccineID *uuid.UUID
	LowOnly   bool
}

// Administration records one dose given at a post. StockID is the lot the
// dose was taken from; it is cleared if the lot is deleted.
type Administration struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	VaccineID      uuid.UUID  `db:"vaccine_id" json:"vaccine_id"`
	PostID         uuid.UUID  `db:"post_id" json:"post_id"`
	PractitionerID uuid.UUID  `db:"practitioner_id" json:"practitioner_id"`
	StockID        *uuid.UUID `db:"stock_id" json:"stock_id,omitempty"`
	AdministeredAt time.Time  `db:"administered_at" json:"administered_at"`
	DoseNumber     int        `db:"dose_number" json:"dose_number"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	PatientID      uuid.UUID `json:"patient_id" validate:"required"`
	VaccineID      uuid.UUID `json:"vaccine_id" validate:"required"`
	PractitionerID uuid.UUID `json:"practitioner_id" validate:"required"`
	AdministeredAt time.Time `json:"administered_at" validate:"required"`
	DoseNumber     int       `json:"dose_number" validate:"required,gte=1"`
}

// AdministrationUpdate leaves vaccine and lot out so stock stays consistent.
type AdministrationUpdate struct {
	PatientID      *uuid.UUID `json:"patient_id"`
	PractitionerID *uuid.UUID `json:"practitioner_id"`
	AdministeredAt *time.Time `json:"administered_at"`
	DoseNumber     *int       `json:"dose_number" validate:"omitempty,gte=1"`
}

func (u *AdministrationUpdate) empty() bool {
	return u.PatientID == nil && u.PractitionerID == nil && u.AdministeredAt == nil && u.DoseNumber == nil
}

type AdministrationFilter struct {
	PatientID      *uuid.UUID
	PractitionerID *uuid.UUID
}
