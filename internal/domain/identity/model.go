package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Patients are shared by every post.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	CPF       string     `db:"cpf" json:"cpf"`
	Name      string     `db:"name" json:"name"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Address   *string    `db:"address" json:"address,omitempty"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	PhotoKey  *string    `db:"photo_key" json:"-"`
	HasPhoto  bool       `db:"-" json:"has_photo"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Practitioner maps to the practitioner table and belongs to one post.
type Practitioner struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PostID    uuid.UUID `db:"post_id" json:"post_id"`
	CPF       string    `db:"cpf" json:"cpf"`
	Name      string    `db:"name" json:"name"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	Kind      *string   `db:"kind" json:"kind,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CreatePatientRequest struct {
	CPF       string     `json:"cpf" validate:"required,min=11,max=20"`
	Name      string     `json:"name" validate:"required,min=3,max=255"`
	Phone     *string    `json:"phone" validate:"omitempty,max=50"`
	Address   *string    `json:"address" validate:"omitempty,max=255"`
	BirthDate *time.Time `json:"birth_date"`
}

// PatientUpdate carries the fields of a partial update; nil means unchanged.
type PatientUpdate struct {
	CPF       *string    `json:"cpf" validate:"omitempty,min=11,max=20"`
	Name      *string    `json:"name" validate:"omitempty,min=3,max=255"`
	Phone     *string    `json:"phone" validate:"omitempty,max=50"`
	Address   *string    `json:"address" validate:"omitempty,max=255"`
	BirthDate *time.Time `json:"birth_date"`
}

func (u *PatientUpdate) empty() bool {
	return u.CPF == nil && u.Name == nil && u.Phone == nil && u.Address == nil && u.BirthDate == nil
}

type CreatePractitionerRequest struct {
	CPF       string  `json:"cpf" validate:"required,min=11,max=20"`
	Name      string  `json:"name" validate:"required,min=1,max=255"`
	Specialty *string `json:"specialty" validate:"omitempty,max=255"`
	Kind      *string `json:"kind" validate:"omitempty,max=50"`
}

type PractitionerUpdate struct {
	CPF       *string `json:"cpf" validate:"omitempty,min=11,max=20"`
	Name      *string `json:"name" validate:"omitempty,min=1,max=255"`
	Specialty *string `json:"specialty" validate:"omitempty,max=255"`
	Kind      *string `json:"kind" validate:"omitempty,max=50"`
}

func (u *PractitionerUpdate) empty() bool {
	return u.CPF == nil && u.Name == nil && u.Specialty == nil && u.Kind == nil
}
