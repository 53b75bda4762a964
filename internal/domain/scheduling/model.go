package scheduling

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusDone      = "done"
)

// statusAliases also accepts the Portuguese labels used by the clinic staff.
var statusAliases = map[string]string{
	StatusPending:   StatusPending,
	StatusConfirmed: StatusConfirmed,
	StatusCancelled: StatusCancelled,
	StatusDone:      StatusDone,
	"canceled":      StatusCancelled,
	"pendente":      StatusPending,
	"agendado":      StatusPending,
	"confirmado":    StatusConfirmed,
	"cancelado":     StatusCancelled,
	"concluido":     StatusDone,
	"concluído":     StatusDone,
	"realizado":     StatusDone,
}

// NormalizeStatus maps s to its canonical status.
func NormalizeStatus(s string) (string, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

// Consultation maps to the consultation table. It belongs to the post of its
// practitioner.
type Consultation struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PractitionerID uuid.UUID `db:"practitioner_id" json:"practitioner_id"`
	Observations   *string   `db:"observations" json:"observations,omitempty"`
	Diagnosis      *string   `db:"diagnosis" json:"diagnosis,omitempty"`
	Symptoms       *string   `db:"symptoms" json:"symptoms,omitempty"`
	ScheduledAt    time.Time `db:"scheduled_at" json:"scheduled_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Appointment maps to the appointment table; each wraps exactly one
// consultation.
type Appointment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	ConsultationID uuid.UUID `db:"consultation_id" json:"consultation_id"`
	Reason         *string   `db:"reason" json:"reason,omitempty"`
	Status         string    `db:"status" json:"status"`
	ScheduledAt    time.Time `db:"scheduled_at" json:"scheduled_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AppointmentDetail pairs an appointment with its consultation.
type AppointmentDetail struct {
	Appointment  *Appointment  `json:"appointment"`
	Consultation *Consultation `json:"consultation"`
}

type CreateAppointmentRequest struct {
	PatientID      uuid.UUID `json:"patient_id" validate:"required"`
	PractitionerID uuid.UUID `json:"practitioner_id" validate:"required"`
	ScheduledAt    time.Time `json:"scheduled_at" validate:"required"`
	Reason         *string   `json:"reason" validate:"omitempty,max=255"`
	Status         *string   `json:"status"`
	Observations   *string   `json:"observations"`
	Diagnosis      *string   `json:"diagnosis"`
	Symptoms       *string   `json:"symptoms"`
}

// AppointmentUpdate carries the fields of a partial update; nil means
// unchanged.
type AppointmentUpdate struct {
	Reason      *string    `json:"reason" validate:"omitempty,max=255"`
	Status      *string    `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (u *AppointmentUpdate) empty() bool {
	return u.Reason == nil && u.Status == nil && u.ScheduledAt == nil
}

// AppointmentFilter narrows an appointment listing. Zero fields are ignored.
type AppointmentFilter struct {
	PatientID      *uuid.UUID
	ConsultationID *uuid.UUID
	Status         string
}

type CreateConsultationRequest struct {
	PractitionerID uuid.UUID `json:"practitioner_id" validate:"required"`
	ScheduledAt    time.Time `json:"scheduled_at" validate:"required"`
	Observations   *string   `json:"observations"`
	Diagnosis      *string   `json:"diagnosis"`
	Symptoms       *string   `json:"symptoms"`
}

type ConsultationUpdate struct {
	PractitionerID *uuid.UUID `json:"practitioner_id"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
	Observations   *string    `json:"observations"`
	Diagnosis      *string    `json:"diagnosis"`
	Symptoms       *string    `json:"symptoms"`
}

func (u *ConsultationUpdate) empty() bool {
	return u.PractitionerID == nil && u.ScheduledAt == nil && u.Observations == nil &&
		u.Diagnosis == nil && u.Symptoms == nil
}
