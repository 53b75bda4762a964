package scheduling

import (
	"context"

	"github.com/google/uuid"
)

// Repositories scope every read and write to a post through the
// consultation's practitioner; rows of other posts behave as missing.

type ConsultationRepository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, postID, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, postID, id uuid.UUID, u *ConsultationUpdate) (*Consultation, error)
	Delete(ctx context.Context, postID, id uuid.UUID) error
	List(ctx context.Context, postID uuid.UUID, practitionerID *uuid.UUID, limit, offset int) ([]*Consultation, int, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, postID, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, postID, id uuid.UUID, u *AppointmentUpdate) (*Appointment, error)
	// Delete removes the appointment and returns the id of its consultation.
	Delete(ctx context.Context, postID, id uuid.UUID) (uuid.UUID, error)
	List(ctx context.Context, postID uuid.UUID, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error)
}
