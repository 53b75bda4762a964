package identity

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByCPF(ctx context.Context, cpf string) (*Patient, error)
	Update(ctx context.Context, id uuid.UUID, u *PatientUpdate) (*Patient, error)
	SetPhoto(ctx context.Context, id uuid.UUID, key *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error)
}

// PractitionerRepository methods are scoped to a post; rows of other posts
// behave as missing.
type PractitionerRepository interface {
	Create(ctx context.Context, p *Practitioner) error
	GetByID(ctx context.Context, postID, id uuid.UUID) (*Practitioner, error)
	GetByCPF(ctx context.Context, postID uuid.UUID, cpf string) (*Practitioner, error)
	Update(ctx context.Context, postID, id uuid.UUID, u *PractitionerUpdate) (*Practitioner, error)
	Delete(ctx context.Context, postID, id uuid.UUID) error
	List(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*Practitioner, int, error)
}
