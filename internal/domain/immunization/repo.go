package immunization

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type VaccineRepository interface {
	Create(ctx context.Context, v *Vaccine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Vaccine, error)
	Update(ctx context.Context, id uuid.UUID, u *VaccineUpdate) (*Vaccine, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Vaccine, error)
}

type StockRepository interface {
	Create(ctx context.Context, s *VaccineStock) error
	GetByID(ctx context.Context, postID, id uuid.UUID) (*VaccineStock, error)
	Update(ctx context.Context, postID, id uuid.UUID, u *StockUpdate) (*VaccineStock, error)
	Delete(ctx context.Context, postID, id uuid.UUID) error
	List(ctx context.Context, postID uuid.UUID, f StockFilter, limit, offset int) ([]*VaccineStock, int, error)
	// LockAvailable locks the post's lot of vaccineID that expires first among
	// those with at least one dose still valid on day. It must run inside a
	// transaction.
	LockAvailable(ctx context.Context, postID, vaccineID uuid.UUID, day time.Time) (*VaccineStock, error)
	AdjustAvailable(ctx context.Context, id uuid.UUID, delta int) error
}

type AdministrationRepository interface {
	Create(ctx context.Context, a *Administration) error
	GetByID(ctx context.Context, postID, id uuid.UUID) (*Administration, error)
	Update(ctx context.Context, postID, id uuid.UUID, u *AdministrationUpdate) (*Administration, error)
	// Delete removes the record and returns it as it was.
	Delete(ctx context.Context, postID, id uuid.UUID) (*Administration, error)
	List(ctx context.Context, postID uuid.UUID, f AdministrationFilter, limit, offset int) ([]*Administration, int, error)
}
