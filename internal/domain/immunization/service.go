package immunization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/cache"
	"github.com/postosaude/clinic/internal/platform/db"
)

const catalogKey = "catalog:vaccines"

// PractitionerLookup reports whether a practitioner belongs to a post.
type PractitionerLookup interface {
	PractitionerInPost(ctx context.Context, postID, practitionerID uuid.UUID) (bool, error)
}

type Service struct {
	tx              db.Transactor
	vaccines        VaccineRepository
	stocks          StockRepository
	administrations AdministrationRepository
	practitioners   PractitionerLookup
	catalog         cache.Cache
	catalogTTL      time.Duration
	logger          zerolog.Logger
}

func NewService(
	tx db.Transactor,
	vaccines VaccineRepository,
	stocks StockRepository,
	administrations AdministrationRepository,
	practitioners PractitionerLookup,
	catalog cache.Cache,
	catalogTTL time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		tx:              tx,
		vaccines:        vaccines,
		stocks:          stocks,
		administrations: administrations,
		practitioners:   practitioners,
		catalog:         catalog,
		catalogTTL:      catalogTTL,
		logger:          logger,
	}
}

func (s *Service) requirePractitioner(ctx context.Context, postID, practitionerID uuid.UUID) error {
	ok, err := s.practitioners.PractitionerInPost(ctx, postID, practitionerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("practitioner")
	}
	return nil
}

// -- Vaccine --

func (s *Service) CreateVaccine(ctx context.Context, req *CreateVaccineRequest) (*Vaccine, error) {
	v := &Vaccine{
		Name:          strings.TrimSpace(req.Name),
		Manufacturer:  req.Manufacturer,
		DosesRequired: 1,
	}
	if req.DosesRequired != nil {
		v.DosesRequired = *req.DosesRequired
	}
	if err := s.vaccines.Create(ctx, v); err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return v, nil
}

func (s *Service) GetVaccine(ctx context.Context, id uuid.UUID) (*Vaccine, error) {
	return s.vaccines.GetByID(ctx, id)
}

func (s *Service) UpdateVaccine(ctx context.Context, id uuid.UUID, u *VaccineUpdate) (*Vaccine, error) {
	if u.empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		u.Name = &name
	}
	v, err := s.vaccines.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return v, nil
}

func (s *Service) DeleteVaccine(ctx context.Context, id uuid.UUID) error {
	if err := s.vaccines.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

// ListVaccines serves the catalog from the cache, filling it on a miss. Cache
// failures fall back to the database.
func (s *Service) ListVaccines(ctx context.Context) ([]*Vaccine, error) {
	var cached []*Vaccine
	hit, err := s.catalog.Get(ctx, catalogKey, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", catalogKey).Msg("catalog cache read failed")
	}
	if hit {
		return cached, nil
	}

	vaccines, err := s.vaccines.List(ctx)
	if err != nil {
		return nil, err
	}
	if vaccines == nil {
		vaccines = []*Vaccine{}
	}
	if err := s.catalog.Set(ctx, catalogKey, vaccines, s.catalogTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", catalogKey).Msg("catalog cache write failed")
	}
	return vaccines, nil
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.catalog.Delete(ctx, catalogKey); err != nil {
		s.logger.Warn().Err(err).Str("key", catalogKey).Msg("catalog cache invalidation failed")
	}
}

// -- Stock --

func (s *Service) CreateStock(ctx context.Context, postID uuid.UUID, req *CreateStockRequest) (*VaccineStock, error) {
	st := &VaccineStock{
		PostID:            postID,
		VaccineID:         req.VaccineID,
		MinimumQuantity:   req.MinimumQuantity,
		AvailableQuantity: req.AvailableQuantity,
		ExpiresOn:         req.ExpiresOn,
	}
	if err := s.stocks.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) GetStock(ctx context.Context, postID, id uuid.UUID) (*VaccineStock, error) {
	return s.stocks.GetByID(ctx, postID, id)
}

func (s *Service) UpdateStock(ctx context.Context, postID, id uuid.UUID, u *StockUpdate) (*VaccineStock, error) {
	if u.empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	return s.stocks.Update(ctx, postID, id, u)
}

func (s *Service) DeleteStock(ctx context.Context, postID, id uuid.UUID) error {
	return s.stocks.Delete(ctx, postID, id)
}

func (s *Service) ListStock(ctx context.Context, postID uuid.UUID, f StockFilter, limit, offset int) ([]*VaccineStock, int, error) {
	return s.stocks.List(ctx, postID, f, limit, offset)
}

// -- Administration --

// RegisterAdministration records a dose and takes it from the post's lot that
// expires first, all in one transaction.
func (s *Service) RegisterAdministration(ctx context.Context, postID uuid.UUID, req *RegisterRequest) (*Administration, error) {
	a := &Administration{
		PatientID:      req.PatientID,
		VaccineID:      req.VaccineID,
		PostID:         postID,
		PractitionerID: req.PractitionerID,
		AdministeredAt: req.AdministeredAt,
		DoseNumber:     req.DoseNumber,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requirePractitioner(ctx, postID, req.PractitionerID); err != nil {
			return err
		}
		v, err := s.vaccines.GetByID(ctx, req.VaccineID)
		if err != nil {
			return err
		}
		if err := checkDose(v, req.DoseNumber); err != nil {
			return err
		}

		lot, err := s.stocks.LockAvailable(ctx, postID, req.VaccineID, req.AdministeredAt)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.BusinessRule("insufficient stock")
		}
		if err != nil {
			return err
		}

		a.StockID = &lot.ID
		if err := s.administrations.Create(ctx, a); err != nil {
			return err
		}
		return s.stocks.AdjustAvailable(ctx, lot.ID, -1)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("administration_id", a.ID.String()).
		Str("stock_id", a.StockID.String()).
		Int("dose_number", a.DoseNumber).
		Msg("vaccine administered")

	return s.administrations.GetByID(ctx, postID, a.ID)
}

func checkDose(v *Vaccine, dose int) error {
	if dose > v.DosesRequired {
		return apperr.BusinessRule(fmt.Sprintf("dose number %d exceeds the %d doses required by %s", dose, v.DosesRequired, v.Name))
	}
	return nil
}

func (s *Service) GetAdministration(ctx context.Context, postID, id uuid.UUID) (*Administration, error) {
	return s.administrations.GetByID(ctx, postID, id)
}

func (s *Service) UpdateAdministration(ctx context.Context, postID, id uuid.UUID, u *AdministrationUpdate) (*Administration, error) {
	if u.empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}

	var out *Administration
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if u.PractitionerID != nil {
			if err := s.requirePractitioner(ctx, postID, *u.PractitionerID); err != nil {
				return err
			}
		}
		if u.DoseNumber != nil {
			current, err := s.administrations.GetByID(ctx, postID, id)
			if err != nil {
				return err
			}
			v, err := s.vaccines.GetByID(ctx, current.VaccineID)
			if err != nil {
				return err
			}
			if err := checkDose(v, *u.DoseNumber); err != nil {
				return err
			}
		}
		var err error
		out, err = s.administrations.Update(ctx, postID, id, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAdministration removes the record and returns its dose to the lot it
// came from.
func (s *Service) DeleteAdministration(ctx context.Context, postID, id uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.administrations.Delete(ctx, postID, id)
		if err != nil {
			return err
		}
		if a.StockID == nil {
			return nil
		}
		return s.stocks.AdjustAvailable(ctx, *a.StockID, 1)
	})
}

func (s *Service) ListAdministrations(ctx context.Context, postID uuid.UUID, f AdministrationFilter, limit, offset int) ([]*Administration, int, error) {
	return s.administrations.List(ctx, postID, f, limit, offset)
}
