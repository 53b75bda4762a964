package medication

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/cache"
	"github.com/postosaude/clinic/internal/platform/db"
)

const catalogKey = "catalog:medications"

// ConsultationLookup reports whether a consultation belongs to a post.
type ConsultationLookup interface {
	ConsultationInPost(ctx context.Context, postID, consultationID uuid.UUID) (bool, error)
}

type Service struct {
	tx            db.Transactor
	medications   MedicationRepository
	stocks        StockRepository
	prescriptions PrescriptionRepository
	consultations ConsultationLookup
	catalog       cache.Cache
	catalogTTL    time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(
	tx db.Transactor,
	medications MedicationRepository,
	stocks StockRepository,
	prescriptions PrescriptionRepository,
	consultations ConsultationLookup,
	catalog cache.Cache,
	catalogTTL time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		tx:            tx,
		medications:   medications,
		stocks:        stocks,
		prescriptions: prescriptions,
		consultations: consultations,
		catalog:       catalog,
		catalogTTL:    catalogTTL,
		logger:        logger,
		now:           time.Now,
	}
}

// -- Medication --

func (s *Service) CreateMedication(ctx context.Context, req *CreateMedicationRequest) (*Medication, error) {
	m := &Medication{Name: strings.TrimSpace(req.Name)}
	if err := s.medications.Create(ctx, m); err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return m, nil
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.medications.GetByID(ctx, id)
}

func (s *Service) UpdateMedication(ctx context.Context, id uuid.UUID, u *MedicationUpdate) (*Medication, error) {
	if u.Name == nil {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	name := strings.TrimSpace(*u.Name)
	u.Name = &name
	m, err := s.medications.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return m, nil
}

func (s *Service) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	if err := s.medications.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

// ListMedications serves the catalog from the cache, filling it on a miss.
func (s *Service) ListMedications(ctx context.Context) ([]*Medication, error) {
	var cached []*Medication
	hit, err := s.catalog.Get(ctx, catalogKey, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", catalogKey).Msg("catalog cache read failed")
	}
	if hit {
		return cached, nil
	}

	meds, err := s.medications.List(ctx)
	if err != nil {
		return nil, err
	}
	if meds == nil {
		meds = []*Medication{}
	}
	if err := s.catalog.Set(ctx, catalogKey, meds, s.catalogTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", catalogKey).Msg("catalog cache write failed")
	}
	return meds, nil
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.catalog.Delete(ctx, catalogKey); err != nil {
		s.logger.Warn().Err(err).Str("key", catalogKey).Msg("catalog cache invalidation failed")
	}
}

// -- Stock --

func (s *Service) CreateStock(ctx context.Context, postID uuid.UUID, req *CreateStockRequest) (*MedicationStock, error) {
	st := &MedicationStock{
		PostID:          postID,
		MedicationID:    req.MedicationID,
		CurrentQuantity: req.CurrentQuantity,
		MinimumQuantity: req.MinimumQuantity,
		ExpiresOn:       req.ExpiresOn,
	}
	if err := s.stocks.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) GetStock(ctx context.Context, postID, id uuid.UUID) (*MedicationStock, error) {
	return s.stocks.GetByID(ctx, postID, id)
}

func (s *Service) UpdateStock(ctx context.Context, postID, id uuid.UUID, u *StockUpdate) (*MedicationStock, error) {
	if u.empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	return s.stocks.Update(ctx, postID, id, u)
}

func (s *Service) DeleteStock(ctx context.Context, postID, id uuid.UUID) error {
	return s.stocks.Delete(ctx, postID, id)
}

func (s *Service) ListStock(ctx context.Context, postID uuid.UUID, f StockFilter, limit, offset int) ([]*MedicationStock, int, error) {
	return s.stocks.List(ctx, postID, f, limit, offset)
}

// -- Prescription --

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// CreatePrescription writes the prescription and its medications in one
// transaction. IssuedAt defaults to now.
func (s *Service) CreatePrescription(ctx context.Context, postID uuid.UUID, req *CreatePrescriptionRequest) (*Prescription, error) {
	p := &Prescription{
		ConsultationID: req.ConsultationID,
		IssuedAt:       s.now(),
		Content:        req.Content,
	}
	if req.IssuedAt != nil {
		p.IssuedAt = *req.IssuedAt
	}

	var out *Prescription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.consultations.ConsultationInPost(ctx, postID, req.ConsultationID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("consultation")
		}
		if err := s.prescriptions.Create(ctx, p); err != nil {
			return err
		}
		if err := s.prescriptions.ReplaceItems(ctx, p.ID, uniqueIDs(req.MedicationIDs)); err != nil {
			return err
		}
		out, err = s.prescriptions.GetByID(ctx, postID, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetPrescription(ctx context.Context, postID, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, postID, id)
}

// UpdatePrescription changes the given fields and, when present, replaces
// the medication set, in one transaction.
func (s *Service) UpdatePrescription(ctx context.Context, postID, id uuid.UUID, u *PrescriptionUpdate) (*Prescription, error) {
	if u.empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}

	var out *Prescription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.prescriptions.GetByID(ctx, postID, id); err != nil {
			return err
		}
		if u.hasFields() {
			if err := s.prescriptions.Update(ctx, postID, id, u); err != nil {
				return err
			}
		}
		if u.MedicationIDs != nil {
			if err := s.prescriptions.ReplaceItems(ctx, id, uniqueIDs(*u.MedicationIDs)); err != nil {
				return err
			}
		}
		var err error
		out, err = s.prescriptions.GetByID(ctx, postID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) DeletePrescription(ctx context.Context, postID, id uuid.UUID) error {
	return s.prescriptions.Delete(ctx, postID, id)
}

func (s *Service) ListPrescriptions(ctx context.Context, postID uuid.UUID, consultationID *uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.List(ctx, postID, consultationID, limit, offset)
}

// PrescriptionMedications returns the catalog entries of a prescription.
func (s *Service) PrescriptionMedications(ctx context.Context, postID, id uuid.UUID) ([]*Medication, error) {
	if _, err := s.prescriptions.GetByID(ctx, postID, id); err != nil {
		return nil, err
	}
	meds, err := s.prescriptions.Medications(ctx, id)
	if err != nil {
		return nil, err
	}
	if meds == nil {
		meds = []*Medication{}
	}
	return meds, nil
}

func (s *Service) AddMedication(ctx context.Context, postID, id, medicationID uuid.UUID) (*Prescription, error) {
	var out *Prescription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.prescriptions.GetByID(ctx, postID, id); err != nil {
			return err
		}
		if err := s.prescriptions.AddItem(ctx, id, medicationID); err != nil {
			return err
		}
		var err error
		out, err = s.prescriptions.GetByID(ctx, postID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) RemoveMedication(ctx context.Context, postID, id, medicationID uuid.UUID) (*Prescription, error) {
	var out *Prescription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.prescriptions.GetByID(ctx, postID, id); err != nil {
			return err
		}
		if err := s.prescriptions.RemoveItem(ctx, id, medicationID); err != nil {
			return err
		}
		var err error
		out, err = s.prescriptions.GetByID(ctx, postID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
