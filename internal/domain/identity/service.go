package identity

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/blobstore"
)

type Service struct {
	patients      PatientRepository
	practitioners PractitionerRepository
	photos        blobstore.Store
	logger        zerolog.Logger
}

func NewService(patients PatientRepository, practitioners PractitionerRepository, photos blobstore.Store, logger zerolog.Logger) *Service {
	return &Service{patients: patients, practitioners: practitioners, photos: photos, logger: logger}
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	p := &Patient{
		CPF:       strings.TrimSpace(req.CPF),
		Name:      strings.TrimSpace(req.Name),
		Phone:     req.Phone,
		Address:   req.Address,
		BirthDate: req.BirthDate,
	}
	if len(p.CPF) < 11 {
		return nil, apperr.Invalid("cpf", "must be at least 11 characters long")
	}
	if len(p.Name) < 3 {
		return nil, apperr.Invalid("name", "must be at least 3 characters long")
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByCPF(ctx context.Context, cpf string) (*Patient, error) {
	return s.patients.GetByCPF(ctx, strings.TrimSpace(cpf))
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, u *PatientUpdate) (*Patient, error) {
	if u.empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	return s.patients.Update(ctx, id, u)
}

// DeletePatient removes the patient and, once the row is gone, its photo.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.patients.Delete(ctx, id); err != nil {
		return err
	}
	if p.PhotoKey != nil {
		if err := s.photos.Delete(ctx, *p.PhotoKey); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
			s.logger.Warn().Err(err).Str("patient_id", id.String()).Msg("orphaned patient photo")
		}
	}
	return nil
}

func (s *Service) ListPatients(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, strings.TrimSpace(name), limit, offset)
}

func photoKey(patientID uuid.UUID) string {
	return "patients/" + patientID.String()
}

// SetPatientPhoto stores content as the patient's photo, replacing any
// previous one.
func (s *Service) SetPatientPhoto(ctx context.Context, id uuid.UUID, contentType string, content io.Reader, size int64) (*Patient, error) {
	if _, err := s.patients.GetByID(ctx, id); err != nil {
		return nil, err
	}

	key := photoKey(id)
	if _, err := s.photos.Put(ctx, key, contentType, content, size); err != nil {
		return nil, photoError(err)
	}
	if err := s.patients.SetPhoto(ctx, id, &key); err != nil {
		return nil, err
	}
	return s.patients.GetByID(ctx, id)
}

// PatientPhoto opens the patient's photo. The caller closes the reader.
func (s *Service) PatientPhoto(ctx context.Context, id uuid.UUID) (io.ReadCloser, *blobstore.Object, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p.PhotoKey == nil {
		return nil, nil, apperr.NotFound("photo")
	}
	rc, obj, err := s.photos.Get(ctx, *p.PhotoKey)
	if err != nil {
		return nil, nil, photoError(err)
	}
	return rc, obj, nil
}

func photoError(err error) error {
	switch {
	case errors.Is(err, blobstore.ErrBlobNotFound):
		return apperr.NotFound("photo")
	case errors.Is(err, blobstore.ErrInvalidContentType):
		return apperr.Invalid("photo", "must be a jpeg, png or webp image")
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return apperr.Invalid("photo", "must be at most 5 MB")
	}
	return apperr.Internal(err)
}

// -- Practitioner --

func (s *Service) CreatePractitioner(ctx context.Context, postID uuid.UUID, req *CreatePractitionerRequest) (*Practitioner, error) {
	p := &Practitioner{
		PostID:    postID,
		CPF:       strings.TrimSpace(req.CPF),
		Name:      strings.TrimSpace(req.Name),
		Specialty: req.Specialty,
		Kind:      req.Kind,
	}
	if len(p.CPF) < 11 {
		return nil, apperr.Invalid("cpf", "must be at least 11 characters long")
	}
	if p.Name == "" {
		return nil, apperr.Invalid("name", "is required")
	}
	if err := s.practitioners.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPractitioner(ctx context.Context, postID, id uuid.UUID) (*Practitioner, error) {
	return s.practitioners.GetByID(ctx, postID, id)
}

func (s *Service) GetPractitionerByCPF(ctx context.Context, postID uuid.UUID, cpf string) (*Practitioner, error) {
	return s.practitioners.GetByCPF(ctx, postID, strings.TrimSpace(cpf))
}

func (s *Service) UpdatePractitioner(ctx context.Context, postID, id uuid.UUID, u *PractitionerUpdate) (*Practitioner, error) {
	if u.empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	return s.practitioners.Update(ctx, postID, id, u)
}

func (s *Service) DeletePractitioner(ctx context.Context, postID, id uuid.UUID) error {
	return s.practitioners.Delete(ctx, postID, id)
}

func (s *Service) ListPractitioners(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*Practitioner, int, error) {
	return s.practitioners.List(ctx, postID, limit, offset)
}

// PractitionerInPost reports whether the practitioner exists and belongs to
// the post. It joins the transaction carried by ctx.
func (s *Service) PractitionerInPost(ctx context.Context, postID, practitionerID uuid.UUID) (bool, error) {
	_, err := s.practitioners.GetByID(ctx, postID, practitionerID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
