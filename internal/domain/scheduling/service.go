package scheduling

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/db"
)

// PractitionerLookup reports whether a practitioner belongs to a post.
type PractitionerLookup interface {
	PractitionerInPost(ctx context.Context, postID, practitionerID uuid.UUID) (bool, error)
}

type Service struct {
	tx            db.Transactor
	consultations ConsultationRepository
	appointments  AppointmentRepository
	practitioners PractitionerLookup
}

func NewService(tx db.Transactor, consultations ConsultationRepository, appointments AppointmentRepository, practitioners PractitionerLookup) *Service {
	return &Service{tx: tx, consultations: consultations, appointments: appointments, practitioners: practitioners}
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

func normalizeStatus(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	st, ok := NormalizeStatus(*s)
	if !ok {
		return nil, apperr.Invalid("status", "must be one of pending, confirmed, cancelled, done")
	}
	return &st, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// -- Appointment --

// CreateAppointment writes the consultation and the appointment that wraps it
// in one transaction.
func (s *Service) CreateAppointment(ctx context.Context, postID uuid.UUID, req *CreateAppointmentRequest) (*AppointmentDetail, error) {
	status := StatusPending
	if req.Status != nil {
		st, err := normalizeStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = *st
	}

	detail := &AppointmentDetail{
		Consultation: &Consultation{
			PractitionerID: req.PractitionerID,
			Observations:   req.Observations,
			Diagnosis:      req.Diagnosis,
			Symptoms:       req.Symptoms,
			ScheduledAt:    req.ScheduledAt,
		},
		Appointment: &Appointment{
			PatientID:   req.PatientID,
			Reason:      trimmed(req.Reason),
			Status:      status,
			ScheduledAt: req.ScheduledAt,
		},
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requirePractitioner(ctx, postID, req.PractitionerID); err != nil {
			return err
		}
		if err := s.consultations.Create(ctx, detail.Consultation); err != nil {
			return err
		}
		detail.Appointment.ConsultationID = detail.Consultation.ID
		return s.appointments.Create(ctx, detail.Appointment)
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Service) GetAppointment(ctx context.Context, postID, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, postID, id)
}

// GetAppointmentDetail returns the appointment together with its consultation.
func (s *Service) GetAppointmentDetail(ctx context.Context, postID, id uuid.UUID) (*AppointmentDetail, error) {
	a, err := s.appointments.GetByID(ctx, postID, id)
	if err != nil {
		return nil, err
	}
	c, err := s.consultations.GetByID(ctx, postID, a.ConsultationID)
	if err != nil {
		return nil, err
	}
	return &AppointmentDetail{Appointment: a, Consultation: c}, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, postID, id uuid.UUID, u *AppointmentUpdate) (*Appointment, error) {
	if u.empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	st, err := normalizeStatus(u.Status)
	if err != nil {
		return nil, err
	}
	u.Status = st
	u.Reason = trimmed(u.Reason)
	return s.appointments.Update(ctx, postID, id, u)
}

// DeleteAppointment removes the appointment and then its consultation.
func (s *Service) DeleteAppointment(ctx context.Context, postID, id uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		consultationID, err := s.appointments.Delete(ctx, postID, id)
		if err != nil {
			return err
		}
		return s.consultations.Delete(ctx, postID, consultationID)
	})
}

func (s *Service) ListAppointments(ctx context.Context, postID uuid.UUID, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" {
		st, ok := NormalizeStatus(f.Status)
		if !ok {
			return nil, 0, apperr.Invalid("status", "must be one of pending, confirmed, cancelled, done")
		}
		f.Status = st
	}
	return s.appointments.List(ctx, postID, f, limit, offset)
}

// -- Consultation --

func (s *Service) CreateConsultation(ctx context.Context, postID uuid.UUID, req *CreateConsultationRequest) (*Consultation, error) {
	c := &Consultation{
		PractitionerID: req.PractitionerID,
		Observations:   req.Observations,
		Diagnosis:      req.Diagnosis,
		Symptoms:       req.Symptoms,
		ScheduledAt:    req.ScheduledAt,
	}
	if err := s.requirePractitioner(ctx, postID, req.PractitionerID); err != nil {
		return nil, err
	}
	if err := s.consultations.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetConsultation(ctx context.Context, postID, id uuid.UUID) (*Consultation, error) {
	return s.consultations.GetByID(ctx, postID, id)
}

func (s *Service) UpdateConsultation(ctx context.Context, postID, id uuid.UUID, u *ConsultationUpdate) (*Consultation, error) {
	if u.empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	if u.PractitionerID != nil {
		if err := s.requirePractitioner(ctx, postID, *u.PractitionerID); err != nil {
			return nil, err
		}
	}
	return s.consultations.Update(ctx, postID, id, u)
}

// DeleteConsultation removes the consultation; its appointment and
// prescriptions cascade.
func (s *Service) DeleteConsultation(ctx context.Context, postID, id uuid.UUID) error {
	return s.consultations.Delete(ctx, postID, id)
}

func (s *Service) ListConsultations(ctx context.Context, postID uuid.UUID, practitionerID *uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return s.consultations.List(ctx, postID, practitionerID, limit, offset)
}

// ConsultationInPost reports whether the consultation exists and belongs to
// the post. It joins the transaction carried by ctx.
func (s *Service) ConsultationInPost(ctx context.Context, postID, consultationID uuid.UUID) (bool, error) {
	_, err := s.consultations.GetByID(ctx, postID, consultationID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
