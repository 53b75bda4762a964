package scheduling

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/db/dbtest"
)

// -- Mock Practitioner Lookup --

type mockPractitioners map[uuid.UUID]uuid.UUID // practitioner -> post

func (m mockPractitioners) PractitionerInPost(_ context.Context, postID, practitionerID uuid.UUID) (bool, error) {
	p, ok := m[practitionerID]
	return ok && p == postID, nil
}

// -- Mock Consultation Repository --

type mockConsultationRepo struct {
	practitioners mockPractitioners
	consultations map[uuid.UUID]*Consultation
	createErr     error
}

func (m *mockConsultationRepo) owned(postID, id uuid.UUID) (*Consultation, bool) {
	c, ok := m.consultations[id]
	if !ok || m.practitioners[c.PractitionerID] != postID {
		return nil, false
	}
	return c, true
}

func (m *mockConsultationRepo) Create(_ context.Context, c *Consultation) error {
	if m.createErr != nil {
		return m.createErr
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.consultations[c.ID] = c
	return nil
}

func (m *mockConsultationRepo) GetByID(_ context.Context, postID, id uuid.UUID) (*Consultation, error) {
	c, ok := m.owned(postID, id)
	if !ok {
		return nil, apperr.NotFound("consultation")
	}
	return c, nil
}

func (m *mockConsultationRepo) Update(_ context.Context, postID, id uuid.UUID, u *ConsultationUpdate) (*Consultation, error) {
	c, ok := m.owned(postID, id)
	if !ok {
		return nil, apperr.NotFound("consultation")
	}
	if u.PractitionerID != nil {
		c.PractitionerID = *u.PractitionerID
	}
	if u.ScheduledAt != nil {
		c.ScheduledAt = *u.ScheduledAt
	}
	if u.Observations != nil {
		c.Observations = u.Observations
	}
	if u.Diagnosis != nil {
		c.Diagnosis = u.Diagnosis
	}
	if u.Symptoms != nil {
		c.Symptoms = u.Symptoms
	}
	return c, nil
}

func (m *mockConsultationRepo) Delete(_ context.Context, postID, id uuid.UUID) error {
	if _, ok := m.owned(postID, id); !ok {
		return apperr.NotFound("consultation")
	}
	delete(m.consultations, id)
	return nil
}

func (m *mockConsultationRepo) List(_ context.Context, postID uuid.UUID, practitionerID *uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var out []*Consultation
	for _, c := range m.consultations {
		if m.practitioners[c.PractitionerID] != postID {
			continue
		}
		if practitionerID != nil && c.PractitionerID != *practitionerID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	return page(out, limit, offset), len(out), nil
}

// -- Mock Appointment Repository --

type mockAppointmentRepo struct {
	consultations *mockConsultationRepo
	appointments  map[uuid.UUID]*Appointment
	createErr     error
}

func (m *mockAppointmentRepo) owned(postID, id uuid.UUID) (*Appointment, bool) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, false
	}
	if _, ok := m.consultations.owned(postID, a.ConsultationID); !ok {
		return nil, false
	}
	return a, true
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, postID, id uuid.UUID) (*Appointment, error) {
	a, ok := m.owned(postID, id)
	if !ok {
		return nil, apperr.NotFound("appointment")
	}
	return a, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, postID, id uuid.UUID, u *AppointmentUpdate) (*Appointment, error) {
	a, ok := m.owned(postID, id)
	if !ok {
		return nil, apperr.NotFound("appointment")
	}
	if u.Reason != nil {
		a.Reason = u.Reason
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.ScheduledAt != nil {
		a.ScheduledAt = *u.ScheduledAt
	}
	return a, nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, postID, id uuid.UUID) (uuid.UUID, error) {
	a, ok := m.owned(postID, id)
	if !ok {
		return uuid.Nil, apperr.NotFound("appointment")
	}
	delete(m.appointments, id)
	return a.ConsultationID, nil
}

func (m *mockAppointmentRepo) List(_ context.Context, postID uuid.UUID, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for id, a := range m.appointments {
		if _, ok := m.owned(postID, id); !ok {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.ConsultationID != nil && a.ConsultationID != *f.ConsultationID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	return page(out, limit, offset), len(out), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// -- Fixture --

type fixture struct {
	svc            *Service
	tx             *dbtest.Tx
	consultations  *mockConsultationRepo
	appointments   *mockAppointmentRepo
	postID         uuid.UUID
	otherPostID    uuid.UUID
	practitionerID uuid.UUID
	otherPractID   uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		tx:             &dbtest.Tx{},
		postID:         uuid.New(),
		otherPostID:    uuid.New(),
		practitionerID: uuid.New(),
		otherPractID:   uuid.New(),
	}
	practitioners := mockPractitioners{
		f.practitionerID: f.postID,
		f.otherPractID:   f.otherPostID,
	}
	f.consultations = &mockConsultationRepo{practitioners: practitioners, consultations: make(map[uuid.UUID]*Consultation)}
	f.appointments = &mockAppointmentRepo{consultations: f.consultations, appointments: make(map[uuid.UUID]*Appointment)}
	f.svc = NewService(f.tx, f.consultations, f.appointments, practitioners)
	return f
}

func strPtr(s string) *string { return &s }

func (f *fixture) appointment(t *testing.T, at time.Time) *AppointmentDetail {
	t.Helper()
	d, err := f.svc.CreateAppointment(context.Background(), f.postID, &CreateAppointmentRequest{
		PatientID:      uuid.New(),
		PractitionerID: f.practitionerID,
		ScheduledAt:    at,
		Reason:         strPtr("checkup"),
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return d
}

// -- Status --

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"pending", StatusPending, true},
		{"Confirmado", StatusConfirmed, true},
		{" cancelado ", StatusCancelled, true},
		{"canceled", StatusCancelled, true},
		{"realizado", StatusDone, true},
		{"concluído", StatusDone, true},
		{"archived", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// -- Appointment --

func TestCreateAppointment(t *testing.T) {
	f := newFixture()
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	d, err := f.svc.CreateAppointment(context.Background(), f.postID, &CreateAppointmentRequest{
		PatientID:      uuid.New(),
		PractitionerID: f.practitionerID,
		ScheduledAt:    at,
		Reason:         strPtr("  fever "),
		Symptoms:       strPtr("headache"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Appointment.ConsultationID != d.Consultation.ID {
		t.Error("appointment must reference the new consultation")
	}
	if d.Appointment.Status != StatusPending {
		t.Errorf("expected default status pending, got %s", d.Appointment.Status)
	}
	if *d.Appointment.Reason != "fever" {
		t.Errorf("expected trimmed reason, got %q", *d.Appointment.Reason)
	}
	if !d.Consultation.ScheduledAt.Equal(at) || *d.Consultation.Symptoms != "headache" {
		t.Errorf("unexpected consultation %+v", d.Consultation)
	}
	if f.tx.Calls != 1 {
		t.Errorf("expected one transaction, got %d", f.tx.Calls)
	}
}

func TestCreateAppointment_NormalizesStatus(t *testing.T) {
	f := newFixture()
	d, err := f.svc.CreateAppointment(context.Background(), f.postID, &CreateAppointmentRequest{
		PatientID:      uuid.New(),
		PractitionerID: f.practitionerID,
		ScheduledAt:    time.Now(),
		Status:         strPtr("confirmado"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Appointment.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", d.Appointment.Status)
	}
}

func TestCreateAppointment_InvalidStatus(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateAppointment(context.Background(), f.postID, &CreateAppointmentRequest{
		PatientID:      uuid.New(),
		PractitionerID: f.practitionerID,
		ScheduledAt:    time.Now(),
		Status:         strPtr("archived"),
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.consultations.consultations) != 0 {
		t.Error("nothing should be written")
	}
}

func TestCreateAppointment_PractitionerOfOtherPost(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateAppointment(context.Background(), f.postID, &CreateAppointmentRequest{
		PatientID:      uuid.New(),
		PractitionerID: f.otherPractID,
		ScheduledAt:    time.Now(),
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.consultations.consultations) != 0 {
		t.Error("no consultation should be created")
	}
}

func TestCreateAppointment_AppointmentInsertFails(t *testing.T) {
	f := newFixture()
	f.appointments.createErr = apperr.NotFound("referenced patient")

	_, err := f.svc.CreateAppointment(context.Background(), f.postID, &CreateAppointmentRequest{
		PatientID:      uuid.New(),
		PractitionerID: f.practitionerID,
		ScheduledAt:    time.Now(),
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.tx.Calls != 1 {
		t.Errorf("both inserts must run in one transaction, got %d", f.tx.Calls)
	}
}

func TestGetAppointmentDetail(t *testing.T) {
	f := newFixture()
	created := f.appointment(t, time.Now())

	d, err := f.svc.GetAppointmentDetail(context.Background(), f.postID, created.Appointment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Consultation.ID != created.Consultation.ID {
		t.Error("expected the linked consultation")
	}

	if _, err := f.svc.GetAppointmentDetail(context.Background(), f.otherPostID, created.Appointment.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found from another post, got %v", err)
	}
}

func TestUpdateAppointment(t *testing.T) {
	f := newFixture()
	created := f.appointment(t, time.Now())
	later := time.Now().Add(48 * time.Hour)

	a, err := f.svc.UpdateAppointment(context.Background(), f.postID, created.Appointment.ID, &AppointmentUpdate{
		Status:      strPtr("Concluido"),
		ScheduledAt: &later,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusDone || !a.ScheduledAt.Equal(later) {
		t.Errorf("unexpected appointment %+v", a)
	}
	if *a.Reason != "checkup" {
		t.Error("reason must be left untouched")
	}
}

func TestUpdateAppointment_NoFields(t *testing.T) {
	f := newFixture()
	created := f.appointment(t, time.Now())

	_, err := f.svc.UpdateAppointment(context.Background(), f.postID, created.Appointment.ID, &AppointmentUpdate{})
	if !errors.Is(err, apperr.ErrNoFieldsToUpdate) {
		t.Fatalf("expected no fields to update, got %v", err)
	}
}

func TestUpdateAppointment_OtherPost(t *testing.T) {
	f := newFixture()
	created := f.appointment(t, time.Now())

	_, err := f.svc.UpdateAppointment(context.Background(), f.otherPostID, created.Appointment.ID, &AppointmentUpdate{Reason: strPtr("x")})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteAppointment_RemovesConsultation(t *testing.T) {
	f := newFixture()
	created := f.appointment(t, time.Now())

	if err := f.svc.DeleteAppointment(context.Background(), f.postID, created.Appointment.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.appointments.appointments[created.Appointment.ID]; ok {
		t.Error("appointment should be gone")
	}
	if _, ok := f.consultations.consultations[created.Consultation.ID]; ok {
		t.Error("consultation should be gone")
	}
}

func TestDeleteAppointment_NotFound(t *testing.T) {
	f := newFixture()
	created := f.appointment(t, time.Now())

	if err := f.svc.DeleteAppointment(context.Background(), f.otherPostID, created.Appointment.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.svc.DeleteAppointment(context.Background(), f.postID, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.consultations.consultations) != 1 {
		t.Error("consultation must survive a failed delete")
	}
}

func TestListAppointments_Filters(t *testing.T) {
	f := newFixture()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	first := f.appointment(t, base)
	second := f.appointment(t, base.Add(time.Hour))
	f.svc.UpdateAppointment(context.Background(), f.postID, second.Appointment.ID, &AppointmentUpdate{Status: strPtr("cancelled")})

	items, total, err := f.svc.ListAppointments(context.Background(), f.postID, AppointmentFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || items[0].ID != second.Appointment.ID {
		t.Errorf("expected newest first, got total=%d", total)
	}

	items, total, _ = f.svc.ListAppointments(context.Background(), f.postID, AppointmentFilter{Status: "cancelado"}, 20, 0)
	if total != 1 || items[0].ID != second.Appointment.ID {
		t.Errorf("expected the cancelled appointment, got %d", total)
	}

	pid := first.Appointment.PatientID
	items, total, _ = f.svc.ListAppointments(context.Background(), f.postID, AppointmentFilter{PatientID: &pid}, 20, 0)
	if total != 1 || items[0].ID != first.Appointment.ID {
		t.Errorf("expected the patient's appointment, got %d", total)
	}

	_, total, _ = f.svc.ListAppointments(context.Background(), f.otherPostID, AppointmentFilter{}, 20, 0)
	if total != 0 {
		t.Errorf("other post must see nothing, got %d", total)
	}

	if _, _, err := f.svc.ListAppointments(context.Background(), f.postID, AppointmentFilter{Status: "bogus"}, 20, 0); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

// -- Consultation --

func TestCreateConsultation(t *testing.T) {
	f := newFixture()
	c, err := f.svc.CreateConsultation(context.Background(), f.postID, &CreateConsultationRequest{
		PractitionerID: f.practitionerID,
		ScheduledAt:    time.Now(),
		Diagnosis:      strPtr("flu"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == uuid.Nil || *c.Diagnosis != "flu" {
		t.Errorf("unexpected consultation %+v", c)
	}

	_, err = f.svc.CreateConsultation(context.Background(), f.postID, &CreateConsultationRequest{
		PractitionerID: f.otherPractID,
		ScheduledAt:    time.Now(),
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for foreign practitioner, got %v", err)
	}
}

func TestUpdateConsultation_ChecksNewPractitioner(t *testing.T) {
	f := newFixture()
	c, _ := f.svc.CreateConsultation(context.Background(), f.postID, &CreateConsultationRequest{
		PractitionerID: f.practitionerID,
		ScheduledAt:    time.Now(),
	})

	_, err := f.svc.UpdateConsultation(context.Background(), f.postID, c.ID, &ConsultationUpdate{PractitionerID: &f.otherPractID})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	updated, err := f.svc.UpdateConsultation(context.Background(), f.postID, c.ID, &ConsultationUpdate{Observations: strPtr("rest")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *updated.Observations != "rest" {
		t.Errorf("unexpected observations %v", updated.Observations)
	}

	if _, err := f.svc.UpdateConsultation(context.Background(), f.postID, c.ID, &ConsultationUpdate{}); !errors.Is(err, apperr.ErrNoFieldsToUpdate) {
		t.Errorf("expected no fields to update, got %v", err)
	}
}

func TestListConsultations_ByPractitioner(t *testing.T) {
	f := newFixture()
	second := uuid.New()
	f.consultations.practitioners[second] = f.postID

	f.svc.CreateConsultation(context.Background(), f.postID, &CreateConsultationRequest{PractitionerID: f.practitionerID, ScheduledAt: time.Now()})
	f.svc.CreateConsultation(context.Background(), f.postID, &CreateConsultationRequest{PractitionerID: second, ScheduledAt: time.Now()})

	_, total, _ := f.svc.ListConsultations(context.Background(), f.postID, nil, 20, 0)
	if total != 2 {
		t.Errorf("expected 2, got %d", total)
	}
	items, total, _ := f.svc.ListConsultations(context.Background(), f.postID, &second, 20, 0)
	if total != 1 || items[0].PractitionerID != second {
		t.Errorf("expected only the second practitioner's consultation, got %d", total)
	}
}

func TestConsultationInPost(t *testing.T) {
	f := newFixture()
	c, _ := f.svc.CreateConsultation(context.Background(), f.postID, &CreateConsultationRequest{
		PractitionerID: f.practitionerID,
		ScheduledAt:    time.Now(),
	})

	ok, err := f.svc.ConsultationInPost(context.Background(), f.postID, c.ID)
	if err != nil || !ok {
		t.Errorf("expected consultation in post, got %v, %v", ok, err)
	}
	ok, err = f.svc.ConsultationInPost(context.Background(), f.otherPostID, c.ID)
	if err != nil || ok {
		t.Errorf("expected consultation outside post, got %v, %v", ok, err)
	}
}
