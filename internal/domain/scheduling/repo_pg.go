package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/db"
)

// postConsultations selects the ids of the consultations owned by a post.
const postConsultations = `SELECT c.id FROM consultation c JOIN practitioner p ON p.id = c.practitioner_id WHERE p.post_id = ?`

// -- Consultation Repository --

type consultationRepoPG struct {
	pool *pgxpool.Pool
}

func NewConsultationRepo(pool *pgxpool.Pool) ConsultationRepository {
	return &consultationRepoPG{pool: pool}
}

func (r *consultationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const consultationCols = `c.id, c.practitioner_id, c.observations, c.diagnosis, c.symptoms, c.scheduled_at, c.created_at, c.updated_at`

func (r *consultationRepoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultation (id, practitioner_id, observations, diagnosis, symptoms, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		c.ID, c.PractitionerID, c.Observations, c.Diagnosis, c.Symptoms, c.ScheduledAt,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return db.Classify(err, "consultation")
}

func (r *consultationRepoPG) GetByID(ctx context.Context, postID, id uuid.UUID) (*Consultation, error) {
	c, err := scanConsultation(r.conn(ctx).QueryRow(ctx, `
		SELECT `+consultationCols+`
		FROM consultation c JOIN practitioner p ON p.id = c.practitioner_id
		WHERE p.post_id = $1 AND c.id = $2`, postID, id))
	if err != nil {
		return nil, db.Classify(err, "consultation")
	}
	return c, nil
}

func (r *consultationRepoPG) Update(ctx context.Context, postID, id uuid.UUID, u *ConsultationUpdate) (*Consultation, error) {
	var patch db.Patch
	if u.PractitionerID != nil {
		patch.Set("practitioner_id", *u.PractitionerID)
	}
	if u.ScheduledAt != nil {
		patch.Set("scheduled_at", *u.ScheduledAt)
	}
	if u.Observations != nil {
		patch.Set("observations", *u.Observations)
	}
	if u.Diagnosis != nil {
		patch.Set("diagnosis", *u.Diagnosis)
	}
	if u.Symptoms != nil {
		patch.Set("symptoms", *u.Symptoms)
	}
	if patch.Empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	patch.Where("c.id = ?", id)
	patch.Where("c.practitioner_id IN (SELECT id FROM practitioner WHERE post_id = ?)", postID)

	sql, args := patch.SQL("consultation c", consultationCols)
	c, err := scanConsultation(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "consultation")
	}
	return c, nil
}

func (r *consultationRepoPG) Delete(ctx context.Context, postID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM consultation c USING practitioner p
		WHERE p.id = c.practitioner_id AND p.post_id = $1 AND c.id = $2`, postID, id)
	if err != nil {
		return db.Classify(err, "consultation")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("consultation")
	}
	return nil
}

// List returns the post's consultations, newest first, optionally narrowed to
// one practitioner.
func (r *consultationRepoPG) List(ctx context.Context, postID uuid.UUID, practitionerID *uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	const from = `
		FROM consultation c JOIN practitioner p ON p.id = c.practitioner_id
		WHERE p.post_id = $1 AND ($2::uuid IS NULL OR c.practitioner_id = $2)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+from, postID, practitionerID).Scan(&total); err != nil {
		return nil, 0, db.Classify(err, "consultation")
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+consultationCols+from+` ORDER BY c.scheduled_at DESC, c.id LIMIT $3 OFFSET $4`,
		postID, practitionerID, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err, "consultation")
	}
	defer rows.Close()

	var out []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, db.Classify(err, "consultation")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(err, "consultation")
	}
	return out, total, nil
}

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(
		&c.ID, &c.PractitionerID, &c.Observations, &c.Diagnosis, &c.Symptoms,
		&c.ScheduledAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// -- Appointment Repository --

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const appointmentCols = `a.id, a.patient_id, a.consultation_id, a.reason, a.status, a.scheduled_at, a.created_at, a.updated_at`

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, consultation_id, reason, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.ConsultationID, a.Reason, a.Status, a.ScheduledAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Classify(err, "appointment")
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, postID, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `
		SELECT `+appointmentCols+`
		FROM appointment a
		JOIN consultation c ON c.id = a.consultation_id
		JOIN practitioner p ON p.id = c.practitioner_id
		WHERE p.post_id = $1 AND a.id = $2`, postID, id))
	if err != nil {
		return nil, db.Classify(err, "appointment")
	}
	return a, nil
}

func (r *appointmentRepoPG) Update(ctx context.Context, postID, id uuid.UUID, u *AppointmentUpdate) (*Appointment, error) {
	var patch db.Patch
	if u.Reason != nil {
		patch.Set("reason", *u.Reason)
	}
	if u.Status != nil {
		patch.Set("status", *u.Status)
	}
	if u.ScheduledAt != nil {
		patch.Set("scheduled_at", *u.ScheduledAt)
	}
	if patch.Empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	patch.Where("a.id = ?", id)
	patch.Where("a.consultation_id IN ("+postConsultations+")", postID)

	sql, args := patch.SQL("appointment a", appointmentCols)
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "appointment")
	}
	return a, nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, postID, id uuid.UUID) (uuid.UUID, error) {
	var consultationID uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `
		DELETE FROM appointment a USING consultation c, practitioner p
		WHERE c.id = a.consultation_id AND p.id = c.practitioner_id
		  AND p.post_id = $1 AND a.id = $2
		RETURNING a.consultation_id`, postID, id,
	).Scan(&consultationID)
	if err != nil {
		return uuid.Nil, db.Classify(err, "appointment")
	}
	return consultationID, nil
}

// List returns the post's appointments, newest first.
func (r *appointmentRepoPG) List(ctx context.Context, postID uuid.UUID, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	const from = `
		FROM appointment a
		JOIN consultation c ON c.id = a.consultation_id
		JOIN practitioner p ON p.id = c.practitioner_id
		WHERE p.post_id = $1
		  AND ($2::uuid IS NULL OR a.patient_id = $2)
		  AND ($3::uuid IS NULL OR a.consultation_id = $3)
		  AND ($4::text = '' OR a.status = $4)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+from,
		postID, f.PatientID, f.ConsultationID, f.Status).Scan(&total); err != nil {
		return nil, 0, db.Classify(err, "appointment")
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+appointmentCols+from+` ORDER BY a.scheduled_at DESC, a.id LIMIT $5 OFFSET $6`,
		postID, f.PatientID, f.ConsultationID, f.Status, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err, "appointment")
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, db.Classify(err, "appointment")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(err, "appointment")
	}
	return out, total, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.ConsultationID, &a.Reason, &a.Status,
		&a.ScheduledAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
