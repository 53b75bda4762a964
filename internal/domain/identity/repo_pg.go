package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/db"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, cpf, name, phone, address, birth_date, photo_key, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, cpf, name, phone, address, birth_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.CPF, p.Name, p.Phone, p.Address, p.BirthDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err, "patient")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err, "patient")
	}
	return p, nil
}

func (r *patientRepoPG) GetByCPF(ctx context.Context, cpf string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE cpf = $1`, cpf))
	if err != nil {
		return nil, db.Classify(err, "patient")
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, id uuid.UUID, u *PatientUpdate) (*Patient, error) {
	var patch db.Patch
	if u.CPF != nil {
		patch.Set("cpf", *u.CPF)
	}
	if u.Name != nil {
		patch.Set("name", *u.Name)
	}
	if u.Phone != nil {
		patch.Set("phone", *u.Phone)
	}
	if u.Address != nil {
		patch.Set("address", *u.Address)
	}
	if u.BirthDate != nil {
		patch.Set("birth_date", *u.BirthDate)
	}
	if patch.Empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	patch.Where("id = ?", id)

	sql, args := patch.SQL("patient", patientCols)
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "patient")
	}
	return p, nil
}

func (r *patientRepoPG) SetPhoto(ctx context.Context, id uuid.UUID, key *string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE patient SET photo_key = $2, updated_at = NOW() WHERE id = $1`, id, key)
	if err != nil {
		return db.Classify(err, "patient")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "patient")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

// List returns patients ordered by name. A non-empty name filters by a
// case-insensitive substring match.
func (r *patientRepoPG) List(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	const where = ` WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`+where, name).Scan(&total); err != nil {
		return nil, 0, db.Classify(err, "patient")
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient`+where+` ORDER BY name, id LIMIT $2 OFFSET $3`,
		name, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err, "patient")
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, db.Classify(err, "patient")
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(err, "patient")
	}
	return patients, total, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.CPF, &p.Name, &p.Phone, &p.Address, &p.BirthDate, &p.PhotoKey,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.HasPhoto = p.PhotoKey != nil
	return &p, nil
}

// -- Practitioner Repository --

type practRepoPG struct {
	pool *pgxpool.Pool
}

func NewPractitionerRepo(pool *pgxpool.Pool) PractitionerRepository {
	return &practRepoPG{pool: pool}
}

func (r *practRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const practCols = `id, post_id, cpf, name, specialty, kind, created_at, updated_at`

func (r *practRepoPG) Create(ctx context.Context, p *Practitioner) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO practitioner (id, post_id, cpf, name, specialty, kind)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.PostID, p.CPF, p.Name, p.Specialty, p.Kind,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err, "practitioner")
}

func (r *practRepoPG) GetByID(ctx context.Context, postID, id uuid.UUID) (*Practitioner, error) {
	p, err := scanPractitioner(r.conn(ctx).QueryRow(ctx,
		`SELECT `+practCols+` FROM practitioner WHERE id = $1 AND post_id = $2`, id, postID))
	if err != nil {
		return nil, db.Classify(err, "practitioner")
	}
	return p, nil
}

func (r *practRepoPG) GetByCPF(ctx context.Context, postID uuid.UUID, cpf string) (*Practitioner, error) {
	p, err := scanPractitioner(r.conn(ctx).QueryRow(ctx,
		`SELECT `+practCols+` FROM practitioner WHERE cpf = $1 AND post_id = $2`, cpf, postID))
	if err != nil {
		return nil, db.Classify(err, "practitioner")
	}
	return p, nil
}

func (r *practRepoPG) Update(ctx context.Context, postID, id uuid.UUID, u *PractitionerUpdate) (*Practitioner, error) {
	var patch db.Patch
	if u.CPF != nil {
		patch.Set("cpf", *u.CPF)
	}
	if u.Name != nil {
		patch.Set("name", *u.Name)
	}
	if u.Specialty != nil {
		patch.Set("specialty", *u.Specialty)
	}
	if u.Kind != nil {
		patch.Set("kind", *u.Kind)
	}
	if patch.Empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	patch.Where("id = ?", id).Where("post_id = ?", postID)

	sql, args := patch.SQL("practitioner", practCols)
	p, err := scanPractitioner(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "practitioner")
	}
	return p, nil
}

func (r *practRepoPG) Delete(ctx context.Context, postID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM practitioner WHERE id = $1 AND post_id = $2`, id, postID)
	if err != nil {
		return db.Classify(err, "practitioner")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("practitioner")
	}
	return nil
}

func (r *practRepoPG) List(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*Practitioner, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM practitioner WHERE post_id = $1`, postID).Scan(&total); err != nil {
		return nil, 0, db.Classify(err, "practitioner")
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+practCols+` FROM practitioner WHERE post_id = $1 ORDER BY name, id LIMIT $2 OFFSET $3`,
		postID, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err, "practitioner")
	}
	defer rows.Close()

	var out []*Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, 0, db.Classify(err, "practitioner")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(err, "practitioner")
	}
	return out, total, nil
}

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(&p.ID, &p.PostID, &p.CPF, &p.Name, &p.Specialty, &p.Kind, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
