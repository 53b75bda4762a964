package medication

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/db"
)

// -- Medication Repository --

type medicationRepoPG struct {
	pool *pgxpool.Pool
}

func NewMedicationRepo(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

func (r *medicationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const medicationCols = `id, name, created_at, updated_at`

func (r *medicationRepoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medication (id, name) VALUES ($1, $2)
		RETURNING created_at, updated_at`,
		m.ID, m.Name,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	return db.Classify(err, "medication")
}

func (r *medicationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	m, err := scanMedication(r.conn(ctx).QueryRow(ctx, `SELECT `+medicationCols+` FROM medication WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err, "medication")
	}
	return m, nil
}

func (r *medicationRepoPG) Update(ctx context.Context, id uuid.UUID, u *MedicationUpdate) (*Medication, error) {
	var patch db.Patch
	if u.Name != nil {
		patch.Set("name", *u.Name)
	}
	if patch.Empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	patch.Where("id = ?", id)

	sql, args := patch.SQL("medication", medicationCols)
	m, err := scanMedication(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "medication")
	}
	return m, nil
}

func (r *medicationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medication WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "medication")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medication")
	}
	return nil
}

func (r *medicationRepoPG) List(ctx context.Context) ([]*Medication, error) {
	return queryMedications(ctx, r.conn(ctx), `SELECT `+medicationCols+` FROM medication ORDER BY name, id`)
}

func queryMedications(ctx context.Context, q db.Querier, sql string, args ...interface{}) ([]*Medication, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.Classify(err, "medication")
	}
	defer rows.Close()

	var out []*Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, db.Classify(err, "medication")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "medication")
	}
	return out, nil
}

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	if err := row.Scan(&m.ID, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// -- Stock Repository --

type stockRepoPG struct {
	pool *pgxpool.Pool
}

func NewStockRepo(pool *pgxpool.Pool) StockRepository {
	return &stockRepoPG{pool: pool}
}

func (r *stockRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const stockCols = `id, post_id, medication_id, current_quantity, minimum_quantity, expires_on, created_at, updated_at`

func (r *stockRepoPG) Create(ctx context.Context, s *MedicationStock) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medication_stock (id, post_id, medication_id, current_quantity, minimum_quantity, expires_on)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		s.ID, s.PostID, s.MedicationID, s.CurrentQuantity, s.MinimumQuantity, s.ExpiresOn,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return db.Classify(err, "medication stock")
}

func (r *stockRepoPG) GetByID(ctx context.Context, postID, id uuid.UUID) (*MedicationStock, error) {
	s, err := scanStock(r.conn(ctx).QueryRow(ctx,
		`SELECT `+stockCols+` FROM medication_stock WHERE post_id = $1 AND id = $2`, postID, id))
	if err != nil {
		return nil, db.Classify(err, "medication stock")
	}
	return s, nil
}

func (r *stockRepoPG) Update(ctx context.Context, postID, id uuid.UUID, u *StockUpdate) (*MedicationStock, error) {
	var patch db.Patch
	if u.CurrentQuantity != nil {
		patch.Set("current_quantity", *u.CurrentQuantity)
	}
	if u.MinimumQuantity != nil {
		patch.Set("minimum_quantity", *u.MinimumQuantity)
	}
	if u.ExpiresOn != nil {
		patch.Set("expires_on", *u.ExpiresOn)
	}
	if patch.Empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	patch.Where("post_id = ?", postID)
	patch.Where("id = ?", id)

	sql, args := patch.SQL("medication_stock", stockCols)
	s, err := scanStock(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "medication stock")
	}
	return s, nil
}

func (r *stockRepoPG) Delete(ctx context.Context, postID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medication_stock WHERE post_id = $1 AND id = $2`, postID, id)
	if err != nil {
		return db.Classify(err, "medication stock")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medication stock")
	}
	return nil
}

func (r *stockRepoPG) List(ctx context.Context, postID uuid.UUID, f StockFilter, limit, offset int) ([]*MedicationStock, int, error) {
	const where = ` WHERE post_id = $1
		AND ($2::uuid IS NULL OR medication_id = $2)
		AND ($3::bool = false OR current_quantity <= minimum_quantity)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medication_stock`+where,
		postID, f.MedicationID, f.LowOnly).Scan(&total); err != nil {
		return nil, 0, db.Classify(err, "medication stock")
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+stockCols+` FROM medication_stock`+where+` ORDER BY expires_on ASC NULLS LAST, id LIMIT $4 OFFSET $5`,
		postID, f.MedicationID, f.LowOnly, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err, "medication stock")
	}
	defer rows.Close()

	var out []*MedicationStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, 0, db.Classify(err, "medication stock")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(err, "medication stock")
	}
	return out, total, nil
}

func scanStock(row pgx.Row) (*MedicationStock, error) {
	var s MedicationStock
	err := row.Scan(
		&s.ID, &s.PostID, &s.MedicationID, &s.CurrentQuantity, &s.MinimumQuantity, &s.ExpiresOn,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// -- Prescription Repository --

type prescriptionRepoPG struct {
	pool *pgxpool.Pool
}

func NewPrescriptionRepo(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const prescriptionCols = `rx.id, rx.consultation_id, rx.issued_at, rx.content, rx.created_at, rx.updated_at,
	ARRAY(SELECT i.medication_id FROM prescription_item i WHERE i.prescription_id = rx.id ORDER BY i.medication_id)`

const prescriptionFrom = `
	FROM prescription rx
	JOIN consultation c ON c.id = rx.consultation_id
	JOIN practitioner p ON p.id = c.practitioner_id`

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescription (id, consultation_id, issued_at, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		p.ID, p.ConsultationID, p.IssuedAt, p.Content,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err, "prescription")
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, postID, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+prescriptionFrom+` WHERE p.post_id = $1 AND rx.id = $2`, postID, id))
	if err != nil {
		return nil, db.Classify(err, "prescription")
	}
	return p, nil
}

func (r *prescriptionRepoPG) Update(ctx context.Context, postID, id uuid.UUID, u *PrescriptionUpdate) error {
	var patch db.Patch
	if u.IssuedAt != nil {
		patch.Set("issued_at", *u.IssuedAt)
	}
	if u.Content != nil {
		patch.Set("content", *u.Content)
	}
	if patch.Empty() {
		return apperr.ErrNoFieldsToUpdate
	}
	patch.Where("id = ?", id)
	patch.Where(`consultation_id IN (SELECT c.id FROM consultation c JOIN practitioner p ON p.id = c.practitioner_id WHERE p.post_id = ?)`, postID)

	sql, args := patch.SQL("prescription", "")
	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return db.Classify(err, "prescription")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prescription")
	}
	return nil
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, postID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM prescription rx USING consultation c, practitioner p
		WHERE c.id = rx.consultation_id AND p.id = c.practitioner_id
		  AND p.post_id = $1 AND rx.id = $2`, postID, id)
	if err != nil {
		return db.Classify(err, "prescription")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prescription")
	}
	return nil
}

// List returns the post's prescriptions, most recently issued first.
func (r *prescriptionRepoPG) List(ctx context.Context, postID uuid.UUID, consultationID *uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	const where = ` WHERE p.post_id = $1 AND ($2::uuid IS NULL OR rx.consultation_id = $2)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+prescriptionFrom+where,
		postID, consultationID).Scan(&total); err != nil {
		return nil, 0, db.Classify(err, "prescription")
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+prescriptionFrom+where+` ORDER BY rx.issued_at DESC, rx.id LIMIT $3 OFFSET $4`,
		postID, consultationID, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err, "prescription")
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, db.Classify(err, "prescription")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(err, "prescription")
	}
	return out, total, nil
}

func (r *prescriptionRepoPG) ReplaceItems(ctx context.Context, id uuid.UUID, medicationIDs []uuid.UUID) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM prescription_item WHERE prescription_id = $1`, id); err != nil {
		return db.Classify(err, "prescription item")
	}
	for _, medID := range medicationIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO prescription_item (prescription_id, medication_id) VALUES ($1, $2)`, id, medID); err != nil {
			return db.Classify(err, "prescription item")
		}
	}
	return r.touch(ctx, id)
}

func (r *prescriptionRepoPG) AddItem(ctx context.Context, id, medicationID uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO prescription_item (prescription_id, medication_id) VALUES ($1, $2)`, id, medicationID); err != nil {
		return db.Classify(err, "prescription item")
	}
	return r.touch(ctx, id)
}

func (r *prescriptionRepoPG) RemoveItem(ctx context.Context, id, medicationID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM prescription_item WHERE prescription_id = $1 AND medication_id = $2`, id, medicationID)
	if err != nil {
		return db.Classify(err, "prescription item")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prescription item")
	}
	return r.touch(ctx, id)
}

func (r *prescriptionRepoPG) touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE prescription SET updated_at = NOW() WHERE id = $1`, id)
	return db.Classify(err, "prescription")
}

func (r *prescriptionRepoPG) Medications(ctx context.Context, id uuid.UUID) ([]*Medication, error) {
	return queryMedications(ctx, r.conn(ctx), `
		SELECT m.id, m.name, m.created_at, m.updated_at
		FROM prescription_item i JOIN medication m ON m.id = i.medication_id
		WHERE i.prescription_id = $1
		ORDER BY m.name, m.id`, id)
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID, &p.ConsultationID, &p.IssuedAt, &p.Content, &p.CreatedAt, &p.UpdatedAt,
		&p.MedicationIDs,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
