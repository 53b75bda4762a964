package immunization

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/db"
)

// -- Vaccine Repository --

type vaccineRepoPG struct {
	pool *pgxpool.Pool
}

func NewVaccineRepo(pool *pgxpool.Pool) VaccineRepository {
	return &vaccineRepoPG{pool: pool}
}

func (r *vaccineRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const vaccineCols = `id, name, manufacturer, doses_required, created_at, updated_at`

func (r *vaccineRepoPG) Create(ctx context.Context, v *Vaccine) error {
	v.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO vaccine (id, name, manufacturer, doses_required)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		v.ID, v.Name, v.Manufacturer, v.DosesRequired,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	return db.Classify(err, "vaccine")
}

func (r *vaccineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Vaccine, error) {
	v, err := scanVaccine(r.conn(ctx).QueryRow(ctx, `SELECT `+vaccineCols+` FROM vaccine WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err, "vaccine")
	}
	return v, nil
}

func (r *vaccineRepoPG) Update(ctx context.Context, id uuid.UUID, u *VaccineUpdate) (*Vaccine, error) {
	var patch db.Patch
	if u.Name != nil {
		patch.Set("name", *u.Name)
	}
	if u.Manufacturer != nil {
		patch.Set("manufacturer", *u.Manufacturer)
	}
	if u.DosesRequired != nil {
		patch.Set("doses_required", *u.DosesRequired)
	}
	if patch.Empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	patch.Where("id = ?", id)

	sql, args := patch.SQL("vaccine", vaccineCols)
	v, err := scanVaccine(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "vaccine")
	}
	return v, nil
}

func (r *vaccineRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM vaccine WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "vaccine")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("vaccine")
	}
	return nil
}

func (r *vaccineRepoPG) List(ctx context.Context) ([]*Vaccine, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+vaccineCols+` FROM vaccine ORDER BY name, id`)
	if err != nil {
		return nil, db.Classify(err, "vaccine")
	}
	defer rows.Close()

	var out []*Vaccine
	for rows.Next() {
		v, err := scanVaccine(rows)
		if err != nil {
			return nil, db.Classify(err, "vaccine")
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "vaccine")
	}
	return out, nil
}

func scanVaccine(row pgx.Row) (*Vaccine, error) {
	var v Vaccine
	if err := row.Scan(&v.ID, &v.Name, &v.Manufacturer, &v.DosesRequired, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
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

const stockCols = `id, post_id, vaccine_id, minimum_quantity, available_quantity, expires_on, created_at, updated_at`

func (r *stockRepoPG) Create(ctx context.Context, s *VaccineStock) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO vaccine_stock (id, post_id, vaccine_id, minimum_quantity, available_quantity, expires_on)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		s.ID, s.PostID, s.VaccineID, s.MinimumQuantity, s.AvailableQuantity, s.ExpiresOn,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return db.Classify(err, "vaccine stock")
}

func (r *stockRepoPG) GetByID(ctx context.Context, postID, id uuid.UUID) (*VaccineStock, error) {
	s, err := scanStock(r.conn(ctx).QueryRow(ctx,
		`SELECT `+stockCols+` FROM vaccine_stock WHERE post_id = $1 AND id = $2`, postID, id))
	if err != nil {
		return nil, db.Classify(err, "vaccine stock")
	}
	return s, nil
}

func (r *stockRepoPG) Update(ctx context.Context, postID, id uuid.UUID, u *StockUpdate) (*VaccineStock, error) {
	var patch db.Patch
	if u.MinimumQuantity != nil {
		patch.Set("minimum_quantity", *u.MinimumQuantity)
	}
	if u.AvailableQuantity != nil {
		patch.Set("available_quantity", *u.AvailableQuantity)
	}
	if u.ExpiresOn != nil {
		patch.Set("expires_on", *u.ExpiresOn)
	}
	if patch.Empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	patch.Where("post_id = ?", postID)
	patch.Where("id = ?", id)

	sql, args := patch.SQL("vaccine_stock", stockCols)
	s, err := scanStock(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "vaccine stock")
	}
	return s, nil
}

func (r *stockRepoPG) Delete(ctx context.Context, postID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM vaccine_stock WHERE post_id = $1 AND id = $2`, postID, id)
	if err != nil {
		return db.Classify(err, "vaccine stock")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("vaccine stock")
	}
	return nil
}

// List returns the post's lots, those expiring first at the top.
func (r *stockRepoPG) List(ctx context.Context, postID uuid.UUID, f StockFilter, limit, offset int) ([]*VaccineStock, int, error) {
	const where = ` WHERE post_id = $1
		AND ($2::uuid IS NULL OR vaccine_id = $2)
		AND ($3::bool = false OR available_quantity <= minimum_quantity)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM vaccine_stock`+where,
		postID, f.VaccineID, f.LowOnly).Scan(&total); err != nil {
		return nil, 0, db.Classify(err, "vaccine stock")
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+stockCols+` FROM vaccine_stock`+where+` ORDER BY expires_on ASC NULLS LAST, id LIMIT $4 OFFSET $5`,
		postID, f.VaccineID, f.LowOnly, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err, "vaccine stock")
	}
	defer rows.Close()

	var out []*VaccineStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, 0, db.Classify(err, "vaccine stock")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(err, "vaccine stock")
	}
	return out, total, nil
}

func (r *stockRepoPG) LockAvailable(ctx context.Context, postID, vaccineID uuid.UUID, day time.Time) (*VaccineStock, error) {
	s, err := scanStock(r.conn(ctx).QueryRow(ctx, `
		SELECT `+stockCols+` FROM vaccine_stock
		WHERE post_id = $1 AND vaccine_id = $2 AND available_quantity >= 1
		  AND (expires_on IS NULL OR expires_on >= $3::date)
		ORDER BY expires_on ASC NULLS LAST, created_at, id
		LIMIT 1
		FOR UPDATE`, postID, vaccineID, day))
	if err != nil {
		return nil, db.Classify(err, "vaccine stock")
	}
	return s, nil
}

func (r *stockRepoPG) AdjustAvailable(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE vaccine_stock SET available_quantity = available_quantity + $2, updated_at = NOW()
		WHERE id = $1`, id, delta)
	if err != nil {
		return db.Classify(err, "vaccine stock")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("vaccine stock")
	}
	return nil
}

func scanStock(row pgx.Row) (*VaccineStock, error) {
	var s VaccineStock
	err := row.Scan(
		&s.ID, &s.PostID, &s.VaccineID, &s.MinimumQuantity, &s.AvailableQuantity, &s.ExpiresOn,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// -- Administration Repository --

type administrationRepoPG struct {
	pool *pgxpool.Pool
}

func NewAdministrationRepo(pool *pgxpool.Pool) AdministrationRepository {
	return &administrationRepoPG{pool: pool}
}

func (r *administrationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const administrationCols = `id, patient_id, vaccine_id, post_id, practitioner_id, stock_id, administered_at, dose_number, created_at, updated_at`

func (r *administrationRepoPG) Create(ctx context.Context, a *Administration) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO vaccine_administration (id, patient_id, vaccine_id, post_id, practitioner_id, stock_id, administered_at, dose_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.VaccineID, a.PostID, a.PractitionerID, a.StockID, a.AdministeredAt, a.DoseNumber,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Classify(err, "vaccine administration")
}

func (r *administrationRepoPG) GetByID(ctx context.Context, postID, id uuid.UUID) (*Administration, error) {
	a, err := scanAdministration(r.conn(ctx).QueryRow(ctx,
		`SELECT `+administrationCols+` FROM vaccine_administration WHERE post_id = $1 AND id = $2`, postID, id))
	if err != nil {
		return nil, db.Classify(err, "vaccine administration")
	}
	return a, nil
}

func (r *administrationRepoPG) Update(ctx context.Context, postID, id uuid.UUID, u *AdministrationUpdate) (*Administration, error) {
	var patch db.Patch
	if u.PatientID != nil {
		patch.Set("patient_id", *u.PatientID)
	}
	if u.PractitionerID != nil {
		patch.Set("practitioner_id", *u.PractitionerID)
	}
	if u.AdministeredAt != nil {
		patch.Set("administered_at", *u.AdministeredAt)
	}
	if u.DoseNumber != nil {
		patch.Set("dose_number", *u.DoseNumber)
	}
	if patch.Empty() {
		return nil, apperr.ErrNoFieldsToUpdate
	}
	patch.Where("post_id = ?", postID)
	patch.Where("id = ?", id)

	sql, args := patch.SQL("vaccine_administration", administrationCols)
	a, err := scanAdministration(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "vaccine administration")
	}
	return a, nil
}

func (r *administrationRepoPG) Delete(ctx context.Context, postID, id uuid.UUID) (*Administration, error) {
	a, err := scanAdministration(r.conn(ctx).QueryRow(ctx,
		`DELETE FROM vaccine_administration WHERE post_id = $1 AND id = $2 RETURNING `+administrationCols, postID, id))
	if err != nil {
		return nil, db.Classify(err, "vaccine administration")
	}
	return a, nil
}

// List returns the post's administrations, most recent first.
func (r *administrationRepoPG) List(ctx context.Context, postID uuid.UUID, f AdministrationFilter, limit, offset int) ([]*Administration, int, error) {
	const where = ` WHERE post_id = $1
		AND ($2::uuid IS NULL OR patient_id = $2)
		AND ($3::uuid IS NULL OR practitioner_id = $3)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM vaccine_administration`+where,
		postID, f.PatientID, f.PractitionerID).Scan(&total); err != nil {
		return nil, 0, db.Classify(err, "vaccine administration")
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+administrationCols+` FROM vaccine_administration`+where+` ORDER BY administered_at DESC, id LIMIT $4 OFFSET $5`,
		postID, f.PatientID, f.PractitionerID, limit, offset)
	if err != nil {
		return nil, 0, db.Classify(err, "vaccine administration")
	}
	defer rows.Close()

	var out []*Administration
	for rows.Next() {
		a, err := scanAdministration(rows)
		if err != nil {
			return nil, 0, db.Classify(err, "vaccine administration")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(err, "vaccine administration")
	}
	return out, total, nil
}

func scanAdministration(row pgx.Row) (*Administration, error) {
	var a Administration
	err := row.Scan(
		&a.ID, &a.PatientID, &a.VaccineID, &a.PostID, &a.PractitionerID, &a.StockID,
		&a.AdministeredAt, &a.DoseNumber, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
