// Package dbtest opens a migrated PostgreSQL pool for repository tests.
// Tests are skipped unless TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postosaude/clinic/internal/platform/db"
)

// Pool returns a pool on a freshly migrated, emptied database. The pool is
// closed when the test finishes.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, url, 10, 1)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.NewMigrator(pool, db.EmbeddedMigrations()).Up(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE prescription_item, prescription, medication_stock, medication,
		vaccine_administration, vaccine_stock, vaccine, appointment, consultation,
		practitioner, patient, post CASCADE`)
	if err != nil {
		t.Fatalf("truncate test database: %v", err)
	}

	return pool
}

func insert(t *testing.T, pool *pgxpool.Pool, sql string, args ...interface{}) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if _, err := pool.Exec(context.Background(), sql, append([]interface{}{id}, args...)...); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return id
}

// Post seeds a post with the given login.
func Post(t *testing.T, pool *pgxpool.Pool, login string) uuid.UUID {
	t.Helper()
	return insert(t, pool, `INSERT INTO post (id, name, login, password_hash) VALUES ($1, $2, $3, 'x')`, "Posto "+login, login)
}

// Practitioner seeds a practitioner of postID. cpf must be unique per test.
func Practitioner(t *testing.T, pool *pgxpool.Pool, postID uuid.UUID, cpf string) uuid.UUID {
	t.Helper()
	return insert(t, pool, `INSERT INTO practitioner (id, post_id, cpf, name) VALUES ($1, $2, $3, 'Profissional')`, postID, cpf)
}

// Patient seeds a patient. cpf must be unique per test.
func Patient(t *testing.T, pool *pgxpool.Pool, cpf string) uuid.UUID {
	t.Helper()
	return insert(t, pool, `INSERT INTO patient (id, cpf, name) VALUES ($1, $2, 'Paciente Teste')`, cpf)
}

// Vaccine seeds a catalog vaccine.
func Vaccine(t *testing.T, pool *pgxpool.Pool, name string, dosesRequired int) uuid.UUID {
	t.Helper()
	return insert(t, pool, `INSERT INTO vaccine (id, name, doses_required) VALUES ($1, $2, $3)`, name, dosesRequired)
}

// VaccineStock seeds a stock lot. expiresOn may be nil.
func VaccineStock(t *testing.T, pool *pgxpool.Pool, postID, vaccineID uuid.UUID, available int, expiresOn *time.Time) uuid.UUID {
	t.Helper()
	return insert(t, pool, `INSERT INTO vaccine_stock (id, post_id, vaccine_id, available_quantity, expires_on) VALUES ($1, $2, $3, $4, $5)`,
		postID, vaccineID, available, expiresOn)
}

// Medication seeds a catalog medication.
func Medication(t *testing.T, pool *pgxpool.Pool, name string) uuid.UUID {
	t.Helper()
	return insert(t, pool, `INSERT INTO medication (id, name) VALUES ($1, $2)`, name)
}

// Consultation seeds a consultation for practitionerID scheduled now.
func Consultation(t *testing.T, pool *pgxpool.Pool, practitionerID uuid.UUID) uuid.UUID {
	t.Helper()
	return insert(t, pool, `INSERT INTO consultation (id, practitioner_id, scheduled_at) VALUES ($1, $2, NOW())`, practitionerID)
}

// Tx is a db.Transactor that runs fn without a database, for service tests
// on mock repositories. Calls counts the transactions opened.
type Tx struct {
	Calls int
}

func (t *Tx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}
