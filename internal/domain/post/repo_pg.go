package post

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postosaude/clinic/internal/platform/db"
)

type postRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &postRepoPG{pool: pool}
}

func (r *postRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const postCols = `id, name, login, password_hash, active, phone, address, created_at, updated_at`

func (r *postRepoPG) Create(ctx context.Context, p *Post) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO post (id, name, login, password_hash, active, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Login, p.PasswordHash, p.Active, p.Phone, p.Address,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err, "post")
}

func (r *postRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	p, err := scanPost(r.conn(ctx).QueryRow(ctx, `SELECT `+postCols+` FROM post WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err, "post")
	}
	return p, nil
}

func (r *postRepoPG) GetByLogin(ctx context.Context, login string) (*Post, error) {
	p, err := scanPost(r.conn(ctx).QueryRow(ctx, `SELECT `+postCols+` FROM post WHERE login = $1`, login))
	if err != nil {
		return nil, db.Classify(err, "post")
	}
	return p, nil
}

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.Name, &p.Login, &p.PasswordHash, &p.Active, &p.Phone, &p.Address,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
