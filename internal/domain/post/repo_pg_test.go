package post_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/postosaude/clinic/internal/domain/post"
	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/db/dbtest"
)

func TestPostRepoPG(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := post.NewRepo(pool)
	ctx := context.Background()

	p := &post.Post{Name: "Posto Norte", Login: "norte", PasswordHash: "x", Active: true}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected created_at to be returned")
	}

	got, err := repo.GetByLogin(ctx, "norte")
	if err != nil {
		t.Fatalf("get by login: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("expected %s, got %s", p.ID, got.ID)
	}

	err = repo.Create(ctx, &post.Post{Name: "Dup", Login: "norte", PasswordHash: "x", Active: true})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict on duplicate login, got %v", err)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
