package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/postosaude/clinic/internal/domain/identity"
	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/db/dbtest"
)

func TestPatientRepoPG(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := identity.NewPatientRepo(pool)
	ctx := context.Background()

	p := &identity.Patient{CPF: "12345678901", Name: "Maria Silva"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := repo.Create(ctx, &identity.Patient{CPF: "12345678901", Name: "Outra"})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindConflict || ae.Message != "a patient with this cpf already exists" {
		t.Errorf("expected cpf conflict, got %v", err)
	}

	name := "Maria da Silva"
	updated, err := repo.Update(ctx, p.ID, &identity.PatientUpdate{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || updated.CPF != "12345678901" {
		t.Errorf("unexpected update result %+v", updated)
	}

	if _, err := repo.Update(ctx, uuid.New(), &identity.PatientUpdate{Name: &name}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found on missing update, got %v", err)
	}

	key := "patients/" + p.ID.String()
	if err := repo.SetPhoto(ctx, p.ID, &key); err != nil {
		t.Fatalf("set photo: %v", err)
	}
	got, _ := repo.GetByCPF(ctx, "12345678901")
	if !got.HasPhoto {
		t.Error("expected has_photo after SetPhoto")
	}

	items, total, err := repo.List(ctx, "silva", 10, 0)
	if err != nil || total != 1 || len(items) != 1 {
		t.Errorf("list: %d items, total %d, err %v", len(items), total, err)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestPractitionerRepoPG_TenantScope(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := identity.NewPractitionerRepo(pool)
	ctx := context.Background()
	postA := dbtest.Post(t, pool, "a")
	postB := dbtest.Post(t, pool, "b")

	p := &identity.Practitioner{PostID: postA, CPF: "98765432100", Name: "Dra. Ana"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.GetByID(ctx, postB, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found across posts, got %v", err)
	}
	if err := repo.Delete(ctx, postB, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected foreign delete to be not found, got %v", err)
	}

	_, totalB, _ := repo.List(ctx, postB, 10, 0)
	_, totalA, _ := repo.List(ctx, postA, 10, 0)
	if totalA != 1 || totalB != 0 {
		t.Errorf("expected 1/0 practitioners, got %d/%d", totalA, totalB)
	}

	err := repo.Create(ctx, &identity.Practitioner{PostID: uuid.New(), CPF: "11122233344", Name: "Sem Posto"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected referenced post not found, got %v", err)
	}
}
