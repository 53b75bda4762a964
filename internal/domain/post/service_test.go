package post

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/auth"
	"github.com/postosaude/clinic/internal/platform/validate"
)

// -- Mock Post Repository --

type mockPostRepo struct {
	posts map[uuid.UUID]*Post
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[uuid.UUID]*Post)}
}

func (m *mockPostRepo) Create(_ context.Context, p *Post) error {
	for _, existing := range m.posts {
		if existing.Login == p.Login {
			return apperr.Conflict("login already registered")
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.posts[p.ID] = p
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, apperr.NotFound("post")
	}
	return p, nil
}

func (m *mockPostRepo) GetByLogin(_ context.Context, login string) (*Post, error) {
	for _, p := range m.posts {
		if p.Login == login {
			return p, nil
		}
	}
	return nil, apperr.NotFound("post")
}

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

func newTestTokens() *auth.TokenManager {
	return auth.NewTokenManager([]byte(testSecret), time.Hour, "clinic")
}

func newTestService() (*Service, *mockPostRepo) {
	repo := newMockPostRepo()
	return NewService(repo, newTestTokens()), repo
}

func registerPost(t *testing.T, svc *Service, login string) *Post {
	t.Helper()
	p, err := svc.Register(context.Background(), &RegisterRequest{
		Name:     "Posto Central",
		Login:    login,
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return p
}

func TestService_Register(t *testing.T) {
	svc, _ := newTestService()

	p := registerPost(t, svc, "12345")

	if p.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if !p.Active {
		t.Error("expected new post to be active")
	}
	if p.PasswordHash == "" || p.PasswordHash == "secret123" {
		t.Error("expected password to be hashed")
	}
	ok, err := auth.CheckPassword(p.PasswordHash, "secret123")
	if err != nil || !ok {
		t.Errorf("expected hash to match password, ok=%v err=%v", ok, err)
	}
}

func TestService_Register_TrimsFields(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Register(context.Background(), &RegisterRequest{Name: "  Posto  ", Login: " 777 ", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.Name != "Posto" || p.Login != "777" {
		t.Errorf("expected trimmed fields, got %q / %q", p.Name, p.Login)
	}
}

func TestService_Register_DuplicateLogin(t *testing.T) {
	svc, _ := newTestService()
	registerPost(t, svc, "12345")

	_, err := svc.Register(context.Background(), &RegisterRequest{Name: "Outro", Login: "12345", Password: "secret123"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestService_Register_Validation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"blank name", RegisterRequest{Name: "  ", Login: "1", Password: "secret123"}, "name"},
		{"blank login", RegisterRequest{Name: "Posto", Login: "", Password: "secret123"}, "login"},
		{"short password", RegisterRequest{Name: "Posto", Login: "1", Password: "abc"}, "password"},
		{"long password", RegisterRequest{Name: "Posto", Login: "1", Password: strings.Repeat("a", 73)}, "password"},
		{"long multibyte password", RegisterRequest{Name: "Posto", Login: "1", Password: strings.Repeat("é", 40)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &tt.req)
			ae := apperr.From(err)
			if ae.Kind != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := ae.Fields[tt.field]; !ok {
				t.Errorf("expected field %s in %v", tt.field, ae.Fields)
			}
		})
	}
}

func TestService_Register_LongestPassword(t *testing.T) {
	svc, _ := newTestService()
	password := strings.Repeat("a", 72)

	p, err := svc.Register(context.Background(), &RegisterRequest{Name: "Posto", Login: "1", Password: password})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	ok, err := auth.CheckPassword(p.PasswordHash, password)
	if err != nil || !ok {
		t.Errorf("expected hash to match password, ok=%v err=%v", ok, err)
	}
}

func TestRegisterRequest_PasswordLengthTag(t *testing.T) {
	v := validate.New()

	ok := &RegisterRequest{Name: "Posto", Login: "1", Password: strings.Repeat("a", 72)}
	if err := v.Validate(ok); err != nil {
		t.Errorf("72 character password rejected: %v", err)
	}

	long := &RegisterRequest{Name: "Posto", Login: "1", Password: strings.Repeat("a", 80)}
	err := v.Validate(long)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, found := apperr.From(err).Fields["password"]; !found {
		t.Errorf("expected password field in %v", apperr.From(err).Fields)
	}
}

func TestService_Login(t *testing.T) {
	svc, _ := newTestService()
	p := registerPost(t, svc, "12345")

	resp, err := svc.Login(context.Background(), "12345", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected token")
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Error("expected expiry in the future")
	}

	claims, err := newTestTokens().Verify(resp.Token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	principal, err := claims.Principal()
	if err != nil {
		t.Fatalf("principal: %v", err)
	}
	if principal.PostID != p.ID || principal.Login != "12345" || principal.Name != "Posto Central" {
		t.Errorf("unexpected principal: %+v", principal)
	}
}

func TestService_Login_SameErrorForUnknownLoginAndWrongPassword(t *testing.T) {
	svc, _ := newTestService()
	registerPost(t, svc, "12345")

	_, errWrong := svc.Login(context.Background(), "12345", "wrong-password")
	_, errUnknown := svc.Login(context.Background(), "99999", "secret123")

	for _, err := range []error{errWrong, errUnknown} {
		if !errors.Is(err, apperr.ErrUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Errorf("expected identical messages, got %q and %q", errWrong, errUnknown)
	}
}

func TestService_Login_InactivePost(t *testing.T) {
	svc, repo := newTestService()
	p := registerPost(t, svc, "12345")
	repo.posts[p.ID].Active = false

	_, err := svc.Login(context.Background(), "12345", "secret123")
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestService_Session(t *testing.T) {
	svc, _ := newTestService()
	p := registerPost(t, svc, "12345")

	got, err := svc.Session(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("expected post %s, got %s", p.ID, got.ID)
	}
}

func TestService_Session_UnknownPost(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Session(context.Background(), uuid.New())
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized for a token of a deleted post, got %v", err)
	}
}
