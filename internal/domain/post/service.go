package post

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/auth"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

var errInvalidCredentials = apperr.Unauthorized("invalid login or password")

type Service struct {
	posts  Repository
	tokens auth.TokenIssuer
}

func NewService(posts Repository, tokens auth.TokenIssuer) *Service {
	return &Service{posts: posts, tokens: tokens}
}

// Register creates an active post with a hashed password.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*Post, error) {
	name := strings.TrimSpace(req.Name)
	login := strings.TrimSpace(req.Login)
	if name == "" {
		return nil, apperr.Invalid("name", "is required")
	}
	if login == "" {
		return nil, apperr.Invalid("login", "is required")
	}
	if len(req.Password) < 6 {
		return nil, apperr.Invalid("password", "must be at least 6 characters long")
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, apperr.Invalid("password", "must be at most 72 bytes long")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	p := &Post{
		Name:         name,
		Login:        login,
		PasswordHash: hash,
		Active:       true,
		Phone:        req.Phone,
		Address:      req.Address,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Login checks the credentials and issues a token. Unknown logins and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, login, password string) (*LoginResponse, error) {
	p, err := s.posts.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.CheckPassword(p.PasswordHash, password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, errInvalidCredentials
	}
	if !p.Active {
		return nil, apperr.Forbidden("post is inactive")
	}

	token, expiresAt, err := s.tokens.Issue(auth.Principal{PostID: p.ID, Login: p.Login, Name: p.Name})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, Post: p}, nil
}

// Session returns the post the caller's token was issued for.
func (s *Service) Session(ctx context.Context, postID uuid.UUID) (*Post, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized(auth.ErrInvalidToken.Error())
		}
		return nil, err
	}
	if !p.Active {
		return nil, apperr.Forbidden("post is inactive")
	}
	return p, nil
}
