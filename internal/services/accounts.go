package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"docverify/internal/apperror"
	"docverify/internal/auth"
	"docverify/internal/models"
	"docverify/internal/store"
)

// Accounts is the credential store adapter: user lookup and creation by
// email, password checks, and token issuance on register/login.
type Accounts struct {
	users  store.Collection[models.User]
	tokens *auth.TokenService
	lg     *zap.SugaredLogger
	now    func() time.Time
}

func NewAccounts(users store.Collection[models.User], tokens *auth.TokenService, lg *zap.SugaredLogger) *Accounts {
	return &Accounts{users: users, tokens: tokens, lg: lg, now: utcNow}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FindByEmail returns store.ErrNotFound wrapped as NotFound when absent.
func (a *Accounts) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := a.users.FindOne(ctx, store.Filter{"email": normalizeEmail(email)})
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Upstream("find user", err)
	}
	return u, nil
}

// Register creates the user and returns its identity with a fresh token.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (models.Identity, string, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" || in.Role == "" {
		return models.Identity{}, "", apperror.InvalidInput("missing required fields")
	}
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return models.Identity{}, "", apperror.InvalidInput("invalid role")
	}

	_, err := a.users.FindOne(ctx, store.Filter{"email": email})
	switch {
	case err == nil:
		return models.Identity{}, "", apperror.Conflict("user already exists")
	case !errors.Is(err, store.ErrNotFound):
		return models.Identity{}, "", apperror.Upstream("find user", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.Identity{}, "", apperror.InvalidInput("password cannot be hashed")
	}
	u := models.User{Email: email, PasswordHash: hash, Name: name, Role: role, CreatedAt: a.now()}
	if err := a.users.Insert(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Identity{}, "", apperror.Conflict("user already exists")
		}
		return models.Identity{}, "", apperror.Upstream("create user", err)
	}
	a.lg.Infow("user registered", "email", email, "role", role)

	id := u.Identity()
	tok, err := a.tokens.Issue(id)
	if err != nil {
		return models.Identity{}, "", apperror.Upstream("issue token", err)
	}
	return id, tok, nil
}

// Login checks the password and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (a *Accounts) Login(ctx context.Context, email, password string) (models.Identity, string, error) {
	u, err := a.users.FindOne(ctx, store.Filter{"email": normalizeEmail(email)})
	if errors.Is(err, store.ErrNotFound) {
		return models.Identity{}, "", apperror.InvalidCredentials()
	}
	if err != nil {
		return models.Identity{}, "", apperror.Upstream("find user", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return models.Identity{}, "", apperror.InvalidCredentials()
	}
	id := u.Identity()
	tok, err := a.tokens.Issue(id)
	if err != nil {
		return models.Identity{}, "", apperror.Upstream("issue token", err)
	}
	return id, tok, nil
}

// SeedAdmin creates an admin account unless one with that email exists.
func (a *Accounts) SeedAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	_, _, err := a.Register(ctx, RegisterInput{Email: email, Password: password, Name: name, Role: string(models.RoleAdmin)})
	if apperror.Is(err, apperror.KindConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	a.lg.Infow("seeded default admin", "email", normalizeEmail(email))
	return nil
}
