package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"docverify/internal/apperror"
	"docverify/internal/models"
)

// Gate turns the session token in a request context into an actor and
// enforces role requirements. Services call exactly one of CurrentActor,
// RequireAuthenticated or RequireRole before doing anything.
type Gate struct {
	tokens *TokenService
	lg     *zap.SugaredLogger
}

func NewGate(tokens *TokenService, lg *zap.SugaredLogger) *Gate {
	return &Gate{tokens: tokens, lg: lg}
}

func (g *Gate) resolve(ctx context.Context) (*models.Identity, error) {
	raw := TokenFromContext(ctx)
	if raw == "" {
		return nil, nil
	}
	id, err := g.tokens.Validate(raw)
	switch {
	case errors.Is(err, ErrInvalidToken):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &id, nil
}

// CurrentActor returns nil when there is no valid token. It never fails.
func (g *Gate) CurrentActor(ctx context.Context) *models.Identity {
	id, err := g.resolve(ctx)
	if err != nil {
		g.lg.Errorw("token validation unavailable", "error", err)
		return nil
	}
	return id
}

func (g *Gate) RequireAuthenticated(ctx context.Context) (models.Identity, error) {
	id, err := g.resolve(ctx)
	if err != nil {
		return models.Identity{}, apperror.Upstream("token validation", err)
	}
	if id == nil {
		return models.Identity{}, apperror.Unauthenticated("authentication required")
	}
	return *id, nil
}

func (g *Gate) RequireRole(ctx context.Context, role models.Role) (models.Identity, error) {
	id, err := g.RequireAuthenticated(ctx)
	if err != nil {
		return models.Identity{}, err
	}
	if id.Role != role {
		return models.Identity{}, apperror.Forbidden(string(role) + " access required")
	}
	return id, nil
}
