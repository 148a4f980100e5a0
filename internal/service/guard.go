package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/medorder/internal/repo"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/Skotchmaster/medorder/pkg/tokens"
	"github.com/google/uuid"
)

type UserContext struct {
	UserID      uuid.UUID
	Username    string
	Role        string
	Permissions []string
	TokenID     string
}

type Guard struct {
	Codec     *tokens.Codec
	Users     UserStore
	Blacklist Blacklist
}

// Authenticate resolves a bearer token to its user. Every rejection is ErrUnauthorized;
// the concrete reason only goes to the log.
func (g *Guard) Authenticate(ctx context.Context, bearer string) (*UserContext, error) {
	l := logging.FromContext(ctx).With("svc", "auth.guard")

	claims, err := g.Codec.Parse(tokens.KindAccess, bearer)
	if err != nil {
		l.Warn("authenticate_failed", "status", 401, "reason", err.Error())
		return nil, ErrUnauthorized
	}

	revoked, err := g.Blacklist.Contains(ctx, claims.ID)
	if err != nil {
		l.Error("authenticate_failed", "status", 500, "reason", "blacklist lookup", "error", err)
		return nil, err
	}
	if revoked {
		l.Warn("authenticate_failed", "status", 401, "reason", "token revoked", "jti", claims.ID)
		return nil, ErrUnauthorized
	}

	user, err := g.Users.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("authenticate_failed", "status", 401, "reason", "unknown user", "username", claims.Subject)
			return nil, ErrUnauthorized
		}
		l.Error("authenticate_failed", "status", 500, "error", err)
		return nil, err
	}
	if user.Disabled {
		l.Warn("authenticate_failed", "status", 401, "reason", "user disabled", "username", user.Username)
		return nil, ErrUnauthorized
	}

	return &UserContext{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		Permissions: []string(user.Permissions),
		TokenID:     claims.ID,
	}, nil
}

// RequireRole is an exact match on the role tag.
func RequireRole(uc *UserContext, roles ...string) error {
	if uc == nil {
		return ErrUnauthorized
	}
	for _, r := range roles {
		if uc.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
