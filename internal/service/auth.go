package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/medorder/internal/events"
	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/Skotchmaster/medorder/internal/repo"
	"github.com/Skotchmaster/medorder/pkg/hash"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/Skotchmaster/medorder/pkg/tokens"
)

type AuthService struct {
	Users     UserStore
	Tokens    TokenStore
	Blacklist Blacklist
	Codec     *tokens.Codec
	Hasher    *hash.Hasher
	Events    Publisher
	// Rotate revokes a refresh token on use and hands out its successor.
	Rotate bool
	Now    func() time.Time
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	ExpiresIn    time.Duration
}

func (s *AuthService) issueRefresh(ctx context.Context, username string) (tokens.Issued, *models.RefreshToken, error) {
	issued, err := s.Codec.Issue(tokens.KindRefresh, username)
	if err != nil {
		return tokens.Issued{}, nil, err
	}
	row := &models.RefreshToken{
		TokenHash: repo.Sha256Hex(issued.Token),
		JTI:       issued.ID,
		Username:  username,
		ExpiresAt: issued.ExpiresAt.UTC(),
	}
	return issued, row, nil
}

// Login collapses unknown email, disabled account and wrong password into ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if user.Disabled {
		l.Warn("login_failed", "status", 401, "reason", "user disabled", "username", user.Username)
		return nil, ErrInvalidCredentials
	}
	if !s.Hasher.Verify(password, user.HashedPassword) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "username", user.Username)
		return nil, ErrInvalidCredentials
	}

	access, err := s.Codec.Issue(tokens.KindAccess, user.Username)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue access token", "error", err)
		return nil, err
	}
	refresh, row, err := s.issueRefresh(ctx, user.Username)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue refresh token", "error", err)
		return nil, err
	}
	if err := s.Tokens.AddRefreshToDB(ctx, row); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}

	publishUser(ctx, s.Events, events.UserLoggedIn, user.Username, nowOr(s.Now), nil)
	l.Info("login_successful", "username", user.Username)

	return &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		AccessExp:    access.ExpiresAt,
		RefreshExp:   refresh.ExpiresAt,
		ExpiresIn:    s.Codec.TTL(tokens.KindAccess),
	}, nil
}

// Refresh exchanges a refresh token owned by caller for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, caller string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh", "username", caller)

	if _, err := s.Codec.Parse(tokens.KindRefresh, refreshToken); err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", err.Error())
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrExpiredToken, err)
	}

	tokenHash := repo.Sha256Hex(refreshToken)
	row, err := s.Tokens.FindRefreshByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "unknown refresh token")
			return nil, ErrInvalidOrExpiredToken
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	now := nowOr(s.Now)
	if row.Revoked || !row.ExpiresAt.After(now) {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token revoked or expired", "jti", row.JTI)
		return nil, ErrInvalidOrExpiredToken
	}
	if row.Username != caller {
		l.Warn("refresh_failed", "status", 403, "reason", "ownership mismatch", "owner", row.Username)
		return nil, ErrTokenOwnershipMismatch
	}

	access, err := s.Codec.Issue(tokens.KindAccess, row.Username)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	pair := &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refreshToken,
		AccessExp:    access.ExpiresAt,
		RefreshExp:   row.ExpiresAt,
		ExpiresIn:    s.Codec.TTL(tokens.KindAccess),
	}
	if !s.Rotate {
		l.Info("refresh_successful", "rotated", false)
		return pair, nil
	}

	next, nextRow, err := s.issueRefresh(ctx, row.Username)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}
	if err := s.Tokens.RotateRefreshToken(ctx, tokenHash, now, nextRow); err != nil {
		if errors.Is(err, repo.ErrRefreshUnavailable) {
			l.Warn("refresh_failed", "status", 401, "reason", "refresh token already used")
			return nil, ErrInvalidOrExpiredToken
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	pair.RefreshToken = next.Token
	pair.RefreshExp = next.ExpiresAt
	l.Info("refresh_successful", "rotated", true)
	return pair, nil
}

// Logout blacklists the access token and revokes every refresh token of its subject.
// An expired access token is still accepted as long as its signature holds.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := s.Codec.Parse(tokens.KindAccess, accessToken)
	if err != nil && !errors.Is(err, tokens.ErrExpired) {
		l.Warn("logout_failed", "status", 400, "reason", err.Error())
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := nowOr(s.Now)
	entry := &models.BlacklistedToken{
		TokenID:   claims.ID,
		Username:  claims.Subject,
		RevokedAt: now,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if err := s.Blacklist.Add(ctx, entry); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot blacklist token", "error", err)
		return err
	}

	revoked, err := s.Tokens.RevokeAllForUser(ctx, claims.Subject, now)
	if err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh tokens", "error", err)
		return err
	}

	publishUser(ctx, s.Events, events.UserLoggedOut, claims.Subject, now, nil)
	l.Info("logout_successful", "username", claims.Subject, "refresh_revoked", revoked)
	return nil
}
