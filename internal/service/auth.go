package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Strob0t/rentalmanager/internal/config"
	"github.com/Strob0t/rentalmanager/internal/domain"
	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/port/backend"
	"github.com/Strob0t/rentalmanager/internal/port/database"
)

const (
	tokenIssuer   = "rentalmanager"
	tokenAudience = "rental-manager"
)

// errInvalidCredentials is deliberately the same for unknown email and wrong password.
var errInvalidCredentials = fmt.Errorf("%w: invalid login credentials", domain.ErrUnauthenticated)

// authStore is the slice of the database the auth service needs.
type authStore interface {
	database.UserStore
	database.TokenStore
}

// Claims are the JWT claims of an access token. Subject is the user ID and
// ID is the token's JTI used for revocation.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AuthService handles accounts, sessions and tokens. It implements backend.Auth.
type AuthService struct {
	store authStore
	cfg   *config.Auth

	secretMu sync.RWMutex
	secret   []byte

	listenerMu sync.Mutex
	listeners  map[uint64]backend.AuthListener
	nextID     uint64

	now func() time.Time
}

var _ backend.Auth = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(store authStore, cfg *config.Auth) *AuthService {
	return &AuthService{
		store:     store,
		cfg:       cfg,
		secret:    []byte(cfg.JWTSecret),
		listeners: make(map[uint64]backend.AuthListener),
		now:       time.Now,
	}
}

// SetSecret replaces the signing secret. Tokens signed with the old secret
// stop validating, which signs every user out.
func (s *AuthService) SetSecret(secret string) {
	s.secretMu.Lock()
	s.secret = []byte(secret)
	s.secretMu.Unlock()
}

func (s *AuthService) signingKey() []byte {
	s.secretMu.RLock()
	defer s.secretMu.RUnlock()
	return s.secret
}

// OnAuthStateChange registers fn for every session transition.
func (s *AuthService) OnAuthStateChange(fn backend.AuthListener) (unsubscribe func()) {
	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenerMu.Lock()
			delete(s.listeners, id)
			s.listenerMu.Unlock()
		})
	}
}

// notify calls every listener synchronously, outside the lock.
func (s *AuthService) notify(change event.AuthChange, u *user.User) {
	ev := event.AuthState{Change: change, UserID: u.ID, Email: u.Email, Timestamp: s.now().UTC()}

	s.listenerMu.Lock()
	fns := make([]backend.AuthListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// SignUp registers an account, runs the per-account setup hook and signs it in.
func (s *AuthService) SignUp(ctx context.Context, req user.SignUpRequest) (*user.Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: user already registered", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	u, err := s.createUser(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.store.InitializeUserData(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("initialize user data: %w", err)
	}

	sess, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user signed up", "user_id", u.ID)
	s.notify(event.AuthSignedUp, u)
	return sess, nil
}

// SignIn checks the password and issues a new session.
func (s *AuthService) SignIn(ctx context.Context, req user.LoginRequest) (*user.Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	sess, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	s.notify(event.AuthSignedIn, u)
	return sess, nil
}

// Refresh validates a refresh token, atomically rotates it, and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*user.Session, error) {
	if rawToken == "" {
		return nil, fmt.Errorf("%w: refresh token required", domain.ErrUnauthenticated)
	}
	oldHash := hashSHA256(rawToken)

	rt, err := s.store.GetRefreshTokenByHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	if s.now().After(rt.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", domain.ErrUnauthenticated)
	}

	u, err := s.store.GetUser(ctx, rt.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	access, expiresAt, err := s.signAccessToken(u)
	if err != nil {
		return nil, err
	}
	newRaw, newRT, err := s.newRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.RotateRefreshToken(ctx, oldHash, newRT); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Another request rotated this token first.
			return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	s.notify(event.AuthRefreshed, u)
	return s.session(u, access, newRaw, expiresAt), nil
}

// SignOut revokes the access token and deletes the user's refresh tokens.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	claims, err := s.parse(accessToken)
	if err != nil {
		return err
	}
	var revokeErr error
	if claims.ID != "" && claims.ExpiresAt != nil {
		if err := s.store.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			revokeErr = fmt.Errorf("revoke access token: %w", err)
		}
	}
	// Refresh tokens go even when revocation failed, so the session cannot be extended.
	if err := s.store.DeleteRefreshTokensByUser(ctx, claims.Subject); err != nil {
		return errors.Join(revokeErr, fmt.Errorf("delete refresh tokens: %w", err))
	}
	if revokeErr != nil {
		return revokeErr
	}
	s.notify(event.AuthSignedOut, &user.User{ID: claims.Subject, Email: claims.Email})
	return nil
}

// GetSession resolves an access token to its user.
func (s *AuthService) GetSession(ctx context.Context, accessToken string) (*user.User, error) {
	claims, err := s.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ValidateAccessToken verifies a JWT and checks the revocation list.
// A failed revocation lookup is returned unwrapped so callers can tell an
// outage from a bad token.
func (s *AuthService) ValidateAccessToken(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.ID != "" {
		revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token has been revoked", domain.ErrUnauthenticated)
		}
	}
	return claims, nil
}

func (s *AuthService) parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: no session", domain.ErrUnauthenticated)
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !claims.VerifyIssuer(tokenIssuer, true) || !claims.VerifyAudience(tokenAudience, true) {
		return nil, fmt.Errorf("%w: invalid token issuer or audience", domain.ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	return claims, nil
}

// --- Administration (used by the admin CLI) ---

// CreateUser registers an account without signing it in.
func (s *AuthService) CreateUser(ctx context.Context, email, name, password string) (*user.User, error) {
	req := user.SignUpRequest{Email: normalizeEmail(email), Name: name, Password: password}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	u, err := s.createUser(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.store.InitializeUserData(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("initialize user data: %w", err)
	}
	return u, nil
}

// ResetPassword sets a new password and signs the user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, email, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, u.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return s.store.DeleteRefreshTokensByUser(ctx, u.ID)
}

// ListUsers returns every account.
func (s *AuthService) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.store.ListUsers(ctx)
}

// StartTokenCleanup starts a background goroutine that periodically purges
// expired revoked and refresh tokens. It stops when ctx is cancelled.
func (s *AuthService) StartTokenCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purgeExpired(ctx)
			}
		}
	}()
}

func (s *AuthService) purgeExpired(ctx context.Context) {
	if n, err := s.store.PurgeExpiredTokens(ctx); err != nil {
		slog.Warn("failed to purge expired revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged expired revoked tokens", "count", n)
	}
	if n, err := s.store.DeleteExpiredRefreshTokens(ctx); err != nil {
		slog.Warn("failed to purge expired refresh tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged expired refresh tokens", "count", n)
	}
}

// --- helpers ---

func (s *AuthService) createUser(ctx context.Context, email, name, password string) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &user.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *AuthService) issueSession(ctx context.Context, u *user.User) (*user.Session, error) {
	access, expiresAt, err := s.signAccessToken(u)
	if err != nil {
		return nil, err
	}
	raw, rt, err := s.newRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateRefreshToken(ctx, rt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return s.session(u, access, raw, expiresAt), nil
}

func (s *AuthService) session(u *user.User, access, refresh string, expiresAt time.Time) *user.Session {
	return &user.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.cfg.AccessTokenExpiry.Seconds()),
		ExpiresAt:    expiresAt,
		User:         *u,
	}
}

func (s *AuthService) signAccessToken(u *user.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTokenExpiry)
	claims := Claims{
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *AuthService) newRefreshToken(userID string) (string, *user.RefreshToken, error) {
	raw, err := generateRandomToken(32)
	if err != nil {
		return "", nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return raw, &user.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hashSHA256(raw),
		ExpiresAt: s.now().Add(s.cfg.RefreshTokenExpiry),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashSHA256(data string) string {
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}

func generateRandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
