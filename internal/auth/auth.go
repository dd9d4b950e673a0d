// Package auth is the identity collaborator: account signup, password login,
// and bearer tokens that resolve to a user id. It also answers the engine's
// admin question through Policy.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/teamboard/internal/logging"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// DefaultTokenTTL is the lifetime of an issued token when Options.TokenTTL
// is zero.
const DefaultTokenTTL = 72 * time.Hour

const issuer = "teamboard"

// ErrSecretEmpty is returned by New when no signing secret is configured.
var ErrSecretEmpty = errors.New("auth: jwt secret is empty")

// Options configures a Service.
type Options struct {
	Secret   string
	TokenTTL time.Duration
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
	Log  *logging.Logger
}

// Service signs users up, logs them in, and verifies their tokens.
type Service struct {
	store  types.Store
	log    *logging.Logger
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// Claims are the JWT claims issued at login. Subject is the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// New returns a Service backed by store.
func New(store types.Store, opts Options) (*Service, error) {
	if opts.Secret == "" {
		return nil, ErrSecretEmpty
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	return &Service{
		store:  store,
		log:    opts.Log.With("component", "auth"),
		secret: []byte(opts.Secret),
		ttl:    opts.TokenTTL,
		cost:   opts.Cost,
		now:    time.Now,
	}, nil
}

// TokenTTL returns the lifetime of issued tokens.
func (s *Service) TokenTTL() time.Duration { return s.ttl }

// Signup validates the input, hashes the password, and creates the user.
// A taken email is ErrConflict.
func (s *Service) Signup(ctx context.Context, username, email, password string) (*types.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateSignup(username, email, password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	u := &types.User{Username: username, Email: email, PasswordHash: string(hash)}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	_, err = tx.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, types.Conflictf("email %s is already registered", email)
	case !errors.Is(err, types.ErrNotFound):
		return nil, err
	}
	if err := tx.InsertUser(ctx, u); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.log.Info("user signed up", "user_id", u.UserID)
	return u, nil
}

// Login checks the password for email and returns a signed token. Unknown
// emails and wrong passwords both report ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (string, *types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, types.InvalidArgumentf("email and password are required")
	}
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return "", nil, err
	}
	defer tx.Rollback()
	u, err := tx.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid credentials: %w", types.ErrUnauthorized)
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("login rejected", "user_id", u.UserID)
		return "", nil, fmt.Errorf("invalid credentials: %w", types.ErrUnauthorized)
	}
	token, err := s.Issue(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Issue signs an HS256 token for u.
func (s *Service) Issue(u *types.User) (string, error) {
	now := s.now()
	claims := Claims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses token and returns the user id it was issued to. Any
// failure wraps ErrUnauthorized.
func (s *Service) VerifyToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("missing token: %w", types.ErrUnauthorized)
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("parsing token: %w: %w", types.ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token: %w", types.ErrUnauthorized)
	}
	return claims.Subject, nil
}
