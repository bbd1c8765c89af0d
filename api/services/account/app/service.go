package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tbeaudouin05/quitcoach/api/auth"
	"github.com/tbeaudouin05/quitcoach/api/entitlement"
	accountdb "github.com/tbeaudouin05/quitcoach/api/services/account/db"
	"github.com/tbeaudouin05/quitcoach/api/validation"
)

// ProfileStore is the persistence needed by the account service.
type ProfileStore interface {
	Create(ctx context.Context, p accountdb.Profile) (accountdb.Profile, error)
	GetByID(ctx context.Context, id string) (accountdb.Profile, error)
	GetByEmail(ctx context.Context, email string) (accountdb.Profile, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// Service defines signup, login and profile lookups.
type Service interface {
	CheckEmail(ctx context.Context, req CheckEmailRequest) (bool, error)
	Signup(ctx context.Context, req SignupRequest) (Session, error)
	Login(ctx context.Context, req LoginRequest) (Session, error)
	Me(ctx context.Context, userID string) (User, error)
}

// Settings tune signup behaviour.
type Settings struct {
	// RequiresCheckout starts new profiles as incomplete instead of trialing.
	RequiresCheckout bool
	Now              func() time.Time
	NewID            func() string
}

type serviceImpl struct {
	store    ProfileStore
	tokens   TokenIssuer
	settings Settings
}

// NewService returns the account service.
func NewService(store ProfileStore, tokens TokenIssuer, settings Settings) Service {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.NewID == nil {
		settings.NewID = uuid.NewString
	}
	return serviceImpl{store: store, tokens: tokens, settings: settings}
}

func (s serviceImpl) CheckEmail(ctx context.Context, req CheckEmailRequest) (bool, error) {
	if err := validate(req); err != nil {
		return false, err
	}
	exists, err := s.store.EmailExists(ctx, req.Email)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return exists, nil
}

// Signup creates a profile and returns a session. The trial starts now
// unless checkout is required first.
func (s serviceImpl) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	if err := validate(req); err != nil {
		return Session{}, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	p := accountdb.Profile{
		ID:           s.settings.NewID(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
	}
	if s.settings.RequiresCheckout {
		p.SubscriptionStatus = entitlement.StatusIncomplete
	} else {
		start := s.settings.Now().UTC()
		end := entitlement.CalculateTrialEndDate(start)
		p.SubscriptionStatus = entitlement.StatusTrialing
		p.TrialStartDate = &start
		p.TrialEndDate = &end
	}

	created, err := s.store.Create(ctx, p)
	if errors.Is(err, accountdb.ErrEmailTaken) {
		return Session{}, ErrEmailTaken
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	log.Ctx(ctx).Info().Str("user_id", created.ID).Str("status", string(created.SubscriptionStatus)).Msg("profile created")
	return s.session(created)
}

func (s serviceImpl) Login(ctx context.Context, req LoginRequest) (Session, error) {
	if err := validate(req); err != nil {
		return Session{}, err
	}
	p, err := s.store.GetByEmail(ctx, req.Email)
	if errors.Is(err, accountdb.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if !auth.CheckPasswordHash(req.Password, p.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(p)
}

func (s serviceImpl) Me(ctx context.Context, userID string) (User, error) {
	p, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, accountdb.ErrNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return toUser(p), nil
}

func (s serviceImpl) session(p accountdb.Profile) (Session, error) {
	token, err := s.tokens.Issue(p.ID, p.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{User: toUser(p), Token: token}, nil
}

func toUser(p accountdb.Profile) User {
	u := User{ID: p.ID, Email: p.Email}
	if p.Username != "" {
		name := p.Username
		u.Username = &name
	}
	return u
}

func validate(v any) error {
	if err := validation.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
