package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fathima-sithara/contacts-api/internal/cache"
	"github.com/fathima-sithara/contacts-api/internal/models"
	"github.com/fathima-sithara/contacts-api/internal/repository"
	"github.com/fathima-sithara/contacts-api/internal/utils"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	EventUserRegistered = "user.registered"
	EventUserConfirmed  = "user.confirmed"

	mailTimeout  = 10 * time.Second
	eventTimeout = 5 * time.Second
)

type authService struct {
	userRepo   repository.UserRepository
	userCache  cache.UserCache
	tokens     *utils.TokenManager
	mail       MailSender
	events     EventPublisher
	logger     *zap.Logger
	bcryptCost int
	baseURL    string
}

// NewAuthService wires the auth orchestrator. Everything it needs is passed
// in explicitly; the service holds no global state.
func NewAuthService(
	userRepo repository.UserRepository,
	userCache cache.UserCache,
	tokens *utils.TokenManager,
	mail MailSender,
	events EventPublisher,
	logger *zap.Logger,
	bcryptCost int,
	baseURL string,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		userCache:  userCache,
		tokens:     tokens,
		mail:       mail,
		events:     events,
		logger:     logger,
		bcryptCost: bcryptCost,
		baseURL:    baseURL,
	}
}

// Register creates an unconfirmed account and triggers the confirmation mail.
// The mail and the event are fire-and-forget: their failure never fails signup.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	_, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrEmailAlreadyRegistered
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", ErrInternal)
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", ErrInternal)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Confirmed:    false,
	}
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// the unique index catches a registration racing the existence check
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create account: %w", ErrInternal)
	}

	s.sendConfirmationMail(created.Email, created.Username)
	s.publish(EventUserRegistered, map[string]string{"email": created.Email, "username": created.Username})

	return created, nil
}

// Login verifies credentials and mints a fresh token pair. The new refresh
// token overwrites the stored one, so any previously issued refresh token is
// invalidated.
func (s *authService) Login(ctx context.Context, email, password string) (*models.AuthTokens, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, fmt.Errorf("failed to look up account: %w", ErrInternal)
	}
	if !user.Confirmed {
		return nil, ErrEmailNotConfirmed
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidPassword
	}

	return s.issueTokenPair(ctx, user.Email)
}

// Refresh rotates the refresh token. A presented token that does not match
// the stored one is treated as reuse: the stored token is cleared so the
// session can only continue through a full login.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	email, err := s.tokens.ParseToken(refreshToken, utils.ScopeRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to look up account: %w", ErrInternal)
	}

	if user.RefreshToken != refreshToken {
		if clearErr := s.userRepo.UpdateRefreshToken(ctx, email, ""); clearErr != nil {
			s.logger.Warn("failed to clear stale refresh token",
				zap.String("email", email), zap.Error(clearErr))
		}
		return nil, ErrInvalidRefreshToken
	}

	return s.issueTokenPair(ctx, email)
}

// ConfirmEmail flips the confirmed flag exactly once; confirming an already
// confirmed account is an idempotent no-op.
func (s *authService) ConfirmEmail(ctx context.Context, token string) (string, error) {
	email, err := s.tokens.ParseToken(token, utils.ScopeEmail)
	if err != nil {
		return "", ErrVerificationFailed
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrVerificationFailed
		}
		return "", fmt.Errorf("failed to look up account: %w", ErrInternal)
	}
	if user.Confirmed {
		return MsgAlreadyConfirmed, nil
	}

	if err := s.userRepo.ConfirmEmail(ctx, email); err != nil {
		return "", fmt.Errorf("failed to confirm email: %w", ErrInternal)
	}
	s.publish(EventUserConfirmed, map[string]string{"email": email})

	return MsgEmailConfirmed, nil
}

// ResendConfirmation re-sends the confirmation mail. An unknown email gets
// the same generic response as a known one, so the endpoint does not leak
// which addresses have accounts.
func (s *authService) ResendConfirmation(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return MsgCheckEmail, nil
		}
		return "", fmt.Errorf("failed to look up account: %w", ErrInternal)
	}
	if user.Confirmed {
		return MsgAlreadyConfirmed, nil
	}

	s.sendConfirmationMail(user.Email, user.Username)
	return MsgCheckEmail, nil
}

// Authenticate resolves a bearer access token to a user snapshot, consulting
// the session cache first and falling back to the credential store on a miss.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*models.Snapshot, error) {
	email, err := s.tokens.ParseToken(accessToken, utils.ScopeAccess)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}

	snap, err := s.userCache.Get(ctx, email)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("user cache read failed", zap.String("email", email), zap.Error(err))
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// valid token for a deleted account
			return nil, ErrInvalidAccessToken
		}
		return nil, fmt.Errorf("failed to look up account: %w", ErrInternal)
	}

	snap = models.NewSnapshot(user)
	if err := s.userCache.Put(ctx, email, snap); err != nil {
		s.logger.Warn("user cache write failed", zap.String("email", email), zap.Error(err))
	}
	return snap, nil
}

func (s *authService) issueTokenPair(ctx context.Context, email string) (*models.AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", ErrInternal)
	}
	refresh, err := s.tokens.GenerateRefreshToken(email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", ErrInternal)
	}
	if err := s.userRepo.UpdateRefreshToken(ctx, email, refresh); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", ErrInternal)
	}
	return &models.AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (s *authService) sendConfirmationMail(email, username string) {
	token, err := s.tokens.GenerateEmailToken(email)
	if err != nil {
		s.logger.Warn("failed to generate confirmation token",
			zap.String("email", email), zap.Error(err))
		return
	}
	link := fmt.Sprintf("%s/api/v1/auth/confirmed_email/%s", s.baseURL, token)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mail.SendConfirmation(ctx, email, username, link); err != nil {
			s.logger.Warn("failed to send confirmation mail",
				zap.String("email", email), zap.Error(err))
		}
	}()
}

// publish emits a domain event from a goroutine so a slow or unreachable
// broker never delays the request that triggered it.
func (s *authService) publish(event string, payload interface{}) {
	if s.events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		if err := s.events.Publish(ctx, event, payload); err != nil {
			s.logger.Warn("failed to publish event", zap.String("event", event), zap.Error(err))
		}
	}()
}
