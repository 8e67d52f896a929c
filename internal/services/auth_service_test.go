package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fathima-sithara/contacts-api/internal/cache"
	"github.com/fathima-sithara/contacts-api/internal/models"
	"github.com/fathima-sithara/contacts-api/internal/repository"
	"github.com/fathima-sithara/contacts-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*models.User
	findCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	cp.ID = primitive.NewObjectID()
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	r.users[cp.Email] = &cp
	out := cp
	return &out, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateRefreshToken(_ context.Context, email, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.RefreshToken = token
	return nil
}

func (r *fakeUserRepo) ConfirmEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Confirmed = true
	return nil
}

func (r *fakeUserRepo) UpdateAvatar(_ context.Context, email, url string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Avatar = url
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) stored(email string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (r *fakeUserRepo) findCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCalls
}

type sentMail struct {
	to, username, link string
}

type fakeMail struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMail) SendConfirmation(_ context.Context, toEmail, username, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: toEmail, username: username, link: link})
	return nil
}

func (m *fakeMail) all() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []string
}

func (e *fakeEvents) Publish(_ context.Context, event string, _ interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *fakeEvents) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

type authFixture struct {
	svc    AuthService
	repo   *fakeUserRepo
	cache  *cache.MemoryUserCache
	mail   *fakeMail
	events *fakeEvents
	tokens *utils.TokenManager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := newFakeUserRepo()
	userCache := cache.NewMemoryUserCache(time.Minute)
	tokens := utils.NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour, 24*time.Hour)
	mail := &fakeMail{}
	events := &fakeEvents{}

	svc := NewAuthService(repo, userCache, tokens, mail, events, zap.NewNop(), 4, "http://localhost:8080")
	return &authFixture{svc: svc, repo: repo, cache: userCache, mail: mail, events: events, tokens: tokens}
}

func (f *authFixture) seedUser(t *testing.T, email, password string, confirmed bool) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	u, err := f.repo.Create(context.Background(), &models.User{
		Username:     "deadpool",
		Email:        email,
		PasswordHash: hash,
		Confirmed:    confirmed,
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, RegisterInput{
		Username: "deadpool",
		Email:    "deadpool@example.com",
		Password: "123456",
	})
	require.NoError(t, err)
	assert.False(t, user.Confirmed)
	assert.NotEqual(t, "123456", user.PasswordHash)
	assert.False(t, user.ID.IsZero())

	// mail is sent from a goroutine
	assert.Eventually(t, func() bool {
		return len(f.mail.all()) == 1
	}, time.Second, 10*time.Millisecond)
	mail := f.mail.all()[0]
	assert.Equal(t, "deadpool@example.com", mail.to)
	assert.Contains(t, mail.link, "/api/v1/auth/confirmed_email/")

	assert.Eventually(t, func() bool {
		return len(f.events.all()) == 1 && f.events.all()[0] == EventUserRegistered
	}, time.Second, 10*time.Millisecond)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "deadpool@example.com", "123456", false)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "other",
		Email:    "deadpool@example.com",
		Password: "123456",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

type blockedEvents struct {
	release chan struct{}
	mu      sync.Mutex
	events  []string
}

func (e *blockedEvents) Publish(ctx context.Context, event string, _ interface{}) error {
	select {
	case <-e.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *blockedEvents) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

func TestRegisterNotDelayedByBroker(t *testing.T) {
	repo := newFakeUserRepo()
	userCache := cache.NewMemoryUserCache(time.Minute)
	tokens := utils.NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour, 24*time.Hour)
	events := &blockedEvents{release: make(chan struct{})}
	svc := NewAuthService(repo, userCache, tokens, &fakeMail{}, events, zap.NewNop(), 4, "http://localhost:8080")

	// the publisher is stuck until released; signup must not wait for it
	start := time.Now()
	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "deadpool",
		Email:    "deadpool@example.com",
		Password: "123456",
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, events.all())

	close(events.release)
	assert.Eventually(t, func() bool {
		return len(events.all()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "deadpool@example.com", "123456", true)
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "nobody@example.com", "123456")
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "deadpool@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})

	t.Run("success", func(t *testing.T) {
		tokens, err := f.svc.Login(ctx, "deadpool@example.com", "123456")
		require.NoError(t, err)
		assert.Equal(t, "bearer", tokens.TokenType)
		assert.NotEmpty(t, tokens.AccessToken)

		// the issued refresh token is persisted on the account
		stored := f.repo.stored("deadpool@example.com")
		assert.Equal(t, tokens.RefreshToken, stored.RefreshToken)
	})
}

func TestLoginUnconfirmed(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "deadpool@example.com", "123456", false)

	_, err := f.svc.Login(context.Background(), "deadpool@example.com", "123456")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)
}

func TestRefreshRotation(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "deadpool@example.com", "123456", true)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, "deadpool@example.com", "123456")
	require.NoError(t, err)

	// tokens carry second-resolution timestamps
	time.Sleep(1100 * time.Millisecond)

	second, err := f.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, second.RefreshToken, f.repo.stored("deadpool@example.com").RefreshToken)

	// the rotated-out token is dead, and its reuse clears the session
	_, err = f.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Empty(t, f.repo.stored("deadpool@example.com").RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "deadpool@example.com", "123456", true)
	ctx := context.Background()

	tokens, err := f.svc.Login(ctx, "deadpool@example.com", "123456")
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestConfirmEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "deadpool@example.com", "123456", false)
	ctx := context.Background()

	token, err := f.tokens.GenerateEmailToken("deadpool@example.com")
	require.NoError(t, err)

	msg, err := f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, MsgEmailConfirmed, msg)
	assert.True(t, f.repo.stored("deadpool@example.com").Confirmed)
	assert.Eventually(t, func() bool {
		for _, e := range f.events.all() {
			if e == EventUserConfirmed {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	// idempotent on repeat
	msg, err = f.svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, MsgAlreadyConfirmed, msg)
}

func TestConfirmEmailRejectsOtherScopes(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "deadpool@example.com", "123456", false)

	access, err := f.tokens.GenerateAccessToken("deadpool@example.com")
	require.NoError(t, err)

	_, err = f.svc.ConfirmEmail(context.Background(), access)
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.False(t, f.repo.stored("deadpool@example.com").Confirmed)
}

func TestConfirmEmailUnknownUser(t *testing.T) {
	f := newAuthFixture(t)

	token, err := f.tokens.GenerateEmailToken("ghost@example.com")
	require.NoError(t, err)

	_, err = f.svc.ConfirmEmail(context.Background(), token)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestResendConfirmation(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "pending@example.com", "123456", false)
	f.seedUser(t, "done@example.com", "123456", true)
	ctx := context.Background()

	t.Run("unknown email gets the generic answer", func(t *testing.T) {
		msg, err := f.svc.ResendConfirmation(ctx, "ghost@example.com")
		require.NoError(t, err)
		assert.Equal(t, MsgCheckEmail, msg)
	})

	t.Run("already confirmed", func(t *testing.T) {
		msg, err := f.svc.ResendConfirmation(ctx, "done@example.com")
		require.NoError(t, err)
		assert.Equal(t, MsgAlreadyConfirmed, msg)
	})

	t.Run("pending account gets a new mail", func(t *testing.T) {
		msg, err := f.svc.ResendConfirmation(ctx, "pending@example.com")
		require.NoError(t, err)
		assert.Equal(t, MsgCheckEmail, msg)
		assert.Eventually(t, func() bool {
			return len(f.mail.all()) == 1
		}, time.Second, 10*time.Millisecond)
	})
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "deadpool@example.com", "123456", true)
	ctx := context.Background()

	access, err := f.tokens.GenerateAccessToken("deadpool@example.com")
	require.NoError(t, err)

	snap, err := f.svc.Authenticate(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, "deadpool@example.com", snap.Email)

	// second resolution hits the cache, not the store
	before := f.repo.findCount()
	again, err := f.svc.Authenticate(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, snap, again)
	assert.Equal(t, before, f.repo.findCount())
}

func TestAuthenticateBadToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestAuthenticateDeletedAccount(t *testing.T) {
	f := newAuthFixture(t)

	// token is valid but no account backs it
	access, err := f.tokens.GenerateAccessToken("ghost@example.com")
	require.NoError(t, err)

	_, err = f.svc.Authenticate(context.Background(), access)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "deadpool@example.com", "123456", true)

	refresh, err := f.tokens.GenerateRefreshToken("deadpool@example.com")
	require.NoError(t, err)

	_, err = f.svc.Authenticate(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}
