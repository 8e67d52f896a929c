package services

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/contacts-api/internal/models"
	"github.com/fathima-sithara/contacts-api/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error kinds exposed to the transport layer. Handlers map them 1:1 to HTTP
// statuses; the messages are deliberately distinct per failure cause so
// clients can branch on them.
var (
	ErrEmailAlreadyRegistered = errors.New("account already exists")
	ErrInvalidEmail           = errors.New("invalid email")
	ErrInvalidPassword        = errors.New("invalid password")
	ErrEmailNotConfirmed      = errors.New("email not confirmed")
	ErrInvalidAccessToken     = errors.New("invalid access token")
	ErrInvalidRefreshToken    = errors.New("invalid refresh token")
	ErrVerificationFailed     = errors.New("verification error")
	ErrContactNotFound        = errors.New("contact not found")
	ErrUnsupportedImage       = errors.New("unsupported image format")
	ErrInternal               = errors.New("internal server error")
)

// Confirmation flow messages, returned verbatim to the client.
const (
	MsgEmailConfirmed   = "Email confirmed"
	MsgAlreadyConfirmed = "Your email is already confirmed"
	MsgCheckEmail       = "Check your email for confirmation."
)

// RegisterInput is the signup payload after transport-level validation.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// ContactInput carries the mutable contact fields. There is no owner field:
// ownership always comes from the authenticated identity.
type ContactInput struct {
	FirstName  string
	SecondName string
	Email      string
	Birthday   time.Time
	AddInfo    string
}

// AuthService implements the signup, login, refresh, confirmation and
// request-authentication workflows.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error)
	ConfirmEmail(ctx context.Context, token string) (string, error)
	ResendConfirmation(ctx context.Context, email string) (string, error)
	Authenticate(ctx context.Context, accessToken string) (*models.Snapshot, error)
}

// ContactService wraps the contact repository with owner scoping and the
// birthday-window computation.
type ContactService interface {
	Create(ctx context.Context, owner primitive.ObjectID, in ContactInput) (*models.Contact, error)
	Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Contact, error)
	List(ctx context.Context, owner primitive.ObjectID, limit, offset int64) ([]models.Contact, error)
	Update(ctx context.Context, owner, id primitive.ObjectID, in ContactInput) (*models.Contact, error)
	Delete(ctx context.Context, owner, id primitive.ObjectID) error
	Search(ctx context.Context, owner primitive.ObjectID, f repository.ContactFilter) ([]models.Contact, error)
	UpcomingBirthdays(ctx context.Context, owner primitive.ObjectID) ([]models.Contact, error)
}

// UserService covers profile operations on the authenticated user.
type UserService interface {
	UpdateAvatar(ctx context.Context, user *models.Snapshot, data []byte) (*models.User, error)
}

// MailSender delivers the confirmation mail. Fire-and-forget: failures are
// logged by the caller and never fail the triggering workflow.
type MailSender interface {
	SendConfirmation(ctx context.Context, toEmail, username, link string) error
}

// EventPublisher emits domain events. Implementations must be safe to call
// when unconfigured (no-op).
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}

// AvatarStore uploads processed avatar bytes and returns a public URL.
type AvatarStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}
