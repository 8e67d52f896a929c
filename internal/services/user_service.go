package services

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/fathima-sithara/contacts-api/internal/models"
	"github.com/fathima-sithara/contacts-api/internal/repository"
	"go.uber.org/zap"

	// register decoders for the formats accepted on avatar upload
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const avatarSize = 250

type userService struct {
	userRepo repository.UserRepository
	avatars  AvatarStore
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, avatars AvatarStore, logger *zap.Logger) UserService {
	return &userService{userRepo: userRepo, avatars: avatars, logger: logger}
}

// UpdateAvatar normalizes the uploaded image to a 250x250 center crop,
// uploads it, and persists the resulting URL on the user record. The session
// cache is not touched: readers may see the old avatar until the TTL expires.
func (s *userService) UpdateAvatar(ctx context.Context, user *models.Snapshot, data []byte) (*models.User, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	cropped := imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", ErrInternal)
	}

	key := "avatars/" + user.ID.Hex()
	url, err := s.avatars.Upload(ctx, key, "image/jpeg", buf.Bytes())
	if err != nil {
		s.logger.Error("avatar upload failed", zap.String("email", user.Email), zap.Error(err))
		return nil, fmt.Errorf("failed to upload avatar: %w", ErrInternal)
	}

	updated, err := s.userRepo.UpdateAvatar(ctx, user.Email, url)
	if err != nil {
		return nil, fmt.Errorf("failed to persist avatar url: %w", ErrInternal)
	}
	return updated, nil
}
