package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

type ProfileService struct {
	userRepo UserStore
	logger   *logrus.Logger
}

func NewProfileService(userRepo UserStore, logger *logrus.Logger) *ProfileService {
	return &ProfileService{userRepo: userRepo, logger: logger}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// Update changes the display name. The name is trimmed and must not be empty.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, input model.UpdateProfileInput) (*model.Profile, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, &ValidationError{Err: fmt.Errorf("Name is required")}
	}
	name := strings.TrimSpace(*input.Name)

	user, err := s.userRepo.UpdateName(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", userID).Info("profile updated")
	p := user.Profile()
	return &p, nil
}
