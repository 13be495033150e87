package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/model"
	"askflow/backend/internal/repository"
)

// SpaceService manages spaces, which give a group of conversations a shared
// system instruction.
type SpaceService struct {
	repo repository.Repository
}

func NewSpaceService(repo repository.Repository) *SpaceService {
	return &SpaceService{repo: repo}
}

func (s *SpaceService) Create(ctx context.Context, userID, name, instruction string) (*model.Space, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: space name cannot be empty", app_errors.ErrValidation)
	}
	space := &model.Space{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Instruction: strings.TrimSpace(instruction),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateSpace(ctx, space); err != nil {
		return nil, fmt.Errorf("could not create space: %w", err)
	}
	return space, nil
}

func (s *SpaceService) List(ctx context.Context, userID string) ([]*model.Space, error) {
	spaces, err := s.repo.ListSpaces(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list spaces: %w", err)
	}
	if spaces == nil {
		spaces = []*model.Space{}
	}
	return spaces, nil
}

// Get returns the space if it belongs to userID.
func (s *SpaceService) Get(ctx context.Context, userID, spaceID string) (*model.Space, error) {
	return authorizeSpace(ctx, s.repo, userID, spaceID)
}

func authorizeSpace(ctx context.Context, repo repository.Repository, userID, spaceID string) (*model.Space, error) {
	space, err := repo.GetSpace(ctx, spaceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("space %s: %w", spaceID, app_errors.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get space: %w", err)
	}
	if space.UserID != userID {
		return nil, fmt.Errorf("space %s: %w", spaceID, app_errors.ErrPermission)
	}
	return space, nil
}
