package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/model"
	"askflow/backend/internal/repository"
	mock_repo "askflow/backend/internal/repository/mocks"
	"askflow/backend/internal/service"
)

func TestSpaceService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := mock_repo.NewMockRepository(t)
		repo.On("CreateSpace", ctx, mock.MatchedBy(func(s *model.Space) bool {
			return s.Name == "Research" && s.UserID == "alice" && s.Instruction == "Cite sources." && s.ID != ""
		})).Return(nil).Once()

		space, err := service.NewSpaceService(repo).Create(ctx, "alice", " Research ", "Cite sources.\n")
		require.NoError(t, err)
		assert.Equal(t, "Research", space.Name)
	})

	t.Run("Failure - Empty name", func(t *testing.T) {
		repo := mock_repo.NewMockRepository(t)

		_, err := service.NewSpaceService(repo).Create(ctx, "alice", "  ", "")
		assert.ErrorIs(t, err, app_errors.ErrValidation)
	})
}

func TestSpaceService_Get(t *testing.T) {
	ctx := context.Background()
	space := &model.Space{ID: "sp1", UserID: "alice"}

	t.Run("Success", func(t *testing.T) {
		repo := mock_repo.NewMockRepository(t)
		repo.On("GetSpace", ctx, "sp1").Return(space, nil).Once()

		got, err := service.NewSpaceService(repo).Get(ctx, "alice", "sp1")
		require.NoError(t, err)
		assert.Equal(t, space, got)
	})

	t.Run("Failure - Not found", func(t *testing.T) {
		repo := mock_repo.NewMockRepository(t)
		repo.On("GetSpace", ctx, "sp1").Return(nil, repository.ErrNotFound).Once()

		_, err := service.NewSpaceService(repo).Get(ctx, "alice", "sp1")
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
	})

	t.Run("Failure - Owned by someone else", func(t *testing.T) {
		repo := mock_repo.NewMockRepository(t)
		repo.On("GetSpace", ctx, "sp1").Return(space, nil).Once()

		_, err := service.NewSpaceService(repo).Get(ctx, "bob", "sp1")
		assert.ErrorIs(t, err, app_errors.ErrPermission)
	})
}

func TestSpaceService_List(t *testing.T) {
	ctx := context.Background()
	repo := mock_repo.NewMockRepository(t)
	repo.On("ListSpaces", ctx, "alice").Return(nil, nil).Once()

	spaces, err := service.NewSpaceService(repo).List(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, spaces)
}
