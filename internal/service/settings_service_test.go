package service_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/llm"
	"askflow/backend/internal/llm/mocks"
	"askflow/backend/internal/model"
	"askflow/backend/internal/service"
)

var defaultSettings = service.Settings{
	QuickModel:    "quick-default",
	ThinkModel:    "think-default",
	ResearchModel: "research-default",
	TitleModel:    "title-default",
	ImageModel:    "image-default",
}

const upsertSetting = "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"

func setupSettingsService(t *testing.T) (*service.SettingsService, *sql.DB, sqlmock.Sqlmock, *mocks.MockProvider) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)

	mockLLM := mocks.NewMockProvider(t)
	settingsService := service.NewSettingsService(db, mockLLM, defaultSettings)

	return settingsService, db, mockDB, mockLLM
}

func expectSave(mockDB sqlmock.Sqlmock, s service.Settings) {
	mockDB.ExpectBegin()
	prep := mockDB.ExpectPrepare(regexp.QuoteMeta(upsertSetting))
	prep.ExpectExec().WithArgs("quick_model", s.QuickModel).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("think_model", s.ThinkModel).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("research_model", s.ResearchModel).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("title_model", s.TitleModel).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("image_model", s.ImageModel).WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.ExpectCommit()
}

func TestSettingsService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Stored values override defaults", func(t *testing.T) {
		settingsService, db, mockDB, _ := setupSettingsService(t)
		defer func() { _ = db.Close() }()

		rows := sqlmock.NewRows([]string{"key", "value"}).
			AddRow("quick_model", "stored-quick").
			AddRow("think_model", "")
		mockDB.ExpectQuery("SELECT key, value FROM settings").WillReturnRows(rows)

		settings, err := settingsService.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "stored-quick", settings.QuickModel)
		assert.Equal(t, "think-default", settings.ThinkModel)
		assert.Equal(t, "image-default", settings.ImageModel)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Failure - DB error on get", func(t *testing.T) {
		settingsService, db, mockDB, _ := setupSettingsService(t)
		defer func() { _ = db.Close() }()

		expectedErr := errors.New("db error")
		mockDB.ExpectQuery("SELECT key, value FROM settings").WillReturnError(expectedErr)

		settings, err := settingsService.Get(ctx)
		require.Error(t, err)
		assert.Nil(t, settings)
		assert.Contains(t, err.Error(), expectedErr.Error())
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestSettingsService_ModelFor(t *testing.T) {
	settingsService, db, mockDB, _ := setupSettingsService(t)
	defer func() { _ = db.Close() }()

	mockDB.ExpectQuery("SELECT key, value FROM settings").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("research_model", "deep"))

	id, err := settingsService.ModelFor(context.Background(), model.ModeResearch)
	require.NoError(t, err)
	assert.Equal(t, "deep", id)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSettingsService_InitAndGet(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Settings already exist, just get them", func(t *testing.T) {
		settingsService, db, mockDB, _ := setupSettingsService(t)
		defer func() { _ = db.Close() }()

		mockDB.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM settings")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mockDB.ExpectQuery("SELECT key, value FROM settings").
			WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("quick_model", "existing-model"))

		settings, err := settingsService.InitAndGet(ctx)
		require.NoError(t, err)
		assert.Equal(t, "existing-model", settings.QuickModel)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Success - No settings, seed defaults", func(t *testing.T) {
		settingsService, db, mockDB, _ := setupSettingsService(t)
		defer func() { _ = db.Close() }()

		mockDB.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM settings")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		expectSave(mockDB, defaultSettings)

		settings, err := settingsService.InitAndGet(ctx)
		require.NoError(t, err)
		assert.Equal(t, defaultSettings, *settings)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestSettingsService_Save(t *testing.T) {
	ctx := context.Background()
	settingsToSave := service.Settings{
		QuickModel:    "model1",
		ThinkModel:    "model2",
		ResearchModel: "model2",
		TitleModel:    "model1",
		ImageModel:    "painter",
	}

	t.Run("Success - Save valid settings", func(t *testing.T) {
		settingsService, db, mockDB, mockLLM := setupSettingsService(t)
		defer func() { _ = db.Close() }()

		mockLLM.On("ListModels", ctx).Return([]llm.ModelInfo{{ID: "model1"}, {ID: "model2"}}, nil).Once()
		expectSave(mockDB, settingsToSave)

		s := settingsToSave
		err := settingsService.Save(ctx, &s)
		require.NoError(t, err)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Failure - Quick model not available", func(t *testing.T) {
		settingsService, db, mockDB, mockLLM := setupSettingsService(t)
		defer func() { _ = db.Close() }()

		mockLLM.On("ListModels", ctx).Return([]llm.ModelInfo{{ID: "another-model"}}, nil).Once()

		s := settingsToSave
		err := settingsService.Save(ctx, &s)
		require.Error(t, err)
		assert.ErrorIs(t, err, app_errors.ErrValidation)
		assert.Contains(t, err.Error(), "quick model 'model1' is not available")
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Failure - LLM provider returns error", func(t *testing.T) {
		settingsService, db, mockDB, mockLLM := setupSettingsService(t)
		defer func() { _ = db.Close() }()

		expectedErr := errors.New("backend is down")
		mockLLM.On("ListModels", ctx).Return(nil, expectedErr).Once()

		s := settingsToSave
		err := settingsService.Save(ctx, &s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), expectedErr.Error())
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Failure - Rolls back on write error", func(t *testing.T) {
		settingsService, db, mockDB, mockLLM := setupSettingsService(t)
		defer func() { _ = db.Close() }()

		mockLLM.On("ListModels", ctx).Return([]llm.ModelInfo{{ID: "model1"}, {ID: "model2"}}, nil).Once()
		mockDB.ExpectBegin()
		prep := mockDB.ExpectPrepare(regexp.QuoteMeta(upsertSetting))
		prep.ExpectExec().WithArgs("quick_model", "model1").WillReturnError(errors.New("disk full"))
		mockDB.ExpectRollback()

		s := settingsToSave
		err := settingsService.Save(ctx, &s)
		require.Error(t, err)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}
