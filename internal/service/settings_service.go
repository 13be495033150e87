package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/llm"
	"askflow/backend/internal/model"
)

// Settings holds the model identifiers used for each purpose. They are stored
// as key/value rows in the settings table.
type Settings struct {
	QuickModel    string `json:"quick_model" validate:"required"`
	ThinkModel    string `json:"think_model" validate:"required"`
	ResearchModel string `json:"research_model" validate:"required"`
	TitleModel    string `json:"title_model" validate:"required"`
	ImageModel    string `json:"image_model" validate:"required"`
}

// ModelFor returns the chat model configured for mode.
func (s *Settings) ModelFor(mode model.Mode) string {
	switch mode {
	case model.ModeThink:
		return s.ThinkModel
	case model.ModeResearch:
		return s.ResearchModel
	default:
		return s.QuickModel
	}
}

// fields lists the settings in the order they are written.
func (s *Settings) fields() []struct {
	key   string
	value *string
} {
	return []struct {
		key   string
		value *string
	}{
		{"quick_model", &s.QuickModel},
		{"think_model", &s.ThinkModel},
		{"research_model", &s.ResearchModel},
		{"title_model", &s.TitleModel},
		{"image_model", &s.ImageModel},
	}
}

type SettingsService struct {
	db       *sql.DB
	llm      llm.Provider
	defaults Settings
}

// NewSettingsService creates the service. defaults fill in any key missing from
// the database.
func NewSettingsService(db *sql.DB, provider llm.Provider, defaults Settings) *SettingsService {
	return &SettingsService{db: db, llm: provider, defaults: defaults}
}

// InitAndGet seeds the table with the defaults on first boot and returns the
// effective settings.
func (s *SettingsService) InitAndGet(ctx context.Context) (*Settings, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count settings: %w", err)
	}
	if count > 0 {
		slog.Info("Found existing settings in database.")
		return s.Get(ctx)
	}

	slog.Info("No settings found in database, seeding defaults.", "quick_model", s.defaults.QuickModel)
	initial := s.defaults
	if err := s.saveToDB(ctx, &initial); err != nil {
		return nil, fmt.Errorf("failed to save initial settings: %w", err)
	}
	return &initial, nil
}

// Get retrieves the current settings.
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	stored := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		stored[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	settings := s.defaults
	for _, f := range settings.fields() {
		if v, ok := stored[f.key]; ok && v != "" {
			*f.value = v
		}
	}
	return &settings, nil
}

// ModelFor returns the chat model for mode from the current settings.
func (s *SettingsService) ModelFor(ctx context.Context, mode model.Mode) (string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	return settings.ModelFor(mode), nil
}

// Save validates the chat and title models against the backend and stores all settings.
func (s *SettingsService) Save(ctx context.Context, settings *Settings) error {
	available, err := s.llm.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("could not list models for validation: %w", err)
	}
	ids := make([]string, len(available))
	for i, m := range available {
		ids[i] = m.ID
	}

	checks := []struct{ label, value string }{
		{"quick", settings.QuickModel},
		{"think", settings.ThinkModel},
		{"research", settings.ResearchModel},
		{"title", settings.TitleModel},
	}
	for _, c := range checks {
		if !slices.Contains(ids, c.value) {
			return fmt.Errorf("%w: %s model '%s' is not available", app_errors.ErrValidation, c.label, c.value)
		}
	}

	return s.saveToDB(ctx, settings)
}

func (s *SettingsService) saveToDB(ctx context.Context, settings *Settings) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Error("Failed to roll back settings transaction", "error", rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value")
	if err != nil {
		return fmt.Errorf("could not prepare settings statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range settings.fields() {
		if _, err = stmt.ExecContext(ctx, f.key, *f.value); err != nil {
			return fmt.Errorf("could not save setting %s: %w", f.key, err)
		}
	}
	return tx.Commit()
}
