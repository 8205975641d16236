package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Settings holds the dynamic application settings stored in the database.
// SystemPrompt is the personality/custom prompt attached to every chat turn.
type Settings struct {
	SystemPrompt string `json:"system_prompt"`
	MainModel    string `json:"main_model"`
	SupportModel string `json:"support_model"`
}

type SettingsService struct {
	db *sql.DB
}

func NewSettingsService(db *sql.DB) *SettingsService {
	return &SettingsService{db: db}
}

// InitAndGet loads settings from the database, seeding any missing keys from
// the given defaults on first run.
func (s *SettingsService) InitAndGet(ctx context.Context, defaults Settings) (*Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	changed := false
	if settings.SystemPrompt == "" {
		settings.SystemPrompt = defaults.SystemPrompt
		changed = true
	}
	if settings.MainModel == "" {
		settings.MainModel = defaults.MainModel
		changed = true
	}
	if settings.SupportModel == "" {
		settings.SupportModel = defaults.SupportModel
		changed = true
	}

	if changed {
		slog.Info("Seeding application settings with defaults")
		if err := s.Save(ctx, settings); err != nil {
			return nil, fmt.Errorf("could not save initial settings: %w", err)
		}
	}
	return settings, nil
}

// Get reads all settings rows into a Settings struct. Unknown keys are
// ignored; missing keys come back as zero values.
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("could not load settings: %w", err)
	}
	defer rows.Close()

	var settings Settings
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		switch key {
		case "system_prompt":
			settings.SystemPrompt = value
		case "main_model":
			settings.MainModel = value
		case "support_model":
			settings.SupportModel = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *SettingsService) Save(ctx context.Context, settings *Settings) error {
	if settings.MainModel == "" {
		return fmt.Errorf("main model cannot be empty")
	}

	entries := map[string]string{
		"system_prompt": settings.SystemPrompt,
		"main_model":    settings.MainModel,
		"support_model": settings.SupportModel,
	}
	for key, value := range entries {
		query := "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
		if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
			return fmt.Errorf("could not save setting %s: %w", key, err)
		}
	}
	return nil
}
