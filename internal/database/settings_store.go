package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/logging"
)

// Setting keys. Values are stored as TEXT; typed accessors parse them.
const (
	SettingCalendarMonthsBack    = "calendar_months_back"
	SettingCalendarMonthsForward = "calendar_months_forward"
)

// SettingsStore handles runtime-tunable settings in SQLite. Settings exist so
// the calendar window can be changed without restarting the service; static
// configuration stays in the TOML file.
type SettingsStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSettingsStore creates a new settings store
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db.Conn(), logger: logging.GetLogger("settings-store")}
}

// Get retrieves one setting value. Returns found=false when the key has
// never been written.
func (s *SettingsStore) Get(ctx context.Context, key string) (value string, found bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		s.logger.Debug().Str("key", key).Msg("Setting not found")
		return "", false, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to retrieve setting")
		return "", false, fmt.Errorf("failed to retrieve setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set saves or updates one setting value.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	s.logger.Debug().Str("key", key).Str("value", value).Msg("Saving setting")
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to save setting")
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// GetCalendarWindow retrieves the merged-calendar default window in months.
func (s *SettingsStore) GetCalendarWindow(ctx context.Context) (monthsBack, monthsForward int, err error) {
	monthsBack, err = s.getInt(ctx, SettingCalendarMonthsBack)
	if err != nil {
		return 0, 0, err
	}
	monthsForward, err = s.getInt(ctx, SettingCalendarMonthsForward)
	if err != nil {
		return 0, 0, err
	}
	return monthsBack, monthsForward, nil
}

// SetCalendarWindow saves the merged-calendar default window.
func (s *SettingsStore) SetCalendarWindow(ctx context.Context, monthsBack, monthsForward int) error {
	if monthsBack < 0 {
		return fmt.Errorf("months back cannot be negative")
	}
	if monthsForward < 1 {
		return fmt.Errorf("months forward must be positive")
	}
	if err := s.Set(ctx, SettingCalendarMonthsBack, strconv.Itoa(monthsBack)); err != nil {
		return err
	}
	if err := s.Set(ctx, SettingCalendarMonthsForward, strconv.Itoa(monthsForward)); err != nil {
		return err
	}
	s.logger.Info().Int("months_back", monthsBack).Int("months_forward", monthsForward).Msg("Calendar window saved")
	return nil
}

// SeedDefaults writes initial values for any setting that has never been
// set. Existing values are left alone, so operator changes survive restarts.
func (s *SettingsStore) SeedDefaults(ctx context.Context, monthsBack, monthsForward int) error {
	defaults := map[string]string{
		SettingCalendarMonthsBack:    strconv.Itoa(monthsBack),
		SettingCalendarMonthsForward: strconv.Itoa(monthsForward),
	}
	for key, value := range defaults {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO NOTHING
		`, key, value)
		if err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("Failed to seed setting")
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	s.logger.Debug().Msg("Settings defaults seeded")
	return nil
}

func (s *SettingsStore) getInt(ctx context.Context, key string) (int, error) {
	value, found, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("setting %s has not been seeded", key)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("setting %s holds non-integer value %q: %w", key, value, err)
	}
	return n, nil
}
