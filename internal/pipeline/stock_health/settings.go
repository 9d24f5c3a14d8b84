package stock_health

import (
	"errors"
	"fmt"
)

// ErrInvalidSettings is returned when a settings update is rejected.
var ErrInvalidSettings = errors.New("invalid stock health settings")

// Settings holds the thresholds and horizons every classification pass runs with.
type Settings struct {
	ShortageDays int   `json:"shortage_days" mapstructure:"shortage_days"`
	ExcessDays   int   `json:"excess_days" mapstructure:"excess_days"`
	Horizons     []int `json:"horizons" mapstructure:"horizons"`
}

// DefaultSettings returns the stock health defaults: 20/60 days and 30-60 day horizons.
func DefaultSettings() Settings {
	return Settings{
		ShortageDays: 20,
		ExcessDays:   60,
		Horizons:     []int{30, 40, 50, 60},
	}
}

// Validate checks the settings before they are accepted. The engine itself never calls it.
func (s Settings) Validate() error {
	if s.ShortageDays <= 0 {
		return fmt.Errorf("%w: shortage threshold must be positive, got %d", ErrInvalidSettings, s.ShortageDays)
	}
	if s.ExcessDays <= s.ShortageDays {
		return fmt.Errorf("%w: excess threshold (%d) must be greater than shortage threshold (%d)",
			ErrInvalidSettings, s.ExcessDays, s.ShortageDays)
	}
	if len(s.Horizons) == 0 {
		return fmt.Errorf("%w: at least one horizon is required", ErrInvalidSettings)
	}
	for _, h := range s.Horizons {
		if h <= 0 {
			return fmt.Errorf("%w: horizons must be positive, got %d", ErrInvalidSettings, h)
		}
	}
	return nil
}

// Clone returns a copy that shares no memory with s.
func (s Settings) Clone() Settings {
	out := s
	out.Horizons = append([]int(nil), s.Horizons...)
	return out
}
