package monitors

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// Config is the schedule payload stored on a monitor and snapshotted onto
// each check-in.
type Config struct {
	Schedule string `json:"schedule"`
	// CheckInMargin is the grace period in minutes added after the
	// cron-computed instant before a missed check-in is flagged.
	CheckInMargin int `json:"checkin_margin"`
}

func ParseConfig(raw datatypes.JSON) (Config, error) {
	var cfg Config
	if len(raw) == 0 {
		return cfg, fmt.Errorf("%w: empty config", ErrInvalidSchedule)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if cfg.Schedule == "" {
		return cfg, fmt.Errorf("%w: missing schedule", ErrInvalidSchedule)
	}
	return cfg, nil
}

func (c Config) JSON() (datatypes.JSON, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
