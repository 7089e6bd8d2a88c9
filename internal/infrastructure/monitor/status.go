package monitor

import "time"

// Status is the latest probe result for every registered dependency.
type Status struct {
	Components map[string]bool `json:"components"`
	Buffer     bool            `json:"buffer"`
	BufferSize int             `json:"buffer_size"`
	LastCheck  time.Time       `json:"last_check"`
}

// Healthy reports whether every component answered its last probe.
func (s Status) Healthy() bool {
	for _, ok := range s.Components {
		if !ok {
			return false
		}
	}
	return true
}
