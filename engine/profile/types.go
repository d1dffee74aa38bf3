// Package profile tracks per-user behavioral state: durable preferences, a
// short-lived rolling session, and the disclosure-level suggestion derived
// from both. Persistence failures never surface to callers; state degrades to
// an in-process fallback with reduced durability.
package profile

import (
	"time"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
)

// Bounds for the recency lists and behavioral thresholds.
const (
	maxRecentLevels  = 10
	maxRecentActions = 10

	frequentUserThreshold = 5
	newUserThreshold      = 3

	sessionTTL = 24 * time.Hour
)

// Preferences is the durable per-user state.
type Preferences struct {
	PreferredLevel      domain.DisclosureLevel `json:"preferred_level"`
	PreferredMode       domain.DisplayMode     `json:"preferred_mode"`
	PreferredProvider   domain.ProviderName    `json:"preferred_provider,omitempty"`
	PrefersDetailed     bool                   `json:"prefers_detailed"`
	IsMobile            bool                   `json:"is_mobile"`
	FrequentUser        bool                   `json:"frequent_user"`
	HasComparedVehicles bool                   `json:"has_compared_vehicles"`
	TotalSearches       int                    `json:"total_searches"`
	RecentLevels        []int                  `json:"recent_levels,omitempty"`
}

// DefaultPreferences is the state of a user who has never interacted.
func DefaultPreferences() Preferences {
	return Preferences{
		PreferredLevel: domain.LevelStandard,
		PreferredMode:  domain.ModeAuto,
	}
}

// recomputeDerived refreshes PrefersDetailed and FrequentUser from the raw
// counters. PrefersDetailed is the average of the last 3 recent levels being
// at least detailed; it is never set independently of RecentLevels here.
func (p *Preferences) recomputeDerived() {
	p.FrequentUser = p.TotalSearches >= frequentUserThreshold

	n := len(p.RecentLevels)
	if n == 0 {
		return
	}
	window := p.RecentLevels
	if n > 3 {
		window = window[n-3:]
	}
	sum := 0
	for _, l := range window {
		sum += l
	}
	avg := float64(sum) / float64(len(window))
	p.PrefersDetailed = avg >= float64(domain.LevelDetailed)
}

// Session is the ephemeral per-user rolling window, persisted with a short
// TTL rather than tied to a real conversation lifetime.
type Session struct {
	ID                      string    `json:"id"`
	CurrentVIN              string    `json:"current_vin,omitempty"`
	SearchesThisSession     int       `json:"searches_this_session"`
	LevelChangesThisSession int       `json:"level_changes_this_session"`
	RecentActions           []string  `json:"recent_actions,omitempty"`
	IsMobileSession         bool      `json:"is_mobile_session"`
	StartedAt               time.Time `json:"started_at"`
}
