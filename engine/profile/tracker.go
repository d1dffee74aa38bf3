package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
	"github.com/VinsightAI/vinsight-mvp/pkg/cache"
	"github.com/VinsightAI/vinsight-mvp/pkg/fn"
)

// Richness thresholds for level suggestion.
const (
	sparseRichness = 0.3
	richRichness   = 0.8
)

// Tracker persists and derives per-user behavioral state. All mutating
// operations are safe to call repeatedly and never raise into caller control
// flow: a failing backend is logged and the in-process fallback keeps the
// current process consistent.
type Tracker struct {
	store    cache.Store
	fallback *cache.Memory
	logger   *slog.Logger
}

// NewTracker creates a Tracker over the given store. A nil store disables
// durable persistence entirely (in-process fallback only).
func NewTracker(store cache.Store, logger *slog.Logger) *Tracker {
	if store == nil {
		store = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:    store,
		fallback: cache.NewMemory(),
		logger:   logger,
	}
}

func prefsKey(userID string) string   { return "user:" + userID + ":prefs" }
func sessionKey(userID string) string { return "user:" + userID + ":session" }

// GetPreferences returns the stored preferences, or defaults for a new user.
// Never fails: any backing-store or decode problem is logged and read as a
// fresh user.
func (t *Tracker) GetPreferences(ctx context.Context, userID string) Preferences {
	raw, ok := t.store.Get(ctx, prefsKey(userID))
	if !ok {
		raw, ok = t.fallback.Get(ctx, prefsKey(userID))
	}
	if !ok {
		return DefaultPreferences()
	}
	var p Preferences
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.logger.Warn("corrupt preferences, using defaults", "user", userID, "err", err)
		return DefaultPreferences()
	}
	p.PreferredLevel = domain.ClampLevel(p.PreferredLevel)
	return p
}

func (t *Tracker) savePreferences(ctx context.Context, userID string, p Preferences) {
	data, err := json.Marshal(p)
	if err != nil {
		t.logger.Error("marshal preferences", "user", userID, "err", err)
		return
	}
	t.fallback.Set(ctx, prefsKey(userID), string(data), 0)
	if !t.store.Set(ctx, prefsKey(userID), string(data), 0) {
		t.logger.Warn("preferences write degraded to in-process fallback", "user", userID)
	}
}

// GetSession returns the current rolling session, creating one on first use.
func (t *Tracker) GetSession(ctx context.Context, userID string) Session {
	raw, ok := t.store.Get(ctx, sessionKey(userID))
	if !ok {
		raw, ok = t.fallback.Get(ctx, sessionKey(userID))
	}
	if ok {
		var s Session
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
		t.logger.Warn("corrupt session, starting fresh", "user", userID)
	}
	return Session{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
}

func (t *Tracker) saveSession(ctx context.Context, userID string, s Session) {
	data, err := json.Marshal(s)
	if err != nil {
		t.logger.Error("marshal session", "user", userID, "err", err)
		return
	}
	t.fallback.Set(ctx, sessionKey(userID), string(data), sessionTTL)
	if !t.store.Set(ctx, sessionKey(userID), string(data), sessionTTL) {
		t.logger.Warn("session write degraded to in-process fallback", "user", userID)
	}
}

// RecordSearch tracks one completed decode at the given level.
func (t *Tracker) RecordSearch(ctx context.Context, userID, vin string, levelUsed domain.DisclosureLevel, isMobile bool) {
	p := t.GetPreferences(ctx, userID)
	p.TotalSearches++
	p.RecentLevels = fn.AppendBounded(p.RecentLevels, int(levelUsed), maxRecentLevels)
	p.IsMobile = isMobile
	p.recomputeDerived()
	t.savePreferences(ctx, userID, p)

	s := t.GetSession(ctx, userID)
	s.CurrentVIN = vin
	s.SearchesThisSession++
	s.IsMobileSession = isMobile
	t.saveSession(ctx, userID, s)
}

// RecordLevelChange tracks an explicit navigation between levels. Explicit
// widening is sticky (preferred level follows), and narrowing all the way to
// essential is sticky; nothing else mutates the preferred level.
func (t *Tracker) RecordLevelChange(ctx context.Context, userID string, from, to domain.DisclosureLevel) {
	p := t.GetPreferences(ctx, userID)
	if to > from {
		p.PrefersDetailed = true
		p.PreferredLevel = to
	} else if to == domain.LevelEssential {
		p.PreferredLevel = domain.LevelEssential
	}
	t.savePreferences(ctx, userID, p)

	s := t.GetSession(ctx, userID)
	s.LevelChangesThisSession++
	t.saveSession(ctx, userID, s)
}

// RecordAction appends an action to the bounded session history. Starting a
// comparison flips the durable has-compared flag; no other action does.
func (t *Tracker) RecordAction(ctx context.Context, userID, action string) {
	s := t.GetSession(ctx, userID)
	s.RecentActions = fn.AppendBounded(s.RecentActions, action, maxRecentActions)
	t.saveSession(ctx, userID, s)

	if action == "compare_start" {
		p := t.GetPreferences(ctx, userID)
		if !p.HasComparedVehicles {
			p.HasComparedVehicles = true
			t.savePreferences(ctx, userID, p)
		}
	}
}

// SuggestLevel derives the disclosure level to present for a record of the
// given richness. Rule order matters: sparse data always collapses to
// essential; otherwise rich data plus a detail-leaning user widens, mobile
// caps verbosity, and the new-user override is evaluated last and wins so the
// first few interactions are always the calibrated default.
func (t *Tracker) SuggestLevel(ctx context.Context, userID string, richness float64) domain.DisclosureLevel {
	p := t.GetPreferences(ctx, userID)

	if richness < sparseRichness {
		return domain.LevelEssential
	}

	level := domain.ClampLevel(p.PreferredLevel)
	if richness > richRichness && p.PrefersDetailed {
		level = domain.LevelDetailed
	}

	if p.IsMobile {
		if level == domain.LevelComplete {
			level = domain.LevelDetailed
		}
		if level == domain.LevelDetailed && !p.PrefersDetailed {
			level = domain.LevelStandard
		}
	}

	if p.TotalSearches < newUserThreshold {
		return domain.LevelStandard
	}
	return level
}

// SetPreferredProvider records the user's upstream provider choice.
func (t *Tracker) SetPreferredProvider(ctx context.Context, userID string, name domain.ProviderName) {
	p := t.GetPreferences(ctx, userID)
	p.PreferredProvider = name
	t.savePreferences(ctx, userID, p)
}

// Snapshot returns a flat view of the user's state for the transport layer to
// branch on (credential prompts, layout hints, etc.).
func (t *Tracker) Snapshot(ctx context.Context, userID string) map[string]any {
	p := t.GetPreferences(ctx, userID)
	s := t.GetSession(ctx, userID)
	return map[string]any{
		"preferred_level":       p.PreferredLevel.String(),
		"preferred_mode":        p.PreferredMode.String(),
		"prefers_detailed":      p.PrefersDetailed,
		"is_mobile":             p.IsMobile || s.IsMobileSession,
		"frequent_user":         p.FrequentUser,
		"has_compared_vehicles": p.HasComparedVehicles,
		"total_searches":        p.TotalSearches,
		"searches_this_session": s.SearchesThisSession,
		"current_vin":           s.CurrentVIN,
		"new_user":              p.TotalSearches < newUserThreshold,
	}
}

// SavedKey namespaces a user's saved-vehicles list.
func SavedKey(userID string) string { return "user:" + userID + ":saved" }

// HistoryKey namespaces a user's decoded-VIN history.
func HistoryKey(userID string) string { return "user:" + userID + ":history" }

// maxSavedVehicles bounds the favorites list.
const maxSavedVehicles = 10

// SaveVIN appends vin to the user's saved list. Read-modify-write on a single
// key; last-write-wins under concurrent double-submission is accepted.
func (t *Tracker) SaveVIN(ctx context.Context, userID, vin string) {
	t.appendToList(ctx, SavedKey(userID), vin, maxSavedVehicles)
}

// DeleteSavedVIN removes vin from the user's saved list.
func (t *Tracker) DeleteSavedVIN(ctx context.Context, userID, vin string) {
	list := t.readList(ctx, SavedKey(userID))
	list = fn.Filter(list, func(v string) bool { return v != vin })
	t.writeList(ctx, SavedKey(userID), list)
}

// SavedVINs returns the user's saved list, newest last.
func (t *Tracker) SavedVINs(ctx context.Context, userID string) []string {
	return t.readList(ctx, SavedKey(userID))
}

// RecordDecodedVIN appends vin to the user's decode history.
func (t *Tracker) RecordDecodedVIN(ctx context.Context, userID, vin string) {
	t.appendToList(ctx, HistoryKey(userID), vin, maxRecentActions)
}

// RecentVINs returns the user's recently decoded VINs, newest last.
func (t *Tracker) RecentVINs(ctx context.Context, userID string) []string {
	return t.readList(ctx, HistoryKey(userID))
}

func (t *Tracker) appendToList(ctx context.Context, key, value string, max int) {
	list := t.readList(ctx, key)
	list = fn.Filter(list, func(v string) bool { return v != value })
	list = fn.AppendBounded(list, value, max)
	t.writeList(ctx, key, list)
}

func (t *Tracker) readList(ctx context.Context, key string) []string {
	raw, ok := t.store.Get(ctx, key)
	if !ok {
		raw, ok = t.fallback.Get(ctx, key)
	}
	if !ok {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.logger.Warn("corrupt list, resetting", "key", key, "err", err)
		return nil
	}
	return list
}

func (t *Tracker) writeList(ctx context.Context, key string, list []string) {
	data, err := json.Marshal(list)
	if err != nil {
		t.logger.Error(fmt.Sprintf("marshal list %s", key), "err", err)
		return
	}
	t.fallback.Set(ctx, key, string(data), 0)
	t.store.Set(ctx, key, string(data), 0)
}
