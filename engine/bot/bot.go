// Package bot is the library boundary exposed to the conversational
// transport. It wires validation, the provider facade, the user context
// tracker, and the presentation engine into the three operations the
// transport layer calls: decode-and-present, navigation-action handling, and
// the user context snapshot.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
	"github.com/VinsightAI/vinsight-mvp/engine/present"
	"github.com/VinsightAI/vinsight-mvp/engine/profile"
	"github.com/VinsightAI/vinsight-mvp/engine/provider"
	"github.com/VinsightAI/vinsight-mvp/engine/richness"
	"github.com/VinsightAI/vinsight-mvp/pkg/events"
	"github.com/VinsightAI/vinsight-mvp/pkg/metrics"
)

// Response is one outbound conversational frame: rendered text plus the
// controls that navigate it.
type Response struct {
	Text     string                 `json:"text"`
	Controls present.ControlSet     `json:"controls"`
	Level    domain.DisclosureLevel `json:"level"`
	VIN      string                 `json:"vin,omitempty"`
}

// Service bundles the request-scoped collaborators. Constructed once at
// process start and passed explicitly into every handler; no ambient global
// state.
type Service struct {
	facade  *provider.Facade
	tracker *profile.Tracker
	pub     *events.Publisher
	logger  *slog.Logger
	reg     *metrics.Registry
}

// New creates the Service. Publisher and registry may be nil.
func New(facade *provider.Facade, tracker *profile.Tracker, pub *events.Publisher, logger *slog.Logger, reg *metrics.Registry) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{facade: facade, tracker: tracker, pub: pub, logger: logger, reg: reg}
}

// DecodeAndPresent validates vin, decodes it through the facade, picks a
// disclosure level (override wins when valid, otherwise the tracker's
// suggestion), and renders text plus controls in lock-step.
func (s *Service) DecodeAndPresent(ctx context.Context, userID, rawVIN string, override domain.DisclosureLevel) (*Response, error) {
	vin := domain.NormalizeVIN(rawVIN)
	if err := domain.CheckVIN(vin); err != nil {
		return nil, err
	}

	prefs := s.tracker.GetPreferences(ctx, userID)
	rec, err := s.facade.Decode(ctx, prefs.PreferredProvider, vin)
	if err != nil {
		return nil, err
	}

	score := richness.Score(rec)
	level := s.pickLevel(ctx, userID, rec, score, override)

	isMobile := prefs.IsMobile || s.tracker.GetSession(ctx, userID).IsMobileSession
	s.tracker.RecordSearch(ctx, userID, vin, level, isMobile)
	s.tracker.RecordDecodedVIN(ctx, userID, vin)

	s.count("decode_presented")
	events.Publish(ctx, s.pub, events.SubjectDecode, events.DecodeEvent{
		UserID:   userID,
		VIN:      vin,
		Provider: string(rec.SourceProvider),
		CacheHit: rec.RetrievedFromCache,
		Level:    level.String(),
		Richness: score,
		At:       time.Now().UTC(),
	})

	return s.respond(ctx, userID, rec, level), nil
}

// HandleAction decodes an action token and re-enters presentation with an
// explicit override. Record data comes back through the facade's cache, so
// navigation never re-fetches from the provider.
func (s *Service) HandleAction(ctx context.Context, userID, token string) (*Response, error) {
	action, err := present.Parse(token)
	if err != nil {
		return nil, domain.NewValidationError("action", token, err)
	}
	s.tracker.RecordAction(ctx, userID, action.Verb)
	s.count("action_" + action.Verb)
	events.Publish(ctx, s.pub, events.SubjectAction, events.ActionEvent{
		UserID: userID,
		Verb:   action.Verb,
		VIN:    present.VINArg(action),
		At:     time.Now().UTC(),
	})

	switch action.Verb {
	case present.VerbShowLevel:
		return s.handleShowLevel(ctx, userID, action)
	case present.VerbShowMarketValue:
		return s.handlePremium(ctx, userID, action, present.RenderMarketValue)
	case present.VerbShowHistory:
		return s.handlePremium(ctx, userID, action, present.RenderHistory)
	case present.VerbSaveVIN:
		return s.handleSave(ctx, userID, action)
	case present.VerbDeleteSaved:
		return s.handleDeleteSaved(ctx, userID, action)
	case present.VerbShareVIN:
		return s.handleShare(ctx, userID, action)
	case present.VerbCompareStart:
		return &Response{Text: "⚖️ Comparison started. Send another VIN to compare against the current vehicle."}, nil
	case present.VerbRefresh:
		return s.handleRefresh(ctx, userID, action)
	case present.VerbDecodeVIN:
		return s.DecodeAndPresent(ctx, userID, present.VINArg(action), 0)
	case present.VerbNewVIN:
		return &Response{Text: "🔎 Send a 17-character VIN to decode."}, nil
	case present.VerbRecent:
		return s.handleRecent(ctx, userID)
	case present.VerbCloseMenu:
		return &Response{Text: "Menu closed. Send a VIN anytime."}, nil
	}
	return nil, domain.NewValidationError("action", token, present.ErrUnknownVerb)
}

// UserSnapshot exposes the tracker's flat state view for the transport layer
// to branch on.
func (s *Service) UserSnapshot(ctx context.Context, userID string) map[string]any {
	return s.tracker.Snapshot(ctx, userID)
}

// ValidateAPIKey gives immediate static feedback on a submitted credential.
func (s *Service) ValidateAPIKey(name domain.ProviderName, key string) bool {
	return s.facade.ValidateAPIKey(name, key)
}

func (s *Service) handleShowLevel(ctx context.Context, userID string, action present.Action) (*Response, error) {
	vin := s.resolveVIN(ctx, userID, action)
	if vin == "" {
		return &Response{Text: "🔎 Send a 17-character VIN to decode."}, nil
	}
	to := present.LevelArg(action)
	from := s.tracker.GetPreferences(ctx, userID).PreferredLevel
	s.tracker.RecordLevelChange(ctx, userID, from, to)

	rec, err := s.lookup(ctx, userID, vin)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, userID, rec, to), nil
}

func (s *Service) handlePremium(ctx context.Context, userID string, action present.Action, render func(*domain.VehicleRecord, domain.DisplayMode) string) (*Response, error) {
	vin := s.resolveVIN(ctx, userID, action)
	if vin == "" {
		return &Response{Text: "🔎 Send a 17-character VIN to decode."}, nil
	}
	rec, err := s.lookup(ctx, userID, vin)
	if err != nil {
		return nil, err
	}
	mode, uc := s.presentation(ctx, userID)
	return &Response{
		Text:     render(rec, mode),
		Controls: s.safeKeyboard(vin, rec, domain.LevelStandard, uc),
		Level:    domain.LevelStandard,
		VIN:      vin,
	}, nil
}

func (s *Service) handleSave(ctx context.Context, userID string, action present.Action) (*Response, error) {
	vin := s.resolveVIN(ctx, userID, action)
	if vin == "" {
		return &Response{Text: "Nothing to save yet. Decode a VIN first."}, nil
	}
	s.tracker.SaveVIN(ctx, userID, vin)
	return &Response{Text: fmt.Sprintf("💾 Saved `%s` to your vehicles.", vin), VIN: vin}, nil
}

func (s *Service) handleDeleteSaved(ctx context.Context, userID string, action present.Action) (*Response, error) {
	vin := present.VINArg(action)
	if vin == "" {
		return nil, domain.NewValidationError("action", action.Verb, present.ErrMalformedToken)
	}
	s.tracker.DeleteSavedVIN(ctx, userID, vin)
	return &Response{Text: fmt.Sprintf("🗑 Removed `%s` from your vehicles.", vin)}, nil
}

func (s *Service) handleShare(ctx context.Context, userID string, action present.Action) (*Response, error) {
	vin := s.resolveVIN(ctx, userID, action)
	if vin == "" {
		return &Response{Text: "Nothing to share yet. Decode a VIN first."}, nil
	}
	rec, err := s.lookup(ctx, userID, vin)
	if err != nil {
		return nil, err
	}
	mode, _ := s.presentation(ctx, userID)
	return &Response{
		Text:  "📤 Share this vehicle:\n\n" + s.safeRender(rec, domain.LevelEssential, mode),
		Level: domain.LevelEssential,
		VIN:   vin,
	}, nil
}

func (s *Service) handleRefresh(ctx context.Context, userID string, action present.Action) (*Response, error) {
	vin := s.resolveVIN(ctx, userID, action)
	if vin == "" {
		return &Response{Text: "🔎 Send a 17-character VIN to decode."}, nil
	}
	prefs := s.tracker.GetPreferences(ctx, userID)
	s.facade.Invalidate(ctx, prefs.PreferredProvider, vin)
	return s.DecodeAndPresent(ctx, userID, vin, 0)
}

func (s *Service) handleRecent(ctx context.Context, userID string) (*Response, error) {
	vins := s.tracker.RecentVINs(ctx, userID)
	if len(vins) == 0 {
		return &Response{Text: "No recent decodes yet. Send a VIN to get started."}, nil
	}
	var b strings.Builder
	b.WriteString("🕘 Recent vehicles:\n")
	var cs present.ControlSet
	for i := len(vins) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "• `%s`\n", vins[i])
		cs.Rows = append(cs.Rows, []present.Button{{
			Label:  vins[i],
			Action: present.Encode(present.VerbDecodeVIN, vins[i]),
		}})
	}
	return &Response{Text: b.String(), Controls: cs}, nil
}

// lookup fetches a record for a navigation action. The facade serves it from
// cache whenever the original decode landed there.
func (s *Service) lookup(ctx context.Context, userID, vin string) (*domain.VehicleRecord, error) {
	prefs := s.tracker.GetPreferences(ctx, userID)
	return s.facade.Decode(ctx, prefs.PreferredProvider, vin)
}

func (s *Service) resolveVIN(ctx context.Context, userID string, action present.Action) string {
	if vin := present.VINArg(action); vin != "" {
		return vin
	}
	return s.tracker.GetSession(ctx, userID).CurrentVIN
}

// pickLevel applies the override when valid and renderable, clamping to the
// highest available level at or below it; otherwise asks the tracker.
func (s *Service) pickLevel(ctx context.Context, userID string, rec *domain.VehicleRecord, score float64, override domain.DisclosureLevel) domain.DisclosureLevel {
	available := present.AvailableLevels(rec)
	if override.Valid() {
		best := available[0]
		for _, l := range available {
			if l <= override && l > best {
				best = l
			}
		}
		return best
	}
	suggested := s.tracker.SuggestLevel(ctx, userID, score)
	for _, l := range available {
		if l == suggested {
			return l
		}
	}
	best := available[0]
	for _, l := range available {
		if l < suggested {
			best = l
		}
	}
	return best
}

func (s *Service) presentation(ctx context.Context, userID string) (domain.DisplayMode, present.UserContext) {
	prefs := s.tracker.GetPreferences(ctx, userID)
	session := s.tracker.GetSession(ctx, userID)
	isMobile := prefs.IsMobile || session.IsMobileSession
	mode := prefs.PreferredMode.Resolve(isMobile)
	return mode, present.UserContext{
		IsMobile:            mode == domain.ModeMobile,
		FrequentUser:        prefs.FrequentUser,
		HasComparedVehicles: prefs.HasComparedVehicles,
	}
}

func (s *Service) respond(ctx context.Context, userID string, rec *domain.VehicleRecord, level domain.DisclosureLevel) *Response {
	mode, uc := s.presentation(ctx, userID)
	return &Response{
		Text:     s.safeRender(rec, level, mode),
		Controls: s.safeKeyboard(rec.VIN, rec, level, uc),
		Level:    level,
		VIN:      rec.VIN,
	}
}

// safeRender never lets a formatter failure fail a request that decoded
// successfully; it degrades to a minimal attribute dump.
func (s *Service) safeRender(rec *domain.VehicleRecord, level domain.DisclosureLevel, mode domain.DisplayMode) (text string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("formatter panic, degrading to dump", "vin", rec.VIN, "panic", r)
			text = fallbackDump(rec)
		}
	}()
	return present.Render(rec, level, mode)
}

func (s *Service) safeKeyboard(vin string, rec *domain.VehicleRecord, level domain.DisclosureLevel, uc present.UserContext) (cs present.ControlSet) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("keyboard builder panic, returning no controls", "vin", vin, "panic", r)
			cs = present.ControlSet{}
		}
	}()
	return present.BuildKeyboard(vin, rec, level, uc)
}

// fallbackDump is the last-resort text when presentation itself breaks.
func fallbackDump(rec *domain.VehicleRecord) string {
	if rec == nil {
		return "Sorry, something went wrong rendering this vehicle."
	}
	keys := make([]string, 0, len(rec.Attributes))
	for k := range rec.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		v := rec.Attributes[k]
		if v.IsList() {
			fmt.Fprintf(&b, "%s: %s\n", k, strings.Join(v.List, ", "))
		} else {
			fmt.Fprintf(&b, "%s: %s\n", k, v.Text)
		}
	}
	fmt.Fprintf(&b, "VIN: %s", rec.VIN)
	return b.String()
}

func (s *Service) count(event string) {
	if s.reg == nil {
		return
	}
	s.reg.Counter(metrics.WithLabels("vinsight_bot_events_total", "event", event),
		"Bot operations by outcome").Inc()
}
