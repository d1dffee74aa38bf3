package present

import (
	"github.com/VinsightAI/vinsight-mvp/engine/domain"
)

const maxLevelButtons = 3

// Button is one tappable control: a display label and the action token it
// carries.
type Button struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// ControlSet is an ordered sequence of button rows, rendered by the transport
// layer as native inline controls.
type ControlSet struct {
	Rows [][]Button `json:"rows"`
}

func (c *ControlSet) addRow(buttons ...Button) {
	if len(buttons) > 0 {
		c.Rows = append(c.Rows, buttons)
	}
}

// UserContext is the slice of tracked user state the builder branches on.
type UserContext struct {
	IsMobile            bool
	FrequentUser        bool
	HasComparedVehicles bool
}

var levelIcons = map[domain.DisclosureLevel]string{
	domain.LevelEssential: "⚡",
	domain.LevelStandard:  "📋",
	domain.LevelDetailed:  "🔍",
	domain.LevelComplete:  "📖",
}

var levelNames = map[domain.DisclosureLevel]string{
	domain.LevelEssential: "Quick",
	domain.LevelStandard:  "Standard",
	domain.LevelDetailed:  "Detailed",
	domain.LevelComplete:  "Full",
}

func levelButton(level domain.DisclosureLevel, vin string, iconOnly bool) Button {
	label := levelIcons[level]
	if !iconOnly {
		label += " " + levelNames[level]
	}
	return Button{Label: label, Action: EncodeLevel(level, vin)}
}

// BuildKeyboard assembles the navigation controls matching a rendered view.
// The level-switch row offers exactly the levels Render can produce for this
// record, minus the one currently shown.
func BuildKeyboard(vin string, rec *domain.VehicleRecord, current domain.DisclosureLevel, uc UserContext) ControlSet {
	current = domain.ClampLevel(current)
	available := AvailableLevels(rec)

	if uc.IsMobile {
		return mobileLayout(vin, rec, current, available, uc)
	}
	if uc.FrequentUser {
		return compactLayout(vin, rec, current, available, uc)
	}
	return generalLayout(vin, rec, current, available, uc)
}

// levelRow builds the level-switch buttons. When more than three levels
// would compete for the row, only the extremes survive: the step toward
// essential and the step toward complete. End levels keep their label,
// intermediates shrink to icon only.
func levelRow(vin string, current domain.DisclosureLevel, available []domain.DisclosureLevel) []Button {
	var candidates []domain.DisclosureLevel
	for _, l := range available {
		if l != current {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) > maxLevelButtons {
		candidates = []domain.DisclosureLevel{candidates[0], candidates[len(candidates)-1]}
	}
	buttons := make([]Button, 0, len(candidates))
	for _, l := range candidates {
		iconOnly := l != domain.LevelEssential && l != domain.LevelComplete
		buttons = append(buttons, levelButton(l, vin, iconOnly))
	}
	return buttons
}

func premiumRow(vin string, rec *domain.VehicleRecord) []Button {
	var buttons []Button
	if rec != nil && rec.MarketValue != nil {
		buttons = append(buttons, Button{Label: "💰 Market Value", Action: Encode(VerbShowMarketValue, vin)})
	}
	if rec != nil && rec.History != nil {
		buttons = append(buttons, Button{Label: "📜 History", Action: Encode(VerbShowHistory, vin)})
	}
	return buttons
}

func quickActions(vin string, uc UserContext) []Button {
	buttons := []Button{
		{Label: "💾 Save", Action: Encode(VerbSaveVIN, vin)},
		{Label: "📤 Share", Action: Encode(VerbShareVIN, vin)},
	}
	if uc.HasComparedVehicles {
		buttons = append(buttons, Button{Label: "⚖️ Compare", Action: Encode(VerbCompareStart, vin)})
	}
	if uc.FrequentUser {
		buttons = append(buttons, Button{Label: "🕘 Recent", Action: Encode(VerbRecent)})
	} else {
		buttons = append(buttons, Button{Label: "🔎 New VIN", Action: Encode(VerbNewVIN)})
	}
	return buttons
}

// generalLayout is the adaptive default: level row, premium row, quick
// actions, then refresh and close.
func generalLayout(vin string, rec *domain.VehicleRecord, current domain.DisclosureLevel, available []domain.DisclosureLevel, uc UserContext) ControlSet {
	var cs ControlSet
	cs.addRow(levelRow(vin, current, available)...)
	cs.addRow(premiumRow(vin, rec)...)
	cs.addRow(quickActions(vin, uc)...)
	cs.addRow(
		Button{Label: "🔄 Refresh", Action: Encode(VerbRefresh, vin)},
		Button{Label: "✖ Close", Action: Encode(VerbCloseMenu)},
	)
	return cs
}

// mobileLayout stacks one button per row for tap-target size. Refresh is
// dropped in favor of a single prominent show-more control.
func mobileLayout(vin string, rec *domain.VehicleRecord, current domain.DisclosureLevel, available []domain.DisclosureLevel, uc UserContext) ControlSet {
	var cs ControlSet
	if next, ok := nextHigher(current, available); ok {
		cs.addRow(Button{Label: "📖 Show More", Action: EncodeLevel(next, vin)})
	} else if prev, ok := nextLower(current, available); ok {
		cs.addRow(Button{Label: "⚡ Show Less", Action: EncodeLevel(prev, vin)})
	}
	for _, btn := range premiumRow(vin, rec) {
		cs.addRow(btn)
	}
	for _, btn := range quickActions(vin, uc) {
		cs.addRow(btn)
	}
	cs.addRow(Button{Label: "✖ Close", Action: Encode(VerbCloseMenu)})
	return cs
}

// compactLayout is for frequent desktop users: levels and premium data share
// the first row, actions and utilities share the second.
func compactLayout(vin string, rec *domain.VehicleRecord, current domain.DisclosureLevel, available []domain.DisclosureLevel, uc UserContext) ControlSet {
	var cs ControlSet
	cs.addRow(append(levelRow(vin, current, available), premiumRow(vin, rec)...)...)
	actions := quickActions(vin, uc)
	actions = append(actions,
		Button{Label: "🔄 Refresh", Action: Encode(VerbRefresh, vin)},
		Button{Label: "✖ Close", Action: Encode(VerbCloseMenu)},
	)
	cs.addRow(actions...)
	return cs
}

func nextHigher(current domain.DisclosureLevel, available []domain.DisclosureLevel) (domain.DisclosureLevel, bool) {
	for _, l := range available {
		if l > current {
			return l, true
		}
	}
	return 0, false
}

func nextLower(current domain.DisclosureLevel, available []domain.DisclosureLevel) (domain.DisclosureLevel, bool) {
	var best domain.DisclosureLevel
	for _, l := range available {
		if l < current && l > best {
			best = l
		}
	}
	return best, best != 0
}
