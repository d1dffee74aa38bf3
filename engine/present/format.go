package present

import (
	"fmt"
	"sort"
	"strings"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
)

const (
	mobileRuleWidth  = 35
	desktopRuleWidth = 50

	keyFeatureLimit      = 5
	extendedFeatureLimit = 12

	// EmptyRecordPlaceholder is returned when a record carries no decoded
	// attributes at all. Rendering never produces an empty string.
	EmptyRecordPlaceholder = "⚠️ No vehicle data could be decoded for this VIN. Try another provider or check the VIN."
)

// fieldLabels maps canonical attribute keys to display labels.
var fieldLabels = map[string]string{
	domain.AttrYear:         "Year",
	domain.AttrMake:         "Make",
	domain.AttrModel:        "Model",
	domain.AttrTrim:         "Trim",
	domain.AttrBodyClass:    "Body",
	domain.AttrEngine:       "Engine",
	domain.AttrCylinders:    "Cylinders",
	domain.AttrDisplacement: "Displacement",
	domain.AttrHorsepower:   "Horsepower",
	domain.AttrTorque:       "Torque",
	domain.AttrFuelType:     "Fuel",
	domain.AttrTransmission: "Transmission",
	domain.AttrDrivetrain:   "Drivetrain",
	domain.AttrManufacturer: "Manufacturer",
	domain.AttrPlantCity:    "Plant city",
	domain.AttrPlantCountry: "Plant country",
	domain.AttrSeries:       "Series",
	domain.AttrDoors:        "Doors",
	domain.AttrLength:       "Length",
	domain.AttrWidth:        "Width",
	domain.AttrHeight:       "Height",
	domain.AttrWheelbase:    "Wheelbase",
	domain.AttrCurbWeight:   "Curb weight",
	domain.AttrTopSpeed:     "Top speed",
	domain.AttrMSRP:         "MSRP",
}

func labelFor(key string) string {
	if l, ok := fieldLabels[key]; ok {
		return l
	}
	return key
}

// AvailableLevels reports which disclosure levels render meaningful content
// for a record. The result is strictly increasing and starts at essential.
// The keyboard builder relies on this exactly matching what Render produces,
// so a control never routes to a view indistinguishable from a lower one.
func AvailableLevels(rec *domain.VehicleRecord) []domain.DisclosureLevel {
	levels := []domain.DisclosureLevel{domain.LevelEssential}
	if rec == nil || len(rec.Attributes) == 0 {
		return levels
	}
	a := rec.Attributes
	if a.Has(domain.AttrYear) || a.Has(domain.AttrMake) || a.Has(domain.AttrModel) {
		levels = append(levels, domain.LevelStandard)
	}
	if a.Has(domain.AttrManufacturer) || a.Has(domain.AttrLength) ||
		a.Has(domain.AttrHorsepower) || a.Has(domain.AttrFeatures) {
		levels = append(levels, domain.LevelDetailed)
	}
	return append(levels, domain.LevelComplete)
}

// Render produces the textual view of a record at the given level and mode.
// Mode must already be resolved; auto is treated as desktop. Each level's
// output is a strict extension of the one below it, with the VIN line
// appended exactly once at the very end.
func Render(rec *domain.VehicleRecord, level domain.DisclosureLevel, mode domain.DisplayMode) string {
	if rec == nil || len(rec.Attributes) == 0 {
		return EmptyRecordPlaceholder
	}
	r := &renderer{rec: rec, mode: mode.Resolve(false)}

	r.identity()
	switch domain.ClampLevel(level) {
	case domain.LevelEssential:
		// Deliberately terse, no cache note.
	case domain.LevelStandard:
		r.enginePerformance(false)
		r.features(keyFeatureLimit, "✨ Key Features")
		r.cacheNote()
	case domain.LevelDetailed:
		r.enginePerformance(false)
		r.features(keyFeatureLimit, "✨ Key Features")
		r.detailedExtras()
		r.cacheNote()
	case domain.LevelComplete:
		r.enginePerformance(true)
		r.manufacturing()
		r.dimensions()
		r.features(0, "✨ Features")
		r.colors()
		r.marketValue()
		r.history()
		r.uncovered()
	}
	r.vinLine()
	return r.b.String()
}

// RenderMarketValue produces the focused market-value view opened from the
// premium-data row.
func RenderMarketValue(rec *domain.VehicleRecord, mode domain.DisplayMode) string {
	if rec == nil || rec.MarketValue == nil {
		return "⚠️ No market value data is available for this VIN."
	}
	r := &renderer{rec: rec, mode: mode.Resolve(false)}
	r.identity()
	r.marketValue()
	r.vinLine()
	return r.b.String()
}

// RenderHistory produces the focused history view opened from the
// premium-data row.
func RenderHistory(rec *domain.VehicleRecord, mode domain.DisplayMode) string {
	if rec == nil || rec.History == nil {
		return "⚠️ No history data is available for this VIN."
	}
	r := &renderer{rec: rec, mode: mode.Resolve(false)}
	r.identity()
	r.history()
	r.vinLine()
	return r.b.String()
}

type renderer struct {
	rec  *domain.VehicleRecord
	mode domain.DisplayMode
	b    strings.Builder
}

func (r *renderer) ruleWidth() int {
	if r.mode == domain.ModeMobile {
		return mobileRuleWidth
	}
	return desktopRuleWidth
}

// identity writes the header shared by every level: title, rule, and the
// core identity facts.
func (r *renderer) identity() {
	a := r.rec.Attributes
	title := strings.TrimSpace(strings.Join(compact(
		a.GetText(domain.AttrYear),
		a.GetText(domain.AttrMake),
		a.GetText(domain.AttrModel),
	), " "))
	if title == "" {
		title = "Unknown vehicle"
	}
	fmt.Fprintf(&r.b, "🚗 %s\n", title)
	r.b.WriteString(strings.Repeat("─", r.ruleWidth()))
	r.b.WriteString("\n")

	r.facts(
		fact{domain.AttrTrim, a.GetText(domain.AttrTrim)},
		fact{domain.AttrBodyClass, a.GetText(domain.AttrBodyClass)},
	)
}

// enginePerformance writes the standard-tier specification block. The full
// variant adds the fields reserved for the complete dump.
func (r *renderer) enginePerformance(full bool) {
	a := r.rec.Attributes
	fs := []fact{
		{domain.AttrEngine, a.GetText(domain.AttrEngine)},
		{domain.AttrCylinders, a.GetText(domain.AttrCylinders)},
		{domain.AttrDisplacement, a.GetText(domain.AttrDisplacement)},
		{domain.AttrHorsepower, a.GetText(domain.AttrHorsepower)},
		{domain.AttrFuelType, a.GetText(domain.AttrFuelType)},
		{domain.AttrTransmission, a.GetText(domain.AttrTransmission)},
		{domain.AttrDrivetrain, a.GetText(domain.AttrDrivetrain)},
	}
	if full {
		fs = append(fs,
			fact{domain.AttrTorque, a.GetText(domain.AttrTorque)},
			fact{domain.AttrTopSpeed, a.GetText(domain.AttrTopSpeed)},
			fact{domain.AttrMSRP, a.GetText(domain.AttrMSRP)},
		)
	}
	r.section("⚙️ Engine & Performance", fs...)
}

// detailedExtras adds the detailed tier on top of standard. Providers come in
// two shapes: some carry manufacturing and dimension data, others carry long
// option lists instead. Render whichever the record actually has.
func (r *renderer) detailedExtras() {
	a := r.rec.Attributes
	hasPlantData := false
	for _, key := range domain.DetailedFields {
		if a.Has(key) {
			hasPlantData = true
			break
		}
	}
	if hasPlantData {
		r.manufacturing()
		r.dimensions()
		return
	}
	r.features(extendedFeatureLimit, "✨ Features & Options")
	r.facts(
		fact{domain.AttrTorque, a.GetText(domain.AttrTorque)},
		fact{domain.AttrTopSpeed, a.GetText(domain.AttrTopSpeed)},
		fact{domain.AttrMSRP, a.GetText(domain.AttrMSRP)},
	)
}

func (r *renderer) manufacturing() {
	a := r.rec.Attributes
	r.section("🏭 Manufacturing",
		fact{domain.AttrManufacturer, a.GetText(domain.AttrManufacturer)},
		fact{domain.AttrPlantCity, a.GetText(domain.AttrPlantCity)},
		fact{domain.AttrPlantCountry, a.GetText(domain.AttrPlantCountry)},
		fact{domain.AttrSeries, a.GetText(domain.AttrSeries)},
	)
}

func (r *renderer) dimensions() {
	a := r.rec.Attributes
	r.section("📐 Dimensions",
		fact{domain.AttrDoors, a.GetText(domain.AttrDoors)},
		fact{domain.AttrLength, a.GetText(domain.AttrLength)},
		fact{domain.AttrWidth, a.GetText(domain.AttrWidth)},
		fact{domain.AttrHeight, a.GetText(domain.AttrHeight)},
		fact{domain.AttrWheelbase, a.GetText(domain.AttrWheelbase)},
		fact{domain.AttrCurbWeight, a.GetText(domain.AttrCurbWeight)},
	)
}

// features writes the feature list, truncated to limit (0 means all).
func (r *renderer) features(limit int, heading string) {
	items := r.rec.Attributes.GetList(domain.AttrFeatures)
	if len(items) == 0 {
		return
	}
	shown := items
	if limit > 0 && len(items) > limit {
		shown = items[:limit]
	}
	r.b.WriteString("\n" + heading + "\n")
	r.list(shown)
	if len(shown) < len(items) {
		fmt.Fprintf(&r.b, "  … and %d more\n", len(items)-len(shown))
	}
}

func (r *renderer) colors() {
	items := r.rec.Attributes.GetList(domain.AttrColors)
	if len(items) == 0 {
		return
	}
	r.b.WriteString("\n🎨 Colors\n")
	r.list(items)
}

func (r *renderer) marketValue() {
	mv := r.rec.MarketValue
	if mv == nil {
		return
	}
	cur := mv.Currency
	if cur == "" {
		cur = "USD"
	}
	r.b.WriteString("\n💰 Market Value\n")
	if mv.Retail > 0 {
		fmt.Fprintf(&r.b, "  Retail: %.0f %s\n", mv.Retail, cur)
	}
	if mv.TradeIn > 0 {
		fmt.Fprintf(&r.b, "  Trade-in: %.0f %s\n", mv.TradeIn, cur)
	}
	if mv.PrivateParty > 0 {
		fmt.Fprintf(&r.b, "  Private party: %.0f %s\n", mv.PrivateParty, cur)
	}
	if mv.MileageBasis > 0 {
		fmt.Fprintf(&r.b, "  Mileage basis: %d\n", mv.MileageBasis)
	}
}

func (r *renderer) history() {
	h := r.rec.History
	if h == nil {
		return
	}
	r.b.WriteString("\n📜 History\n")
	fmt.Fprintf(&r.b, "  Owners: %d, accidents: %d\n", h.Owners, h.Accidents)
	if h.TitleStatus != "" {
		fmt.Fprintf(&r.b, "  Title: %s\n", h.TitleStatus)
	}
	for _, ev := range h.Events {
		line := ev.Kind
		if ev.Date != "" {
			line = ev.Date + " " + line
		}
		if ev.Details != "" {
			line += ": " + ev.Details
		}
		r.b.WriteString("  • " + line + "\n")
	}
}

// uncovered dumps any attribute outside the known field set so nothing a
// provider returned is silently dropped at the highest level.
func (r *renderer) uncovered() {
	known := domain.KnownFields()
	var keys []string
	for k := range r.rec.Attributes {
		if !known[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)
	r.b.WriteString("\n📎 Other\n")
	for _, k := range keys {
		v := r.rec.Attributes[k]
		if v.IsList() {
			fmt.Fprintf(&r.b, "  %s: %s\n", labelFor(k), strings.Join(v.List, ", "))
		} else {
			fmt.Fprintf(&r.b, "  %s: %s\n", labelFor(k), v.Text)
		}
	}
}

func (r *renderer) cacheNote() {
	if r.rec.RetrievedFromCache {
		r.b.WriteString("\n📦 Retrieved from cache\n")
	}
}

func (r *renderer) vinLine() {
	fmt.Fprintf(&r.b, "\nVIN: `%s`", r.rec.VIN)
}

// fact is one labeled value; empty values are skipped at render time.
type fact struct {
	key   string
	value string
}

func (r *renderer) section(heading string, fs ...fact) {
	present := presentFacts(fs)
	if len(present) == 0 {
		return
	}
	r.b.WriteString("\n" + heading + "\n")
	r.writeFacts(present)
}

func (r *renderer) facts(fs ...fact) {
	present := presentFacts(fs)
	if len(present) == 0 {
		return
	}
	r.writeFacts(present)
}

// writeFacts lays facts out per mode: one bullet per line on mobile, a single
// bullet-joined line on desktop.
func (r *renderer) writeFacts(fs []fact) {
	if r.mode == domain.ModeMobile {
		for _, f := range fs {
			fmt.Fprintf(&r.b, "• %s: %s\n", labelFor(f.key), f.value)
		}
		return
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = fmt.Sprintf("%s: %s", labelFor(f.key), f.value)
	}
	r.b.WriteString(strings.Join(parts, " • ") + "\n")
}

func (r *renderer) list(items []string) {
	if r.mode == domain.ModeMobile {
		for _, it := range items {
			r.b.WriteString("• " + it + "\n")
		}
		return
	}
	r.b.WriteString("  " + strings.Join(items, " • ") + "\n")
}

func presentFacts(fs []fact) []fact {
	out := fs[:0:0]
	for _, f := range fs {
		if f.value != "" {
			out = append(out, f)
		}
	}
	return out
}

func compact(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
