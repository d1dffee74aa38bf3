package present

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
)

func fordRecord() *domain.VehicleRecord {
	rec := domain.NewRecord("1FTEW1E88HKE34785", domain.ProviderAutoDetail)
	a := rec.Attributes
	a.Set(domain.AttrYear, "2017")
	a.Set(domain.AttrMake, "Ford")
	a.Set(domain.AttrModel, "F-150")
	a.Set(domain.AttrTrim, "XLT")
	a.Set(domain.AttrEngine, "3.5L V6 EcoBoost")
	a.Set(domain.AttrCylinders, "6")
	a.Set(domain.AttrHorsepower, "375 hp")
	a.Set(domain.AttrFuelType, "Gasoline")
	a.Set(domain.AttrManufacturer, "Ford Motor Company")
	a.Set(domain.AttrPlantCity, "Dearborn")
	a.Set(domain.AttrLength, "231.9 in")
	a.SetList(domain.AttrFeatures, []string{
		"Backup camera", "Tow package", "Bluetooth", "Keyless entry",
		"Cruise control", "Bed liner", "Heated seats",
	})
	rec.MarketValue = &domain.MarketValueBlock{Retail: 28500, TradeIn: 25000, Currency: "USD"}
	rec.History = &domain.HistoryBlock{Owners: 2, TitleStatus: "clean"}
	return rec
}

func stripVINLine(s string) string {
	if i := strings.LastIndex(s, "\nVIN: "); i >= 0 {
		return s[:i]
	}
	return s
}

func TestRender_EmptyAttributes(t *testing.T) {
	rec := domain.NewRecord("1HGBH41JXMN109186", domain.ProviderNHTSA)
	got := Render(rec, domain.LevelStandard, domain.ModeDesktop)
	if got != EmptyRecordPlaceholder {
		t.Errorf("empty record render = %q", got)
	}
	if Render(nil, domain.LevelEssential, domain.ModeMobile) == "" {
		t.Error("nil record must not render empty")
	}
}

func TestRender_VINLineExactlyOnceAtEnd(t *testing.T) {
	rec := fordRecord()
	for _, level := range []domain.DisclosureLevel{
		domain.LevelEssential, domain.LevelStandard, domain.LevelDetailed, domain.LevelComplete,
	} {
		out := Render(rec, level, domain.ModeDesktop)
		if n := strings.Count(out, "VIN: `"); n != 1 {
			t.Errorf("level %v: %d VIN lines", level, n)
		}
		if !strings.HasSuffix(out, "VIN: `1FTEW1E88HKE34785`") {
			t.Errorf("level %v: VIN line not at end:\n%s", level, out)
		}
	}
}

func TestRender_LevelsAreIncremental(t *testing.T) {
	rec := fordRecord()
	essential := Render(rec, domain.LevelEssential, domain.ModeDesktop)
	standard := Render(rec, domain.LevelStandard, domain.ModeDesktop)
	detailed := Render(rec, domain.LevelDetailed, domain.ModeDesktop)

	if !strings.HasPrefix(standard, stripVINLine(essential)) {
		t.Errorf("standard does not extend essential:\n--\n%s\n--\n%s", essential, standard)
	}
	if !strings.HasPrefix(detailed, stripVINLine(standard)) {
		t.Errorf("detailed does not extend standard:\n--\n%s\n--\n%s", standard, detailed)
	}
	if len(detailed) <= len(standard) || len(standard) <= len(essential) {
		t.Error("each level must add content for a rich record")
	}
}

func TestRender_CacheAnnotation(t *testing.T) {
	rec := fordRecord()
	rec.RetrievedFromCache = true
	const note = "Retrieved from cache"

	if strings.Contains(Render(rec, domain.LevelEssential, domain.ModeDesktop), note) {
		t.Error("essential must stay terse, no cache note")
	}
	for _, level := range []domain.DisclosureLevel{domain.LevelStandard, domain.LevelDetailed} {
		if !strings.Contains(Render(rec, level, domain.ModeDesktop), note) {
			t.Errorf("level %v missing cache note", level)
		}
	}
}

func TestRender_ModeLayout(t *testing.T) {
	rec := fordRecord()
	mobile := Render(rec, domain.LevelStandard, domain.ModeMobile)
	desktop := Render(rec, domain.LevelStandard, domain.ModeDesktop)

	if !strings.Contains(mobile, strings.Repeat("─", mobileRuleWidth)) {
		t.Error("mobile rule width wrong")
	}
	if !strings.Contains(desktop, strings.Repeat("─", desktopRuleWidth)) {
		t.Error("desktop rule width wrong")
	}
	if !strings.Contains(mobile, "\n• Engine: ") {
		t.Errorf("mobile must use one bullet per line:\n%s", mobile)
	}
	if !strings.Contains(desktop, " • Cylinders: 6 • ") {
		t.Errorf("desktop must join facts on one line:\n%s", desktop)
	}
}

func TestRender_FeatureTruncation(t *testing.T) {
	out := Render(fordRecord(), domain.LevelStandard, domain.ModeDesktop)
	if !strings.Contains(out, "… and 2 more") {
		t.Errorf("standard should cap features at %d:\n%s", keyFeatureLimit, out)
	}
	full := Render(fordRecord(), domain.LevelComplete, domain.ModeDesktop)
	if strings.Contains(full, "more") && strings.Contains(full, "… and") {
		t.Error("complete must list all features")
	}
	if !strings.Contains(full, "Heated seats") {
		t.Error("complete missing last feature")
	}
}

func TestRender_CompleteCatchAll(t *testing.T) {
	rec := fordRecord()
	rec.Attributes.Set("axleConfiguration", "4x4")
	out := Render(rec, domain.LevelComplete, domain.ModeDesktop)
	for _, want := range []string{"axleConfiguration: 4x4", "Market Value", "History", "Owners: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("complete missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(Render(rec, domain.LevelStandard, domain.ModeDesktop), "axleConfiguration") {
		t.Error("uncovered fields must only surface at complete")
	}
}

func TestRender_DetailedFallsBackToFeatures(t *testing.T) {
	// A feature-heavy provider shape with no manufacturing data.
	rec := domain.NewRecord("1HGBH41JXMN109186", domain.ProviderVINLookup)
	rec.Attributes.Set(domain.AttrYear, "1991")
	rec.Attributes.Set(domain.AttrMake, "Honda")
	rec.Attributes.Set(domain.AttrModel, "CBR600")
	rec.Attributes.Set(domain.AttrTorque, "64 Nm")
	rec.Attributes.SetList(domain.AttrFeatures, []string{"ABS", "Center stand"})

	out := Render(rec, domain.LevelDetailed, domain.ModeDesktop)
	if !strings.Contains(out, "Features & Options") {
		t.Errorf("expected extended feature block:\n%s", out)
	}
	if !strings.Contains(out, "Torque: 64 Nm") {
		t.Errorf("expected performance extras:\n%s", out)
	}
	if strings.Contains(out, "Manufacturing") {
		t.Error("no manufacturing block without plant data")
	}
}

func TestRender_CacheRoundTripIdentical(t *testing.T) {
	rec := fordRecord()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back domain.VehicleRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	back.RetrievedFromCache = rec.RetrievedFromCache

	for _, level := range []domain.DisclosureLevel{
		domain.LevelEssential, domain.LevelStandard, domain.LevelDetailed, domain.LevelComplete,
	} {
		for _, mode := range []domain.DisplayMode{domain.ModeMobile, domain.ModeDesktop} {
			a, b := Render(rec, level, mode), Render(&back, level, mode)
			if a != b {
				t.Errorf("level %v mode %v render diverged:\n--\n%s\n--\n%s", level, mode, a, b)
			}
		}
	}
}
