// Package domain defines the canonical decoded-vehicle types, disclosure
// levels, and VIN validation shared by every stage of the Vinsight pipeline.
// It acts as the validation gate at pipeline entry points.
package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// ProviderName identifies an upstream vehicle-data provider.
type ProviderName string

const (
	ProviderAutoDetail ProviderName = "autodetail"
	ProviderVINLookup  ProviderName = "vinlookup"
	ProviderNHTSA      ProviderName = "nhtsa"
)

// DisclosureLevel is an ordered verbosity tier. Higher means more information;
// expand/collapse transitions compare by this ordinal.
type DisclosureLevel int

const (
	LevelEssential DisclosureLevel = 1
	LevelStandard  DisclosureLevel = 2
	LevelDetailed  DisclosureLevel = 3
	LevelComplete  DisclosureLevel = 4
)

func (l DisclosureLevel) String() string {
	switch l {
	case LevelEssential:
		return "essential"
	case LevelStandard:
		return "standard"
	case LevelDetailed:
		return "detailed"
	case LevelComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Valid reports whether l is one of the four defined levels.
func (l DisclosureLevel) Valid() bool {
	return l >= LevelEssential && l <= LevelComplete
}

// ClampLevel forces l into the valid range, defaulting to standard for zero
// or garbage values.
func ClampLevel(l DisclosureLevel) DisclosureLevel {
	if !l.Valid() {
		return LevelStandard
	}
	return l
}

// DisplayMode selects the layout width for rendered output. Auto is resolved
// to mobile or desktop before the formatter ever sees it.
type DisplayMode int

const (
	ModeAuto DisplayMode = iota
	ModeMobile
	ModeDesktop
)

func (m DisplayMode) String() string {
	switch m {
	case ModeMobile:
		return "mobile"
	case ModeDesktop:
		return "desktop"
	default:
		return "auto"
	}
}

// Resolve maps Auto to mobile or desktop based on the learned flag.
func (m DisplayMode) Resolve(isMobile bool) DisplayMode {
	if m != ModeAuto {
		return m
	}
	if isMobile {
		return ModeMobile
	}
	return ModeDesktop
}

// AttributeValue is either a scalar string or a list of strings. Absent values
// are represented by absence from the Attributes map, never by an empty value.
type AttributeValue struct {
	Text string
	List []string
}

// IsList reports whether the value carries a list payload.
func (v AttributeValue) IsList() bool { return v.List != nil }

// Empty reports whether the value carries no payload at all.
func (v AttributeValue) Empty() bool { return v.Text == "" && len(v.List) == 0 }

// MarshalJSON encodes a list value as a JSON array and a scalar as a string,
// so cached records round-trip byte-identically.
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if v.IsList() {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts either form.
func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(data, &v.List)
	}
	return json.Unmarshal(data, &v.Text)
}

// Text constructs a scalar attribute value.
func Text(s string) AttributeValue { return AttributeValue{Text: s} }

// ListOf constructs a list attribute value.
func ListOf(items ...string) AttributeValue { return AttributeValue{List: items} }

// Attributes is the open-ended, provider-populated key/value bag of a decoded
// record. Accessors return absence instead of panicking on missing keys.
type Attributes map[string]AttributeValue

// Set stores a scalar value, dropping empty strings so that presence tests
// stay equivalent to truthiness tests.
func (a Attributes) Set(key, value string) {
	if value == "" {
		return
	}
	a[key] = Text(value)
}

// SetList stores a list value, dropping empty lists.
func (a Attributes) SetList(key string, items []string) {
	if len(items) == 0 {
		return
	}
	a[key] = AttributeValue{List: items}
}

// Has reports whether key is present.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// GetText returns the scalar value for key, or "" when absent or a list.
func (a Attributes) GetText(key string) string {
	if v, ok := a[key]; ok && !v.IsList() {
		return v.Text
	}
	return ""
}

// GetList returns the list value for key, or nil when absent or a scalar.
func (a Attributes) GetList(key string) []string {
	if v, ok := a[key]; ok {
		return v.List
	}
	return nil
}

// MarketValueBlock is the optional valuation sub-resource of a decoded record.
type MarketValueBlock struct {
	Retail       float64 `json:"retail,omitempty"`
	TradeIn      float64 `json:"trade_in,omitempty"`
	PrivateParty float64 `json:"private_party,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	MileageBasis int     `json:"mileage_basis,omitempty"`
}

// HistoryEvent is one entry in a vehicle history report.
type HistoryEvent struct {
	Date    string `json:"date,omitempty"`
	Kind    string `json:"kind"`
	Details string `json:"details,omitempty"`
}

// HistoryBlock is the optional history sub-resource of a decoded record.
type HistoryBlock struct {
	Owners      int            `json:"owners,omitempty"`
	Accidents   int            `json:"accidents,omitempty"`
	TitleStatus string         `json:"title_status,omitempty"`
	Events      []HistoryEvent `json:"events,omitempty"`
}

// VehicleRecord is the canonical decoded result. It is created once by the
// provider facade (or reconstructed from cache) and read-only afterwards.
type VehicleRecord struct {
	VIN                string            `json:"vin"`
	Attributes         Attributes        `json:"attributes"`
	MarketValue        *MarketValueBlock `json:"market_value,omitempty"`
	History            *HistoryBlock     `json:"history,omitempty"`
	SourceProvider     ProviderName      `json:"source_provider"`
	DecodedAt          time.Time         `json:"decoded_at"`
	RetrievedFromCache bool              `json:"retrieved_from_cache,omitempty"`
}

// NewRecord creates a record with a non-nil attribute bag.
func NewRecord(vin string, provider ProviderName) *VehicleRecord {
	return &VehicleRecord{
		VIN:            vin,
		Attributes:     make(Attributes),
		SourceProvider: provider,
		DecodedAt:      time.Now().UTC(),
	}
}
