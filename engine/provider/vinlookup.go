package provider

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
)

const vinLookupBaseURL = "https://api.vinlookup.dev"

// VINLookup tokens are 32+ hex characters.
var vinLookupKeyRegex = regexp.MustCompile(`^[A-Fa-f0-9]{32,}$`)

// VINLookup integrates the keyed VINLookup API. One rich specs resource
// carries everything including options and colors; there are no auxiliary
// resources.
type VINLookup struct {
	apiKey  string
	baseURL string
	client  *client
	logger  *slog.Logger
}

// NewVINLookup creates the VINLookup integration.
func NewVINLookup(apiKey string, timeout time.Duration, logger *slog.Logger) *VINLookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &VINLookup{
		apiKey:  apiKey,
		baseURL: vinLookupBaseURL,
		client:  newClient(domain.ProviderVINLookup, timeout),
		logger:  logger,
	}
}

func (p *VINLookup) Name() domain.ProviderName { return domain.ProviderVINLookup }
func (p *VINLookup) Keyed() bool               { return true }

// ValidateAPIKey is a static shape check, no network call.
func (p *VINLookup) ValidateAPIKey(key string) bool {
	return vinLookupKeyRegex.MatchString(key)
}

type vinLookupResponse struct {
	Success bool `json:"success"`
	Specs   struct {
		Make         string `json:"make"`
		Model        string `json:"model"`
		Year         string `json:"year"`
		Trim         string `json:"trim"`
		Style        string `json:"style"`
		Engine       string `json:"engine"`
		Cylinders    string `json:"engine_cylinders"`
		Displacement string `json:"engine_displacement"`
		Horsepower   string `json:"horsepower"`
		Torque       string `json:"torque"`
		FuelType     string `json:"fuel_type"`
		Transmission string `json:"transmission"`
		Drivetrain   string `json:"drive_type"`
		TopSpeed     string `json:"top_speed_mph"`
		MSRP         string `json:"msrp"`
	} `json:"specs"`
	Options []struct {
		Name string `json:"name"`
	} `json:"options"`
	Colors []struct {
		Name string `json:"name"`
	} `json:"colors"`
}

// Decode fetches and maps the single specs+options resource.
func (p *VINLookup) Decode(ctx context.Context, vin string) (*domain.VehicleRecord, error) {
	endpoint := p.baseURL + "/v2/decode?vin=" + url.QueryEscape(vin)

	var resp vinLookupResponse
	if err := p.client.getJSON(ctx, endpoint, p.apiKey, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, domain.NewProviderError(domain.ProviderVINLookup, domain.ErrNotFound, "decode unsuccessful", nil)
	}

	record := domain.NewRecord(vin, domain.ProviderVINLookup)
	a := record.Attributes
	s := resp.Specs

	a.Set(domain.AttrMake, s.Make)
	a.Set(domain.AttrModel, s.Model)
	a.Set(domain.AttrYear, s.Year)
	a.Set(domain.AttrTrim, s.Trim)
	a.Set(domain.AttrBodyClass, s.Style)
	a.Set(domain.AttrEngine, s.Engine)
	a.Set(domain.AttrCylinders, s.Cylinders)
	a.Set(domain.AttrDisplacement, s.Displacement)
	a.Set(domain.AttrHorsepower, s.Horsepower)
	a.Set(domain.AttrTorque, s.Torque)
	a.Set(domain.AttrFuelType, s.FuelType)
	a.Set(domain.AttrTransmission, s.Transmission)
	a.Set(domain.AttrDrivetrain, s.Drivetrain)
	a.Set(domain.AttrTopSpeed, s.TopSpeed)
	a.Set(domain.AttrMSRP, s.MSRP)

	var features []string
	for _, o := range resp.Options {
		if o.Name != "" {
			features = append(features, o.Name)
		}
	}
	a.SetList(domain.AttrFeatures, features)

	var colors []string
	for _, c := range resp.Colors {
		if c.Name != "" {
			colors = append(colors, c.Name)
		}
	}
	a.SetList(domain.AttrColors, colors)

	return record, nil
}
