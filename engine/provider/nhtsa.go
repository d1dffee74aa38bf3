package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
)

const nhtsaBaseURL = "https://vpic.nhtsa.dot.gov/api"

// NHTSA integrates the public vPIC decoder. It requires no credential and
// serves as the fallback when no keyed provider is configured. vPIC carries
// no market value, history, options, or colors.
type NHTSA struct {
	baseURL string
	client  *client
	logger  *slog.Logger
}

// NewNHTSA creates the vPIC integration.
func NewNHTSA(timeout time.Duration, logger *slog.Logger) *NHTSA {
	if logger == nil {
		logger = slog.Default()
	}
	return &NHTSA{
		baseURL: nhtsaBaseURL,
		client:  newClient(domain.ProviderNHTSA, timeout),
		logger:  logger,
	}
}

func (p *NHTSA) Name() domain.ProviderName { return domain.ProviderNHTSA }
func (p *NHTSA) Keyed() bool               { return false }

// ValidateAPIKey always succeeds; vPIC has no credential.
func (p *NHTSA) ValidateAPIKey(string) bool { return true }

// vPIC returns one flat result object of stringly-typed fields, empty string
// for anything unknown.
type nhtsaResponse struct {
	Count   int `json:"Count"`
	Results []struct {
		Make              string `json:"Make"`
		Model             string `json:"Model"`
		ModelYear         string `json:"ModelYear"`
		Trim              string `json:"Trim"`
		Series            string `json:"Series"`
		BodyClass         string `json:"BodyClass"`
		Doors             string `json:"Doors"`
		EngineModel       string `json:"EngineModel"`
		EngineCylinders   string `json:"EngineCylinders"`
		DisplacementL     string `json:"DisplacementL"`
		EngineHP          string `json:"EngineHP"`
		FuelTypePrimary   string `json:"FuelTypePrimary"`
		TransmissionStyle string `json:"TransmissionStyle"`
		DriveType         string `json:"DriveType"`
		Manufacturer      string `json:"Manufacturer"`
		PlantCity         string `json:"PlantCity"`
		PlantCountry      string `json:"PlantCountry"`
		WheelBaseShort    string `json:"WheelBaseShort"`
		CurbWeightLB      string `json:"CurbWeightLB"`
		ErrorCode         string `json:"ErrorCode"`
	} `json:"Results"`
}

// Decode fetches the flat vPIC decode for a VIN.
func (p *NHTSA) Decode(ctx context.Context, vin string) (*domain.VehicleRecord, error) {
	endpoint := p.baseURL + "/vehicles/DecodeVinValues/" + vin + "?format=json"

	var resp nhtsaResponse
	if err := p.client.getJSON(ctx, endpoint, "", &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, domain.NewProviderError(domain.ProviderNHTSA, domain.ErrDecode, "empty results", nil)
	}

	r := resp.Results[0]
	record := domain.NewRecord(vin, domain.ProviderNHTSA)
	a := record.Attributes

	a.Set(domain.AttrMake, r.Make)
	a.Set(domain.AttrModel, r.Model)
	a.Set(domain.AttrYear, r.ModelYear)
	a.Set(domain.AttrTrim, r.Trim)
	a.Set(domain.AttrSeries, r.Series)
	a.Set(domain.AttrBodyClass, r.BodyClass)
	a.Set(domain.AttrDoors, r.Doors)
	a.Set(domain.AttrEngine, r.EngineModel)
	a.Set(domain.AttrCylinders, r.EngineCylinders)
	a.Set(domain.AttrDisplacement, r.DisplacementL)
	a.Set(domain.AttrHorsepower, r.EngineHP)
	a.Set(domain.AttrFuelType, r.FuelTypePrimary)
	a.Set(domain.AttrTransmission, r.TransmissionStyle)
	a.Set(domain.AttrDrivetrain, r.DriveType)
	a.Set(domain.AttrManufacturer, r.Manufacturer)
	a.Set(domain.AttrPlantCity, r.PlantCity)
	a.Set(domain.AttrPlantCountry, r.PlantCountry)
	a.Set(domain.AttrWheelbase, r.WheelBaseShort)
	a.Set(domain.AttrCurbWeight, r.CurbWeightLB)

	// vPIC reports unknown VINs as a decoded-but-empty result.
	if !a.Has(domain.AttrMake) && !a.Has(domain.AttrModel) {
		return nil, domain.NewProviderError(domain.ProviderNHTSA, domain.ErrNotFound, "", nil)
	}
	return record, nil
}
