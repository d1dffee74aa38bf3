package provider

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
	"github.com/VinsightAI/vinsight-mvp/pkg/fn"
)

const autoDetailBaseURL = "https://api.autodetail.io"

// AutoDetail keys look base64-ish and are at least 24 characters.
var autoDetailKeyRegex = regexp.MustCompile(`^[A-Za-z0-9+/=_-]{24,}$`)

// AutoDetail integrates the keyed AutoDetail API. Specs, market value, and
// history live on separate resources; the specs resource is required, the
// other two are fetched concurrently and best-effort.
type AutoDetail struct {
	apiKey  string
	baseURL string
	client  *client
	logger  *slog.Logger
}

// NewAutoDetail creates the AutoDetail integration.
func NewAutoDetail(apiKey string, timeout time.Duration, logger *slog.Logger) *AutoDetail {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoDetail{
		apiKey:  apiKey,
		baseURL: autoDetailBaseURL,
		client:  newClient(domain.ProviderAutoDetail, timeout),
		logger:  logger,
	}
}

func (p *AutoDetail) Name() domain.ProviderName { return domain.ProviderAutoDetail }
func (p *AutoDetail) Keyed() bool               { return true }

// ValidateAPIKey is a static shape check, no network call.
func (p *AutoDetail) ValidateAPIKey(key string) bool {
	return autoDetailKeyRegex.MatchString(key)
}

// Upstream response shapes, private to this integration.
type autoDetailSpecs struct {
	Vehicle struct {
		Make      string `json:"make"`
		Model     string `json:"model"`
		Year      int    `json:"year"`
		Trim      string `json:"trim"`
		BodyClass string `json:"body_class"`
		Series    string `json:"series"`
		Doors     int    `json:"doors"`
		Engine    struct {
			Description  string  `json:"description"`
			Cylinders    int     `json:"cylinders"`
			Displacement float64 `json:"displacement_l"`
			Horsepower   int     `json:"horsepower"`
			Torque       int     `json:"torque_lbft"`
			FuelType     string  `json:"fuel_type"`
		} `json:"engine"`
		Transmission string `json:"transmission"`
		Drivetrain   string `json:"drivetrain"`
		Manufacture  struct {
			Manufacturer string `json:"manufacturer"`
			PlantCity    string `json:"plant_city"`
			PlantCountry string `json:"plant_country"`
		} `json:"manufacture"`
		Dimensions struct {
			LengthIn    float64 `json:"length_in"`
			WidthIn     float64 `json:"width_in"`
			HeightIn    float64 `json:"height_in"`
			WheelbaseIn float64 `json:"wheelbase_in"`
			CurbWeight  int     `json:"curb_weight_lb"`
		} `json:"dimensions"`
		Features []string `json:"features"`
		Colors   []string `json:"colors"`
	} `json:"vehicle"`
}

type autoDetailMarketValue struct {
	Retail       float64 `json:"retail"`
	TradeIn      float64 `json:"trade_in"`
	PrivateParty float64 `json:"private_party"`
	Currency     string  `json:"currency"`
	MileageBasis int     `json:"mileage_basis"`
}

type autoDetailHistory struct {
	Owners      int    `json:"owners"`
	Accidents   int    `json:"accidents"`
	TitleStatus string `json:"title_status"`
	Events      []struct {
		Date    string `json:"date"`
		Type    string `json:"type"`
		Details string `json:"details"`
	} `json:"events"`
}

// Decode fetches specs plus the auxiliary resources concurrently. A failed
// auxiliary fetch is logged and omitted from the record, never fatal.
func (p *AutoDetail) Decode(ctx context.Context, vin string) (*domain.VehicleRecord, error) {
	type part struct {
		specs   *autoDetailSpecs
		market  *autoDetailMarketValue
		history *autoDetailHistory
	}

	results := fn.FanOutResult(
		func() fn.Result[part] {
			var s autoDetailSpecs
			err := p.client.getJSON(ctx, p.baseURL+"/v1/specs/"+vin, p.apiKey, &s)
			return fn.FromPair(part{specs: &s}, err)
		},
		func() fn.Result[part] {
			var mv autoDetailMarketValue
			err := p.client.getJSON(ctx, p.baseURL+"/v1/market-value/"+vin, p.apiKey, &mv)
			return fn.FromPair(part{market: &mv}, err)
		},
		func() fn.Result[part] {
			var h autoDetailHistory
			err := p.client.getJSON(ctx, p.baseURL+"/v1/history/"+vin, p.apiKey, &h)
			return fn.FromPair(part{history: &h}, err)
		},
	)

	specsPart, err := results[0].Unwrap()
	if err != nil {
		return nil, err // required resource; already a *domain.ProviderError
	}

	record := p.mapSpecs(vin, specsPart.specs)

	if mv, err := results[1].Unwrap(); err == nil {
		record.MarketValue = &domain.MarketValueBlock{
			Retail:       mv.market.Retail,
			TradeIn:      mv.market.TradeIn,
			PrivateParty: mv.market.PrivateParty,
			Currency:     mv.market.Currency,
			MileageBasis: mv.market.MileageBasis,
		}
	} else {
		p.logger.Warn("market value unavailable", "vin", vin, "err", err)
	}

	if h, err := results[2].Unwrap(); err == nil {
		record.History = mapAutoDetailHistory(h.history)
	} else {
		p.logger.Warn("history unavailable", "vin", vin, "err", err)
	}

	return record, nil
}

// mapSpecs translates the nested upstream structure into the flat canonical
// attribute bag. Absent and zero values are excluded, never stored empty.
func (p *AutoDetail) mapSpecs(vin string, s *autoDetailSpecs) *domain.VehicleRecord {
	record := domain.NewRecord(vin, domain.ProviderAutoDetail)
	v := s.Vehicle
	a := record.Attributes

	a.Set(domain.AttrMake, v.Make)
	a.Set(domain.AttrModel, v.Model)
	a.Set(domain.AttrYear, positiveInt(v.Year))
	a.Set(domain.AttrTrim, v.Trim)
	a.Set(domain.AttrBodyClass, v.BodyClass)
	a.Set(domain.AttrSeries, v.Series)
	a.Set(domain.AttrDoors, positiveInt(v.Doors))

	a.Set(domain.AttrEngine, v.Engine.Description)
	a.Set(domain.AttrCylinders, positiveInt(v.Engine.Cylinders))
	a.Set(domain.AttrDisplacement, positiveFloat(v.Engine.Displacement, "L"))
	a.Set(domain.AttrHorsepower, positiveInt(v.Engine.Horsepower))
	a.Set(domain.AttrTorque, positiveInt(v.Engine.Torque))
	a.Set(domain.AttrFuelType, v.Engine.FuelType)
	a.Set(domain.AttrTransmission, v.Transmission)
	a.Set(domain.AttrDrivetrain, v.Drivetrain)

	a.Set(domain.AttrManufacturer, v.Manufacture.Manufacturer)
	a.Set(domain.AttrPlantCity, v.Manufacture.PlantCity)
	a.Set(domain.AttrPlantCountry, v.Manufacture.PlantCountry)

	a.Set(domain.AttrLength, positiveFloat(v.Dimensions.LengthIn, " in"))
	a.Set(domain.AttrWidth, positiveFloat(v.Dimensions.WidthIn, " in"))
	a.Set(domain.AttrHeight, positiveFloat(v.Dimensions.HeightIn, " in"))
	a.Set(domain.AttrWheelbase, positiveFloat(v.Dimensions.WheelbaseIn, " in"))
	a.Set(domain.AttrCurbWeight, positiveInt(v.Dimensions.CurbWeight))

	a.SetList(domain.AttrFeatures, v.Features)
	a.SetList(domain.AttrColors, v.Colors)

	return record
}

func mapAutoDetailHistory(h *autoDetailHistory) *domain.HistoryBlock {
	block := &domain.HistoryBlock{
		Owners:      h.Owners,
		Accidents:   h.Accidents,
		TitleStatus: h.TitleStatus,
	}
	for _, e := range h.Events {
		block.Events = append(block.Events, domain.HistoryEvent{
			Date:    e.Date,
			Kind:    e.Type,
			Details: e.Details,
		})
	}
	return block
}

func positiveInt(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func positiveFloat(f float64, unit string) string {
	if f <= 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64) + unit
}
