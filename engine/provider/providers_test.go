package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
	"github.com/VinsightAI/vinsight-mvp/pkg/resilience"
)

const testVIN = "1FTEW1E88HKE34785"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAutoDetail_ValidateAPIKey(t *testing.T) {
	p := NewAutoDetail("", time.Second, discard())
	tests := []struct {
		key  string
		want bool
	}{
		{"abcdefghijklmnopqrstuvwx", true},
		{"QWxhZGRpbjpvcGVuIHNlc2FtZQ==", true},
		{"short", false},
		{"has spaces not allowed ok", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.ValidateAPIKey(tt.key); got != tt.want {
			t.Errorf("ValidateAPIKey(%q) = %v", tt.key, got)
		}
	}
}

func TestVINLookup_ValidateAPIKey(t *testing.T) {
	p := NewVINLookup("", time.Second, discard())
	if !p.ValidateAPIKey("0123456789abcdef0123456789abcdef") {
		t.Error("hex key rejected")
	}
	if p.ValidateAPIKey("0123456789abcdef") {
		t.Error("short key accepted")
	}
	if p.ValidateAPIKey("zzzz456789abcdef0123456789abcdef") {
		t.Error("non-hex key accepted")
	}
}

const autoDetailSpecsBody = `{"vehicle":{
	"make":"Ford","model":"F-150","year":2017,"trim":"XLT",
	"engine":{"description":"3.5L V6 EcoBoost","cylinders":6,"displacement_l":3.5,"horsepower":375,"fuel_type":"Gasoline"},
	"transmission":"Automatic","drivetrain":"4WD",
	"manufacture":{"manufacturer":"Ford Motor Company","plant_city":"Dearborn","plant_country":"USA"},
	"dimensions":{"length_in":231.9,"curb_weight_lb":4500},
	"features":["Backup camera","Tow package"]}}`

// autoDetailServer serves specs and market value, and fails history, matching
// the partial-aux-failure decode scenario.
func autoDetailServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer abcdefghijklmnopqrstuvwx" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/v1/specs/"):
			io.WriteString(w, autoDetailSpecsBody)
		case strings.HasPrefix(r.URL.Path, "/v1/market-value/"):
			io.WriteString(w, `{"retail":28500,"trade_in":25000,"currency":"USD"}`)
		case strings.HasPrefix(r.URL.Path, "/v1/history/"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestAutoDetail_DecodeWithAuxFailure(t *testing.T) {
	srv := autoDetailServer(t)
	defer srv.Close()

	p := NewAutoDetail("abcdefghijklmnopqrstuvwx", time.Second, discard())
	p.baseURL = srv.URL

	rec, err := p.Decode(context.Background(), testVIN)
	if err != nil {
		t.Fatalf("decode must survive aux failure: %v", err)
	}
	if rec.MarketValue == nil || rec.MarketValue.Retail != 28500 {
		t.Errorf("market value = %+v", rec.MarketValue)
	}
	if rec.History != nil {
		t.Error("failed history fetch must be omitted, not zero-valued")
	}

	a := rec.Attributes
	wantText := map[string]string{
		domain.AttrMake:         "Ford",
		domain.AttrYear:         "2017",
		domain.AttrEngine:       "3.5L V6 EcoBoost",
		domain.AttrCylinders:    "6",
		domain.AttrDisplacement: "3.5L",
		domain.AttrHorsepower:   "375",
		domain.AttrLength:       "231.9 in",
		domain.AttrCurbWeight:   "4500",
	}
	for key, want := range wantText {
		if got := a.GetText(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if a.Has(domain.AttrDoors) || a.Has(domain.AttrTorque) {
		t.Error("zero upstream values must not appear in attributes")
	}
	if got := a.GetList(domain.AttrFeatures); len(got) != 2 {
		t.Errorf("features = %v", got)
	}
}

func TestAutoDetail_Unauthorized(t *testing.T) {
	srv := autoDetailServer(t)
	defer srv.Close()

	p := NewAutoDetail("wrong-key-wrong-key-wrong", time.Second, discard())
	p.baseURL = srv.URL

	_, err := p.Decode(context.Background(), testVIN)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("error = %v", err)
	}
	var pe *domain.ProviderError
	if !errors.As(err, &pe) || pe.Provider != domain.ProviderAutoDetail {
		t.Errorf("not a provider error: %v", err)
	}
}

func TestVINLookup_Decode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/decode" || r.URL.Query().Get("vin") != testVIN {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"success":true,
			"specs":{"make":"Ford","model":"F-150","year":"2017","horsepower":"375","msrp":"27110"},
			"options":[{"name":"Tow package"},{"name":""}],
			"colors":[{"name":"Oxford White"}]}`)
	}))
	defer srv.Close()

	p := NewVINLookup("0123456789abcdef0123456789abcdef", time.Second, discard())
	p.baseURL = srv.URL

	rec, err := p.Decode(context.Background(), testVIN)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := rec.Attributes.GetText(domain.AttrMSRP); got != "27110" {
		t.Errorf("msrp = %q", got)
	}
	if got := rec.Attributes.GetList(domain.AttrFeatures); len(got) != 1 || got[0] != "Tow package" {
		t.Errorf("features = %v, empty names must be dropped", got)
	}
	if got := rec.Attributes.GetList(domain.AttrColors); len(got) != 1 {
		t.Errorf("colors = %v", got)
	}
}

func TestVINLookup_UnsuccessfulIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"success":false}`)
	}))
	defer srv.Close()

	p := NewVINLookup("0123456789abcdef0123456789abcdef", time.Second, discard())
	p.baseURL = srv.URL

	_, err := p.Decode(context.Background(), testVIN)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v", err)
	}
}

func TestNHTSA_Decode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/vehicles/DecodeVinValues/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"Count":1,"Results":[{
			"Make":"FORD","Model":"F-150","ModelYear":"2017",
			"EngineCylinders":"6","EngineHP":"375","FuelTypePrimary":"Gasoline",
			"Manufacturer":"FORD MOTOR COMPANY","PlantCity":"DEARBORN","PlantCountry":"UNITED STATES (USA)",
			"Trim":"","Doors":""}]}`)
	}))
	defer srv.Close()

	p := NewNHTSA(time.Second, discard())
	p.baseURL = srv.URL

	rec, err := p.Decode(context.Background(), testVIN)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := rec.Attributes.GetText(domain.AttrPlantCity); got != "DEARBORN" {
		t.Errorf("plant city = %q", got)
	}
	if rec.Attributes.Has(domain.AttrTrim) || rec.Attributes.Has(domain.AttrDoors) {
		t.Error("empty vPIC fields must be absent, not empty")
	}
	if rec.MarketValue != nil || rec.History != nil {
		t.Error("vPIC carries no premium data")
	}
}

func TestNHTSA_EmptyDecodeIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"Count":1,"Results":[{"Make":"","Model":""}]}`)
	}))
	defer srv.Close()

	p := NewNHTSA(time.Second, discard())
	p.baseURL = srv.URL

	_, err := p.Decode(context.Background(), testVIN)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v", err)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusBadGateway, domain.ErrUpstream},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		c := newClient(domain.ProviderNHTSA, time.Second)
		var out map[string]any
		err := c.getJSON(context.Background(), srv.URL, "", &out)
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.want)
		}
		srv.Close()
	}
}

func TestClient_BadJSONIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `<html>not json</html>`)
	}))
	defer srv.Close()

	c := newClient(domain.ProviderNHTSA, time.Second)
	var out map[string]any
	err := c.getJSON(context.Background(), srv.URL, "", &out)
	if !errors.Is(err, domain.ErrDecode) {
		t.Errorf("error = %v", err)
	}
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// Well past the failure threshold: unknown VINs are answers, not outages.
	c := newClient(domain.ProviderNHTSA, time.Second)
	for i := 0; i < 8; i++ {
		var out map[string]any
		err := c.getJSON(context.Background(), srv.URL, "", &out)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("call %d: error = %v, want ErrNotFound", i+1, err)
		}
	}
}

func TestClient_UpstreamFailuresOpenCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(domain.ProviderNHTSA, time.Second)
	for i := 0; i < 5; i++ {
		var out map[string]any
		if err := c.getJSON(context.Background(), srv.URL, "", &out); !errors.Is(err, domain.ErrUpstream) {
			t.Fatalf("call %d: error = %v, want ErrUpstream", i+1, err)
		}
	}
	var out map[string]any
	err := c.getJSON(context.Background(), srv.URL, "", &out)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("sixth call error = %v, want circuit open", err)
	}
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refused connections from here on

	c := newClient(domain.ProviderNHTSA, time.Second)
	var out map[string]any
	err := c.getJSON(context.Background(), srv.URL, "", &out)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Errorf("error = %v", err)
	}
}
