package provider

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
	"github.com/VinsightAI/vinsight-mvp/pkg/cache"
	"github.com/VinsightAI/vinsight-mvp/pkg/metrics"
)

const recordTTL = 24 * time.Hour

// Facade fronts the registered providers with a shared record cache and the
// provider selection policy. Cache lookups and writes never raise; any
// backend failure degrades to a live fetch. An in-process fallback cache
// keeps navigation re-renders from refetching when no backend is configured.
type Facade struct {
	providers map[domain.ProviderName]Provider
	defaultP  domain.ProviderName
	fallback  domain.ProviderName
	store     cache.Store
	local     *cache.Memory
	logger    *slog.Logger
	reg       *metrics.Registry
}

// NewFacade creates a facade over the given providers. defaultProvider is
// used when a caller expresses no preference; the keyless fallback serves
// when nothing else is usable.
func NewFacade(store cache.Store, defaultProvider domain.ProviderName, logger *slog.Logger, reg *metrics.Registry, providers ...Provider) *Facade {
	if store == nil {
		store = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	f := &Facade{
		providers: make(map[domain.ProviderName]Provider, len(providers)),
		defaultP:  defaultProvider,
		store:     store,
		local:     cache.NewMemory(),
		logger:    logger,
		reg:       reg,
	}
	for _, p := range providers {
		f.providers[p.Name()] = p
		if !p.Keyed() {
			f.fallback = p.Name()
		}
	}
	return f
}

// recordKey namespaces a cached record by provider and VIN.
func recordKey(provider domain.ProviderName, vin string) string {
	return "vin:" + string(provider) + ":" + vin
}

// Select applies the provider selection policy: the caller's preference when
// registered, else the configured default, else the keyless fallback.
func (f *Facade) Select(preferred domain.ProviderName) Provider {
	if p, ok := f.providers[preferred]; ok {
		return p
	}
	if p, ok := f.providers[f.defaultP]; ok {
		return p
	}
	return f.providers[f.fallback]
}

// ValidateAPIKey runs the static credential check for the named provider.
// Unknown providers fail closed.
func (f *Facade) ValidateAPIKey(name domain.ProviderName, key string) bool {
	p, ok := f.providers[name]
	if !ok {
		return false
	}
	return p.ValidateAPIKey(key)
}

// Decode returns the canonical record for vin, serving from cache when
// possible. On a live fetch the already-mapped record is written back so
// subsequent reads skip field mapping entirely.
func (f *Facade) Decode(ctx context.Context, preferred domain.ProviderName, vin string) (*domain.VehicleRecord, error) {
	p := f.Select(preferred)
	if p == nil {
		return nil, domain.NewProviderError(preferred, domain.ErrUpstream, "no provider registered", nil)
	}

	key := recordKey(p.Name(), vin)
	raw, ok := f.store.Get(ctx, key)
	if !ok {
		raw, ok = f.local.Get(ctx, key)
	}
	if ok {
		if record := f.decodeCached(raw); record != nil {
			f.count("cache_hit", p.Name())
			record.RetrievedFromCache = true
			return record, nil
		}
		// Corrupt entry: drop it and fetch live.
		f.store.Delete(ctx, key)
		f.local.Delete(ctx, key)
	}
	f.count("cache_miss", p.Name())

	start := time.Now()
	record, err := p.Decode(ctx, vin)
	if err != nil {
		f.count("decode_error", p.Name())
		var pe *domain.ProviderError
		if !errors.As(err, &pe) {
			err = domain.NewProviderError(p.Name(), domain.ErrUpstream, "", err)
		}
		f.logger.Error("decode failed", "provider", p.Name(), "vin", vin, "err", err)
		return nil, err
	}
	f.observeLatency(p.Name(), time.Since(start))
	f.count("decode_ok", p.Name())

	if data, err := json.Marshal(record); err == nil {
		f.local.Set(ctx, key, string(data), recordTTL)
		f.store.Set(ctx, key, string(data), recordTTL)
	} else {
		f.logger.Warn("record not cacheable", "vin", vin, "err", err)
	}
	return record, nil
}

// Invalidate drops the cached record so the next decode fetches live.
func (f *Facade) Invalidate(ctx context.Context, preferred domain.ProviderName, vin string) {
	if p := f.Select(preferred); p != nil {
		f.store.Delete(ctx, recordKey(p.Name(), vin))
		f.local.Delete(ctx, recordKey(p.Name(), vin))
	}
}

func (f *Facade) decodeCached(raw string) *domain.VehicleRecord {
	var record domain.VehicleRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		f.logger.Warn("corrupt cached record", "err", err)
		return nil
	}
	if record.Attributes == nil {
		record.Attributes = make(domain.Attributes)
	}
	return &record
}

func (f *Facade) count(event string, provider domain.ProviderName) {
	if f.reg == nil {
		return
	}
	f.reg.Counter(metrics.WithLabels("vinsight_facade_events_total", "event", event, "provider", string(provider)),
		"Facade decode and cache events").Inc()
}

func (f *Facade) observeLatency(provider domain.ProviderName, d time.Duration) {
	if f.reg == nil {
		return
	}
	f.reg.Histogram(metrics.WithLabels("vinsight_decode_seconds", "provider", string(provider)),
		"Live decode latency", nil).Observe(d.Seconds())
}
