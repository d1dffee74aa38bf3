// Package provider integrates the upstream VIN decoding services behind one
// capability set and a caching facade. Each upstream maps its own response
// shape onto the canonical attribute bag here, at the boundary; nothing
// provider-specific leaks downstream.
package provider

import (
	"context"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
)

// Provider is the capability set every upstream integration implements.
type Provider interface {
	// Name identifies the upstream.
	Name() domain.ProviderName
	// Decode fetches and maps the record for a validated VIN. Errors are
	// always *domain.ProviderError.
	Decode(ctx context.Context, vin string) (*domain.VehicleRecord, error)
	// ValidateAPIKey is a static format check on a candidate credential,
	// used for immediate feedback before any network call.
	ValidateAPIKey(key string) bool
	// Keyed reports whether this upstream requires a credential at all.
	Keyed() bool
}
