package maplib

import (
	"context"
	"net/http"
	"time"
)

// Provider resolves a single key into a location. Key is opaque for
// maplib, it is up to provider to decide if it is valid.
type Provider interface {
	Name() string
	Lookup(context.Context, string) (ProviderLookupResult, error)
}

// OfflineProvider is a provider which works with a local database. It
// is shutdown together with Mapper.
type OfflineProvider interface {
	Provider

	Shutdown()
}

// ReloadableProvider is an offline provider which database can be
// changed while application is running. Mapper calls Reload each
// ReloadEvery period. Reload returns true if database was reopened.
type ReloadableProvider interface {
	OfflineProvider

	ReloadEvery() time.Duration
	Reload() (bool, error)
}

// HTTPClient is an interface for http clients used by online providers.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Logger is an interface which is used by Mapper to report about
// lookups which were not successful and about database reloads.
type Logger interface {
	LookupError(key string, name string, err error)
	LookupNotFound(key string, name string)
	UpdateInfo(name string, msg string)
	UpdateError(name string, err error)
}
