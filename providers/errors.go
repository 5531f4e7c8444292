package providers

import "errors"

var (
	// ErrInvalidIP is returned if key is not an IP address. Providers
	// do not send such keys anywhere.
	ErrInvalidIP = errors.New("key is not a valid IP address")

	// ErrDatabaseIsNotReadyYet returns if you are trying to access
	// an offline provider but it has no opened database. For
	// example, it was shutdown.
	ErrDatabaseIsNotReadyYet = errors.New("database is not initialized yet")

	// ErrDatabasePathIsRequired is returned if offline provider is
	// initialized without a path to the database.
	ErrDatabasePathIsRequired = errors.New("database path is required")
)
