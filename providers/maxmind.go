package providers

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/9seconds/ipmap/maplib"
	"github.com/oschwald/maxminddb-golang"
	"github.com/spf13/afero"
)

type maxmindName struct {
	En string `maxminddb:"en"`
}

type maxmindLookupResult struct {
	City struct {
		Names maxmindName `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		IsoCode string      `maxminddb:"iso_code"`
		Names   maxmindName `maxminddb:"names"`
	} `maxminddb:"country"`
	Subdivisions []struct {
		Names maxmindName `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
		TimeZone  string   `maxminddb:"time_zone"`
	} `maxminddb:"location"`
}

type maxmindReader interface {
	Lookup(net.IP, interface{}) error
	Close() error
}

type maxmindProvider struct {
	dbReader     maxmindReader
	dbReaderLock sync.RWMutex
	fs           afero.Fs
	path         string
	reloadEvery  time.Duration
	loadedSize   int64
	loadedAt     time.Time
}

func (m *maxmindProvider) Name() string {
	return NameMaxmind
}

func (m *maxmindProvider) Shutdown() {
	m.dbReaderLock.Lock()
	defer m.dbReaderLock.Unlock()

	if m.dbReader != nil {
		m.dbReader.Close()
		m.dbReader = nil
	}
}

func (m *maxmindProvider) ReloadEvery() time.Duration {
	return m.reloadEvery
}

// Reload reopens a database if its file was changed since last time.
func (m *maxmindProvider) Reload() (bool, error) {
	stat, err := m.fs.Stat(m.path)
	if err != nil {
		return false, fmt.Errorf("cannot stat a database file: %w", err)
	}

	m.dbReaderLock.RLock()
	unchanged := stat.Size() == m.loadedSize && stat.ModTime().Equal(m.loadedAt)
	m.dbReaderLock.RUnlock()

	if unchanged {
		return false, nil
	}

	if err := m.Open(); err != nil {
		return false, err
	}

	return true, nil
}

// Open reads a database file into memory and replaces a current one.
func (m *maxmindProvider) Open() error {
	stat, err := m.fs.Stat(m.path)
	if err != nil {
		return fmt.Errorf("cannot stat a database file: %w", err)
	}

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return fmt.Errorf("cannot read a database file: %w", err)
	}

	reader, err := maxminddb.FromBytes(data)
	if err != nil {
		return fmt.Errorf("cannot initialize a reader of maxminddb: %w", err)
	}

	m.dbReaderLock.Lock()
	defer m.dbReaderLock.Unlock()

	if m.dbReader != nil {
		m.dbReader.Close()
	}

	m.dbReader = reader
	m.loadedSize = stat.Size()
	m.loadedAt = stat.ModTime()

	return nil
}

func (m *maxmindProvider) Lookup(ctx context.Context, key string) (maplib.ProviderLookupResult, error) {
	rv := maplib.ProviderLookupResult{}

	ip, err := parseIP(key)
	if err != nil {
		return rv, err
	}

	m.dbReaderLock.RLock()
	defer m.dbReaderLock.RUnlock()

	if m.dbReader == nil {
		return rv, ErrDatabaseIsNotReadyYet
	}

	record := maxmindLookupResult{}

	if err := m.dbReader.Lookup(ip, &record); err != nil {
		return rv, fmt.Errorf("cannot lookup this ip address: %w", err)
	}

	rv.City = record.City.Names.En
	rv.Country = record.Country.Names.En
	rv.TimeZone = record.Location.TimeZone
	rv.Latitude = record.Location.Latitude
	rv.Longitude = record.Location.Longitude

	if rv.Country == "" {
		rv.Country = maplib.CountryName(record.Country.IsoCode)
	}

	if len(record.Subdivisions) > 0 {
		rv.Subdivision = record.Subdivisions[0].Names.En
	}

	return rv, nil
}

// NewMaxmind returns a provider which uses a local MaxMind City
// database. A path to the database file is taken from database_path
// parameter and resolved within a given filesystem.
//
// If reload_every parameter is set (for example, 24h), a database file
// is checked with this period and reopened if it was changed.
func NewMaxmind(fs afero.Fs, parameters map[string]string) (maplib.ReloadableProvider, error) {
	rv := &maxmindProvider{
		fs:   fs,
		path: parameters["database_path"],
	}

	if rv.path == "" {
		return nil, ErrDatabasePathIsRequired
	}

	if value := parameters["reload_every"]; value != "" {
		reloadEvery, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("incorrect reload_every: %w", err)
		}

		rv.reloadEvery = reloadEvery
	}

	if err := rv.Open(); err != nil {
		return nil, err
	}

	return rv, nil
}
