package maplib_test

import (
	"context"
	"time"

	"github.com/9seconds/ipmap/maplib"
	"github.com/stretchr/testify/mock"
)

type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) Lookup(ctx context.Context, key string) (maplib.ProviderLookupResult, error) {
	args := m.Called(ctx, key)

	return args.Get(0).(maplib.ProviderLookupResult), args.Error(1)
}

func (m *ProviderMock) Name() string {
	return m.Called().String(0)
}

type LoggerMock struct {
	mock.Mock
}

func (m *LoggerMock) LookupError(key, name string, err error) {
	m.Called(key, name, err)
}

func (m *LoggerMock) LookupNotFound(key, name string) {
	m.Called(key, name)
}

func (m *LoggerMock) UpdateInfo(name, msg string) {
	m.Called(name, msg)
}

func (m *LoggerMock) UpdateError(name string, err error) {
	m.Called(name, err)
}

func makeLookupResult(lat, lon float64, city string) maplib.ProviderLookupResult {
	return maplib.ProviderLookupResult{
		Latitude:    &lat,
		Longitude:   &lon,
		City:        city,
		Country:     "Testland",
		Subdivision: "Test Region",
		TimeZone:    "Etc/UTC",
	}
}

type OfflineProviderMock struct {
	ProviderMock
}

func (m *OfflineProviderMock) Shutdown() {
	m.Called()
}

type ReloadableProviderMock struct {
	OfflineProviderMock
}

func (m *ReloadableProviderMock) ReloadEvery() time.Duration {
	return m.Called().Get(0).(time.Duration)
}

func (m *ReloadableProviderMock) Reload() (bool, error) {
	args := m.Called()

	return args.Bool(0), args.Error(1)
}
