package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/9seconds/ipmap/providers"
	"github.com/hjson/hjson-go/v4"
)

const (
	DefaultListen                             = "127.0.0.1:3000"
	DefaultHTTPTimeout                        = 10 * time.Second
	DefaultCircuitBreakerOpenThreshold        = 5
	DefaultCircuitBreakerHalfOpenTimeout      = 30 * time.Second
	DefaultCircuitBreakerResetFailuresTimeout = time.Minute
)

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v interface{}

	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal duration: %w", err)
	}

	vv, ok := v.(string)
	if !ok {
		return fmt.Errorf("incorrect duration: %v", v)
	}

	dur, err := time.ParseDuration(vv)
	if err != nil {
		return fmt.Errorf("cannot parse duration: %w", err)
	}

	d.Duration = dur

	return nil
}

type config struct {
	Listen             string         `json:"listen"`
	BatchLimit         uint           `json:"batch_limit"`
	ChunkSize          uint           `json:"chunk_size"`
	BatchTimeout       duration       `json:"batch_timeout"`
	WorkerPoolSize     uint           `json:"worker_pool_size"`
	CORSAllowedOrigins []string       `json:"cors_allowed_origins"`
	Provider           configProvider `json:"provider"`
}

func (c config) GetListen() string {
	if c.Listen != "" {
		return c.Listen
	}

	return DefaultListen
}

// zero values are replaced with defaults by maplib
func (c config) GetBatchLimit() int {
	return int(c.BatchLimit)
}

func (c config) GetChunkSize() int {
	return int(c.ChunkSize)
}

func (c config) GetBatchTimeout() time.Duration {
	return c.BatchTimeout.Duration
}

func (c config) GetWorkerPoolSize() int {
	return int(c.WorkerPoolSize)
}

func (c config) GetCORSAllowedOrigins() []string {
	if len(c.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}

	return c.CORSAllowedOrigins
}

func (c config) GetProvider() configProvider {
	return c.Provider
}

type configProvider struct {
	Name                               string            `json:"name"`
	HTTPTimeout                        duration          `json:"http_timeout"`
	CircuitBreakerOpenThreshold        uint32            `json:"circuit_breaker_open_threshold"`
	CircuitBreakerHalfOpenTimeout      duration          `json:"circuit_breaker_half_open_timeout"`
	CircuitBreakerResetFailuresTimeout duration          `json:"circuit_breaker_reset_failures_timeout"`
	SpecificParameters                 map[string]string `json:"specific_parameters"`
}

func (c configProvider) GetName() string {
	if c.Name != "" {
		return c.Name
	}

	return providers.NameIPLocate
}

func (c configProvider) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout.Duration == 0 {
		return DefaultHTTPTimeout
	}

	return c.HTTPTimeout.Duration
}

func (c configProvider) GetCircuitBreakerOpenThreshold() uint32 {
	if c.CircuitBreakerOpenThreshold == 0 {
		return DefaultCircuitBreakerOpenThreshold
	}

	return c.CircuitBreakerOpenThreshold
}

func (c configProvider) GetCircuitBreakerHalfOpenTimeout() time.Duration {
	if c.CircuitBreakerHalfOpenTimeout.Duration == 0 {
		return DefaultCircuitBreakerHalfOpenTimeout
	}

	return c.CircuitBreakerHalfOpenTimeout.Duration
}

func (c configProvider) GetCircuitBreakerResetFailuresTimeout() time.Duration {
	if c.CircuitBreakerResetFailuresTimeout.Duration == 0 {
		return DefaultCircuitBreakerResetFailuresTimeout
	}

	return c.CircuitBreakerResetFailuresTimeout.Duration
}

func (c configProvider) GetSpecificParameters() map[string]string {
	if c.SpecificParameters == nil {
		return map[string]string{}
	}

	return c.SpecificParameters
}

func parseConfig(src io.Reader) (*config, error) {
	content, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	conf := config{}
	rawMap := map[string]interface{}{}

	if err := hjson.Unmarshal(content, &rawMap); err != nil {
		return nil, fmt.Errorf("cannot parse hjson: %w", err)
	}

	rawBytes, err := json.Marshal(rawMap)
	if err != nil {
		return nil, fmt.Errorf("cannot reencode config: %w", err)
	}

	if err := json.Unmarshal(rawBytes, &conf); err != nil {
		return nil, fmt.Errorf("incorrect config: %w", err)
	}

	if _, _, err := net.SplitHostPort(conf.GetListen()); err != nil {
		return nil, fmt.Errorf("incorrect host:port for listen: %w", err)
	}

	switch conf.Provider.GetName() {
	case providers.NameIPLocate, providers.NameIPInfo, providers.NameMaxmind:
	default:
		return nil, fmt.Errorf("unsupported provider name: %s", conf.Provider.GetName())
	}

	return &conf, nil
}
