package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/9seconds/ipmap/maplib"
	"github.com/9seconds/ipmap/providers"
	"github.com/rs/cors"
	"github.com/spf13/afero"
)

func makeRootContext() (context.Context, context.CancelFunc) {
	rootCtx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)

	go func() {
		for range sigChan {
			cancel()
		}
	}()

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	return rootCtx, cancel
}

func makeProvider(conf configProvider, fs afero.Fs) (maplib.Provider, error) {
	params := conf.GetSpecificParameters()

	switch conf.GetName() {
	case providers.NameIPLocate:
		return providers.NewIPLocate(makeHTTPClient(conf), params), nil
	case providers.NameIPInfo:
		return providers.NewIPInfo(makeHTTPClient(conf), params), nil
	case providers.NameMaxmind:
		prov, err := providers.NewMaxmind(fs, params)
		if err != nil {
			return nil, fmt.Errorf("cannot create maxmind provider: %w", err)
		}

		return prov, nil
	}

	return nil, fmt.Errorf("unsupported provider name: %s", conf.GetName())
}

func makeHTTPClient(conf configProvider) maplib.HTTPClient {
	httpClient := &http.Client{
		Timeout: conf.GetHTTPTimeout(),
	}

	return maplib.NewHTTPClient(httpClient,
		"ipmap/"+version,
		conf.GetCircuitBreakerOpenThreshold(),
		conf.GetCircuitBreakerHalfOpenTimeout(),
		conf.GetCircuitBreakerResetFailuresTimeout())
}

func makeHandler(conf *config, mapper http.Handler, log *logger) http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: conf.GetCORSAllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Accept"},
	})

	return &accessLogMiddleware{
		handler: corsHandler.Handler(mapper),
		log:     log,
	}
}
