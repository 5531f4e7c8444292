package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/9seconds/ipmap/maplib"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

const shutdownTimeout = 10 * time.Second

var version = "dev"

var (
	app = kingpin.New(
		"ipmap",
		"Geolocate IP addresses and put them on a map")

	debug = app.Flag("debug", "Run in debug mode.").
		Short('d').
		Envar("IPMAP_DEBUG").
		Bool()
	configFile = app.Arg("config-path", "Path to the config.").
			Required().
			File()
)

func main() {
	app.Version(version)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log := newLogger(os.Stderr)

	conf, err := parseConfig(*configFile)

	(*configFile).Close()

	if err != nil {
		log.appLog.Fatal().Err(err).Msg("Cannot parse config")
	}

	provider, err := makeProvider(conf.GetProvider(), afero.NewOsFs())
	if err != nil {
		log.appLog.Fatal().Err(err).Msg("Cannot initialize provider")
	}

	mapper, err := maplib.NewMapper(provider, log, maplib.Opts{
		BatchLimit:     conf.GetBatchLimit(),
		ChunkSize:      conf.GetChunkSize(),
		BatchTimeout:   conf.GetBatchTimeout(),
		WorkerPoolSize: conf.GetWorkerPoolSize(),
	})
	if err != nil {
		log.appLog.Fatal().Err(err).Msg("Cannot initialize mapper")
	}

	defer mapper.Shutdown()

	ctx, cancel := makeRootContext()
	defer cancel()

	server := &http.Server{
		Addr:              conf.GetListen(),
		Handler:           makeHandler(conf, mapper, log),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.appLog.Info().
			Str("listen", conf.GetListen()).
			Str("provider", provider.Name()).
			Int("batch_limit", mapper.BatchLimit()).
			Msg("Server has started")

		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.appLog.Error().Err(err).Msg("Server has stopped with error")
	}
}
