package main

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type logger struct {
	lookupLog zerolog.Logger
	updateLog zerolog.Logger
	httpLog   zerolog.Logger
	appLog    zerolog.Logger
}

func (l *logger) LookupError(key, name string, err error) {
	l.lookupLog.Error().Str("provider", name).Str("ip", key).Err(err).Msg("")
}

func (l *logger) LookupNotFound(key, name string) {
	l.lookupLog.Debug().Str("provider", name).Str("ip", key).Msg("Location not found")
}

func (l *logger) UpdateInfo(name, msg string) {
	l.updateLog.Info().Str("provider", name).Msg(msg)
}

func (l *logger) UpdateError(name string, err error) {
	l.updateLog.Error().Str("provider", name).Err(err).Msg("")
}

func (l *logger) HTTPRequest(req *http.Request, status int, elapsed time.Duration) {
	l.httpLog.Info().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("remote_addr", req.RemoteAddr).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("")
}

func newLogger(out io.Writer) *logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if out == nil {
		out = os.Stderr
	}

	return &logger{
		lookupLog: zerolog.New(out).With().Timestamp().Str("event_name", "lookup").Logger(),
		updateLog: zerolog.New(out).With().Timestamp().Str("event_name", "update").Logger(),
		httpLog:   zerolog.New(out).With().Timestamp().Str("event_name", "http").Logger(),
		appLog:    zerolog.New(out).With().Timestamp().Str("event_name", "app").Logger(),
	}
}
