package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type accessLogMiddleware struct {
	handler http.Handler
	log     *logger
}

func (a *accessLogMiddleware) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	started := time.Now()
	writer := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

	a.handler.ServeHTTP(writer, req)

	status := writer.Status()
	if status == 0 {
		status = http.StatusOK
	}

	a.log.HTTPRequest(req, status, time.Since(started))
}
