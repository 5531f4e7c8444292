// ipmap is a service which geolocates IP addresses and returns
// locations ready to be put on a map.
//
// Addresses can be resolved one by one, in JSON batches or as uploaded
// CSV files. Batches are limited in size and resolved in chunks. Each
// address gets its own result, a failure of one lookup never breaks a
// whole batch.
//
// The tool itself is organized into 2 logical parts:
//
// Maplib
//
// maplib is a main package of the application which contains Mapper
// struct and main logic related to batch processing. It has its own
// API and can act as http.Handler.
//
// Providers
//
// This package has a set of provider implementations: iplocate.io,
// ipinfo.io and local MaxMind City databases.
//
// A main package itself is an example of how to wire both maplib and
// providers: it reads HJSON config, starts http server and serves
// until SIGINT or SIGTERM.
package main
