// This package provides a set of structs and functions which are used
// to geolocate IP addresses and to put them on a map.
//
// maplib is core of the ipmap project. The rest of the application is
// an example on how to use this library: how to configure it, how to
// implement providers, how to serve it.
//
// Mapper is a main entity of the maplib. It resolves keys (IP
// addresses) with a single provider. Batches are resolved in chunks:
// all keys of the chunk are looked up concurrently on a worker pool,
// next chunk starts only when previous one is done. Each key gets
// exactly one Outcome, a failure of one key never affects others.
//
// Mapper is also http.Handler which serves lookups of single addresses,
// JSON batches and CSV uploads.
package maplib
