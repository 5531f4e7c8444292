package maplib

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	DefaultBatchLimit     = 100
	DefaultChunkSize      = 10
	DefaultBatchTimeout   = 30 * time.Second
	DefaultWorkerPoolSize = 4096

	workerPoolExpireTime = time.Minute
)

// Opts defines a set of options for Mapper. All zero values are
// replaced with defaults. Negative BatchTimeout disables a deadline
// for batches.
type Opts struct {
	BatchLimit     int
	ChunkSize      int
	BatchTimeout   time.Duration
	WorkerPoolSize int
}

// Mapper resolves keys into locations with a given provider. It does
// it in chunks: keys of a chunk are resolved concurrently, chunks are
// processed one by one.
type Mapper struct {
	logger       Logger
	provider     Provider
	usageStats   *UsageStats
	handler      http.Handler
	rwmutex      sync.RWMutex
	closeOnce    sync.Once
	workerPool   *ants.PoolWithFunc
	dbReloader   *dbReloader
	closed       bool
	batchLimit   int
	chunkSize    int
	batchTimeout time.Duration
}

func (m *Mapper) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.handler.ServeHTTP(w, req)
}

// BatchLimit returns a maximal number of keys LookupBatch accepts.
func (m *Mapper) BatchLimit() int {
	return m.batchLimit
}

// Lookup resolves a single key.
func (m *Mapper) Lookup(ctx context.Context, key string) (Outcome, error) {
	rv, err := m.LookupBatch(ctx, []string{key})
	if err != nil {
		return Outcome{Key: key}, err
	}

	return rv[0], nil
}

// LookupBatch resolves a batch of keys with default chunk size. If a
// batch is larger than a limit, BatchLimitError is returned and
// provider is not called at all.
//
// Whole batch has a deadline. All keys which were not resolved before
// this deadline are marked as lookup errors.
func (m *Mapper) LookupBatch(ctx context.Context, keys []string) ([]Outcome, error) {
	if len(keys) > m.batchLimit {
		return nil, &BatchLimitError{
			Limit:    m.batchLimit,
			Received: len(keys),
		}
	}

	if m.batchTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, m.batchTimeout)
		defer cancel()
	}

	return m.Process(ctx, keys, m.chunkSize)
}

// Process resolves keys chunk by chunk. Each key gets exactly one
// outcome, outcomes have the same order as keys. An error is returned
// only if it is not possible to process a batch at all.
func (m *Mapper) Process(ctx context.Context, keys []string, chunkSize int) ([]Outcome, error) {
	m.rwmutex.RLock()
	defer m.rwmutex.RUnlock()

	if m.closed {
		return nil, ErrMapperShutdown
	}

	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}

	rv := make([]Outcome, len(keys))

	for start := 0; start < len(keys); start += chunkSize {
		end := start + chunkSize
		if end > len(keys) {
			end = len(keys)
		}

		req := newChunkRequest(ctx, keys[start:end], m.workerPool)

		if err := req.Do(); err != nil {
			return nil, fmt.Errorf("cannot process chunk %d: %w", start/chunkSize, err)
		}

		req.Collect(rv[start:end])
	}

	return rv, nil
}

// UsageStats returns usage statistics of the providers.
func (m *Mapper) UsageStats() []*UsageStats {
	return []*UsageStats{m.usageStats}
}

// Shutdown stops a worker pool and offline provider. Mapper is not
// usable after this call.
func (m *Mapper) Shutdown() {
	m.rwmutex.Lock()
	defer m.rwmutex.Unlock()

	m.closed = true

	m.closeOnce.Do(func() {
		m.workerPool.Release()

		if m.dbReloader != nil {
			m.dbReloader.Shutdown()
		}

		if offline, ok := m.provider.(OfflineProvider); ok {
			offline.Shutdown()
		}
	})
}

func (m *Mapper) lookupKey(args interface{}) {
	task := args.(*lookupTask)

	task.results <- indexedOutcome{
		index:   task.index,
		outcome: m.resolveKey(task.ctx, task.key),
	}
}

func (m *Mapper) resolveKey(ctx context.Context, key string) (outcome Outcome) {
	outcome.Key = key

	defer func() {
		if rec := recover(); rec != nil {
			outcome = Outcome{
				Key:     key,
				Failure: FailureLookupError,
				Err:     fmt.Errorf("provider has panicked: %v", rec),
			}
		}

		m.usageStats.Used(outcome.Failure)

		switch outcome.Failure {
		case FailureLookupError:
			m.logger.LookupError(key, m.provider.Name(), outcome.Err)
		case FailureNotFound:
			m.logger.LookupNotFound(key, m.provider.Name())
		}
	}()

	res, err := m.provider.Lookup(ctx, key)

	switch {
	case err != nil:
		outcome.Failure = FailureLookupError
		outcome.Err = err
	case !res.HasCoordinates():
		outcome.Failure = FailureNotFound
	default:
		outcome.Location = Location{
			City:      res.City,
			Country:   res.Country,
			Region:    res.Subdivision,
			Latitude:  *res.Latitude,
			Longitude: *res.Longitude,
			Timezone:  res.TimeZone,
		}
	}

	return outcome
}

func NewMapper(provider Provider, logger Logger, opts Opts) (*Mapper, error) {
	rv := &Mapper{
		logger:       logger,
		provider:     provider,
		usageStats:   &UsageStats{Name: provider.Name()},
		batchLimit:   opts.BatchLimit,
		chunkSize:    opts.ChunkSize,
		batchTimeout: opts.BatchTimeout,
	}

	if rv.batchLimit <= 0 {
		rv.batchLimit = DefaultBatchLimit
	}

	if rv.chunkSize <= 0 {
		rv.chunkSize = DefaultChunkSize
	}

	if rv.batchTimeout == 0 {
		rv.batchTimeout = DefaultBatchTimeout
	}

	poolSize := opts.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = DefaultWorkerPoolSize
	}

	pool, err := ants.NewPoolWithFunc(poolSize, rv.lookupKey,
		ants.WithExpiryDuration(workerPoolExpireTime))
	if err != nil {
		return nil, fmt.Errorf("cannot create a worker pool: %w", err)
	}

	rv.workerPool = pool
	rv.handler = newHTTPHandler(rv)

	if reloadable, ok := provider.(ReloadableProvider); ok && reloadable.ReloadEvery() > 0 {
		rv.dbReloader = newDBReloader(reloadable, logger, rv.usageStats)
		rv.dbReloader.Start()
	}

	return rv, nil
}
