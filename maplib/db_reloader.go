package maplib

import (
	"context"
	"time"
)

type dbReloader struct {
	ctx        context.Context
	cancel     context.CancelFunc
	logger     Logger
	provider   ReloadableProvider
	usageStats *UsageStats
}

func (d *dbReloader) Start() {
	go d.bgReload()
}

func (d *dbReloader) Shutdown() {
	d.cancel()
}

func (d *dbReloader) bgReload() {
	timer := time.NewTicker(d.provider.ReloadEvery())
	defer timer.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-timer.C:
			d.doReload()
		}
	}
}

func (d *dbReloader) doReload() {
	changed, err := d.provider.Reload()

	switch {
	case err != nil:
		d.logger.UpdateError(d.provider.Name(), err)
	case changed:
		d.usageStats.Updated()
		d.logger.UpdateInfo(d.provider.Name(), "db has been reloaded")
	}
}

func newDBReloader(provider ReloadableProvider, logger Logger, usageStats *UsageStats) *dbReloader {
	ctx, cancel := context.WithCancel(context.Background())

	return &dbReloader{
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		provider:   provider,
		usageStats: usageStats,
	}
}
