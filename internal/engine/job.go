package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mkholodov/obsync/internal/logger"
	"github.com/mkholodov/obsync/models"
)

// ListingFunc returns the current document listing of one replica. The
// host wires its vault walker on the local side and its remote index on
// the other.
type ListingFunc func(ctx context.Context) ([]models.DocumentStat, error)

// Job runs reconciliation passes on a fixed interval until stopped. One
// pass runs immediately on Start, then one per tick; a pass that overruns
// the interval simply delays the next one, since BeginSync serialises
// passes internally.
type Job struct {
	engine   *Engine
	local    ListingFunc
	remote   ListingFunc
	provider RemoteProvider
	logger   *logger.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewJob wires a periodic sync job over the given engine and listings.
func NewJob(engine *Engine, local, remote ListingFunc, provider RemoteProvider, log *logger.Logger) *Job {
	return &Job{
		engine:   engine,
		local:    local,
		remote:   remote,
		provider: provider,
		logger:   log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the job loop in its own goroutine and returns. The loop
// exits when ctx is cancelled or Stop is called.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	go func() {
		defer close(j.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		j.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-j.stop:
				return
			case <-ticker.C:
				j.runOnce(ctx)
			}
		}
	}()
}

// Stop signals the loop to exit and blocks until the in-flight pass, if
// any, has returned.
func (j *Job) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
	<-j.done
}

func (j *Job) runOnce(ctx context.Context) {
	localListing, err := j.local(ctx)
	if err != nil {
		j.logger.Err(err).Msg("list local documents")
		return
	}
	remoteListing, err := j.remote(ctx)
	if err != nil {
		j.logger.Err(err).Msg("list remote documents")
		return
	}

	if _, err = j.engine.BeginSync(ctx, localListing, remoteListing, j.provider); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		j.logger.Err(err).Msg("sync pass failed")
	}
}
