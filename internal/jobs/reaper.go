package jobs

import (
	"context"
	"log"
	"time"

	"github.com/petal-labs/ira/internal/session"
)

// Reaper evicts idle conversation sessions on a fixed interval so
// long-running deployments don't accumulate abandoned indexes.
type Reaper struct {
	manager  *session.Manager
	interval time.Duration
	maxIdle  time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewReaper(manager *session.Manager, interval, maxIdle time.Duration) *Reaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if maxIdle <= 0 {
		maxIdle = time.Hour
	}
	return &Reaper{
		manager:  manager,
		interval: interval,
		maxIdle:  maxIdle,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs the eviction loop until Stop is called or ctx is canceled.
func (r *Reaper) Start(ctx context.Context) {
	go func() {
		defer close(r.doneChan)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		log.Printf("session reaper started (interval=%s, max idle=%s)", r.interval, r.maxIdle)
		for {
			select {
			case <-ctx.Done():
				log.Println("session reaper stopping: context canceled")
				return
			case <-r.stopChan:
				log.Println("session reaper stopping")
				return
			case <-ticker.C:
				if n := r.manager.EvictIdle(r.maxIdle); n > 0 {
					log.Printf("evicted %d idle sessions", n)
				}
			}
		}
	}()
}

// Stop signals the loop to exit and waits for it to finish.
func (r *Reaper) Stop() {
	close(r.stopChan)
	<-r.doneChan
}
