package api

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kuzcou/plannerdig/domain"
)

// PoolConfig sizes the activity publisher.
type PoolConfig struct {
	Workers        int
	Buffer         int
	PublishTimeout time.Duration
	HandoffTimeout time.Duration
}

// PoolConfigFromEnv reads ACTIVITY_WORKERS, ACTIVITY_BUFFER,
// ACTIVITY_TIMEOUT and ACTIVITY_HANDOFF_TIMEOUT.
func PoolConfigFromEnv() PoolConfig {
	return PoolConfig{
		Workers:        envInt("ACTIVITY_WORKERS", 8),
		Buffer:         envInt("ACTIVITY_BUFFER", 1024),
		PublishTimeout: envDur("ACTIVITY_TIMEOUT", 10*time.Second),
		HandoffTimeout: envDur("ACTIVITY_HANDOFF_TIMEOUT", 15*time.Millisecond),
	}
}

// activityPublisher hands activity records to a fixed set of workers so
// request handlers never wait on the queue. When the buffer is full the
// record is published inline instead.
type activityPublisher struct {
	store Storage
	log   *log.Logger
	cfg   PoolConfig

	mu     sync.RWMutex
	jobs   chan domain.Activity
	closed bool
	wg     sync.WaitGroup
}

func newActivityPublisher(store Storage, logger *log.Logger, cfg PoolConfig) *activityPublisher {
	if logger == nil {
		panic("api: activity publisher needs a logger")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer < 0 {
		cfg.Buffer = 0
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}
	p := &activityPublisher{
		store: store,
		log:   logger,
		cfg:   cfg,
		jobs:  make(chan domain.Activity, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	logger.Infof("activity publisher started, workers: %d, buffer: %d, timeout: %v, handoff: %v",
		cfg.Workers, cfg.Buffer, cfg.PublishTimeout, cfg.HandoffTimeout)
	return p
}

func (p *activityPublisher) worker(id int) {
	defer p.wg.Done()
	for a := range p.jobs {
		if err := p.send(a); err != nil {
			p.log.WithFields(log.Fields{
				"worker":   id,
				"user":     a.UserID,
				"type":     a.Type,
				"entityId": a.EntityID,
			}).Errorf("activity publish failed: %v", err)
		}
	}
}

func (p *activityPublisher) send(a domain.Activity) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.PublishTimeout)
	defer cancel()
	return p.store.PublishActivity(ctx, a)
}

// Publish queues a for delivery. Failures are logged and never surface to
// the caller; the mutation they describe has already been applied.
func (p *activityPublisher) Publish(a domain.Activity) {
	if p.tryHandoff(a) {
		return
	}
	p.log.WithField("type", a.Type).Warn("activity buffer saturated; publishing inline")
	if err := p.send(a); err != nil {
		p.log.WithFields(log.Fields{
			"user":     a.UserID,
			"type":     a.Type,
			"entityId": a.EntityID,
		}).Errorf("activity publish inline failed: %v", err)
	}
}

func (p *activityPublisher) tryHandoff(a domain.Activity) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.jobs <- a:
		return true
	default:
	}
	if p.cfg.HandoffTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(p.cfg.HandoffTimeout)
	defer timer.Stop()
	select {
	case p.jobs <- a:
		return true
	case <-timer.C:
		return false
	}
}

// Close stops accepting work and waits for queued records to drain.
func (p *activityPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
