package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nicekwell/postboard/internal/metrics"
)

// DependencyProbe runs the health check on a schedule, exports the result as
// gauges and logs only when a dependency changes state.
type DependencyProbe struct {
	Service *PostService
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	mu   sync.Mutex
	last *Health
}

func (p *DependencyProbe) Run(ctx context.Context) {
	h := p.Service.Health(ctx)
	p.Metrics.DependencyUp("store", h.Store == StatusOK)
	p.Metrics.DependencyUp("cache", h.Cache == StatusOK)

	p.mu.Lock()
	prev := p.last
	p.last = &h
	p.mu.Unlock()

	if prev == nil {
		p.log(h.Store != StatusOK || h.Cache != StatusOK, "dependency status", h)
		return
	}
	if *prev != h {
		p.log(h.Store != StatusOK || h.Cache != StatusOK, "dependency status changed", h,
			zap.String("prev_store", prev.Store),
			zap.String("prev_cache", prev.Cache),
		)
	}
}

// Last returns the most recent probe result, if any.
func (p *DependencyProbe) Last() (Health, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return Health{}, false
	}
	return *p.last, true
}

func (p *DependencyProbe) log(bad bool, msg string, h Health, extra ...zap.Field) {
	if p.Logger == nil {
		return
	}
	fields := append([]zap.Field{zap.String("store", h.Store), zap.String("cache", h.Cache)}, extra...)
	if bad {
		p.Logger.Warn(msg, fields...)
		return
	}
	p.Logger.Info(msg, fields...)
}
