package publishers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Builder constructs a Publisher from its config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry resolves publisher types to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// DefaultRegistry knows every built-in sink.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register(TypeHTTP, newHTTPPublisher).
		Register(TypeSQS, newSQSPublisher).
		Register(TypeSNS, newSNSPublisher).
		Register(TypePubSub, newPubSubPublisher)
}

// Register binds typ to b and returns r for chaining. Blank types and nil
// builders are ignored.
func (r *Registry) Register(typ string, b Builder) *Registry {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" || b == nil {
		return r
	}
	r.mu.Lock()
	r.builders[typ] = b
	r.mu.Unlock()
	return r
}

// Types lists the registered types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.builders))
	for typ := range r.builders {
		out = append(out, typ)
	}
	slices.Sort(out)
	return out
}

// Build constructs the publisher for cfg.
func (r *Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	r.mu.RLock()
	b, ok := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown publisher type %q (known: %s)", cfg.Type, strings.Join(r.Types(), ", "))
	}
	return b(ctx, cfg, loggerOrNop(log))
}

// BuildAll constructs every publisher in cfgs. On failure the publishers
// already built are closed.
func BuildAll(ctx context.Context, reg *Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if reg == nil {
		return nil, fmt.Errorf("publisher registry is nil")
	}
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			_ = NewFanout(pubs).Close()
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
