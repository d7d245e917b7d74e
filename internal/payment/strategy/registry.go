package strategy

import (
	"github.com/shopforge/shopforge/internal/payment/domain"
)

// Registry maps a payment method discriminator to its backend. Built once at
// process start. Method lookup is a case-sensitive exact match; the ordered
// slice backs sequential confirm/cancel resolution.
type Registry struct {
	ordered  []domain.Strategy
	byMethod map[string]domain.Strategy
}

func NewRegistry(strategies ...domain.Strategy) *Registry {
	registry := &Registry{byMethod: map[string]domain.Strategy{}}
	for _, s := range strategies {
		if s == nil || s.Method() == "" {
			continue
		}
		if _, exists := registry.byMethod[s.Method()]; exists {
			continue
		}
		registry.byMethod[s.Method()] = s
		registry.ordered = append(registry.ordered, s)
	}
	return registry
}

func (r *Registry) ForMethod(method string) (domain.Strategy, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.byMethod[method]
	return s, ok
}

// All returns backends in registration order.
func (r *Registry) All() []domain.Strategy {
	if r == nil {
		return nil
	}
	return r.ordered
}
