package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultLabel = "result"
	success     = "success"
	failed      = "failed"
)

// Counter counts the outcome of a named operation.
type Counter interface {
	Count(name string, help string, ok bool)
}

// Discard drops every count.
type Discard struct{}

func (Discard) Count(string, string, bool) {}

// Prometheus keeps one counter vector per operation name, labelled by result.
type Prometheus struct {
	mu       sync.Mutex
	prefix   string
	registry *prometheus.Registry
	vectors  map[string]*prometheus.CounterVec
}

func NewPrometheus(prefix string) *Prometheus {
	return &Prometheus{
		prefix:   prefix,
		registry: prometheus.NewRegistry(),
		vectors:  make(map[string]*prometheus.CounterVec),
	}
}

func (p *Prometheus) metricName(name string) string {
	var parts []string
	if len(p.prefix) > 0 {
		parts = append(parts, p.prefix)
	}
	parts = append(parts, strings.ToLower(name), "total")
	return strings.Join(parts, "_")
}

func (p *Prometheus) vector(name string, help string) *prometheus.CounterVec {
	p.mu.Lock()
	defer p.mu.Unlock()

	var fullName = p.metricName(name)
	var vec, ok = p.vectors[fullName]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: fullName,
			Help: help,
		}, []string{resultLabel})
		p.registry.MustRegister(vec)
		p.vectors[fullName] = vec
	}
	return vec
}

func (p *Prometheus) Count(name string, help string, ok bool) {
	var result = success
	if !ok {
		result = failed
	}
	p.vector(name, help).WithLabelValues(result).Inc()
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
