package pureservice

import (
	"context"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/vestfoldfylke/pureservice-sync/internal/metrics"
)

// Requester is the transport the entity services are built on. *Caller implements it.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	GetPaged(ctx context.Context, path string, query url.Values, page func([]byte) (int, error)) error
	Post(ctx context.Context, path string, payload any, out any) error
	Patch(ctx context.Context, path string, payload any) error
	Put(ctx context.Context, path string, payload any, out any) error
}

type service struct {
	caller  Requester
	metrics metrics.Counter
	log     logrus.FieldLogger
}

type ServiceOption func(*service)

func WithServiceMetrics(counter metrics.Counter) ServiceOption {
	return func(s *service) {
		s.metrics = counter
	}
}

func WithServiceLogger(log logrus.FieldLogger) ServiceOption {
	return func(s *service) {
		s.log = log
	}
}

func newService(caller Requester, opts []ServiceOption) service {
	var s = service{
		caller:  caller,
		metrics: metrics.Discard{},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s *service) count(name string, help string, err error) {
	s.metrics.Count(name, help, err == nil)
}

// first returns the first element of a created-entity response.
func first[T any](items []T, kind string) (result *T, err error) {
	if len(items) == 0 {
		err = &RequestError{Method: "POST", Path: kind, Body: "response contains no " + kind}
		return
	}
	result = &items[0]
	return
}
