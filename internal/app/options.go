package service

import (
	"github.com/okian/gridcast/internal/adapters/repository"
	"github.com/okian/gridcast/internal/domain/regression"
	"github.com/okian/gridcast/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithProvider sets the upstream telemetry provider.
func WithProvider(p Provider) Option {
	return func(s *Service) {
		s.provider = p
	}
}

// WithHistory sets the store prediction runs are recorded in.
func WithHistory(h repository.Store) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithTrainingYears sets the seasons training events are drawn from.
func WithTrainingYears(years []int) Option {
	return func(s *Service) {
		if len(years) > 0 {
			s.trainingYears = append([]int(nil), years...)
		}
	}
}

// WithBuildWorkers sets how many events a season build fetches at once.
func WithBuildWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.buildWorkers = n
		}
	}
}

// WithModel sets the regressor constructor and its report name.
func WithModel(kind string, newModel func() regression.Regressor) Option {
	return func(s *Service) {
		if newModel != nil {
			s.modelKind = kind
			s.newModel = newModel
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
