package health

import (
	"context"
	"time"

	corehealth "cartbill/ms_invoicing_core/internal/core/health"
)

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Check probes one external dependency. A nil error means the dependency
// is reachable.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// checkTimeout bounds each probe so a hung dependency cannot stall the
// health endpoint.
const checkTimeout = 2 * time.Second

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	checks    []Check
	startedAt time.Time
}

func NewService(meta Metadata, checks ...Check) *Service {
	return &Service{
		meta:      meta,
		checks:    checks,
		startedAt: time.Now().UTC(),
	}
}

// Status returns the current availability snapshot. The overall status
// degrades to DOWN when any dependency probe fails.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StateUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, check := range s.checks {
		dep := corehealth.DependencyStatus{Name: check.Name, Status: corehealth.StateUp}

		probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		if err := check.Probe(probeCtx); err != nil {
			dep.Status = corehealth.StateDown
			dep.Error = err.Error()
			status.Status = corehealth.StateDown
		}
		cancel()

		status.Dependencies = append(status.Dependencies, dep)
	}

	return status
}
