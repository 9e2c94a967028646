package health

import "time"

// Dependency states.
const (
	StateUp   = "UP"
	StateDown = "DOWN"
)

// DependencyStatus is the probe result for one external dependency.
type DependencyStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Status captures the state of the service at a moment in time. The
// top-level Status is UP only while every dependency probe passes.
type Status struct {
	Service      string             `json:"service"`
	Version      string             `json:"version"`
	Environment  string             `json:"environment"`
	Status       string             `json:"status"`
	StartedAt    time.Time          `json:"startedAt"`
	Uptime       string             `json:"uptime"`
	UptimeSecs   int64              `json:"uptimeSeconds"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}
