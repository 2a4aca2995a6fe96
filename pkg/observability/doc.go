// Package observability provides the operational plumbing shared by
// every EdgeStats component: structured JSON logging (stdlib slog),
// Prometheus metrics, dependency health checks for the three backing
// stores, optional OpenTelemetry export, panic recovery, and graceful
// shutdown orchestration.
package observability
