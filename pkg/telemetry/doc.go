// Package telemetry provides the observability surface for biosetup:
// zerolog-based structured logging with a dedicated STEP severity,
// Prometheus metrics for steps and retry attempts, and optional
// OpenTelemetry spans around pipeline steps.
package telemetry
