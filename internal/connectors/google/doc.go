// Package google holds the shared plumbing for the Google Workspace
// connectors: service construction, token sourcing, deterministic
// error mapping, retry with backoff, and per-service rate limiting.
// The per-product clients live in the gmail, calendar, drive, and
// sheets subpackages.
package google
