// Package usage is the per-tenant consumption ledger.
//
// One Record exists per tenant, created lazily on first read. It carries two
// scopes of counters: pilot counters (lifetime, untouched by calendar
// rollover) and period counters keyed by the current calendar month, which
// reset whenever the month key changes. The record also holds the
// job-timestamp log backing the sliding-window rate limiter; the log is
// pruned to the trailing hour on every access.
//
// All mutations are read-modify-write against the full record and are
// serialized per tenant by the Ledger's keyed mutexes. Operations on
// different tenants proceed in parallel.
//
// Two Store backends ship in-package: an in-memory store for tests and
// single-node deployments, and a Redis store for durable shared state.
package usage
