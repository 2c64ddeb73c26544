// Package admission decides whether a tenant's queued analysis job may start.
//
// The gate has two stages, evaluated in order:
//
//  1. a hard concurrency cap checked against the live count of cases
//     currently in analysis, and
//  2. a sliding-window rate check against the ledger's job-timestamp log —
//     exactly the trailing 3600 seconds at call time, recomputed on every
//     check. There are no background timers or fixed buckets; the prune is
//     persisted even on deny so the window advances monotonically.
//
// AdmitJob performs the check and the job recording under one per-tenant
// mutex, so two concurrent admissions can never both take the last available
// slot. Checks return a structured Decision rather than an error: a denied
// admission is an expected outcome the caller surfaces to the tenant, not a
// failure.
package admission
