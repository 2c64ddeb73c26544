// Package pg manages the PostgreSQL pool holding case records and runs
// goose migrations at startup. Configuration is environment-driven; Connect
// retries with backoff so the database coming up a few seconds late does not
// fail the boot.
package pg
