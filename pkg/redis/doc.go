// Package redis manages the Redis connection backing the usage ledger's
// store. Configuration comes from the environment; Connect retries so a
// Redis that is still starting does not fail the whole boot.
package redis
