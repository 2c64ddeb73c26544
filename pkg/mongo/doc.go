// Package mongo manages the MongoDB connection holding the trial and
// subscription collections. Configuration is environment-driven and the
// connect path retries so transient Atlas failures during startup do not
// kill the process.
package mongo
