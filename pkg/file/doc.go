// Package file stores case uploads (denial letters and payment ledgers)
// under tenant-scoped prefixes on a local filesystem or S3-compatible
// backend.
//
// All objects live under tenants/<tenant-id>/cases/<case-id>/, so the
// retention purge can remove everything a tenant ever uploaded with a single
// DeleteDir on the tenant prefix. DeleteDir is idempotent: purging an
// already-empty prefix is a no-op, which lets a failed purge pass be retried
// in full.
//
// Content types are detected from the first bytes of the upload, never
// trusted from the client, and validated against the short list of formats
// case processing accepts.
package file
