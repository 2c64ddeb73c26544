// Package casepilot wires the denial-case analysis core: plan resolution,
// usage accounting, rate-limited admission, the case lifecycle, and the
// trial/subscription lifecycle, assembled from environment configuration.
//
// The packages under pkg/ are independently usable; this package is the
// composition root that connects them the way the product runs them.
package casepilot
