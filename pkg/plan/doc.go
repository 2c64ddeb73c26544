// Package plan resolves the limit profile a tenant operates under.
//
// A tenant is always in exactly one of two billing modes: a time-boxed pilot
// (trial) or a recurring subscription. The resolver computes the effective
// Profile fresh on every call from the tenant's current subscription state;
// nothing is persisted. An active subscription selects a subscription tier
// from the catalog (with per-subscription credit overrides), anything else
// falls back to the fixed pilot tier. Absence of configuration is never an
// error: unset fields resolve to tier defaults.
//
// Catalogs are loaded through the Source interface. NewInMemSource serves the
// built-in defaults, NewYAMLSource reads a catalog file so operations can tune
// tiers without a redeploy.
package plan
