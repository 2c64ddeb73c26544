// Package pilot tracks the two billing lifecycles a tenant can be in and
// gates every tenant-scoped operation through IsAccessEnabled.
//
// A pilot (trial) record is created lazily on first access and runs for a
// fixed number of days; once it expires it is completed exactly once and a
// retention window starts ticking. An active subscription supersedes pilot
// gating entirely. After the retention window has passed without a
// subscription, ReapExpiredTenant irreversibly purges the tenant's data
// through registered purge hooks. All time-based transitions happen lazily on
// the next observing call; nothing runs on a timer.
//
// Subscription records are kept in sync with the billing provider via
// webhooks (see BillingProvider and the Paddle implementation).
package pilot
