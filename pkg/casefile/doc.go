// Package casefile owns the case record and its processing lifecycle.
//
// A case moves UPLOAD_RECEIVED -> ANALYZING -> DRAFT_READY and never moves
// backwards. There is no background scheduler: every transition is evaluated
// lazily whenever the case is observed (on creation or on any poll), so
// staleness is bounded by the next incoming request for that case. A case the
// admission gate never lets through stays at UPLOAD_RECEIVED indefinitely;
// that starvation under sustained overload is an accepted tradeoff.
//
// Draft generation is an opaque injected collaborator. The lifecycle invokes
// it exactly once per case, after the fixed processing delay has elapsed, and
// attaches its output together with the elapsed seconds (floored, never below
// one).
package casefile
