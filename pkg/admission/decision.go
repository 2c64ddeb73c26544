package admission

// Reason explains a denial in terms the caller can surface to the end user.
type Reason string

const (
	ReasonConcurrencyLimit Reason = "maximum concurrent analyses reached, retry when a case completes"
	ReasonRateLimit        Reason = "hourly analysis limit reached, retry later"
	ReasonPilotCaseLimit   Reason = "pilot case allowance exhausted, upgrade to continue"
)

// Decision is the structured outcome of an admission check.
type Decision struct {
	Allowed bool
	Reason  Reason // empty when Allowed
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}
