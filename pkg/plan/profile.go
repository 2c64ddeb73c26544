package plan

// Mode distinguishes the two billing modes a tenant can be in.
type Mode string

const (
	ModeTrial        Mode = "trial"
	ModeSubscription Mode = "subscription"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $49.00 USD is Amount: 4900, Currency: "USD".
type Money struct {
	Amount   int64  `yaml:"amount"`
	Currency string `yaml:"currency"`
}

// Profile is the effective limit set a tenant operates under. It is derived,
// never stored: the resolver computes it on each request from the tenant's
// subscription state and the tier catalog.
type Profile struct {
	ID   string `yaml:"-"`
	Name string `yaml:"name"`
	Mode Mode   `yaml:"mode"`

	// MaxCasesTotal is the lifetime case cap for pilot tenants. Subscription
	// tiers leave it zero; their case consumption is metered by period
	// credits instead of a hard cap.
	MaxCasesTotal int64 `yaml:"max_cases_total"`

	// CaseCreditsPerPeriod is the monthly case-credit allotment for
	// subscription tiers. Consumption beyond it is an overage billing event,
	// not a block.
	CaseCreditsPerPeriod int64 `yaml:"case_credits_per_period"`

	// IncludedPaymentRows is the lifetime payment-row allowance for pilot
	// tenants.
	IncludedPaymentRows int64 `yaml:"included_payment_rows"`

	// PaymentRowCreditsPerPeriod is the monthly payment-row credit allotment
	// for subscription tiers. Each credit covers PaymentRowsPerCredit rows.
	PaymentRowCreditsPerPeriod int64 `yaml:"payment_row_credits_per_period"`
	PaymentRowsPerCredit       int64 `yaml:"payment_rows_per_credit"`

	MaxFilesPerCase         int   `yaml:"max_files_per_case"`
	MaxFileSize             int64 `yaml:"max_file_size"`
	MaxJobsPerHour          int   `yaml:"max_jobs_per_hour"`
	MaxConcurrentProcessing int   `yaml:"max_concurrent_processing"`

	OveragePricePerCase Money `yaml:"overage_price_per_case"`
}

// Default tier IDs. The catalog must always be able to serve both.
const (
	PilotPlanID    = "pilot"
	StandardPlanID = "standard"
)

// DefaultCatalog returns the built-in tier catalog. Values follow the product
// defaults; deployments override them with a YAML catalog.
func DefaultCatalog() map[string]Profile {
	return map[string]Profile{
		PilotPlanID: {
			ID:                      PilotPlanID,
			Name:                    "Pilot",
			Mode:                    ModeTrial,
			MaxCasesTotal:           25,
			IncludedPaymentRows:     500,
			MaxFilesPerCase:         5,
			MaxFileSize:             10 << 20,
			MaxJobsPerHour:          2,
			MaxConcurrentProcessing: 2,
		},
		StandardPlanID: {
			ID:                         StandardPlanID,
			Name:                       "Standard",
			Mode:                       ModeSubscription,
			CaseCreditsPerPeriod:       40,
			PaymentRowCreditsPerPeriod: 20,
			PaymentRowsPerCredit:       100,
			MaxFilesPerCase:            10,
			MaxFileSize:                25 << 20,
			MaxJobsPerHour:             20,
			MaxConcurrentProcessing:    5,
			OveragePricePerCase:        Money{Amount: 4900, Currency: "USD"},
		},
	}
}

// applyDefaults fills zero-valued fields of p from the fallback tier so a
// sparse catalog entry still yields a complete profile.
func applyDefaults(p, fallback Profile) Profile {
	if p.Name == "" {
		p.Name = fallback.Name
	}
	if p.Mode == "" {
		p.Mode = fallback.Mode
	}
	if p.MaxCasesTotal == 0 {
		p.MaxCasesTotal = fallback.MaxCasesTotal
	}
	if p.CaseCreditsPerPeriod == 0 {
		p.CaseCreditsPerPeriod = fallback.CaseCreditsPerPeriod
	}
	if p.IncludedPaymentRows == 0 {
		p.IncludedPaymentRows = fallback.IncludedPaymentRows
	}
	if p.PaymentRowCreditsPerPeriod == 0 {
		p.PaymentRowCreditsPerPeriod = fallback.PaymentRowCreditsPerPeriod
	}
	if p.PaymentRowsPerCredit == 0 {
		p.PaymentRowsPerCredit = fallback.PaymentRowsPerCredit
	}
	if p.MaxFilesPerCase == 0 {
		p.MaxFilesPerCase = fallback.MaxFilesPerCase
	}
	if p.MaxFileSize == 0 {
		p.MaxFileSize = fallback.MaxFileSize
	}
	if p.MaxJobsPerHour == 0 {
		p.MaxJobsPerHour = fallback.MaxJobsPerHour
	}
	if p.MaxConcurrentProcessing == 0 {
		p.MaxConcurrentProcessing = fallback.MaxConcurrentProcessing
	}
	if p.OveragePricePerCase.Amount == 0 {
		p.OveragePricePerCase = fallback.OveragePricePerCase
	}
	return p
}
