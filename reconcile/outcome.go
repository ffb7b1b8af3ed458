package reconcile

// Outcome is what happened to one Entra user during a run.
type Outcome int

const (
	// OutcomeDeferred means the rate governor refused the writes; the user is
	// picked up again by the next run.
	OutcomeDeferred Outcome = iota
	OutcomeSkippedMissingEmail
	OutcomeSkippedMissingCompanyName
	OutcomeSkippedDisabled
	OutcomeSkippedCompanyMissing
	OutcomeMissingEmailLink
	OutcomeUpToDate
	OutcomeUpdated
	OutcomeCreated
	OutcomeError
)

var outcomeNames = map[Outcome]string{
	OutcomeDeferred:                  "deferred",
	OutcomeSkippedMissingEmail:       "skipped-missing-email",
	OutcomeSkippedMissingCompanyName: "skipped-missing-company-name",
	OutcomeSkippedDisabled:           "skipped-disabled",
	OutcomeSkippedCompanyMissing:     "skipped-company-missing",
	OutcomeMissingEmailLink:          "missing-email-link",
	OutcomeUpToDate:                  "up-to-date",
	OutcomeUpdated:                   "updated",
	OutcomeCreated:                   "created",
	OutcomeError:                     "error",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Handled reports whether the user passed the rate governor and was worked on.
func (o Outcome) Handled() bool {
	switch o {
	case OutcomeMissingEmailLink, OutcomeUpToDate, OutcomeUpdated, OutcomeCreated, OutcomeError:
		return true
	}
	return false
}

// Changes lists the change categories applied to an existing user.
type Changes struct {
	BasicProperties   bool
	Username          bool
	CompanyProperties bool
	EmailAddress      bool
	PhoneNumber       bool
}

func (c Changes) Any() bool {
	return c.BasicProperties || c.Username || c.CompanyProperties || c.EmailAddress || c.PhoneNumber
}

type UserOutcome struct {
	Outcome            Outcome
	Applied            Changes
	MissingCredentials bool
}
