package reconcile

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Result is the tally of one run.
type Result struct {
	RunID     string        `json:"runId" yaml:"runId"`
	StartedAt time.Time     `json:"startedAt" yaml:"startedAt"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Aborted   bool          `json:"aborted" yaml:"aborted"`

	UserHandledCount                  int `json:"userHandledCount" yaml:"userHandledCount"`
	UserUpToDateCount                 int `json:"userUpToDateCount" yaml:"userUpToDateCount"`
	UserCreatedCount                  int `json:"userCreatedCount" yaml:"userCreatedCount"`
	UserErrorCount                    int `json:"userErrorCount" yaml:"userErrorCount"`
	UserDisabledCount                 int `json:"userDisabledCount" yaml:"userDisabledCount"`
	UserMissingCompanyNameCount       int `json:"userMissingCompanyNameCount" yaml:"userMissingCompanyNameCount"`
	UserMissingEmailAddressCount      int `json:"userMissingEmailAddressCount" yaml:"userMissingEmailAddressCount"`
	UserMissingEmailLinkCount         int `json:"userMissingEmailLinkCount" yaml:"userMissingEmailLinkCount"`
	UserMissingCredentialsCount       int `json:"userMissingCredentialsCount" yaml:"userMissingCredentialsCount"`
	CompanyMissingInPureserviceCount  int `json:"companyMissingInPureserviceCount" yaml:"companyMissingInPureserviceCount"`
	UserBasicPropertiesUpdatedCount   int `json:"userBasicPropertiesUpdatedCount" yaml:"userBasicPropertiesUpdatedCount"`
	UserUsernameUpdatedCount          int `json:"userUsernameUpdatedCount" yaml:"userUsernameUpdatedCount"`
	UserCompanyPropertiesUpdatedCount int `json:"userCompanyPropertiesUpdatedCount" yaml:"userCompanyPropertiesUpdatedCount"`
	UserEmailAddressUpdatedCount      int `json:"userEmailAddressUpdatedCount" yaml:"userEmailAddressUpdatedCount"`
	UserPhoneNumberUpdatedCount       int `json:"userPhoneNumberUpdatedCount" yaml:"userPhoneNumberUpdatedCount"`
}

func NewResult(runId string, startedAt time.Time) *Result {
	return &Result{RunID: runId, StartedAt: startedAt}
}

// Apply adds the outcome of one user to the tally. Deferred users leave it unchanged.
func (r *Result) Apply(o UserOutcome) {
	if o.Outcome.Handled() {
		r.UserHandledCount++
	}
	switch o.Outcome {
	case OutcomeSkippedMissingEmail:
		r.UserMissingEmailAddressCount++
	case OutcomeSkippedMissingCompanyName:
		r.UserMissingCompanyNameCount++
	case OutcomeSkippedDisabled:
		r.UserDisabledCount++
	case OutcomeSkippedCompanyMissing:
		r.CompanyMissingInPureserviceCount++
	case OutcomeMissingEmailLink:
		r.UserMissingEmailLinkCount++
		r.UserErrorCount++
	case OutcomeUpToDate:
		r.UserUpToDateCount++
	case OutcomeCreated:
		r.UserCreatedCount++
	case OutcomeError:
		r.UserErrorCount++
	}

	if o.MissingCredentials {
		r.UserMissingCredentialsCount++
	}
	if o.Applied.BasicProperties {
		r.UserBasicPropertiesUpdatedCount++
	}
	if o.Applied.Username {
		r.UserUsernameUpdatedCount++
	}
	if o.Applied.CompanyProperties {
		r.UserCompanyPropertiesUpdatedCount++
	}
	if o.Applied.EmailAddress {
		r.UserEmailAddressUpdatedCount++
	}
	if o.Applied.PhoneNumber {
		r.UserPhoneNumberUpdatedCount++
	}
}

type counter struct {
	name  string
	value int
}

func (r *Result) counters() []counter {
	return []counter{
		{"UserHandledCount", r.UserHandledCount},
		{"UserUpToDateCount", r.UserUpToDateCount},
		{"UserCreatedCount", r.UserCreatedCount},
		{"UserErrorCount", r.UserErrorCount},
		{"UserDisabledCount", r.UserDisabledCount},
		{"UserMissingCompanyNameCount", r.UserMissingCompanyNameCount},
		{"UserMissingEmailAddressCount", r.UserMissingEmailAddressCount},
		{"UserMissingEmailLinkCount", r.UserMissingEmailLinkCount},
		{"UserMissingCredentialsCount", r.UserMissingCredentialsCount},
		{"CompanyMissingInPureserviceCount", r.CompanyMissingInPureserviceCount},
		{"UserBasicPropertiesUpdatedCount", r.UserBasicPropertiesUpdatedCount},
		{"UserUsernameUpdatedCount", r.UserUsernameUpdatedCount},
		{"UserCompanyPropertiesUpdatedCount", r.UserCompanyPropertiesUpdatedCount},
		{"UserEmailAddressUpdatedCount", r.UserEmailAddressUpdatedCount},
		{"UserPhoneNumberUpdatedCount", r.UserPhoneNumberUpdatedCount},
	}
}

func (r *Result) Fields() logrus.Fields {
	var fields = logrus.Fields{
		"run":      r.RunID,
		"duration": r.Duration.String(),
		"aborted":  r.Aborted,
	}
	for _, c := range r.counters() {
		fields[c.name] = c.value
	}
	return fields
}

// Print writes the non-zero counters, one per line.
func (r *Result) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Run %s finished in %s\n", r.RunID, r.Duration.Round(time.Millisecond))
	if r.Aborted {
		_, _ = fmt.Fprintf(w, "Run was stopped before all users were handled\n")
	}
	for _, c := range r.counters() {
		if c.value > 0 {
			_, _ = fmt.Fprintf(w, "\t%s: %d\n", c.name, c.value)
		}
	}
}
