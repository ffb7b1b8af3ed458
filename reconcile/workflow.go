package reconcile

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vestfoldfylke/pureservice-sync/entra"
	"github.com/vestfoldfylke/pureservice-sync/internal/metrics"
	"github.com/vestfoldfylke/pureservice-sync/pureservice"
	"github.com/vestfoldfylke/pureservice-sync/ratelimit"
)

const (
	// company, physical address, phone number, email address, user, department and location
	maxCreateRequests = 6
	// basic properties, username, company or department and location with their creation,
	// email address, phone number and default phone number
	maxUpdateRequests = 8
)

type Directory interface {
	Employees(ctx context.Context) ([]*entra.User, error)
	Students(ctx context.Context) ([]*entra.User, error)
}

// PhoneSource returns the mobile phone number to register for a user, or an empty string.
type PhoneSource interface {
	MobilePhone(ctx context.Context, user *entra.User) string
}

type Governor interface {
	NeedsToWait(expected int) ratelimit.Decision
}

type UserService interface {
	GetUsers(ctx context.Context) (*pureservice.UserList, error)
	CreateNewUser(ctx context.Context, user pureservice.NewUser) (*pureservice.User, error)
	UpdateBasicProperties(ctx context.Context, userId int, updates []pureservice.PropertyUpdate) error
	UpdateCompanyProperties(ctx context.Context, userId int, updates []pureservice.CompanyUpdateItem) error
	UpdateDepartmentAndLocation(ctx context.Context, userId int, departmentId *int, locationId *int) error
	UpdateUsername(ctx context.Context, userId int, credentialId int, username string) error
	RegisterPhoneNumberAsDefault(ctx context.Context, userId int, phoneNumberId *int) error
}

type CompanyService interface {
	GetCompanies(ctx context.Context) ([]pureservice.Company, error)
	GetDepartments(ctx context.Context) ([]pureservice.CompanyDepartment, error)
	GetLocations(ctx context.Context) ([]pureservice.CompanyLocation, error)
	AddCompany(ctx context.Context, name string) (*pureservice.Company, error)
	AddDepartment(ctx context.Context, name string, companyId int) (*pureservice.CompanyDepartment, error)
	AddLocation(ctx context.Context, name string, companyId int) (*pureservice.CompanyLocation, error)
}

type EmailAddressService interface {
	AddNewEmailAddress(ctx context.Context, email string) (*pureservice.EmailAddress, error)
	UpdateEmailAddress(ctx context.Context, emailAddressId int, email string, userId int) error
}

type PhoneNumberService interface {
	AddNewPhoneNumber(ctx context.Context, number string, numberType pureservice.PhoneNumberType) (*pureservice.PhoneNumber, error)
	AddNewPhoneNumberAndLinkToUser(ctx context.Context, number string, numberType pureservice.PhoneNumberType, userId int) (*pureservice.PhoneNumber, error)
	UpdatePhoneNumber(ctx context.Context, phoneNumberId int, number string, numberType pureservice.PhoneNumberType, userId int) error
}

type PhysicalAddressService interface {
	AddNewPhysicalAddress(ctx context.Context, streetAddress, city, postalCode, country *string) (*pureservice.PhysicalAddress, error)
}

// Services are the Pureservice operations the synchronizer writes through.
type Services struct {
	Users             UserService
	Companies         CompanyService
	EmailAddresses    EmailAddressService
	PhoneNumbers      PhoneNumberService
	PhysicalAddresses PhysicalAddressService
}

type WaitPolicy int

const (
	// PolicySkip defers a user to the next run when the quota is used up.
	PolicySkip WaitPolicy = iota
	// PolicyWait sleeps until the quota allows the user's requests.
	PolicyWait
)

type Options struct {
	Policy                 WaitPolicy
	CreateMissingCompanies bool
	RequireEmailAndCompany bool
	IncludeStudents        bool
	MaxRunDuration         time.Duration
}

type Synchronizer struct {
	directory Directory
	services  Services
	governor  Governor
	phones    PhoneSource
	options   Options
	metrics   metrics.Counter
	log       logrus.FieldLogger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*Synchronizer)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Synchronizer) {
		s.log = log
	}
}

func WithMetrics(counter metrics.Counter) Option {
	return func(s *Synchronizer) {
		s.metrics = counter
	}
}

func WithPhoneSource(phones PhoneSource) Option {
	return func(s *Synchronizer) {
		s.phones = phones
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		s.now = now
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Synchronizer) {
		s.sleep = sleep
	}
}

type noPhones struct{}

func (noPhones) MobilePhone(context.Context, *entra.User) string { return "" }

func sleepContext(ctx context.Context, d time.Duration) error {
	var timer = time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func NewSynchronizer(directory Directory, services Services, governor Governor, options Options, opts ...Option) *Synchronizer {
	var s = &Synchronizer{
		directory: directory,
		services:  services,
		governor:  governor,
		phones:    noPhones{},
		options:   options,
		metrics:   metrics.Discard{},
		log:       logrus.StandardLogger(),
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunState is what one run knows about Pureservice.
type RunState struct {
	Catalog  *Catalog
	Snapshot *Snapshot
	log      logrus.FieldLogger
}

func NewRunState(users *pureservice.UserList, catalog *Catalog, log logrus.FieldLogger) (state *RunState, err error) {
	var snapshot *Snapshot
	if snapshot, err = NewSnapshot(users); err != nil {
		return
	}
	if catalog == nil {
		catalog = &Catalog{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	state = &RunState{Catalog: catalog, Snapshot: snapshot, log: log}
	return
}

func userLog(log logrus.FieldLogger, source *entra.User) logrus.FieldLogger {
	return log.WithFields(logrus.Fields{
		"sourceId":          source.Id,
		"userPrincipalName": source.UserPrincipalName,
	})
}

// admit asks the governor for room for expected requests. Under PolicyWait it
// sleeps once for the advised duration.
func (s *Synchronizer) admit(ctx context.Context, expected int, log logrus.FieldLogger) bool {
	var decision = s.governor.NeedsToWait(expected)
	if !decision.MustWait {
		return true
	}
	var quotaLog = log.WithField("requestsInWindow", decision.RequestsInWindow)
	if s.options.Policy == PolicyWait && decision.Wait != nil {
		quotaLog.WithField("wait", decision.Wait.String()).Info("Waiting for Pureservice request quota")
		if err := s.sleep(ctx, *decision.Wait); err != nil {
			return false
		}
		if !s.governor.NeedsToWait(expected).MustWait {
			return true
		}
	}
	quotaLog.Warn("Pureservice request quota used up, user is deferred to the next run")
	return false
}

// SyncUser finds the Pureservice user of source and creates or updates it.
func (s *Synchronizer) SyncUser(ctx context.Context, state *RunState, source *entra.User) UserOutcome {
	var log = userLog(state.log, source)
	if s.options.RequireEmailAndCompany && source.AccountEnabled {
		if len(source.Mail) == 0 {
			log.Warn("User has no email address in Entra ID")
			return UserOutcome{Outcome: OutcomeSkippedMissingEmail}
		}
		if len(source.CompanyName) == 0 {
			log.Warn("User has no company name in Entra ID")
			return UserOutcome{Outcome: OutcomeSkippedMissingCompanyName}
		}
	}

	var target = state.Snapshot.UserByImportKey(source.Id)
	if target == nil {
		return s.CreateUser(ctx, state, source)
	}
	return s.UpdateUser(ctx, state, source, target)
}

func (s *Synchronizer) manager(state *RunState, source *entra.User) *pureservice.User {
	return state.Snapshot.UserByImportKey(source.ManagerId)
}
