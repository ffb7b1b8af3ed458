package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/vestfoldfylke/pureservice-sync/entra"
	"github.com/vestfoldfylke/pureservice-sync/pureservice"
	"github.com/vestfoldfylke/pureservice-sync/ratelimit"
)

type fakeCall struct {
	Name string
	Args []any
}

// fakeServices implements every Pureservice service and records the write calls.
type fakeServices struct {
	calls  []fakeCall
	fail   Set[string]
	nextId int

	users       *pureservice.UserList
	companies   []pureservice.Company
	departments []pureservice.CompanyDepartment
	locations   []pureservice.CompanyLocation
}

func newFakeServices() *fakeServices {
	return &fakeServices{fail: NewSet[string](), nextId: 1000}
}

func (f *fakeServices) services() Services {
	return Services{
		Users:             f,
		Companies:         f,
		EmailAddresses:    f,
		PhoneNumbers:      f,
		PhysicalAddresses: f,
	}
}

func (f *fakeServices) record(name string, args ...any) error {
	f.calls = append(f.calls, fakeCall{Name: name, Args: args})
	if f.fail.Has(name) {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeServices) id() int {
	f.nextId++
	return f.nextId
}

func (f *fakeServices) names() (names []string) {
	for _, c := range f.calls {
		names = append(names, c.Name)
	}
	return
}

func (f *fakeServices) find(name string) *fakeCall {
	for i := range f.calls {
		if f.calls[i].Name == name {
			return &f.calls[i]
		}
	}
	return nil
}

func (f *fakeServices) GetUsers(context.Context) (*pureservice.UserList, error) {
	if f.fail.Has("GetUsers") {
		return nil, errors.New("GetUsers failed")
	}
	return f.users, nil
}

func (f *fakeServices) CreateNewUser(_ context.Context, user pureservice.NewUser) (*pureservice.User, error) {
	if err := f.record("CreateNewUser", user); err != nil {
		return nil, err
	}
	return &pureservice.User{
		Id:              f.id(),
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		ImportUniqueKey: pureservice.Ptr(user.ImportUniqueKey),
	}, nil
}

func (f *fakeServices) UpdateBasicProperties(_ context.Context, userId int, updates []pureservice.PropertyUpdate) error {
	return f.record("UpdateBasicProperties", userId, updates)
}

func (f *fakeServices) UpdateCompanyProperties(_ context.Context, userId int, updates []pureservice.CompanyUpdateItem) error {
	return f.record("UpdateCompanyProperties", userId, updates)
}

func (f *fakeServices) UpdateDepartmentAndLocation(_ context.Context, userId int, departmentId *int, locationId *int) error {
	return f.record("UpdateDepartmentAndLocation", userId, departmentId, locationId)
}

func (f *fakeServices) UpdateUsername(_ context.Context, userId int, credentialId int, username string) error {
	return f.record("UpdateUsername", userId, credentialId, username)
}

func (f *fakeServices) RegisterPhoneNumberAsDefault(_ context.Context, userId int, phoneNumberId *int) error {
	return f.record("RegisterPhoneNumberAsDefault", userId, phoneNumberId)
}

func (f *fakeServices) GetCompanies(context.Context) ([]pureservice.Company, error) {
	if f.fail.Has("GetCompanies") {
		return nil, errors.New("GetCompanies failed")
	}
	return f.companies, nil
}

func (f *fakeServices) GetDepartments(context.Context) ([]pureservice.CompanyDepartment, error) {
	return f.departments, nil
}

func (f *fakeServices) GetLocations(context.Context) ([]pureservice.CompanyLocation, error) {
	return f.locations, nil
}

func (f *fakeServices) AddCompany(_ context.Context, name string) (*pureservice.Company, error) {
	if err := f.record("AddCompany", name); err != nil {
		return nil, err
	}
	return &pureservice.Company{Id: f.id(), Name: name}, nil
}

func (f *fakeServices) AddDepartment(_ context.Context, name string, companyId int) (*pureservice.CompanyDepartment, error) {
	if err := f.record("AddDepartment", name, companyId); err != nil {
		return nil, err
	}
	return &pureservice.CompanyDepartment{Id: f.id(), Name: name, CompanyId: pureservice.Ptr(companyId)}, nil
}

func (f *fakeServices) AddLocation(_ context.Context, name string, companyId int) (*pureservice.CompanyLocation, error) {
	if err := f.record("AddLocation", name, companyId); err != nil {
		return nil, err
	}
	return &pureservice.CompanyLocation{Id: f.id(), Name: name, CompanyId: pureservice.Ptr(companyId)}, nil
}

func (f *fakeServices) AddNewEmailAddress(_ context.Context, email string) (*pureservice.EmailAddress, error) {
	if err := f.record("AddNewEmailAddress", email); err != nil {
		return nil, err
	}
	return &pureservice.EmailAddress{Id: f.id(), Email: email}, nil
}

func (f *fakeServices) UpdateEmailAddress(_ context.Context, emailAddressId int, email string, userId int) error {
	return f.record("UpdateEmailAddress", emailAddressId, email, userId)
}

func (f *fakeServices) AddNewPhoneNumber(_ context.Context, number string, numberType pureservice.PhoneNumberType) (*pureservice.PhoneNumber, error) {
	if err := f.record("AddNewPhoneNumber", number, numberType); err != nil {
		return nil, err
	}
	return &pureservice.PhoneNumber{Id: f.id(), Number: pureservice.Ptr(number), Type: numberType}, nil
}

func (f *fakeServices) AddNewPhoneNumberAndLinkToUser(_ context.Context, number string, numberType pureservice.PhoneNumberType, userId int) (*pureservice.PhoneNumber, error) {
	if err := f.record("AddNewPhoneNumberAndLinkToUser", number, numberType, userId); err != nil {
		return nil, err
	}
	return &pureservice.PhoneNumber{Id: f.id(), Number: pureservice.Ptr(number), Type: numberType, UserId: pureservice.Ptr(userId)}, nil
}

func (f *fakeServices) UpdatePhoneNumber(_ context.Context, phoneNumberId int, number string, numberType pureservice.PhoneNumberType, userId int) error {
	return f.record("UpdatePhoneNumber", phoneNumberId, number, numberType, userId)
}

func (f *fakeServices) AddNewPhysicalAddress(_ context.Context, streetAddress, city, postalCode, country *string) (*pureservice.PhysicalAddress, error) {
	if err := f.record("AddNewPhysicalAddress", country); err != nil {
		return nil, err
	}
	return &pureservice.PhysicalAddress{Id: f.id(), Country: country}, nil
}

type fakeDirectory struct {
	employees []*entra.User
	students  []*entra.User
	err       error
}

func (d *fakeDirectory) Employees(context.Context) ([]*entra.User, error) {
	return d.employees, d.err
}

func (d *fakeDirectory) Students(context.Context) ([]*entra.User, error) {
	return d.students, d.err
}

// fakeGovernor answers every question with the queued decisions, the last one repeating.
type fakeGovernor struct {
	decisions []ratelimit.Decision
	asked     []int
}

func (g *fakeGovernor) NeedsToWait(expected int) ratelimit.Decision {
	g.asked = append(g.asked, expected)
	if len(g.decisions) == 0 {
		return ratelimit.Decision{}
	}
	var d = g.decisions[0]
	if len(g.decisions) > 1 {
		g.decisions = g.decisions[1:]
	}
	return d
}

type fakePhones map[string]string

func (p fakePhones) MobilePhone(_ context.Context, user *entra.User) string {
	return p[user.Id]
}

func nullLogger() logrus.FieldLogger {
	var log, _ = logtest.NewNullLogger()
	return log
}

func newTestSynchronizer(services *fakeServices, governor Governor, phones PhoneSource, options Options, opts ...Option) *Synchronizer {
	if governor == nil {
		governor = &fakeGovernor{}
	}
	opts = append([]Option{WithLogger(nullLogger()), WithPhoneSource(phones)}, opts...)
	return NewSynchronizer(&fakeDirectory{}, services.services(), governor, options, opts...)
}

func defaultOptions() Options {
	return Options{
		Policy:                 PolicySkip,
		CreateMissingCompanies: true,
		RequireEmailAndCompany: true,
		MaxRunDuration:         20 * time.Minute,
	}
}
