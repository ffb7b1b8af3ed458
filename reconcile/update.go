package reconcile

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vestfoldfylke/pureservice-sync/entra"
	"github.com/vestfoldfylke/pureservice-sync/pureservice"
)

// plan is every change an existing user needs.
type plan struct {
	basic          []pureservice.PropertyUpdate
	usernameUpdate bool
	username       string
	company        *pureservice.CompanyUpdateItem
	department     *pureservice.CompanyUpdateItem
	location       *pureservice.CompanyUpdateItem
	emailUpdate    bool
	phoneUpdate    bool
	phoneNumber    string
}

func (p *plan) empty() bool {
	return len(p.basic) == 0 && !p.usernameUpdate && p.company == nil && p.department == nil &&
		p.location == nil && !p.emailUpdate && !p.phoneUpdate
}

// planUpdate compares target with source. Department and location are left
// alone while the company changes; they are compared again on the next run.
func (s *Synchronizer) planUpdate(ctx context.Context, state *RunState, source *entra.User, target *pureservice.User, email *pureservice.EmailAddress, credential *pureservice.Credential, phone *pureservice.PhoneNumber) (p plan) {
	var catalog = state.Catalog
	p.basic = NeedsBasicUpdate(target, source, s.manager(state, source))
	p.usernameUpdate, p.username = NeedsUsernameUpdate(credential, source)
	p.company = NeedsCompanyUpdate(target, source, catalog.Companies)
	if p.company == nil {
		p.department = NeedsDepartmentUpdate(target, source, catalog.Companies, catalog.Departments)
		p.location = NeedsLocationUpdate(target, source, catalog.Companies, catalog.Locations)
	}
	p.emailUpdate = NeedsEmailUpdate(email, source)
	p.phoneUpdate, p.phoneNumber = NeedsPhoneNumberUpdate(phone, s.phones.MobilePhone(ctx, source))
	return
}

// UpdateUser brings an existing Pureservice user in line with source. A failing
// patch does not stop the remaining categories, but when a company, department or
// location cannot be created the rest of the user's update is abandoned.
func (s *Synchronizer) UpdateUser(ctx context.Context, state *RunState, source *entra.User, target *pureservice.User) (outcome UserOutcome) {
	var log = userLog(state.log, source).WithField("userId", target.Id)
	if !s.admit(ctx, maxUpdateRequests, log) {
		outcome.Outcome = OutcomeDeferred
		return
	}

	var email = state.Snapshot.EmailAddress(target.LinkedEmailAddressId())
	if email == nil {
		log.Error("User has no email address in Pureservice")
		outcome.Outcome = OutcomeMissingEmailLink
		return
	}
	var credential = state.Snapshot.Credential(target.LinkedCredentialsId())
	if credential == nil {
		log.Warn("User has no credentials in Pureservice")
		outcome.MissingCredentials = true
	}
	var phone = state.Snapshot.PhoneNumber(target.LinkedPhoneNumberId())

	var p = s.planUpdate(ctx, state, source, target, email, credential, phone)
	if p.empty() {
		log.Debug("User is up to date")
		outcome.Outcome = OutcomeUpToDate
		return
	}

	var ok = true
	if len(p.basic) > 0 {
		outcome.Applied.BasicProperties = s.services.Users.UpdateBasicProperties(ctx, target.Id, p.basic) == nil
		ok = ok && outcome.Applied.BasicProperties
	}
	if p.usernameUpdate {
		outcome.Applied.Username = s.services.Users.UpdateUsername(ctx, target.Id, credential.Id, p.username) == nil
		ok = ok && outcome.Applied.Username
	}
	if p.company != nil || p.department != nil || p.location != nil {
		var items, created = s.companyItems(ctx, state, target, p, log)
		if !created {
			outcome.Outcome = OutcomeError
			log.Warn("User update abandoned in Pureservice")
			return
		}
		if len(items) > 0 {
			outcome.Applied.CompanyProperties = s.services.Users.UpdateCompanyProperties(ctx, target.Id, items) == nil
		}
		ok = ok && outcome.Applied.CompanyProperties
	}
	if p.emailUpdate {
		outcome.Applied.EmailAddress = s.services.EmailAddresses.UpdateEmailAddress(ctx, email.Id, source.Mail, target.Id) == nil
		ok = ok && outcome.Applied.EmailAddress
	}
	if p.phoneUpdate {
		outcome.Applied.PhoneNumber = s.applyPhoneNumber(ctx, state, target, phone, p.phoneNumber, log)
		ok = ok && outcome.Applied.PhoneNumber
	}

	if ok {
		outcome.Outcome = OutcomeUpdated
		log.Info("Updated user in Pureservice")
	} else {
		outcome.Outcome = OutcomeError
		log.Warn("User was only partly updated in Pureservice")
	}
	return
}

// companyItems creates missing companies, departments and locations and returns the
// properties to send. created is false when an entity could not be created; nothing
// after the failed creation is attempted.
func (s *Synchronizer) companyItems(ctx context.Context, state *RunState, target *pureservice.User, p plan, log logrus.FieldLogger) (items []pureservice.CompanyUpdateItem, created bool) {
	var catalog = state.Catalog
	created = true

	if p.company != nil {
		var item = *p.company
		if item.NeedsCreate() {
			var company, err = s.services.Companies.AddCompany(ctx, item.NameToCreate)
			if err != nil {
				log.Warn("Could not create company in Pureservice")
				created = false
				return
			}
			item.Id = pureservice.Ptr(catalog.AddCompany(*company).Id)
			item.NameToCreate = ""
		}
		items = append(items, item)
		return
	}

	if target.CompanyId == nil {
		return
	}
	var companyId = *target.CompanyId
	if p.department != nil {
		var item = *p.department
		if item.NeedsCreate() {
			var department, err = s.services.Companies.AddDepartment(ctx, item.NameToCreate, companyId)
			if err != nil {
				log.Warn("Could not create department in Pureservice")
				created = false
				return
			}
			catalog.AddDepartment(*department, companyId)
			item.Id = pureservice.Ptr(department.Id)
			item.NameToCreate = ""
		}
		items = append(items, item)
	}
	if p.location != nil {
		var item = *p.location
		if item.NeedsCreate() {
			var location, err = s.services.Companies.AddLocation(ctx, item.NameToCreate, companyId)
			if err != nil {
				log.Warn("Could not create location in Pureservice")
				created = false
				items = nil
				return
			}
			catalog.AddLocation(*location, companyId)
			item.Id = pureservice.Ptr(location.Id)
			item.NameToCreate = ""
		}
		items = append(items, item)
	}
	return
}

// applyPhoneNumber gives the user number as default phone number. Without a current
// phone number an unlinked one with the same number is reused before a new one is created.
func (s *Synchronizer) applyPhoneNumber(ctx context.Context, state *RunState, target *pureservice.User, current *pureservice.PhoneNumber, number string, log logrus.FieldLogger) bool {
	var users = s.services.Users
	var phones = s.services.PhoneNumbers

	if current != nil {
		if len(number) == 0 {
			log.Info("Removing default phone number")
			return users.RegisterPhoneNumberAsDefault(ctx, target.Id, nil) == nil
		}
		return phones.UpdatePhoneNumber(ctx, current.Id, number, pureservice.PhoneNumberMobile, target.Id) == nil
	}

	var phone = state.Snapshot.UnlinkedPhoneNumber(number)
	if phone != nil {
		log.WithField("phoneNumberId", phone.Id).Info("Linking existing phone number")
		if err := phones.UpdatePhoneNumber(ctx, phone.Id, number, pureservice.PhoneNumberMobile, target.Id); err != nil {
			return false
		}
	} else {
		var err error
		if phone, err = phones.AddNewPhoneNumberAndLinkToUser(ctx, number, pureservice.PhoneNumberMobile, target.Id); err != nil {
			return false
		}
	}
	if err := state.Snapshot.LinkPhoneNumber(phone, target.Id); err != nil {
		log.WithError(err).Warn("Could not add phone number to snapshot")
	}
	return users.RegisterPhoneNumberAsDefault(ctx, target.Id, pureservice.Ptr(phone.Id)) == nil
}
