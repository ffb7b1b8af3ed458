package reconcile

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vestfoldfylke/pureservice-sync/entra"
	"github.com/vestfoldfylke/pureservice-sync/pureservice"
)

// CreateUser creates a Pureservice user for source with its placeholder address,
// phone number and email address. A failing step stops the creation.
func (s *Synchronizer) CreateUser(ctx context.Context, state *RunState, source *entra.User) UserOutcome {
	var log = userLog(state.log, source)
	if !source.AccountEnabled {
		log.Debug("User is disabled in Entra ID and is not created")
		return UserOutcome{Outcome: OutcomeSkippedDisabled}
	}

	var company = ResolveCompany(nil, source, state.Catalog.Companies)
	if company.Resolved == nil {
		if len(company.NameToCreate) == 0 {
			log.Warn("User has no company name in Entra ID and is not created")
			return UserOutcome{Outcome: OutcomeSkippedMissingCompanyName}
		}
		if !s.options.CreateMissingCompanies {
			log.WithField("company", company.NameToCreate).Warn("Company does not exist in Pureservice")
			return UserOutcome{Outcome: OutcomeSkippedCompanyMissing}
		}
	}

	if !s.admit(ctx, maxCreateRequests, log) {
		return UserOutcome{Outcome: OutcomeDeferred}
	}
	var failed = UserOutcome{Outcome: OutcomeError}

	var companyId int
	if company.Resolved != nil {
		companyId = company.Resolved.Id
	} else {
		var created, err = s.services.Companies.AddCompany(ctx, company.NameToCreate)
		if err != nil {
			return failed
		}
		companyId = state.Catalog.AddCompany(*created).Id
	}
	var resolvedCompany = state.Catalog.Company(&companyId)
	var department = ResolveDepartment(nil, source, resolvedCompany, state.Catalog.Departments)
	var location = ResolveLocation(nil, source, resolvedCompany, state.Catalog.Locations)

	var address, err = s.services.PhysicalAddresses.AddNewPhysicalAddress(ctx, nil, nil, nil, pureservice.Ptr(pureservice.DefaultCountry))
	if err != nil {
		return failed
	}

	var phone *pureservice.PhoneNumber
	if mobile := s.phones.MobilePhone(ctx, source); len(mobile) > 0 {
		if phone, err = s.services.PhoneNumbers.AddNewPhoneNumber(ctx, mobile, pureservice.PhoneNumberMobile); err != nil {
			return failed
		}
	}

	// the login name keeps single sign-on working when mail differs from it
	var email *pureservice.EmailAddress
	if email, err = s.services.EmailAddresses.AddNewEmailAddress(ctx, source.UserPrincipalName); err != nil {
		return failed
	}

	var newUser = pureservice.NewUser{
		FirstName:       source.GivenName,
		LastName:        source.Surname,
		Title:           source.JobTitle,
		ImportUniqueKey: source.Id,
		CompanyId:       companyId,
		AddressId:       address.Id,
		EmailAddressId:  email.Id,
	}
	if manager := s.manager(state, source); manager != nil {
		newUser.ManagerId = pureservice.Ptr(manager.Id)
	}
	if phone != nil {
		newUser.PhoneNumberId = pureservice.Ptr(phone.Id)
	}

	var user *pureservice.User
	if user, err = s.services.Users.CreateNewUser(ctx, newUser); err != nil {
		return failed
	}
	s.remember(state, user, newUser, phone, log)

	var departmentId, locationId *int
	if department.Resolved != nil {
		departmentId = pureservice.Ptr(department.Resolved.Id)
	}
	if location.Resolved != nil {
		locationId = pureservice.Ptr(location.Resolved.Id)
	}
	if departmentId != nil || locationId != nil {
		// the next run retries department and location if this fails
		if err = s.services.Users.UpdateDepartmentAndLocation(ctx, user.Id, departmentId, locationId); err != nil {
			log.WithError(err).WithField("userId", user.Id).Warn("Created user without department and location")
		}
	}

	log.WithField("userId", user.Id).Info("Created user in Pureservice")
	return UserOutcome{Outcome: OutcomeCreated}
}

// remember adds a created user to the snapshot so later users can have it as manager.
func (s *Synchronizer) remember(state *RunState, user *pureservice.User, newUser pureservice.NewUser, phone *pureservice.PhoneNumber, log logrus.FieldLogger) {
	var stored = *user
	if stored.ImportUniqueKey == nil {
		stored.ImportUniqueKey = pureservice.Ptr(newUser.ImportUniqueKey)
	}
	if stored.CompanyId == nil {
		stored.CompanyId = pureservice.Ptr(newUser.CompanyId)
	}
	if err := state.Snapshot.AddUser(&stored); err != nil {
		log.WithError(err).Warn("Could not add created user to snapshot")
	}
	if phone != nil {
		if err := state.Snapshot.LinkPhoneNumber(phone, stored.Id); err != nil {
			log.WithError(err).Warn("Could not add created phone number to snapshot")
		}
	}
}
