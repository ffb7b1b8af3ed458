package reconcile

import (
	"github.com/vestfoldfylke/pureservice-sync/entra"
	"github.com/vestfoldfylke/pureservice-sync/pureservice"
)

// NeedsBasicUpdate lists the basic properties of target that differ from source,
// in the order firstName, lastName, title, managerId, disabled.
// manager is the Pureservice user of the source's manager, if any.
func NeedsBasicUpdate(target *pureservice.User, source *entra.User, manager *pureservice.User) (updates []pureservice.PropertyUpdate) {
	if target.FirstName != source.GivenName {
		updates = append(updates, pureservice.PropertyUpdate{Name: "firstName", Value: pureservice.StringValue(source.GivenName)})
	}
	if target.LastName != source.Surname {
		updates = append(updates, pureservice.PropertyUpdate{Name: "lastName", Value: pureservice.StringValue(source.Surname)})
	}
	if target.Title != source.JobTitle {
		updates = append(updates, pureservice.PropertyUpdate{Name: "title", Value: pureservice.StringValue(source.JobTitle)})
	}

	var managerId *int
	if manager != nil {
		managerId = &manager.Id
	}
	if !intEqual(target.ManagerId, managerId) {
		updates = append(updates, pureservice.PropertyUpdate{Name: "managerId", Value: pureservice.IntOrNull(managerId)})
	}

	if target.Disabled != !source.AccountEnabled {
		updates = append(updates, pureservice.PropertyUpdate{Name: "disabled", Value: pureservice.BoolValue(!source.AccountEnabled)})
	}
	return
}

// NeedsUsernameUpdate reports whether the credential username differs from
// the user principal name, and returns the name to use.
func NeedsUsernameUpdate(credential *pureservice.Credential, source *entra.User) (bool, string) {
	if credential == nil || len(source.UserPrincipalName) == 0 {
		return false, ""
	}
	if credential.Username == source.UserPrincipalName {
		return false, credential.Username
	}
	return true, source.UserPrincipalName
}

// NeedsEmailUpdate reports whether the stored email address differs from the source mail.
func NeedsEmailUpdate(email *pureservice.EmailAddress, source *entra.User) bool {
	if email == nil || len(source.Mail) == 0 {
		return false
	}
	return email.Email != source.Mail
}

// NeedsPhoneNumberUpdate compares the raw number of the current phone number
// with the source number. NormalizedNumber is not taken into account, so two
// spellings of the same number are reported as a change.
// An empty source means the source has no number.
func NeedsPhoneNumberUpdate(current *pureservice.PhoneNumber, source string) (update bool, number string) {
	var currentNumber string
	if current != nil && current.Number != nil {
		currentNumber = *current.Number
	}
	switch {
	case len(currentNumber) == 0 && len(source) == 0:
		return false, ""
	case len(currentNumber) == 0:
		return true, source
	case len(source) == 0:
		return true, ""
	}
	return currentNumber != source, source
}
