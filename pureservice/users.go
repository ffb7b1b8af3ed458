package pureservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	userPath       = "user"
	credentialPath = "credential"
)

var userIncludes = []string{"emailaddresses", "phonenumbers", "credentials"}

type UserService struct {
	service
}

func NewUserService(caller Requester, opts ...ServiceOption) *UserService {
	return &UserService{service: newService(caller, opts)}
}

// NewUser describes a user to create together with the ids of the
// entities created for it beforehand.
type NewUser struct {
	FirstName       string
	LastName        string
	Title           string
	ImportUniqueKey string
	ManagerId       *int
	CompanyId       int
	AddressId       int
	EmailAddressId  int
	PhoneNumberId   *int
}

type newUserItem struct {
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Title           string   `json:"title"`
	Role            UserRole `json:"role"`
	Disabled        bool     `json:"disabled"`
	ImportUniqueKey string   `json:"importUniqueKey"`
	Links           Links    `json:"links"`
}

type newUserPayload struct {
	Users []newUserItem `json:"users"`
}

func newUserRequest(user NewUser) newUserPayload {
	var item = newUserItem{
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Title:           user.Title,
		Role:            RoleEnduser,
		ImportUniqueKey: user.ImportUniqueKey,
		Links: Links{
			Company:      &Link{Id: user.CompanyId},
			Address:      &Link{Id: user.AddressId},
			EmailAddress: &Link{Id: user.EmailAddressId},
		},
	}
	if user.ManagerId != nil {
		item.Links.Manager = &Link{Id: *user.ManagerId}
	}
	if user.PhoneNumberId != nil {
		item.Links.PhoneNumber = &Link{Id: *user.PhoneNumberId}
	}
	return newUserPayload{Users: []newUserItem{item}}
}

// GetUsers fetches every end user, agent and administrator with their
// email addresses, phone numbers and credentials.
func (s *UserService) GetUsers(ctx context.Context) (result *UserList, err error) {
	var query = url.Values{}
	query.Set("filter", fmt.Sprintf("role > %d AND role < %d", RoleNone, RoleSystem))
	query.Set("include", strings.Join(userIncludes, ","))

	result = &UserList{Linked: &Linked{}}
	err = s.caller.GetPaged(ctx, userPath, query, func(body []byte) (count int, err error) {
		var page UserList
		if err = json.Unmarshal(body, &page); err != nil {
			return
		}
		result.Users = append(result.Users, page.Users...)
		if page.Linked != nil {
			result.Linked.EmailAddresses = append(result.Linked.EmailAddresses, page.Linked.EmailAddresses...)
			result.Linked.PhoneNumbers = append(result.Linked.PhoneNumbers, page.Linked.PhoneNumbers...)
			result.Linked.Credentials = append(result.Linked.Credentials, page.Linked.Credentials...)
		}
		count = len(page.Users)
		return
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to fetch Pureservice users")
		result = nil
		return
	}
	s.log.WithFields(logrus.Fields{
		"users":        len(result.Users),
		"phoneNumbers": len(result.Linked.PhoneNumbers),
	}).Info("Fetched Pureservice users")
	return
}

func (s *UserService) CreateNewUser(ctx context.Context, user NewUser) (result *User, err error) {
	var response struct {
		Users []User `json:"users"`
	}
	err = s.caller.Post(ctx, userPath, newUserRequest(user), &response)
	if err == nil {
		result, err = first(response.Users, "users")
	}
	s.count("pureservice_user_created", "Number of users created", err)
	if err != nil {
		s.log.WithError(err).WithField("importUniqueKey", user.ImportUniqueKey).Error("Failed to create user")
		return
	}
	s.log.WithFields(logrus.Fields{"userId": result.Id, "importUniqueKey": user.ImportUniqueKey}).Info("Created user")
	return
}

func (s *UserService) patchUser(ctx context.Context, userId int, payload map[string]any, what string) (err error) {
	err = s.caller.Patch(ctx, fmt.Sprintf("%s/%d", userPath, userId), payload)
	s.count("pureservice_user_updated", "Number of user updates", err)
	if err != nil {
		s.log.WithError(err).WithField("userId", userId).Errorf("Failed to update %s", what)
		return
	}
	s.log.WithField("userId", userId).Infof("Updated %s", what)
	return
}

// UpdateBasicProperties sends every update in a single PATCH.
func (s *UserService) UpdateBasicProperties(ctx context.Context, userId int, updates []PropertyUpdate) error {
	var payload = make(map[string]any, len(updates))
	for _, u := range updates {
		payload[u.Name] = u.Value.Value()
	}
	return s.patchUser(ctx, userId, payload, "basic properties")
}

func (s *UserService) UpdateCompanyProperties(ctx context.Context, userId int, updates []CompanyUpdateItem) error {
	var payload = make(map[string]any, len(updates))
	for _, u := range updates {
		payload[u.PropertyName] = u.Value().Value()
	}
	return s.patchUser(ctx, userId, payload, "company properties")
}

// UpdateDepartmentAndLocation sets department and location of a newly created user.
// A nil id leaves that property out of the request.
func (s *UserService) UpdateDepartmentAndLocation(ctx context.Context, userId int, departmentId *int, locationId *int) error {
	var payload = make(map[string]any, 2)
	if departmentId != nil {
		payload[PropertyCompanyDepartmentId] = *departmentId
	}
	if locationId != nil {
		payload[PropertyCompanyLocationId] = *locationId
	}
	return s.patchUser(ctx, userId, payload, "department and location")
}

// RegisterPhoneNumberAsDefault makes phoneNumberId the default number of the user,
// or removes the default number when it is nil.
func (s *UserService) RegisterPhoneNumberAsDefault(ctx context.Context, userId int, phoneNumberId *int) error {
	var payload = map[string]any{"phonenumberId": IntOrNull(phoneNumberId).Value()}
	return s.patchUser(ctx, userId, payload, "default phone number")
}

func (s *UserService) UpdateUsername(ctx context.Context, userId int, credentialId int, username string) (err error) {
	err = s.caller.Patch(ctx, fmt.Sprintf("%s/%d", credentialPath, credentialId), map[string]any{"username": username})
	s.count("pureservice_username_updated", "Number of usernames updated", err)
	var log = s.log.WithFields(logrus.Fields{"userId": userId, "credentialId": credentialId})
	if err != nil {
		log.WithError(err).Error("Failed to update username")
		return
	}
	log.Info("Updated username")
	return
}
