package pureservice

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	emailAddressPath    = "emailaddress"
	phoneNumberPath     = "phonenumber"
	physicalAddressPath = "physicaladdress"

	// DefaultCountry is set on the placeholder address of every created user.
	DefaultCountry = "Norway"
)

type EmailAddressService struct {
	service
}

func NewEmailAddressService(caller Requester, opts ...ServiceOption) *EmailAddressService {
	return &EmailAddressService{service: newService(caller, opts)}
}

type emailAddressItem struct {
	Id    int    `json:"id,omitempty"`
	Email string `json:"email"`
	Links *Links `json:"links,omitempty"`
}

func (s *EmailAddressService) AddNewEmailAddress(ctx context.Context, email string) (result *EmailAddress, err error) {
	var payload = struct {
		EmailAddresses []emailAddressItem `json:"emailaddresses"`
	}{EmailAddresses: []emailAddressItem{{Email: email}}}

	var response emailAddressList
	if err = s.caller.Post(ctx, emailAddressPath, payload, &response); err == nil {
		result, err = first(response.EmailAddresses, "emailaddresses")
	}
	s.count("pureservice_emailaddress_created", "Number of email addresses created", err)
	if err != nil {
		s.log.WithError(err).Error("Failed to create email address")
		return
	}
	s.log.WithField("emailAddressId", result.Id).Info("Created email address")
	return
}

func (s *EmailAddressService) UpdateEmailAddress(ctx context.Context, emailAddressId int, email string, userId int) (err error) {
	var payload = struct {
		EmailAddresses []emailAddressItem `json:"emailaddresses"`
	}{EmailAddresses: []emailAddressItem{{
		Id:    emailAddressId,
		Email: email,
		Links: &Links{User: &Link{Id: userId}},
	}}}

	err = s.caller.Put(ctx, fmt.Sprintf("%s/%d", emailAddressPath, emailAddressId), payload, nil)
	s.count("pureservice_emailaddress_updated", "Number of email addresses updated", err)
	var log = s.log.WithFields(logrus.Fields{"emailAddressId": emailAddressId, "userId": userId})
	if err != nil {
		log.WithError(err).Error("Failed to update email address")
		return
	}
	log.Info("Updated email address")
	return
}

type PhoneNumberService struct {
	service
}

func NewPhoneNumberService(caller Requester, opts ...ServiceOption) *PhoneNumberService {
	return &PhoneNumberService{service: newService(caller, opts)}
}

type phoneNumberItem struct {
	Id     int             `json:"id,omitempty"`
	Number string          `json:"number"`
	Type   PhoneNumberType `json:"type"`
	UserId int             `json:"userId,omitempty"`
	Links  *Links          `json:"links,omitempty"`
}

func (s *PhoneNumberService) addPhoneNumber(ctx context.Context, item phoneNumberItem) (result *PhoneNumber, err error) {
	var payload = struct {
		PhoneNumbers []phoneNumberItem `json:"phonenumbers"`
	}{PhoneNumbers: []phoneNumberItem{item}}

	var response phoneNumberList
	if err = s.caller.Post(ctx, phoneNumberPath, payload, &response); err == nil {
		result, err = first(response.PhoneNumbers, "phonenumbers")
	}
	s.count("pureservice_phonenumber_created", "Number of phone numbers created", err)
	if err != nil {
		s.log.WithError(err).WithField("userId", item.UserId).Error("Failed to create phone number")
		return
	}
	s.log.WithFields(logrus.Fields{"phoneNumberId": result.Id, "userId": item.UserId}).Info("Created phone number")
	return
}

func (s *PhoneNumberService) AddNewPhoneNumber(ctx context.Context, number string, numberType PhoneNumberType) (*PhoneNumber, error) {
	return s.addPhoneNumber(ctx, phoneNumberItem{Number: number, Type: numberType})
}

func (s *PhoneNumberService) AddNewPhoneNumberAndLinkToUser(ctx context.Context, number string, numberType PhoneNumberType, userId int) (*PhoneNumber, error) {
	return s.addPhoneNumber(ctx, phoneNumberItem{Number: number, Type: numberType, UserId: userId})
}

// UpdatePhoneNumber replaces the number and links it to userId.
func (s *PhoneNumberService) UpdatePhoneNumber(ctx context.Context, phoneNumberId int, number string, numberType PhoneNumberType, userId int) (err error) {
	var payload = struct {
		PhoneNumbers []phoneNumberItem `json:"phonenumbers"`
	}{PhoneNumbers: []phoneNumberItem{{
		Id:     phoneNumberId,
		Number: number,
		Type:   numberType,
		Links:  &Links{User: &Link{Id: userId}},
	}}}

	err = s.caller.Put(ctx, fmt.Sprintf("%s/%d", phoneNumberPath, phoneNumberId), payload, nil)
	s.count("pureservice_phonenumber_updated", "Number of phone numbers updated", err)
	var log = s.log.WithFields(logrus.Fields{"phoneNumberId": phoneNumberId, "userId": userId})
	if err != nil {
		log.WithError(err).Error("Failed to update phone number")
		return
	}
	log.Info("Updated phone number")
	return
}

type PhysicalAddressService struct {
	service
}

func NewPhysicalAddressService(caller Requester, opts ...ServiceOption) *PhysicalAddressService {
	return &PhysicalAddressService{service: newService(caller, opts)}
}

type physicalAddressItem struct {
	StreetAddress *string `json:"streetAddress"`
	City          *string `json:"city"`
	PostalCode    *string `json:"postalCode"`
	Country       *string `json:"country"`
}

func (s *PhysicalAddressService) AddNewPhysicalAddress(ctx context.Context, streetAddress, city, postalCode, country *string) (result *PhysicalAddress, err error) {
	var payload = struct {
		PhysicalAddresses []physicalAddressItem `json:"physicaladdresses"`
	}{PhysicalAddresses: []physicalAddressItem{{
		StreetAddress: streetAddress,
		City:          city,
		PostalCode:    postalCode,
		Country:       country,
	}}}

	var response physicalAddressList
	if err = s.caller.Post(ctx, physicalAddressPath, payload, &response); err == nil {
		result, err = first(response.PhysicalAddresses, "physicaladdresses")
	}
	s.count("pureservice_physicaladdress_created", "Number of physical addresses created", err)
	if err != nil {
		s.log.WithError(err).Error("Failed to create physical address")
		return
	}
	s.log.WithField("physicalAddressId", result.Id).Info("Created physical address")
	return
}
