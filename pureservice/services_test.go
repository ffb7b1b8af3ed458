package pureservice

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	mu     sync.Mutex
	ok     map[string]int
	failed map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{ok: map[string]int{}, failed: map[string]int{}}
}

func (m *countingMetrics) Count(name string, _ string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.ok[name]++
	} else {
		m.failed[name]++
	}
}

func assertGolden(t *testing.T, name string, body []byte) {
	t.Helper()
	var g = goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, body)
}

func respondWith(status int, body string) func(*http.Request) (int, string) {
	return func(*http.Request) (int, string) {
		return status, body
	}
}

func TestUserService_CreateNewUser(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, respondWith(http.StatusCreated, `{"users":[{"id":100,"firstName":"Foo","lastName":"Bar"}]}`))
	var counter = newCountingMetrics()
	var service = NewUserService(caller, WithServiceMetrics(counter))

	var user, err = service.CreateNewUser(context.Background(), NewUser{
		FirstName:       "Foo",
		LastName:        "Bar",
		Title:           "Advisor",
		ImportUniqueKey: "69",
		ManagerId:       Ptr(1337),
		CompanyId:       42,
		AddressId:       7,
		EmailAddressId:  9,
		PhoneNumberId:   Ptr(8),
	})

	require.NoError(t, err)
	assert.Equal(t, 100, user.Id)
	var rq = fake.Requests()[0]
	assert.Equal(t, "/agent/api/user", rq.Path)
	assertGolden(t, "create_user", rq.Body)
	assert.Equal(t, 1, counter.ok["pureservice_user_created"])
}

func TestUserService_CreateNewUserFailure(t *testing.T) {
	var caller, _, _ = newFakeCaller(t, respondWith(http.StatusInternalServerError, ""))
	var counter = newCountingMetrics()
	var service = NewUserService(caller, WithServiceMetrics(counter))

	var user, err = service.CreateNewUser(context.Background(), NewUser{FirstName: "Foo", CompanyId: 42})

	assert.Error(t, err)
	assert.Nil(t, user)
	assert.Equal(t, 1, counter.failed["pureservice_user_created"])
}

func TestUserService_UpdateBasicPropertiesIsOnePatch(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, nil)
	var service = NewUserService(caller)

	var err = service.UpdateBasicProperties(context.Background(), 42, []PropertyUpdate{
		{Name: "firstName", Value: StringValue("Foo")},
		{Name: "managerId", Value: NullValue()},
		{Name: "disabled", Value: BoolValue(true)},
	})

	require.NoError(t, err)
	require.Len(t, fake.Requests(), 1)
	var rq = fake.Requests()[0]
	assert.Equal(t, http.MethodPatch, rq.Method)
	assert.Equal(t, "/agent/api/user/42", rq.Path)
	assert.JSONEq(t, `{"firstName":"Foo","managerId":null,"disabled":true}`, string(rq.Body))
}

func TestUserService_UpdateCompanyProperties(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, nil)
	var service = NewUserService(caller)

	var err = service.UpdateCompanyProperties(context.Background(), 42, []CompanyUpdateItem{
		{PropertyName: PropertyCompanyDepartmentId},
		{PropertyName: PropertyCompanyLocationId, Id: Ptr(12)},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"companyDepartmentId":null,"companyLocationId":12}`, string(fake.Requests()[0].Body))
}

func TestUserService_UpdateDepartmentAndLocationLeavesOutMissing(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, nil)
	var service = NewUserService(caller)

	require.NoError(t, service.UpdateDepartmentAndLocation(context.Background(), 42, Ptr(11), nil))

	assert.JSONEq(t, `{"companyDepartmentId":11}`, string(fake.Requests()[0].Body))
}

func TestUserService_RegisterPhoneNumberAsDefault(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, nil)
	var service = NewUserService(caller)

	require.NoError(t, service.RegisterPhoneNumberAsDefault(context.Background(), 42, Ptr(8)))
	require.NoError(t, service.RegisterPhoneNumberAsDefault(context.Background(), 42, nil))

	assert.JSONEq(t, `{"phonenumberId":8}`, string(fake.Requests()[0].Body))
	assert.JSONEq(t, `{"phonenumberId":null}`, string(fake.Requests()[1].Body))
}

func TestUserService_UpdateUsernamePatchesCredential(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, nil)
	var service = NewUserService(caller)

	require.NoError(t, service.UpdateUsername(context.Background(), 42, 9, "foo.bar@vestfoldfylke.no"))

	var rq = fake.Requests()[0]
	assert.Equal(t, "/agent/api/credential/9", rq.Path)
	assert.JSONEq(t, `{"username":"foo.bar@vestfoldfylke.no"}`, string(rq.Body))
}

func TestUserService_GetUsersMergesPages(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, func(r *http.Request) (int, string) {
		switch r.URL.Query().Get("start") {
		case "0":
			return http.StatusOK, `{"users":[{"id":1,"importUniqueKey":"a"},{"id":2}],"linked":{"emailaddresses":[{"id":10,"email":"a@b.no"}],"phonenumbers":[{"id":20,"number":"+47"}],"credentials":[{"id":30,"username":"a@b.no"}]}}`
		case "2":
			return http.StatusOK, `{"users":[{"id":3}],"linked":{"emailaddresses":[{"id":11,"email":"c@b.no"}]}}`
		}
		return http.StatusOK, `{"users":[]}`
	})
	var service = NewUserService(caller)

	var list, err = service.GetUsers(context.Background())

	require.NoError(t, err)
	assert.Len(t, list.Users, 3)
	assert.Len(t, list.Linked.EmailAddresses, 2)
	assert.Len(t, list.Linked.PhoneNumbers, 1)
	assert.Len(t, list.Linked.Credentials, 1)
	assert.Equal(t, "a", *list.Users[0].ImportUniqueKey)

	var query = fake.Requests()[0].Query
	assert.True(t, strings.Contains(query, "filter=role+%3E+0+AND+role+%3C+50"), query)
	assert.True(t, strings.Contains(query, "include=emailaddresses%2Cphonenumbers%2Ccredentials"), query)
}

func TestUserService_GetUsersFailure(t *testing.T) {
	var caller, _, _ = newFakeCaller(t, respondWith(http.StatusUnauthorized, ""))
	var service = NewUserService(caller)

	var list, err = service.GetUsers(context.Background())

	assert.Error(t, err)
	assert.Nil(t, list)
}

func TestCompanyService_AddCompany(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, respondWith(http.StatusCreated, `{"companies":[{"id":44,"name":"Boz"}]}`))
	var counter = newCountingMetrics()
	var service = NewCompanyService(caller, WithServiceMetrics(counter))

	var company, err = service.AddCompany(context.Background(), "Boz")

	require.NoError(t, err)
	assert.Equal(t, 44, company.Id)
	assertGolden(t, "add_company", fake.Requests()[0].Body)
	assert.Equal(t, 1, counter.ok["pureservice_company_created"])
}

func TestCompanyService_AddCompanyEmptyResponse(t *testing.T) {
	var caller, _, _ = newFakeCaller(t, respondWith(http.StatusCreated, `{"companies":[]}`))
	var counter = newCountingMetrics()
	var service = NewCompanyService(caller, WithServiceMetrics(counter))

	var company, err = service.AddCompany(context.Background(), "Boz")

	assert.Error(t, err)
	assert.Nil(t, company)
	assert.Equal(t, 1, counter.failed["pureservice_company_created"])
}

func TestCompanyService_AddDepartmentLinksCompany(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, respondWith(http.StatusCreated, `{"companydepartments":[{"id":100,"name":"IT"}]}`))
	var service = NewCompanyService(caller)

	var department, err = service.AddDepartment(context.Background(), "IT", 43)

	require.NoError(t, err)
	assert.Equal(t, 100, department.Id)
	require.NotNil(t, department.CompanyId)
	assert.Equal(t, 43, *department.CompanyId)
	assertGolden(t, "add_department", fake.Requests()[0].Body)
}

func TestCompanyService_AddLocation(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, respondWith(http.StatusCreated, `{"companylocations":[{"id":200,"name":"Tønsberg","companyId":43}]}`))
	var service = NewCompanyService(caller)

	var location, err = service.AddLocation(context.Background(), "Tonsberg", 43)

	require.NoError(t, err)
	assert.Equal(t, 200, location.Id)
	assert.Equal(t, "/agent/api/companylocation", fake.Requests()[0].Path)
	assert.JSONEq(t, `{"companylocations":[{"name":"Tonsberg","links":{"company":{"id":43,"type":"company"}}}]}`, string(fake.Requests()[0].Body))
}

func TestCompanyService_GetCompaniesIncludesLinks(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, func(r *http.Request) (int, string) {
		if r.URL.Query().Get("start") == "0" {
			return http.StatusOK, `{"companies":[{"id":43,"name":"Baz","links":{"departments":{"ids":[100,44]},"locations":{"ids":[7]}}}]}`
		}
		return http.StatusOK, `{"companies":[]}`
	})
	var service = NewCompanyService(caller)

	var companies, err = service.GetCompanies(context.Background())

	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, []int{100, 44}, companies[0].DepartmentIds())
	assert.Equal(t, []int{7}, companies[0].LocationIds())
	assert.Contains(t, fake.Requests()[0].Query, "include=departments%2Clocations")
}

func TestEmailAddressService(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, func(r *http.Request) (int, string) {
		if r.Method == http.MethodPost {
			return http.StatusCreated, `{"emailaddresses":[{"id":5,"email":"foo@bar.no"}]}`
		}
		return http.StatusOK, ""
	})
	var service = NewEmailAddressService(caller)

	var email, err = service.AddNewEmailAddress(context.Background(), "foo@bar.no")
	require.NoError(t, err)
	assert.Equal(t, 5, email.Id)
	assert.JSONEq(t, `{"emailaddresses":[{"email":"foo@bar.no"}]}`, string(fake.Requests()[0].Body))

	require.NoError(t, service.UpdateEmailAddress(context.Background(), 5, "foo@bar.no", 42))
	var rq = fake.Requests()[1]
	assert.Equal(t, http.MethodPut, rq.Method)
	assert.Equal(t, "/agent/api/emailaddress/5", rq.Path)
	assertGolden(t, "update_email_address", rq.Body)
}

func TestPhoneNumberService(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, func(r *http.Request) (int, string) {
		if r.Method == http.MethodPost {
			return http.StatusCreated, `{"phonenumbers":[{"id":8,"number":"+4781549300","type":2}]}`
		}
		return http.StatusOK, ""
	})
	var counter = newCountingMetrics()
	var service = NewPhoneNumberService(caller, WithServiceMetrics(counter))

	var phone, err = service.AddNewPhoneNumber(context.Background(), "+4781549300", PhoneNumberMobile)
	require.NoError(t, err)
	assert.Equal(t, 8, phone.Id)
	assert.JSONEq(t, `{"phonenumbers":[{"number":"+4781549300","type":2}]}`, string(fake.Requests()[0].Body))

	_, err = service.AddNewPhoneNumberAndLinkToUser(context.Background(), "+4781549300", PhoneNumberMobile, 42)
	require.NoError(t, err)
	assertGolden(t, "add_phone_number_with_user", fake.Requests()[1].Body)

	require.NoError(t, service.UpdatePhoneNumber(context.Background(), 8, "+4781549300", PhoneNumberMobile, 42))
	assert.Equal(t, "/agent/api/phonenumber/8", fake.Requests()[2].Path)
	assertGolden(t, "update_phone_number", fake.Requests()[2].Body)

	assert.Equal(t, 2, counter.ok["pureservice_phonenumber_created"])
	assert.Equal(t, 1, counter.ok["pureservice_phonenumber_updated"])
}

func TestPhysicalAddressService(t *testing.T) {
	var caller, fake, _ = newFakeCaller(t, respondWith(http.StatusCreated, `{"physicaladdresses":[{"id":7,"country":"Norway"}]}`))
	var service = NewPhysicalAddressService(caller)

	var address, err = service.AddNewPhysicalAddress(context.Background(), nil, nil, nil, Ptr(DefaultCountry))

	require.NoError(t, err)
	assert.Equal(t, 7, address.Id)
	assertGolden(t, "add_physical_address", fake.Requests()[0].Body)
}

func TestPropertyValue(t *testing.T) {
	assert.Equal(t, KindNull, NullValue().Kind())
	assert.Nil(t, NullValue().Value())
	assert.Equal(t, "Foo", StringValue("Foo").Value())
	assert.Equal(t, 44, IntValue(44).Value())
	assert.Equal(t, true, BoolValue(true).Value())
	assert.Equal(t, KindInt, IntOrNull(Ptr(1)).Kind())
	assert.Equal(t, KindNull, IntOrNull(nil).Kind())
	assert.Equal(t, "null", NullValue().String())
}
