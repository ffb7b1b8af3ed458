package pureservice

type UserRole int

const (
	RoleNone                    UserRole = 0
	RolePendingActivate         UserRole = 1
	RoleLocationPendingActivate UserRole = 2
	RoleEnduser                 UserRole = 10
	RoleAgent                   UserRole = 20
	RoleZoneAdmin               UserRole = 25
	RoleAdministrator           UserRole = 30
	RoleSystem                  UserRole = 50
)

type PhoneNumberType int

const (
	PhoneNumberWork   PhoneNumberType = 0
	PhoneNumberHome   PhoneNumberType = 1
	PhoneNumberMobile PhoneNumberType = 2
	PhoneNumberOther  PhoneNumberType = 3
)

type Link struct {
	Id   int    `json:"id"`
	Type string `json:"type,omitempty"`
}

type LinkIds struct {
	Ids  []int  `json:"ids"`
	Type string `json:"type,omitempty"`
}

type Links struct {
	Company           *Link    `json:"company,omitempty"`
	CompanyDepartment *Link    `json:"companyDepartment,omitempty"`
	CompanyLocation   *Link    `json:"companyLocation,omitempty"`
	Manager           *Link    `json:"manager,omitempty"`
	Address           *Link    `json:"address,omitempty"`
	EmailAddress      *Link    `json:"emailAddress,omitempty"`
	PhoneNumber       *Link    `json:"phonenumber,omitempty"`
	Credentials       *Link    `json:"credentials,omitempty"`
	User              *Link    `json:"user,omitempty"`
	EmailAddresses    *LinkIds `json:"emailaddresses,omitempty"`
	PhoneNumbers      *LinkIds `json:"phonenumbers,omitempty"`
	Departments       *LinkIds `json:"departments,omitempty"`
	Locations         *LinkIds `json:"locations,omitempty"`
}

// User is a Pureservice user. ImportUniqueKey holds the Entra object id
// the user was created from; users without it were created by hand.
type User struct {
	Id                  int      `json:"id"`
	FirstName           string   `json:"firstName"`
	MiddleName          string   `json:"middleName,omitempty"`
	LastName            string   `json:"lastName"`
	FullName            string   `json:"fullName,omitempty"`
	Title               string   `json:"title,omitempty"`
	Disabled            bool     `json:"disabled"`
	Role                UserRole `json:"role"`
	ImportUniqueKey     *string  `json:"importUniqueKey,omitempty"`
	ManagerId           *int     `json:"managerId"`
	CompanyId           *int     `json:"companyId"`
	CompanyDepartmentId *int     `json:"companyDepartmentId"`
	CompanyLocationId   *int     `json:"companyLocationId"`
	AddressId           *int     `json:"addressId,omitempty"`
	EmailAddressId      *int     `json:"emailAddressId,omitempty"`
	PhoneNumberId       *int     `json:"phonenumberId,omitempty"`
	CredentialsId       *int     `json:"credentialsId,omitempty"`
	Links               *Links   `json:"links,omitempty"`
}

type Company struct {
	Id       int    `json:"id"`
	Name     string `json:"name"`
	Disabled bool   `json:"disabled"`
	Links    *Links `json:"links,omitempty"`
}

// DepartmentIds returns the ids of the departments linked to the company.
func (c *Company) DepartmentIds() []int {
	if c.Links == nil || c.Links.Departments == nil {
		return nil
	}
	return c.Links.Departments.Ids
}

func (c *Company) LocationIds() []int {
	if c.Links == nil || c.Links.Locations == nil {
		return nil
	}
	return c.Links.Locations.Ids
}

type CompanyDepartment struct {
	Id        int    `json:"id"`
	Name      string `json:"name"`
	CompanyId *int   `json:"companyId"`
}

type CompanyLocation struct {
	Id        int    `json:"id"`
	Name      string `json:"name"`
	CompanyId *int   `json:"companyId"`
}

type EmailAddress struct {
	Id     int    `json:"id"`
	Email  string `json:"email"`
	UserId *int   `json:"userId"`
}

type PhoneNumber struct {
	Id               int             `json:"id"`
	Number           *string         `json:"number"`
	NormalizedNumber *string         `json:"normalizedNumber,omitempty"`
	Type             PhoneNumberType `json:"type"`
	UserId           *int            `json:"userId"`
}

type Credential struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
}

type PhysicalAddress struct {
	Id            int     `json:"id"`
	StreetAddress *string `json:"streetAddress"`
	City          *string `json:"city"`
	PostalCode    *string `json:"postalCode"`
	Country       *string `json:"country"`
}

type Linked struct {
	EmailAddresses []EmailAddress `json:"emailaddresses"`
	PhoneNumbers   []PhoneNumber  `json:"phonenumbers"`
	Credentials    []Credential   `json:"credentials"`
}

// UserList is one page of the user listing with its included entities.
type UserList struct {
	Users  []User  `json:"users"`
	Linked *Linked `json:"linked,omitempty"`
}

type companyList struct {
	Companies []Company `json:"companies"`
}

type departmentList struct {
	Departments []CompanyDepartment `json:"companydepartments"`
}

type locationList struct {
	Locations []CompanyLocation `json:"companylocations"`
}

type emailAddressList struct {
	EmailAddresses []EmailAddress `json:"emailaddresses"`
}

type phoneNumberList struct {
	PhoneNumbers []PhoneNumber `json:"phonenumbers"`
}

type physicalAddressList struct {
	PhysicalAddresses []PhysicalAddress `json:"physicaladdresses"`
}

func Ptr[T any](v T) *T {
	return &v
}

func linkId(id *int, link *Link) *int {
	if id != nil {
		return id
	}
	if link != nil {
		return &link.Id
	}
	return nil
}

// LinkedEmailAddressId is the id of the primary email address of the user.
func (u *User) LinkedEmailAddressId() *int {
	if u.Links == nil {
		return u.EmailAddressId
	}
	return linkId(u.EmailAddressId, u.Links.EmailAddress)
}

// LinkedPhoneNumberId is the id of the default phone number of the user.
func (u *User) LinkedPhoneNumberId() *int {
	if u.Links == nil {
		return u.PhoneNumberId
	}
	return linkId(u.PhoneNumberId, u.Links.PhoneNumber)
}

func (u *User) LinkedCredentialsId() *int {
	if u.Links == nil {
		return u.CredentialsId
	}
	return linkId(u.CredentialsId, u.Links.Credentials)
}
