package entra

import "strings"

type Kind int

const (
	Employee Kind = iota
	Student
)

func (k Kind) String() string {
	if k == Student {
		return "student"
	}
	return "employee"
}

// User is an Entra ID user. Empty strings stand for values not set in Entra.
type User struct {
	Id                string
	GivenName         string
	Surname           string
	DisplayName       string
	JobTitle          string
	CompanyName       string
	Department        string
	OfficeLocation    string
	Mail              string
	UserPrincipalName string
	MobilePhone       string
	AccountEnabled    bool
	ManagerId         string
	Kind              Kind

	CustomSecurityAttributes map[string]map[string]any
}

// CustomSecurityAttribute returns the string value of attribute name in
// attribute set, or an empty string.
func (u *User) CustomSecurityAttribute(set string, name string) string {
	if u.CustomSecurityAttributes == nil {
		return ""
	}
	var values, ok = u.CustomSecurityAttributes[set]
	if !ok {
		return ""
	}
	var s string
	if s, ok = values[name].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// LocalPart is the user principal name up to the @.
func (u *User) LocalPart() string {
	var upn = u.UserPrincipalName
	if i := strings.IndexByte(upn, '@'); i >= 0 {
		return upn[:i]
	}
	return upn
}
