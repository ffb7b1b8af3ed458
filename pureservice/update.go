package pureservice

import (
	"encoding/json"
	"fmt"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindBool
)

// PropertyValue holds exactly one of string, int or bool, or nothing
// when the property is to be cleared.
type PropertyValue struct {
	kind ValueKind
	str  string
	num  int
	flag bool
}

func StringValue(s string) PropertyValue {
	return PropertyValue{kind: KindString, str: s}
}

func IntValue(i int) PropertyValue {
	return PropertyValue{kind: KindInt, num: i}
}

func BoolValue(b bool) PropertyValue {
	return PropertyValue{kind: KindBool, flag: b}
}

func NullValue() PropertyValue {
	return PropertyValue{}
}

// IntOrNull is IntValue for a non-nil pointer and NullValue otherwise.
func IntOrNull(i *int) PropertyValue {
	if i == nil {
		return NullValue()
	}
	return IntValue(*i)
}

func (v PropertyValue) Kind() ValueKind {
	return v.kind
}

func (v PropertyValue) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return fmt.Sprint(v.num)
	case KindBool:
		return fmt.Sprint(v.flag)
	}
	return "null"
}

// Value returns the payload value for a JSON body.
func (v PropertyValue) Value() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindBool:
		return v.flag
	}
	return nil
}

func (v PropertyValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Value())
}

type PropertyUpdate struct {
	Name  string
	Value PropertyValue
}

const (
	PropertyCompanyId           = "companyId"
	PropertyCompanyDepartmentId = "companyDepartmentId"
	PropertyCompanyLocationId   = "companyLocationId"
)

// CompanyUpdateItem is a pending change of company, department or location.
// Either Id or NameToCreate is set, or neither when the field is cleared.
type CompanyUpdateItem struct {
	PropertyName string
	Id           *int
	NameToCreate string
}

func (i *CompanyUpdateItem) NeedsCreate() bool {
	return i.Id == nil && len(i.NameToCreate) > 0
}

func (i *CompanyUpdateItem) Value() PropertyValue {
	return IntOrNull(i.Id)
}
