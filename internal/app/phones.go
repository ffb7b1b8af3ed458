package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vestfoldfylke/pureservice-sync/entra"
)

const (
	phoneAttributeSet = "IDM"
	phoneAttribute    = "Mobile"
)

type studentLookup interface {
	StudentMobilePhone(ctx context.Context, upn string) (string, error)
}

// phoneSource reads employee numbers from the IDM custom security attributes
// and student numbers from FINT.
type phoneSource struct {
	students studentLookup
	log      logrus.FieldLogger
}

func (p *phoneSource) MobilePhone(ctx context.Context, user *entra.User) string {
	if user.Kind != entra.Student {
		return user.CustomSecurityAttribute(phoneAttributeSet, phoneAttribute)
	}
	if p.students == nil {
		return ""
	}
	var phone, err = p.students.StudentMobilePhone(ctx, user.UserPrincipalName)
	if err != nil {
		p.log.WithError(err).WithField("userPrincipalName", user.UserPrincipalName).Warn("Could not look up student in FINT")
		return ""
	}
	return phone
}
