package user

import (
	"github.com/lejardineden/backend/core"
)

// NewServiceMock returns a Service whose emails are sent synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	svc := NewService(repo, mailSvc, logger)
	svc.syncMail = true
	return svc
}

// MakeResetToken generates the same token embedded in password reset emails.
func MakeResetToken(usr User) string {
	return makeToken(usr)
}
