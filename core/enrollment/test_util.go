package enrollment

import (
	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/program"
)

// NewServiceMock returns a Service whose emails are sent synchronously.
func NewServiceMock(repo Repository, progRepo program.Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	svc := NewService(repo, progRepo, mailSvc, logger)
	svc.syncMail = true
	return svc
}
