package contact

import (
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/lejardineden/backend/core"
)

var (
	// errors
	ErrNotFound     = errors.New("contact not found")
	ErrInvalidState = errors.New("transition not allowed from current contact status")
)

type Repository interface {
	CreateContact(cnt Contact) (Contact, error)
	GetContactByID(id string) (Contact, error)
	// FilterContacts applies AND operation on available QueryFilter fields,
	// ordered by creation time descending unless overridden.
	FilterContacts(filter QueryFilter, ordering []core.Ordering, page core.Pagination) ([]Contact, error)
	// UpdateContact replaces the stored document with cnt (matched by ID).
	UpdateContact(cnt Contact) (Contact, error)
	DeleteContactByID(id string) error
	CountContactsByStatus() (map[Status]int, error)
}

type Service struct {
	repo    Repository
	mailSvc core.EmailService

	syncMail bool // tests only
}

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) Submit(nc NewContact) (Contact, error) {
	now := time.Now().UTC()
	priority := nc.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	cnt := Contact{
		Name:      nc.Name,
		Email:     nc.Email,
		Phone:     nc.Phone,
		Subject:   nc.Subject,
		Message:   nc.Message,
		Priority:  priority,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateContact(cnt)
}

func (svc *Service) GetByID(id string) (Contact, error) {
	return svc.repo.GetContactByID(id)
}

func (svc *Service) Filter(filter QueryFilter, ordering []core.Ordering, page core.Pagination) ([]Contact, error) {
	page.Clean()
	return svc.repo.FilterContacts(filter, ordering, page)
}

func (svc *Service) Update(id string, uc UpdateContact) (Contact, error) {
	cnt, err := svc.repo.GetContactByID(id)
	if err != nil {
		return Contact{}, err
	}
	if uc.Priority != "" {
		cnt.Priority = uc.Priority
	}
	cnt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateContact(cnt)
}

// MarkAsRead moves a new contact forward, recording who read it.
func (svc *Service) MarkAsRead(id, readerID string) (Contact, error) {
	cnt, err := svc.repo.GetContactByID(id)
	if err != nil {
		return Contact{}, err
	}
	if !cnt.Status.CanTransitionTo(StatusRead) {
		return Contact{}, ErrInvalidState
	}
	cnt.Status = StatusRead
	cnt.ReadBy = readerID
	cnt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateContact(cnt)
}

// Reply stores the response, moves the contact to replied and emails the sender.
func (svc *Service) Reply(id string, rc ReplyContact) (Contact, error) {
	cnt, err := svc.repo.GetContactByID(id)
	if err != nil {
		return Contact{}, err
	}
	if !cnt.Status.CanTransitionTo(StatusReplied) {
		return Contact{}, ErrInvalidState
	}
	now := time.Now().UTC()
	cnt.Status = StatusReplied
	cnt.Response = rc.Response
	cnt.RespondedAt = &now
	cnt.UpdatedAt = now

	updated, err := svc.repo.UpdateContact(cnt)
	if err != nil {
		return Contact{}, err
	}

	svc.sendReplyMail(updated)
	return updated, nil
}

func (svc *Service) Close(id string) (Contact, error) {
	cnt, err := svc.repo.GetContactByID(id)
	if err != nil {
		return Contact{}, err
	}
	if !cnt.Status.CanTransitionTo(StatusClosed) {
		return Contact{}, ErrInvalidState
	}
	cnt.Status = StatusClosed
	cnt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateContact(cnt)
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteContactByID(id)
}

// GetStats counts contacts by status for the admin dashboard.
func (svc *Service) GetStats() (Stats, error) {
	counts, err := svc.repo.CountContactsByStatus()
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting contacts")
	}
	stats := Stats{
		New:     counts[StatusNew],
		Read:    counts[StatusRead],
		Replied: counts[StatusReplied],
		Closed:  counts[StatusClosed],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (svc *Service) sendReplyMail(cnt Contact) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: cnt.Name, Address: cnt.Email}},
		Subject:      "Re: " + cnt.Subject,
		TemplateName: core.MailContactReply,
		TemplateData: struct {
			Name     string
			Subject  string
			Response string
		}{cnt.Name, cnt.Subject, cnt.Response},
	}
	if svc.syncMail {
		svc.mailSvc.SendMessages(msg)
	} else {
		go svc.mailSvc.SendMessages(msg)
	}
}

// NewServiceMock returns a Service whose emails are sent synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService) *Service {
	svc := NewService(repo, mailSvc)
	svc.syncMail = true
	return svc
}
