package user

import (
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/lejardineden/backend/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
	ErrAdminLocked = errors.New("admin accounts cannot be deactivated")
)

type Repository interface {
	CheckEmailUniqueness(email string, excludedUsers ...User) error
	CreateUser(usr User) (User, error)
	QueryAllUsers() ([]User, error)
	GetUserByID(id string) (User, error)
	GetUserByEmail(email string) (User, error)
	// FilterUsers applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on User.Name or User.Email.
	FilterUsers(filter QueryFilter, ordering []core.Ordering, page core.Pagination) ([]User, error)
	UpdateUser(usr User, isActive *bool) (User, error)
}

type Service struct {
	repo    Repository
	mailSvc core.EmailService
	logger  core.Logger

	syncMail bool // tests only
}

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	secretKey = []byte(core.Conf.SecretKey)
	passwordResetTimeoutDelta = core.Conf.PasswordResetTimeoutDelta
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *Service) checkUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	if err := svc.checkUniqueness(nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	role := nu.Role
	if role == "" {
		role = RoleUser
	}
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Phone:     nu.Phone,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanEmail(email))
}

func (svc *Service) Filter(filter QueryFilter, ordering []core.Ordering, page core.Pagination) ([]User, error) {
	page.Clean()
	return svc.repo.FilterUsers(filter, ordering, page)
}

func (svc *Service) Update(id string, uu UpdateUser) (User, error) {
	if uu.Email != "" {
		if err := svc.checkUniqueness(uu.Email, User{ID: id}); err != nil {
			return User{}, err
		}
	}

	usr := User{
		ID:        id,
		Name:      uu.Name,
		Email:     uu.Email,
		Phone:     uu.Phone,
		Role:      uu.Role,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateUser(usr, uu.IsActive)
}

// Deactivate soft-deletes a user account. Admin accounts cannot be deactivated.
func (svc *Service) Deactivate(id string) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	if usr.IsAdmin() {
		return User{}, ErrAdminLocked
	}
	inactive := false
	return svc.repo.UpdateUser(User{ID: id, UpdatedAt: time.Now().UTC()}, &inactive)
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}

// GetStats counts users for the admin dashboard.
func (svc *Service) GetStats() (Stats, error) {
	users, err := svc.repo.QueryAllUsers()
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying users")
	}
	var stats Stats
	stats.Total = len(users)
	for _, usr := range users {
		if usr.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if usr.IsAdmin() {
			stats.Admins++
		}
	}
	return stats, nil
}

func (svc *Service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	if svc.syncMail {
		svc.sendPasswordResetMail(usr)
	} else {
		go svc.sendPasswordResetMail(usr)
	}
	return nil
}

func (svc *Service) ResetPassword(rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "uid", Error: "invalid value"})
	}
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "uid", Error: "invalid value"})
		}
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: "invalid value"})
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(usr, nil)
	return err
}

func (svc *Service) sendPasswordResetMail(usr User) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: core.MailPasswordReset,
		TemplateData: struct {
			Name  string
			UID   string
			Token string
		}{usr.Name, EncodeUID(usr), makeToken(usr)},
	}
	svc.mailSvc.SendMessages(msg)
}
