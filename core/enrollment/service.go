package enrollment

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/program"
	"github.com/lejardineden/backend/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("enrollment not found")
	ErrInvalidState     = errors.New("transition not allowed from current enrollment status")
	ErrCapacityExceeded = errors.New("program has no available spots left")
	ErrForbidden        = errors.New("permission denied")
)

type Repository interface {
	CreateEnrollment(enr Enrollment) (Enrollment, error)
	GetEnrollmentByID(id string) (Enrollment, error)
	// FilterEnrollments applies AND operation on available QueryFilter fields,
	// ordered by creation time descending unless overridden.
	FilterEnrollments(filter QueryFilter, ordering []core.Ordering, page core.Pagination) ([]Enrollment, error)
	// UpdateEnrollment replaces the stored document with enr (matched by ID).
	UpdateEnrollment(enr Enrollment) (Enrollment, error)
	CountEnrollmentsByStatus() (map[Status]int, error)
}

// Service owns the enrollment status machine and the seat accounting side
// effects on Program. Every transition is at most two read-modify-write
// cycles: the program (when capacity-relevant) first, the enrollment last.
// The enrollment write is the commit point; nothing before it is considered
// a completed transition.
type Service struct {
	repo     Repository
	progRepo program.Repository
	policy   Policy
	mailSvc  core.EmailService
	logger   core.Logger

	syncMail bool // tests only
}

func NewService(repo Repository, progRepo program.Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		progRepo: progRepo,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// Create submits a new enrollment on behalf of owner. The target program must
// exist and be available; no seat is reserved until approval, so a flood of
// unapproved requests cannot exhaust capacity.
func (svc *Service) Create(owner user.User, ne NewEnrollment) (Enrollment, error) {
	prog, err := svc.progRepo.GetProgramByID(ne.ProgramID)
	if err != nil {
		return Enrollment{}, err
	}
	if !prog.IsAvailable() {
		return Enrollment{}, program.ErrNotAvailable
	}

	now := time.Now().UTC()
	enr := Enrollment{
		UserID:           owner.ID,
		ProgramID:        ne.ProgramID,
		ChildName:        ne.ChildName,
		ChildAge:         ne.ChildAge,
		ChildDateOfBirth: ne.ChildDateOfBirth,
		ParentName:       ne.ParentName,
		ParentEmail:      ne.ParentEmail,
		ParentPhone:      ne.ParentPhone,
		EmergencyContact: ne.EmergencyContact,
		MedicalInfo:      ne.MedicalInfo,
		SpecialNeeds:     ne.SpecialNeeds,
		Status:           StatusPending,
		StartDate:        ne.StartDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	enr, err = svc.repo.CreateEnrollment(enr)
	if err != nil {
		return Enrollment{}, err
	}

	svc.sendStatusMail(enr, prog.Title, core.MailEnrollmentReceived)
	return enr, nil
}

func (svc *Service) GetByID(id string) (Enrollment, error) {
	return svc.repo.GetEnrollmentByID(id)
}

// GetForActor fetches an enrollment, enforcing owner-or-admin visibility.
func (svc *Service) GetForActor(actor user.User, id string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(id)
	if err != nil {
		return Enrollment{}, err
	}
	if !svc.policy.Can(actor, enr, ActionView) {
		return Enrollment{}, ErrForbidden
	}
	return enr, nil
}

// Mine returns the enrollments owned by actor.
func (svc *Service) Mine(actor user.User, page core.Pagination) ([]Enrollment, error) {
	page.Clean()
	return svc.repo.FilterEnrollments(QueryFilter{UserID: actor.ID}, nil, page)
}

func (svc *Service) Filter(filter QueryFilter, ordering []core.Ordering, page core.Pagination) ([]Enrollment, error) {
	page.Clean()
	return svc.repo.FilterEnrollments(filter, ordering, page)
}

// Approve transitions a pending enrollment to approved and claims a program
// seat. The seat claim is a compare-and-swap on the counter the service just
// read, so a stale availability check is never trusted across the decision
// boundary and a concurrent release is never overwritten. If the program no
// longer exists the seat adjustment is skipped (logged, not fatal) and the
// transition still completes.
func (svc *Service) Approve(id string, approver user.User) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(id)
	if err != nil {
		return Enrollment{}, err
	}
	if !enr.Status.CanTransitionTo(StatusApproved) {
		return Enrollment{}, ErrInvalidState
	}

	var seatClaimed bool
	var progTitle string
	prog, err := svc.progRepo.GetProgramByID(enr.ProgramID)
	switch errors.Cause(err) {
	case nil:
		prog, err = svc.claimSeat(prog)
		if err != nil {
			// on ErrCapacityExceeded the enrollment stays pending, nothing is written
			return Enrollment{}, err
		}
		seatClaimed = true
		progTitle = prog.Title
	case program.ErrNotFound:
		svc.logger.Warn(fmt.Sprintf("program %s referenced by enrollment %s no longer exists; skipping seat adjustment", enr.ProgramID, enr.ID))
	default:
		return Enrollment{}, errors.Wrap(err, "fetching program")
	}

	now := time.Now().UTC()
	enr.Status = StatusApproved
	enr.ApprovedAt = &now
	enr.ApprovedBy = approver.ID
	enr.UpdatedAt = now

	updated, err := svc.repo.UpdateEnrollment(enr)
	if err != nil {
		// compensate the claimed seat, best effort
		if seatClaimed {
			if rerr := svc.releaseSeat(enr.ProgramID); rerr != nil {
				svc.logger.Error(fmt.Sprintf("compensating seat on program %s: %v", enr.ProgramID, rerr), rerr)
			}
		}
		return Enrollment{}, err
	}

	svc.sendStatusMail(updated, progTitle, core.MailEnrollmentApproved)
	return updated, nil
}

// Reject declines an enrollment. It is legal from pending, and from
// approved/active as an administrative correction, in which case the held
// seat is released.
func (svc *Service) Reject(id, notes string, approver user.User) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(id)
	if err != nil {
		return Enrollment{}, err
	}
	if !enr.Status.CanTransitionTo(StatusRejected) {
		return Enrollment{}, ErrInvalidState
	}

	if enr.HoldsSeat() {
		if err = svc.releaseSeat(enr.ProgramID); err != nil {
			return Enrollment{}, err
		}
	}

	enr.Status = StatusRejected
	enr.Notes = notes
	enr.UpdatedAt = time.Now().UTC()

	updated, err := svc.repo.UpdateEnrollment(enr)
	if err != nil {
		return Enrollment{}, err
	}

	svc.sendStatusMail(updated, svc.programTitle(updated.ProgramID), core.MailEnrollmentRejected)
	return updated, nil
}

// Activate marks an approved enrollment as started. The seat is already held.
func (svc *Service) Activate(id string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(id)
	if err != nil {
		return Enrollment{}, err
	}
	if !(enr.IsApproved() && enr.Status.CanTransitionTo(StatusActive)) {
		return Enrollment{}, ErrInvalidState
	}

	enr.Status = StatusActive
	enr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEnrollment(enr)
}

// Complete marks an active enrollment as finished. The seat counter is left
// untouched: completed enrollments keep occupying a slot in the counter.
// Flagged for product clarification, preserved as observed.
func (svc *Service) Complete(id string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(id)
	if err != nil {
		return Enrollment{}, err
	}
	if !(enr.IsActive() && enr.Status.CanTransitionTo(StatusCompleted)) {
		return Enrollment{}, ErrInvalidState
	}

	now := time.Now().UTC()
	enr.Status = StatusCompleted
	enr.EndDate = &now
	enr.UpdatedAt = now
	return svc.repo.UpdateEnrollment(enr)
}

// Cancel withdraws an enrollment. Owners may cancel their own; admins any.
// The seat is released only when the prior status actually held one, so a
// seat that was never claimed is never decremented.
func (svc *Service) Cancel(id, notes string, actor user.User) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(id)
	if err != nil {
		return Enrollment{}, err
	}
	if !svc.policy.Can(actor, enr, ActionCancel) {
		return Enrollment{}, ErrForbidden
	}
	if !enr.CanBeCancelled() {
		return Enrollment{}, ErrInvalidState
	}

	if enr.HoldsSeat() {
		if err = svc.releaseSeat(enr.ProgramID); err != nil {
			return Enrollment{}, err
		}
	}

	now := time.Now().UTC()
	enr.Status = StatusCancelled
	enr.Notes = notes
	enr.EndDate = &now
	enr.UpdatedAt = now
	return svc.repo.UpdateEnrollment(enr)
}

// Update modifies an enrollment's details. The policy silently drops fields
// the actor may not touch; status never changes here.
func (svc *Service) Update(id string, actor user.User, up UpdateEnrollment) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(id)
	if err != nil {
		return Enrollment{}, err
	}
	up, err = svc.policy.FilterUpdate(actor, enr, up)
	if err != nil {
		return Enrollment{}, err
	}

	if up.ChildName != "" {
		enr.ChildName = up.ChildName
	}
	if up.ChildAge != nil {
		enr.ChildAge = *up.ChildAge
	}
	if up.ParentName != "" {
		enr.ParentName = up.ParentName
	}
	if up.ParentPhone != "" {
		enr.ParentPhone = up.ParentPhone
	}
	if up.EmergencyContact != nil {
		enr.EmergencyContact = *up.EmergencyContact
	}
	if up.MedicalInfo != nil {
		enr.MedicalInfo = *up.MedicalInfo
	}
	if up.SpecialNeeds != nil {
		enr.SpecialNeeds = *up.SpecialNeeds
	}
	if up.Notes != nil {
		enr.Notes = *up.Notes
	}
	enr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEnrollment(enr)
}

// GetStats counts enrollments by status for the admin dashboard.
func (svc *Service) GetStats() (Stats, error) {
	counts, err := svc.repo.CountEnrollmentsByStatus()
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting enrollments")
	}
	stats := Stats{
		Pending:   counts[StatusPending],
		Approved:  counts[StatusApproved],
		Rejected:  counts[StatusRejected],
		Active:    counts[StatusActive],
		Completed: counts[StatusCompleted],
		Cancelled: counts[StatusCancelled],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// seatCASRetries bounds how often a lost compare-and-swap on the seat
// counter is re-read and retried before the failure is surfaced.
const seatCASRetries = 3

// claimSeat increments the seat counter with a compare-and-swap on the count
// the caller just observed. A lost swap means another transition touched the
// counter in between; the program is re-read and the availability decision is
// made again against the fresh count.
func (svc *Service) claimSeat(prog program.Program) (program.Program, error) {
	for attempt := 0; ; attempt++ {
		if !prog.IsAvailable() {
			return program.Program{}, ErrCapacityExceeded
		}
		updated, err := svc.progRepo.SetProgramEnrollment(prog.ID, prog.CurrentEnrollment, prog.CurrentEnrollment+1)
		switch errors.Cause(err) {
		case nil:
			return updated, nil
		case program.ErrStaleSeatCount:
			if attempt >= seatCASRetries {
				return program.Program{}, errors.Wrap(err, "claiming program seat")
			}
			if prog, err = svc.progRepo.GetProgramByID(prog.ID); err != nil {
				return program.Program{}, errors.Wrap(err, "re-reading program")
			}
		default:
			return program.Program{}, errors.Wrap(err, "claiming program seat")
		}
	}
}

// releaseSeat decrements the program seat counter with the same
// compare-and-swap discipline as claimSeat. A missing program cannot be
// corrected by retrying, so it is logged and skipped; store failures are
// surfaced.
func (svc *Service) releaseSeat(programID string) error {
	prog, err := svc.progRepo.GetProgramByID(programID)
	if err != nil {
		if errors.Cause(err) == program.ErrNotFound {
			svc.logger.Warn(fmt.Sprintf("program %s no longer exists; skipping seat release", programID))
			return nil
		}
		return errors.Wrap(err, "fetching program for seat release")
	}

	for attempt := 0; ; attempt++ {
		if prog.CurrentEnrollment <= 0 {
			svc.logger.Warn(fmt.Sprintf("program %s seat counter already at zero", programID))
			return nil
		}
		_, err = svc.progRepo.SetProgramEnrollment(prog.ID, prog.CurrentEnrollment, prog.CurrentEnrollment-1)
		switch errors.Cause(err) {
		case nil:
			return nil
		case program.ErrStaleSeatCount:
			if attempt >= seatCASRetries {
				return errors.Wrap(err, "releasing program seat")
			}
			if prog, err = svc.progRepo.GetProgramByID(programID); err != nil {
				return errors.Wrap(err, "re-reading program for seat release")
			}
		default:
			return errors.Wrap(err, "releasing program seat")
		}
	}
}

func (svc *Service) programTitle(programID string) string {
	prog, err := svc.progRepo.GetProgramByID(programID)
	if err != nil {
		return ""
	}
	return prog.Title
}

func (svc *Service) sendStatusMail(enr Enrollment, programTitle, template string) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: enr.ParentName, Address: enr.ParentEmail}},
		TemplateName: template,
		TemplateData: struct {
			ParentName   string
			ChildName    string
			ProgramTitle string
			Notes        string
		}{enr.ParentName, enr.ChildName, programTitle, enr.Notes},
	}
	switch template {
	case core.MailEnrollmentReceived:
		msg.Subject = "Enrollment Request Received"
	case core.MailEnrollmentApproved:
		msg.Subject = "Enrollment Approved"
	case core.MailEnrollmentRejected:
		msg.Subject = "Enrollment Update"
	}
	if svc.syncMail {
		svc.mailSvc.SendMessages(msg)
	} else {
		go svc.mailSvc.SendMessages(msg)
	}
}
