package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lejardineden/backend/core"
)

// Status is the lifecycle state of an Enrollment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var Statuses = []Status{
	StatusPending, StatusApproved, StatusRejected, StatusActive, StatusCompleted, StatusCancelled,
}

// transitions is the full status machine. Rejection from approved/active is the
// administrative correction path; it releases the seat like a cancellation.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusActive, StatusCancelled, StatusRejected},
	StatusActive:   {StatusCompleted, StatusCancelled, StatusRejected},
}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// HoldsSeat reports whether an enrollment in this status occupies a program seat.
func (s Status) HoldsSeat() bool {
	return s == StatusApproved || s == StatusActive
}

// CanTransitionTo reports whether next is a legal transition from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, st := range transitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

type EmergencyContact struct {
	Name         string `json:"name" bson:"name"`
	Phone        string `json:"phone" bson:"phone" validate:"omitempty,phone"`
	Relationship string `json:"relationship" bson:"relationship"`
}

type MedicalInfo struct {
	Allergies   string `json:"allergies" bson:"allergies"`
	Medications string `json:"medications" bson:"medications"`
	Conditions  string `json:"conditions" bson:"conditions"`
	DoctorName  string `json:"doctor_name" bson:"doctorName"`
	DoctorPhone string `json:"doctor_phone" bson:"doctorPhone" validate:"omitempty,phone"`
}

type Enrollment struct {
	ID        string `json:"id" bson:"_id,omitempty"`
	UserID    string `json:"user_id" bson:"userId"`
	ProgramID string `json:"program_id" bson:"programId"` // weak reference, re-fetched on use

	ChildName        string    `json:"child_name" bson:"childName"`
	ChildAge         int       `json:"child_age" bson:"childAge"`
	ChildDateOfBirth time.Time `json:"child_date_of_birth" bson:"childDateOfBirth"`

	ParentName  string `json:"parent_name" bson:"parentName"`
	ParentEmail string `json:"parent_email" bson:"parentEmail"`
	ParentPhone string `json:"parent_phone" bson:"parentPhone"`

	EmergencyContact EmergencyContact `json:"emergency_contact" bson:"emergencyContact"`
	MedicalInfo      MedicalInfo      `json:"medical_info" bson:"medicalInfo"`
	SpecialNeeds     string           `json:"special_needs" bson:"specialNeeds"`

	Status    Status     `json:"status" bson:"status"`
	StartDate time.Time  `json:"start_date" bson:"startDate"`
	EndDate   *time.Time `json:"end_date" bson:"endDate"`
	Notes     string     `json:"notes" bson:"notes"`

	CreatedAt  time.Time  `json:"created_at" bson:"createdAt"` // UTC
	UpdatedAt  time.Time  `json:"updated_at" bson:"updatedAt"` // UTC
	ApprovedAt *time.Time `json:"approved_at" bson:"approvedAt"`
	ApprovedBy string     `json:"approved_by" bson:"approvedBy"`
}

func (e *Enrollment) IsPending() bool  { return e.Status == StatusPending }
func (e *Enrollment) IsApproved() bool { return e.Status == StatusApproved }
func (e *Enrollment) IsActive() bool   { return e.Status == StatusActive }

// HoldsSeat reports whether this enrollment currently occupies a program seat.
func (e *Enrollment) HoldsSeat() bool { return e.Status.HoldsSeat() }

func (e *Enrollment) CanBeCancelled() bool {
	return e.Status.CanTransitionTo(StatusCancelled)
}

func (e *Enrollment) IsOwnedBy(userID string) bool {
	return e.UserID != "" && e.UserID == userID
}

// NewEnrollment contains information needed to submit a new Enrollment.
type NewEnrollment struct {
	ProgramID        string           `json:"program_id" validate:"required"`
	ChildName        string           `json:"child_name" validate:"required"`
	ChildAge         int              `json:"child_age" validate:"required,gt=0,lte=12"`
	ChildDateOfBirth time.Time        `json:"child_date_of_birth" validate:"required"`
	ParentName       string           `json:"parent_name" validate:"required"`
	ParentEmail      string           `json:"parent_email" validate:"required,email"`
	ParentPhone      string           `json:"parent_phone" validate:"required,phone"`
	EmergencyContact EmergencyContact `json:"emergency_contact"`
	MedicalInfo      MedicalInfo      `json:"medical_info"`
	SpecialNeeds     string           `json:"special_needs"`
	StartDate        time.Time        `json:"start_date" validate:"required"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.ChildName = core.CleanString(ne.ChildName)
	ne.ParentName = core.CleanString(ne.ParentName)
	ne.ParentEmail = core.CleanEmail(ne.ParentEmail)
	ne.ParentPhone = core.CleanString(ne.ParentPhone)
	return validate.Struct(ne)
}

// UpdateEnrollment defines what information may be provided to modify an existing
// Enrollment. Status is deliberately absent: transitions go through the dedicated
// lifecycle operations only. Notes is admin-only; the policy drops it otherwise.
type UpdateEnrollment struct {
	ChildName        string            `json:"child_name"`
	ChildAge         *int              `json:"child_age" validate:"omitempty,gt=0,lte=12"`
	ParentName       string            `json:"parent_name"`
	ParentPhone      string            `json:"parent_phone" validate:"omitempty,phone"`
	EmergencyContact *EmergencyContact `json:"emergency_contact"`
	MedicalInfo      *MedicalInfo      `json:"medical_info"`
	SpecialNeeds     *string           `json:"special_needs"`
	Notes            *string           `json:"notes"`
}

func (ue *UpdateEnrollment) Validate(validate *validator.Validate) error {
	ue.ChildName = core.CleanString(ue.ChildName)
	ue.ParentName = core.CleanString(ue.ParentName)
	ue.ParentPhone = core.CleanString(ue.ParentPhone)
	return validate.Struct(ue)
}

type QueryFilter struct {
	UserID    string `query:"-"`
	ProgramID string `query:"program_id"`
	Status    Status `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.UserID == "" && qf.ProgramID == "" && qf.Status == ""
}

// Stats holds enrollment counts by status.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}
