package contact

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lejardineden/backend/core"
)

// Status is the workflow state of a Contact. The progression is linear and
// forward-only: new → read → replied → closed.
type Status string

const (
	StatusNew     Status = "new"
	StatusRead    Status = "read"
	StatusReplied Status = "replied"
	StatusClosed  Status = "closed"
)

var statusRank = map[Status]int{
	StatusNew:     0,
	StatusRead:    1,
	StatusReplied: 2,
	StatusClosed:  3,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo only allows moving forward in the workflow.
func (s Status) CanTransitionTo(next Status) bool {
	sr, ok := statusRank[s]
	nr, ok2 := statusRank[next]
	return ok && ok2 && nr > sr
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Contact struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	Name        string     `json:"name" bson:"name"`
	Email       string     `json:"email" bson:"email"`
	Phone       string     `json:"phone" bson:"phone"`
	Subject     string     `json:"subject" bson:"subject"`
	Message     string     `json:"message" bson:"message"`
	Priority    Priority   `json:"priority" bson:"priority"`
	Status      Status     `json:"status" bson:"status"`
	Response    string     `json:"response" bson:"response"`
	ReadBy      string     `json:"read_by" bson:"readBy"`
	RespondedAt *time.Time `json:"responded_at" bson:"respondedAt"`
	CreatedAt   time.Time  `json:"created_at" bson:"createdAt"` // UTC
	UpdatedAt   time.Time  `json:"updated_at" bson:"updatedAt"` // UTC
}

// IsNew reports whether no admin has looked at the message yet.
func (c *Contact) IsNew() bool { return c.Status == StatusNew }

// HasResponse reports whether an admin response has been recorded, regardless
// of whether the contact has since been closed.
func (c *Contact) HasResponse() bool {
	return core.CleanString(c.Response) != ""
}

// MarshalJSON includes the derived read model fields.
func (c Contact) MarshalJSON() ([]byte, error) {
	type alias Contact
	return json.Marshal(struct {
		alias
		IsNew       bool `json:"is_new"`
		HasResponse bool `json:"has_response"`
	}{alias(c), c.IsNew(), c.HasResponse()})
}

// NewContact contains information needed to submit a contact form.
type NewContact struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Phone    string   `json:"phone" validate:"omitempty,phone"`
	Subject  string   `json:"subject" validate:"required"`
	Message  string   `json:"message" validate:"required"`
	Priority Priority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

func (nc *NewContact) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Email = core.CleanEmail(nc.Email)
	nc.Phone = core.CleanString(nc.Phone)
	nc.Subject = core.CleanString(nc.Subject)
	nc.Message = core.CleanString(nc.Message)
	return validate.Struct(nc)
}

// UpdateContact defines the admin-editable fields. Status moves through the
// dedicated read/reply/close operations only.
type UpdateContact struct {
	Priority Priority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

func (uc *UpdateContact) Validate(validate *validator.Validate) error {
	return validate.Struct(uc)
}

type ReplyContact struct {
	Response string `json:"response" validate:"required"`
}

func (rc *ReplyContact) Validate(validate *validator.Validate) error {
	rc.Response = core.CleanString(rc.Response)
	return validate.Struct(rc)
}

type QueryFilter struct {
	Status   Status   `query:"status"`
	Priority Priority `query:"priority"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.Priority == ""
}

// Stats holds contact counts by status.
type Stats struct {
	Total   int `json:"total"`
	New     int `json:"new"`
	Read    int `json:"read"`
	Replied int `json:"replied"`
	Closed  int `json:"closed"`
}
