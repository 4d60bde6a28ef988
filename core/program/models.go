package program

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lejardineden/backend/core"
)

type Schedule struct {
	Days  []string `json:"days" bson:"days" validate:"omitempty,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Hours string   `json:"hours" bson:"hours"`
}

type Program struct {
	ID          string   `json:"id" bson:"_id,omitempty"`
	Title       string   `json:"title" bson:"title"`
	Description string   `json:"description" bson:"description"`
	AgeRange    string   `json:"age_range" bson:"ageRange"`
	Capacity    int      `json:"capacity" bson:"capacity"`
	// CurrentEnrollment counts the enrollments currently holding a seat
	// (status approved or active). It is mutated only by the enrollment service.
	CurrentEnrollment int       `json:"current_enrollment" bson:"currentEnrollment"`
	Price             float64   `json:"price" bson:"price"`
	Schedule          Schedule  `json:"schedule" bson:"schedule"`
	Features          []string  `json:"features" bson:"features"`
	ImageURL          string    `json:"image_url" bson:"imageUrl"`
	IsActive          bool      `json:"is_active" bson:"isActive"`
	CreatedAt         time.Time `json:"created_at" bson:"createdAt"` // UTC
	UpdatedAt         time.Time `json:"updated_at" bson:"updatedAt"` // UTC
}

// AvailableSpots returns the number of free seats left.
func (p *Program) AvailableSpots() int {
	if spots := p.Capacity - p.CurrentEnrollment; spots > 0 {
		return spots
	}
	return 0
}

// IsAvailable reports whether the program accepts new enrollments.
func (p *Program) IsAvailable() bool {
	return p.IsActive && p.CurrentEnrollment < p.Capacity
}

// MarshalJSON includes the derived read model fields.
func (p Program) MarshalJSON() ([]byte, error) {
	type alias Program
	return json.Marshal(struct {
		alias
		AvailableSpots int  `json:"available_spots"`
		IsAvailable    bool `json:"is_available"`
	}{alias(p), p.AvailableSpots(), p.IsAvailable()})
}

// NewProgram contains information needed to create a new Program.
type NewProgram struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	AgeRange    string   `json:"age_range" validate:"required"`
	Capacity    int      `json:"capacity" validate:"required,gt=0"`
	Price       float64  `json:"price" validate:"gte=0"`
	Schedule    Schedule `json:"schedule"`
	Features    []string `json:"features"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url"`
}

func (np *NewProgram) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.AgeRange = core.CleanString(np.AgeRange)
	return validate.Struct(np)
}

// UpdateProgram defines what information may be provided to modify an existing Program.
// CurrentEnrollment is deliberately absent: the seat counter belongs to the
// enrollment service. Capacity may shrink, but never below the seats already held.
type UpdateProgram struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AgeRange    string    `json:"age_range"`
	Capacity    *int      `json:"capacity" validate:"omitempty,gt=0"`
	Price       *float64  `json:"price" validate:"omitempty,gte=0"`
	Schedule    *Schedule `json:"schedule"`
	Features    []string  `json:"features"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url"`
	IsActive    *bool     `json:"is_active"`
}

func (up *UpdateProgram) Validate(validate *validator.Validate, orig Program) error {
	if title := core.CleanString(up.Title); title != "" {
		up.Title = title
	} else {
		up.Title = orig.Title
	}
	if ar := core.CleanString(up.AgeRange); ar != "" {
		up.AgeRange = ar
	} else {
		up.AgeRange = orig.AgeRange
	}
	if err := validate.Struct(up); err != nil {
		return err
	}
	if up.Capacity != nil && *up.Capacity < orig.CurrentEnrollment {
		return core.NewValidationError(ErrCapacityBelowEnrolled,
			core.FieldError{Field: "capacity", Error: ErrCapacityBelowEnrolled.Error()})
	}
	return nil
}

// Stats holds aggregate counts for the admin dashboard.
type Stats struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	Inactive      int `json:"inactive"`
	TotalCapacity int `json:"total_capacity"`
	TotalEnrolled int `json:"total_enrolled"`
}
