package program

import (
	"time"

	"github.com/pkg/errors"

	"github.com/lejardineden/backend/core"
)

var (
	// errors
	ErrNotFound              = errors.New("program not found")
	ErrNotAvailable          = errors.New("program is not available for enrollment")
	ErrStaleSeatCount        = errors.New("program seat count changed concurrently")
	ErrCapacityBelowEnrolled = errors.New("capacity cannot be lower than the current enrollment count")
)

type Repository interface {
	CreateProgram(prog Program) (Program, error)
	// QueryAllPrograms returns active programs; all of them when includeInactive is set.
	QueryAllPrograms(includeInactive bool) ([]Program, error)
	GetProgramByID(id string) (Program, error)
	GetProgramsByAgeRange(ageRange string) ([]Program, error)
	UpdateProgram(prog Program, isActive *bool) (Program, error)
	// SetProgramEnrollment writes the seat counter as a compare-and-swap:
	// the write succeeds only while the stored counter still equals prev,
	// and reports ErrStaleSeatCount when another writer got there first.
	SetProgramEnrollment(id string, prev, count int) (Program, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(np NewProgram) (Program, error) {
	now := time.Now().UTC()
	prog := Program{
		Title:       np.Title,
		Description: np.Description,
		AgeRange:    np.AgeRange,
		Capacity:    np.Capacity,
		Price:       np.Price,
		Schedule:    np.Schedule,
		Features:    np.Features,
		ImageURL:    np.ImageURL,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateProgram(prog)
}

func (svc *Service) QueryAll(includeInactive bool) ([]Program, error) {
	return svc.repo.QueryAllPrograms(includeInactive)
}

func (svc *Service) GetByID(id string) (Program, error) {
	return svc.repo.GetProgramByID(id)
}

func (svc *Service) ByAgeRange(ageRange string) ([]Program, error) {
	return svc.repo.GetProgramsByAgeRange(core.CleanString(ageRange))
}

func (svc *Service) Update(id string, up UpdateProgram) (Program, error) {
	prog := Program{
		ID:          id,
		Title:       up.Title,
		Description: up.Description,
		AgeRange:    up.AgeRange,
		Features:    up.Features,
		ImageURL:    up.ImageURL,
		UpdatedAt:   time.Now().UTC(),
	}
	if up.Capacity != nil {
		prog.Capacity = *up.Capacity
	}
	if up.Price != nil {
		prog.Price = *up.Price
	}
	if up.Schedule != nil {
		prog.Schedule = *up.Schedule
	}
	return svc.repo.UpdateProgram(prog, up.IsActive)
}

// Deactivate soft-deletes a program. Programs are never hard-deleted since
// enrollments keep referencing them.
func (svc *Service) Deactivate(id string) (Program, error) {
	if _, err := svc.repo.GetProgramByID(id); err != nil {
		return Program{}, err
	}
	inactive := false
	return svc.repo.UpdateProgram(Program{ID: id, UpdatedAt: time.Now().UTC()}, &inactive)
}

// GetStats counts programs and seats for the admin dashboard.
func (svc *Service) GetStats() (Stats, error) {
	progs, err := svc.repo.QueryAllPrograms(true)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying programs")
	}
	var stats Stats
	stats.Total = len(progs)
	for _, prog := range progs {
		if prog.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		stats.TotalCapacity += prog.Capacity
		stats.TotalEnrolled += prog.CurrentEnrollment
	}
	return stats, nil
}
