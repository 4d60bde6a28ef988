package inmemdb

import (
	"time"

	"github.com/google/uuid"

	"github.com/lejardineden/backend/core/program"
)

type programRepository struct {
	db *programTable
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *DB) *programRepository {
	return &programRepository{db: db.program}
}

func (repo *programRepository) query() []program.Program {
	progs := make([]program.Program, 0, len(repo.db.table))
	for _, prog := range repo.db.table {
		progs = append(progs, *prog)
	}
	return progs
}

func (repo *programRepository) CreateProgram(prog program.Program) (program.Program, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prog.ID = uuid.New().String()
	repo.db.table[prog.ID] = &prog
	return prog, nil
}

func (repo *programRepository) QueryAllPrograms(includeInactive bool) ([]program.Program, error) {
	repo.db.RLock()
	progs := repo.query()
	repo.db.RUnlock()

	if includeInactive {
		return progs, nil
	}
	active := make([]program.Program, 0, len(progs))
	for _, prog := range progs {
		if prog.IsActive {
			active = append(active, prog)
		}
	}
	return active, nil
}

func (repo *programRepository) GetProgramByID(id string) (program.Program, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prog, ok := repo.db.table[id]; ok {
		return *prog, nil
	}
	return program.Program{}, program.ErrNotFound
}

func (repo *programRepository) GetProgramsByAgeRange(ageRange string) ([]program.Program, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	progs := make([]program.Program, 0)
	for _, prog := range repo.query() {
		if prog.IsActive && prog.AgeRange == ageRange {
			progs = append(progs, prog)
		}
	}
	return progs, nil
}

func (repo *programRepository) UpdateProgram(prog program.Program, isActive *bool) (program.Program, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[prog.ID]
	if !ok {
		return program.Program{}, program.ErrNotFound
	}

	if prog.Title != "" {
		orig.Title = prog.Title
	}
	if prog.Description != "" {
		orig.Description = prog.Description
	}
	if prog.AgeRange != "" {
		orig.AgeRange = prog.AgeRange
	}
	if prog.Capacity > 0 {
		orig.Capacity = prog.Capacity
	}
	if prog.Price > 0 {
		orig.Price = prog.Price
	}
	if prog.Schedule.Days != nil {
		orig.Schedule.Days = prog.Schedule.Days
	}
	if prog.Schedule.Hours != "" {
		orig.Schedule.Hours = prog.Schedule.Hours
	}
	if prog.Features != nil {
		orig.Features = prog.Features
	}
	if prog.ImageURL != "" {
		orig.ImageURL = prog.ImageURL
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = time.Now().UTC()
	return *orig, nil
}

// SetProgramEnrollment compares and swaps the seat counter under the table
// lock, so the check and the write are a single atomic step.
func (repo *programRepository) SetProgramEnrollment(id string, prev, count int) (program.Program, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[id]
	if !ok {
		return program.Program{}, program.ErrNotFound
	}
	if orig.CurrentEnrollment != prev {
		return program.Program{}, program.ErrStaleSeatCount
	}
	orig.CurrentEnrollment = count
	orig.UpdatedAt = time.Now().UTC()
	return *orig, nil
}
