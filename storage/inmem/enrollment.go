package inmemdb

import (
	"time"

	"github.com/google/uuid"

	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/enrollment"
)

type enrollmentRepository struct {
	db *enrollmentTable
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db.enrollment}
}

func (repo *enrollmentRepository) query() []enrollment.Enrollment {
	enrs := make([]enrollment.Enrollment, 0, len(repo.db.table))
	for _, enr := range repo.db.table {
		enrs = append(enrs, *enr)
	}
	return enrs
}

func (repo *enrollmentRepository) CreateEnrollment(enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	enr.ID = uuid.New().String()
	repo.db.table[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(id string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr, ok := repo.db.table[id]; ok {
		return *enr, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) FilterEnrollments(filter enrollment.QueryFilter, ordering []core.Ordering, page core.Pagination) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	enrs := repo.query()
	repo.db.RUnlock()

	matched := make([]enrollment.Enrollment, 0, len(enrs))
	for _, enr := range enrs {
		if filter.UserID != "" && enr.UserID != filter.UserID {
			continue
		}
		if filter.ProgramID != "" && enr.ProgramID != filter.ProgramID {
			continue
		}
		if filter.Status != "" && enr.Status != filter.Status {
			continue
		}
		matched = append(matched, enr)
	}

	sortByTime(len(matched),
		func(i int) time.Time { return matched[i].CreatedAt },
		func(i, j int) { matched[i], matched[j] = matched[j], matched[i] },
		ordering)
	lo, hi := paginate(len(matched), page)
	return matched[lo:hi], nil
}

func (repo *enrollmentRepository) UpdateEnrollment(enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[enr.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	repo.db.table[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) CountEnrollmentsByStatus() (map[enrollment.Status]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[enrollment.Status]int)
	for _, enr := range repo.db.table {
		counts[enr.Status]++
	}
	return counts, nil
}
