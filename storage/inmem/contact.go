package inmemdb

import (
	"time"

	"github.com/google/uuid"

	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/contact"
)

type contactRepository struct {
	db *contactTable
}

var _ contact.Repository = (*contactRepository)(nil) // interface compliance check

func NewContactRepository(db *DB) *contactRepository {
	return &contactRepository{db: db.contact}
}

func (repo *contactRepository) query() []contact.Contact {
	cnts := make([]contact.Contact, 0, len(repo.db.table))
	for _, cnt := range repo.db.table {
		cnts = append(cnts, *cnt)
	}
	return cnts
}

func (repo *contactRepository) CreateContact(cnt contact.Contact) (contact.Contact, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cnt.ID = uuid.New().String()
	repo.db.table[cnt.ID] = &cnt
	return cnt, nil
}

func (repo *contactRepository) GetContactByID(id string) (contact.Contact, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cnt, ok := repo.db.table[id]; ok {
		return *cnt, nil
	}
	return contact.Contact{}, contact.ErrNotFound
}

func (repo *contactRepository) FilterContacts(filter contact.QueryFilter, ordering []core.Ordering, page core.Pagination) ([]contact.Contact, error) {
	repo.db.RLock()
	cnts := repo.query()
	repo.db.RUnlock()

	matched := make([]contact.Contact, 0, len(cnts))
	for _, cnt := range cnts {
		if filter.Status != "" && cnt.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && cnt.Priority != filter.Priority {
			continue
		}
		matched = append(matched, cnt)
	}

	sortByTime(len(matched),
		func(i int) time.Time { return matched[i].CreatedAt },
		func(i, j int) { matched[i], matched[j] = matched[j], matched[i] },
		ordering)
	lo, hi := paginate(len(matched), page)
	return matched[lo:hi], nil
}

func (repo *contactRepository) UpdateContact(cnt contact.Contact) (contact.Contact, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[cnt.ID]; !ok {
		return contact.Contact{}, contact.ErrNotFound
	}
	repo.db.table[cnt.ID] = &cnt
	return cnt, nil
}

func (repo *contactRepository) DeleteContactByID(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return contact.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *contactRepository) CountContactsByStatus() (map[contact.Status]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[contact.Status]int)
	for _, cnt := range repo.db.table {
		counts[cnt.Status]++
	}
	return counts, nil
}
