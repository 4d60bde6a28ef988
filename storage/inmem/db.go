// Package inmemdb provides in-memory implementations of the core repositories.
// It backs local development (engine "memory") and tests; selecting it in an
// app logs a warning, it is never a silent fallback.
package inmemdb

import (
	"sync"

	"github.com/lejardineden/backend/core/contact"
	"github.com/lejardineden/backend/core/enrollment"
	"github.com/lejardineden/backend/core/program"
	"github.com/lejardineden/backend/core/user"
)

type (
	DB struct {
		user       *userTable
		program    *programTable
		enrollment *enrollmentTable
		contact    *contactTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	programTable struct {
		sync.RWMutex
		table map[string]*program.Program
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*enrollment.Enrollment
	}

	contactTable struct {
		sync.RWMutex
		table map[string]*contact.Contact
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		program:    &programTable{table: make(map[string]*program.Program)},
		enrollment: &enrollmentTable{table: make(map[string]*enrollment.Enrollment)},
		contact:    &contactTable{table: make(map[string]*contact.Contact)},
	}
	return db, nil
}
