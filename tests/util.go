package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/contact"
	"github.com/lejardineden/backend/core/enrollment"
	"github.com/lejardineden/backend/core/program"
	"github.com/lejardineden/backend/core/user"
)

// testLogger writes log calls to the test output.
type testLogger struct {
	t *testing.T
}

var _ core.Logger = (*testLogger)(nil)

func NewLogger(t *testing.T) core.Logger {
	return &testLogger{t: t}
}

func (l *testLogger) log(level, msg string, args []interface{}) {
	l.t.Helper()
	l.t.Logf("%s: %s %v", level, msg, args)
}

func (l *testLogger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *testLogger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *testLogger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *testLogger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *testLogger) Fatal(msg string, args ...interface{}) {
	l.t.Fatal(fmt.Sprintf("FATAL: %s %v", msg, args))
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	isAdmin, isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	role := user.RoleUser
	if isAdmin {
		role = user.RoleAdmin
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateProgram(
	t *testing.T,
	repo program.Repository,
	title string,
	capacity int,
	isActive bool,
	createdAt ...time.Time,
) program.Program {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	prog := program.Program{
		Title:     title,
		AgeRange:  "3-5",
		Capacity:  capacity,
		Price:     150,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	prog, err := repo.CreateProgram(prog)
	if err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}
	return prog
}

func CreateEnrollment(
	t *testing.T,
	repo enrollment.Repository,
	userID, programID string,
	status enrollment.Status,
	createdAt ...time.Time,
) enrollment.Enrollment {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	enr := enrollment.Enrollment{
		UserID:           userID,
		ProgramID:        programID,
		ChildName:        "Liam Mwamba",
		ChildAge:         4,
		ChildDateOfBirth: tstamp.AddDate(-4, 0, 0),
		ParentName:       "Grace Mwamba",
		ParentEmail:      "grace@test.cd",
		ParentPhone:      "+243 999 000 111",
		Status:           status,
		StartDate:        tstamp.AddDate(0, 1, 0),
		CreatedAt:        tstamp,
		UpdatedAt:        tstamp,
	}
	enr, err := repo.CreateEnrollment(enr)
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}

func CreateContact(
	t *testing.T,
	repo contact.Repository,
	name, email, subject string,
	status contact.Status,
	createdAt ...time.Time,
) contact.Contact {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	cnt := contact.Contact{
		Name:      name,
		Email:     email,
		Subject:   subject,
		Message:   "Bonjour, je voudrais des informations.",
		Priority:  contact.PriorityNormal,
		Status:    status,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	cnt, err := repo.CreateContact(cnt)
	if err != nil {
		t.Fatalf("CreateContact() failed: %v", err)
	}
	return cnt
}
