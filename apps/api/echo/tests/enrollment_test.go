package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	echoapi "github.com/lejardineden/backend/apps/api/echo"
	"github.com/lejardineden/backend/core/enrollment"
	"github.com/lejardineden/backend/core/program"
	emailsvc "github.com/lejardineden/backend/services/email"
	testutil "github.com/lejardineden/backend/tests"
)

func newEnrollmentBody(t *testing.T, programID string) []byte {
	now := time.Now().UTC()
	return marchallObj(t, enrollment.NewEnrollment{
		ProgramID:        programID,
		ChildName:        "Liam Mwamba",
		ChildAge:         4,
		ChildDateOfBirth: now.AddDate(-4, 0, 0),
		ParentName:       "Grace Mwamba",
		ParentEmail:      "grace@test.cd",
		ParentPhone:      "+243 999 000 111",
		StartDate:        now.AddDate(0, 1, 0),
	})
}

func Test_enrollmentApi_create(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "", false, true)
	prog := testutil.CreateProgram(t, progRepo, "Petite Section", 20, true)
	retired := testutil.CreateProgram(t, progRepo, "Ancienne Section", 10, false)
	token := getToken(t, usr)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "program not found", token: token, body: newEnrollmentBody(t, "lol"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: program.ErrNotFound.Error()}),
		},
		{
			name: "program not available", token: token, body: newEnrollmentBody(t, retired.ID),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: program.ErrNotAvailable.Error()}),
		},
		{name: "created", token: token, body: newEnrollmentBody(t, prog.ID), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/enrollments"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var enr enrollment.Enrollment
				if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if enr.Status != enrollment.StatusPending {
					t.Errorf("failed! status = %v; want %v", enr.Status, enrollment.StatusPending)
				}
				if enr.UserID != usr.ID {
					t.Errorf("failed! userID = %v; want %v", enr.UserID, usr.ID)
				}
				// submission is acknowledged by email, no seat is taken yet
				if len(emailsvc.SentMessages) != 1 {
					t.Errorf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
				}
				refreshed, err := progRepo.GetProgramByID(prog.ID)
				if err != nil {
					t.Fatalf("GetProgramByID() failed, %v", err)
				}
				if refreshed.CurrentEnrollment != 0 {
					t.Errorf("failed! currentEnrollment = %d; want 0", refreshed.CurrentEnrollment)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_enrollmentApi_mineAndRetrieve(t *testing.T) {
	app := setup(t)
	owner := testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "", false, true)
	stranger := testutil.CreateUser(t, usrRepo, "Papy", "papy@test.cd", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", true, true)
	prog := testutil.CreateProgram(t, progRepo, "Petite Section", 20, true)

	now := time.Now()
	mine1 := testutil.CreateEnrollment(t, enrRepo, owner.ID, prog.ID, enrollment.StatusPending, now.Add(1*time.Hour))
	mine2 := testutil.CreateEnrollment(t, enrRepo, owner.ID, prog.ID, enrollment.StatusApproved, now.Add(2*time.Hour))
	other := testutil.CreateEnrollment(t, enrRepo, stranger.ID, prog.ID, enrollment.StatusPending, now)

	tests := []httpTest{
		{name: "Mine: auth required", path: "/v1/enrollments/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Mine", path: "/v1/enrollments/me", token: getToken(t, owner), wantData: marchallList(t, mine2, mine1)},
		{name: "Retrieve own", path: "/v1/enrollments/" + mine1.ID, token: getToken(t, owner), wantData: marchallObj(t, mine1)},
		{
			name: "Retrieve not owned", path: "/v1/enrollments/" + other.ID, token: getToken(t, owner),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Retrieve as admin", path: "/v1/enrollments/" + other.ID, token: getToken(t, admin), wantData: marchallObj(t, other)},
		{
			name: "Retrieve not found", path: "/v1/enrollments/lol", token: getToken(t, owner),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: enrollment.ErrNotFound.Error()}),
		},
		{
			name: "Query: admin required", path: "/v1/enrollments", token: getToken(t, owner),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Query", path: "/v1/enrollments", token: getToken(t, admin), wantData: marchallList(t, mine2, mine1, other)},
		{
			name: "Query by status", path: "/v1/enrollments?status=approved", token: getToken(t, admin),
			wantData: marchallList(t, mine2),
		},
		{
			name: "Stats", path: "/v1/enrollments/stats", token: getToken(t, admin),
			wantData: marchallObj(t, enrollment.Stats{Total: 3, Pending: 2, Approved: 1}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_enrollmentApi_update(t *testing.T) {
	app := setup(t)
	owner := testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "", false, true)
	stranger := testutil.CreateUser(t, usrRepo, "Papy", "papy@test.cd", "", false, true)
	prog := testutil.CreateProgram(t, progRepo, "Petite Section", 20, true)
	enr := testutil.CreateEnrollment(t, enrRepo, owner.ID, prog.ID, enrollment.StatusPending)

	t.Run("not owned", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		body := marchallObj(t, enrollment.UpdateEnrollment{ChildName: "Eli"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/enrollments/"+enr.ID, getToken(t, stranger), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("owner updates, notes dropped", func(t *testing.T) {
		sneaky := "sneaky"
		body := marchallObj(t, enrollment.UpdateEnrollment{ChildName: "Eli Mwamba", Notes: &sneaky})
		req, rec := newAuthRequest(http.MethodPut, "/v1/enrollments/"+enr.ID, getToken(t, owner), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var updated enrollment.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if updated.ChildName != "Eli Mwamba" {
			t.Errorf("failed! childName = %q", updated.ChildName)
		}
		if updated.Notes != "" {
			t.Errorf("failed! notes = %q; staff notes are not parent-editable", updated.Notes)
		}
	})

	t.Run("owner cancels", func(t *testing.T) {
		body := marchallObj(t, echoapi.NotesRequest{Notes: "changed our plans"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/enrollments/"+enr.ID+"/cancel", getToken(t, owner), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var cancelled enrollment.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &cancelled); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if cancelled.Status != enrollment.StatusCancelled {
			t.Errorf("failed! status = %v; want %v", cancelled.Status, enrollment.StatusCancelled)
		}
	})

	t.Run("owner locked after cancellation", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: enrollment.ErrInvalidState.Error()})}
		body := marchallObj(t, enrollment.UpdateEnrollment{ChildName: "Eli"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/enrollments/"+enr.ID, getToken(t, owner), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_enrollmentApi_lifecycle(t *testing.T) {
	app := setup(t)
	owner := testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", true, true)
	prog := testutil.CreateProgram(t, progRepo, "Petite Section", 1, true) // single seat
	enr := testutil.CreateEnrollment(t, enrRepo, owner.ID, prog.ID, enrollment.StatusPending)
	rival := testutil.CreateEnrollment(t, enrRepo, owner.ID, prog.ID, enrollment.StatusPending)
	adminToken := getToken(t, admin)

	seatCount := func(t *testing.T) int {
		t.Helper()
		refreshed, err := progRepo.GetProgramByID(prog.ID)
		if err != nil {
			t.Fatalf("GetProgramByID() failed, %v", err)
		}
		return refreshed.CurrentEnrollment
	}
	do := func(t *testing.T, path string, body []byte) (*json.Decoder, int) {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPut, path, adminToken, body)
		app.ServeHTTP(rec, req)
		return json.NewDecoder(rec.Body), rec.Code
	}

	t.Run("admin required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodPut, "/v1/enrollments/"+enr.ID+"/approve", getToken(t, owner))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("approve claims the seat", func(t *testing.T) {
		dec, code := do(t, "/v1/enrollments/"+enr.ID+"/approve", nil)
		if code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", code, http.StatusOK)
		}
		var approved enrollment.Enrollment
		if err := dec.Decode(&approved); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if approved.Status != enrollment.StatusApproved {
			t.Errorf("failed! status = %v; want %v", approved.Status, enrollment.StatusApproved)
		}
		if approved.ApprovedBy != admin.ID {
			t.Errorf("failed! approvedBy = %v; want %v", approved.ApprovedBy, admin.ID)
		}
		if n := seatCount(t); n != 1 {
			t.Errorf("failed! currentEnrollment = %d; want 1", n)
		}
	})

	t.Run("approve on a full program conflicts", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: enrollment.ErrCapacityExceeded.Error()})}
		req, rec := newAuthRequest(http.MethodPut, "/v1/enrollments/"+rival.ID+"/approve", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		// the rival stays pending, the seat count is untouched
		refreshed, err := enrRepo.GetEnrollmentByID(rival.ID)
		if err != nil {
			t.Fatalf("GetEnrollmentByID() failed, %v", err)
		}
		if refreshed.Status != enrollment.StatusPending {
			t.Errorf("failed! status = %v; want %v", refreshed.Status, enrollment.StatusPending)
		}
		if n := seatCount(t); n != 1 {
			t.Errorf("failed! currentEnrollment = %d; want 1", n)
		}
	})

	t.Run("activate", func(t *testing.T) {
		dec, code := do(t, "/v1/enrollments/"+enr.ID+"/activate", nil)
		if code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", code, http.StatusOK)
		}
		var active enrollment.Enrollment
		if err := dec.Decode(&active); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if active.Status != enrollment.StatusActive {
			t.Errorf("failed! status = %v; want %v", active.Status, enrollment.StatusActive)
		}
		if n := seatCount(t); n != 1 {
			t.Errorf("failed! currentEnrollment = %d; want 1", n)
		}
	})

	t.Run("complete keeps the seat", func(t *testing.T) {
		dec, code := do(t, "/v1/enrollments/"+enr.ID+"/complete", nil)
		if code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", code, http.StatusOK)
		}
		var completed enrollment.Enrollment
		if err := dec.Decode(&completed); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if completed.Status != enrollment.StatusCompleted {
			t.Errorf("failed! status = %v; want %v", completed.Status, enrollment.StatusCompleted)
		}
		if completed.EndDate == nil {
			t.Error("failed! endDate not set")
		}
		if n := seatCount(t); n != 1 {
			t.Errorf("failed! currentEnrollment = %d; want 1", n)
		}
	})

	t.Run("reject with notes", func(t *testing.T) {
		body := marchallObj(t, echoapi.NotesRequest{Notes: "dossier incomplet"})
		dec, code := do(t, "/v1/enrollments/"+rival.ID+"/reject", body)
		if code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", code, http.StatusOK)
		}
		var rejected enrollment.Enrollment
		if err := dec.Decode(&rejected); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if rejected.Status != enrollment.StatusRejected {
			t.Errorf("failed! status = %v; want %v", rejected.Status, enrollment.StatusRejected)
		}
		if rejected.Notes != "dossier incomplet" {
			t.Errorf("failed! notes = %q", rejected.Notes)
		}
	})

	t.Run("terminal statuses stay put", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: enrollment.ErrInvalidState.Error()})}
		req, rec := newAuthRequest(http.MethodPut, "/v1/enrollments/"+enr.ID+"/approve", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
