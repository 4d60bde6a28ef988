package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	echoapi "github.com/lejardineden/backend/apps/api/echo"
	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/user"
	emailsvc "github.com/lejardineden/backend/services/email"
	testutil "github.com/lejardineden/backend/tests"
)

func Test_userApi_register(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, usrRepo, "Taken", "taken@test.cd", "", false, true)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name": reqMsg, "email": reqMsg, "password": reqMsg, "password_confirm": reqMsg,
			}),
		},
		{
			name: "password too short", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Lol", Email: "lol@test.cd", Password: "lol", PasswordConfirm: "lol",
			}),
			wantData: marchallObj(t, map[string]string{"password": "password must be at least 8 characters in length"}),
		},
		{
			name: "password confirm mismatch", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Lol", Email: "lol@test.cd", Password: "Strongpwd1!", PasswordConfirm: "lol",
			}),
			wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name: "email taken", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Imposter", Email: "taken@test.cd", Password: "Strongpwd1!", PasswordConfirm: "Strongpwd1!",
			}),
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "registered", wantCode: http.StatusCreated,
			body: marchallObj(t, user.NewUser{
				Name: "Grace Mwamba", Email: "grace@test.cd", Password: "Strongpwd1!", PasswordConfirm: "Strongpwd1!",
				Role: user.RoleAdmin, // must be ignored
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if usr.ID == "" {
					t.Error("failed! empty ID")
				}
				if usr.Role != user.RoleUser {
					t.Errorf("failed! role = %v; self registration must never be privileged", usr.Role)
				}
				if !usr.IsActive {
					t.Error("failed! new account is not active")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "Strongpwd1!", false, true)
	testutil.CreateUser(t, usrRepo, "Gone", "gone@test.cd", "Strongpwd1!", false, false)

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "nobody@test.cd", Password: "Strongpwd1!"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "grace@test.cd", Password: "nope"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "gone@test.cd", Password: "Strongpwd1!"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "logged in", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Email: "grace@test.cd", Password: "Strongpwd1!"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)

	path := func(search, ordering string, createdFrom time.Time, isActive *bool, role string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		if !createdFrom.IsZero() {
			v.Add("created_from", createdFrom.Format(time.RFC3339))
		}
		if role != "" {
			v.Add("role", role)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)
	t3 := now.Add(3 * time.Hour)

	grace := testutil.CreateUser(t, usrRepo, "Grace Mwamba", "grace@test.cd", "", false, true, t1)
	papy := testutil.CreateUser(t, usrRepo, "Papy Kabongo", "papy@test.cd", "", false, false, t2)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", true, true, t3)

	adminToken := getToken(t, admin)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, grace),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Get all", path: "/v1/users", token: adminToken, wantData: marchallList(t, admin, papy, grace)},
		// filtering
		{name: "search (unknown)", path: path("lol", "", time.Time{}, nil, ""), token: adminToken, wantData: empty},
		{name: "search=mwamba", path: path("mwamba", "", time.Time{}, nil, ""), token: adminToken, wantData: marchallList(t, grace)},
		{name: "role=admin", path: path("", "", time.Time{}, nil, "admin"), token: adminToken, wantData: marchallList(t, admin)},
		{name: "is_active=false", path: path("", "", time.Time{}, bPtr(false), ""), token: adminToken, wantData: marchallList(t, papy)},
		{name: "created_from", path: path("", "", t2.UTC(), nil, ""), token: adminToken, wantData: marchallList(t, admin, papy)},
		// ordering
		{name: "order by created_at", path: path("", "created_at", time.Time{}, nil, ""), token: adminToken, wantData: marchallList(t, grace, papy, admin)},
		// filtering & ordering
		{
			name: "filtering & ordering", path: path("", "created_at", time.Time{}, bPtr(true), ""),
			token: adminToken, wantData: marchallList(t, grace, admin),
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

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "Strongpwd1!", false, true)
	token := getToken(t, usr)

	t.Run("Auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/users/me")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Get self", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Update self", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Name: "Grace Mwamba"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/me", token, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var updated user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if updated.Name != "Grace Mwamba" {
			t.Errorf("failed! name = %q; want %q", updated.Name, "Grace Mwamba")
		}
	})

	t.Run("Role change forbidden", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		body := marchallObj(t, user.UpdateUser{Role: user.RoleAdmin})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/me", token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("IsActive change forbidden", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		active := false
		body := marchallObj(t, user.UpdateUser{IsActive: &active})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/me", token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_adminCrud(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "Strongpwd1!", false, true)
	promo := testutil.CreateUser(t, usrRepo, "Papy", "papy@test.cd", "Strongpwd1!", false, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "Strongpwd1!", true, true)
	otherAdmin := testutil.CreateUser(t, usrRepo, "Root", "root@test.cd", "Strongpwd1!", true, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "retrieve: admin required", method: http.MethodGet, path: "/v1/users/" + usr.ID, token: getToken(t, usr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "retrieve: not found", method: http.MethodGet, path: "/v1/users/lol", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "retrieve", method: http.MethodGet, path: "/v1/users/" + usr.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, usr),
		},
		{
			name: "deactivate: self not allowed", method: http.MethodPut, path: "/v1/users/" + admin.ID + "/deactivate", token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "deactivate: admin accounts locked", method: http.MethodPut, path: "/v1/users/" + otherAdmin.ID + "/deactivate", token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: user.ErrAdminLocked.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("update", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Role: user.RoleAdmin})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+promo.ID, adminToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var updated user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if updated.Role != user.RoleAdmin {
			t.Errorf("failed! role = %v; want %v", updated.Role, user.RoleAdmin)
		}
	})

	t.Run("deactivate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+usr.ID+"/deactivate", adminToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var updated user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if updated.IsActive {
			t.Error("failed! account still active")
		}
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "Strongpwd1!", false, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog@test.cd", "Strongpwd1!", false, false)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   usr.ID,
			Audience:  "LeJardinEden",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Name:         usr.Name,
		Email:        usr.Email,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, usr), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_resetPassword(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "Strongpwd1!", false, true)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: usr.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: usr.Name, Address: usr.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent {
					if len(emailsvc.SentMessages) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
					}
					if to := emailsvc.SentMessages[0].To[0]; to != extra.to {
						t.Errorf("failed! To = %v; want %v", to, extra.to)
					}
				} else if len(emailsvc.SentMessages) > 0 {
					t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
				}
			}
		})
	}
}

func Test_userApi_confirmPasswordReset(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Grace", "grace@test.cd", "Strongpwd1!", false, true)
	validUID := user.EncodeUID(usr)
	validToken := user.MakeResetToken(usr)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"token": reqMsg, "uid": reqMsg, "password": reqMsg, "password_confirm": reqMsg}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "???", Password: "Newpassword1!", PasswordConfirm: "Newpassword1!"}),
			wantData: marchallObj(t, map[string]string{"uid": "invalid value"}),
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "bG9s", Password: "Newpassword1!", PasswordConfirm: "Newpassword1!"}),
			wantData: marchallObj(t, map[string]string{"uid": "invalid value"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "Newpassword1!", PasswordConfirm: "Newpassword1!"}),
			wantData: marchallObj(t, map[string]string{"token": "invalid value"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "Newpassword1!", PasswordConfirm: "Newpassword1!"}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUserByID(usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, usr.PasswordHash) {
					t.Fatal("failed to update new password")
				}
			}
		})
	}
}
