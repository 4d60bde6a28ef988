package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lejardineden/backend/core/contact"
	"github.com/lejardineden/backend/core/enrollment"
	"github.com/lejardineden/backend/core/program"
	"github.com/lejardineden/backend/core/user"
)

type adminApi struct {
	userSvc       *user.Service
	programSvc    *program.Service
	enrollmentSvc *enrollment.Service
	contactSvc    *contact.Service
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{
		userSvc:       deps.UserSvc,
		programSvc:    deps.ProgramSvc,
		enrollmentSvc: deps.EnrollmentSvc,
		contactSvc:    deps.ContactSvc,
	}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/dashboard", api.dashboard)
	ag.GET("/users/stats", api.userStats)
}

// DashboardResponse aggregates the stats of every domain for the admin landing page.
type DashboardResponse struct {
	Users       user.Stats       `json:"users"`
	Programs    program.Stats    `json:"programs"`
	Enrollments enrollment.Stats `json:"enrollments"`
	Contacts    contact.Stats    `json:"contacts"`
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	var res DashboardResponse
	var err error

	if res.Users, err = api.userSvc.GetStats(); err != nil {
		return errors.Wrap(err, "getting user stats")
	}
	if res.Programs, err = api.programSvc.GetStats(); err != nil {
		return errors.Wrap(err, "getting program stats")
	}
	if res.Enrollments, err = api.enrollmentSvc.GetStats(); err != nil {
		return errors.Wrap(err, "getting enrollment stats")
	}
	if res.Contacts, err = api.contactSvc.GetStats(); err != nil {
		return errors.Wrap(err, "getting contact stats")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *adminApi) userStats(ctx echo.Context) error {
	stats, err := api.userSvc.GetStats()
	if err != nil {
		return errors.Wrap(err, "getting user stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
