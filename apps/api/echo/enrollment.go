package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lejardineden/backend/core/enrollment"
	"github.com/lejardineden/backend/core/user"
)

type enrollmentApi struct {
	svc      *enrollment.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := enrollmentApi{
		svc:      deps.EnrollmentSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	eg := g.Group("/enrollments", jwt)

	eg.POST("", api.create)
	eg.GET("/me", api.mine)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update)
	eg.PUT("/:id/cancel", api.cancel)

	// admin endpoints
	adm := eg.Group("", adminMiddleware())
	adm.GET("", api.query)
	adm.GET("/stats", api.stats)
	adm.PUT("/:id/approve", api.approve)
	adm.PUT("/:id/reject", api.reject)
	adm.PUT("/:id/activate", api.activate)
	adm.PUT("/:id/complete", api.complete)
}

// Handlers

func (api *enrollmentApi) create(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Create(actor, data)
	if err != nil {
		return errors.Wrap(err, "creating enrollment")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) mine(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	page := new(Pagination)
	page.Bind(ctx)

	enrs, err := api.svc.Mine(actor, page.Page)
	if err != nil {
		return errors.Wrap(err, "querying own enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.svc.GetForActor(actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding enrollment by ID")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) update(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data enrollment.UpdateEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Update(ctx.Param("id"), actor, data)
	if err != nil {
		return errors.Wrap(err, "updating enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) cancel(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data NotesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NotesRequest")
	}

	enr, err := api.svc.Cancel(ctx.Param("id"), data.Notes, actor)
	if err != nil {
		return errors.Wrap(err, "cancelling enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) query(ctx echo.Context) error {
	filter := new(enrollment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Enrollment{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	page := new(Pagination)
	page.Bind(ctx)

	enrs, err := api.svc.Filter(*filter, ordering.Orderings, page.Page)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *enrollmentApi) approve(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.svc.Approve(ctx.Param("id"), actor)
	if err != nil {
		return errors.Wrap(err, "approving enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) reject(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data NotesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NotesRequest")
	}

	enr, err := api.svc.Reject(ctx.Param("id"), data.Notes, actor)
	if err != nil {
		return errors.Wrap(err, "rejecting enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) activate(ctx echo.Context) error {
	enr, err := api.svc.Activate(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "activating enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) complete(ctx echo.Context) error {
	enr, err := api.svc.Complete(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) stats(ctx echo.Context) error {
	stats, err := api.svc.GetStats()
	if err != nil {
		return errors.Wrap(err, "getting enrollment stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// NotesRequest carries an optional note along a lifecycle action.
type NotesRequest struct {
	Notes string `json:"notes"`
}
