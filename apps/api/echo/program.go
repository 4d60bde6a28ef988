package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lejardineden/backend/core/program"
)

type programApi struct {
	svc      *program.Service
	validate *validator.Validate
}

func registerProgramAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := programApi{
		svc:      deps.ProgramSvc,
		validate: deps.Validate,
	}

	pg := g.Group("/programs")

	// public endpoints: the website lists programs without auth
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.GET("/age-range/:range", api.byAgeRange)

	// admin endpoints
	adm := pg.Group("", jwt, adminMiddleware())
	adm.POST("", api.create)
	adm.GET("/all", api.queryAll)
	adm.GET("/stats", api.stats)
	adm.PUT("/:id", api.update)
	adm.PUT("/:id/deactivate", api.deactivate)
}

// Handlers

func (api *programApi) query(ctx echo.Context) error {
	progs, err := api.svc.QueryAll(false)
	if err != nil {
		return errors.Wrap(err, "querying programs")
	}
	if progs == nil {
		progs = []program.Program{}
	}
	return ctx.JSON(http.StatusOK, progs)
}

func (api *programApi) queryAll(ctx echo.Context) error {
	progs, err := api.svc.QueryAll(true)
	if err != nil {
		return errors.Wrap(err, "querying all programs")
	}
	if progs == nil {
		progs = []program.Program{}
	}
	return ctx.JSON(http.StatusOK, progs)
}

func (api *programApi) retrieve(ctx echo.Context) error {
	prog, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == program.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding program by ID")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *programApi) byAgeRange(ctx echo.Context) error {
	progs, err := api.svc.ByAgeRange(ctx.Param("range"))
	if err != nil {
		return errors.Wrap(err, "querying programs by age range")
	}
	if progs == nil {
		progs = []program.Program{}
	}
	return ctx.JSON(http.StatusOK, progs)
}

func (api *programApi) create(ctx echo.Context) error {
	var data program.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prog, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusCreated, prog)
}

func (api *programApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == program.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding program by ID")
	}

	var data program.UpdateProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgram")
	}
	if err := data.Validate(api.validate, orig); err != nil {
		return err
	}

	prog, err := api.svc.Update(orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating program")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *programApi) deactivate(ctx echo.Context) error {
	prog, err := api.svc.Deactivate(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deactivating program")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *programApi) stats(ctx echo.Context) error {
	stats, err := api.svc.GetStats()
	if err != nil {
		return errors.Wrap(err, "getting program stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
