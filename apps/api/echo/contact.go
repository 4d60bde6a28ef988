package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lejardineden/backend/core/contact"
	"github.com/lejardineden/backend/core/user"
)

type contactApi struct {
	svc      *contact.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerContactAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := contactApi{
		svc:      deps.ContactSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/contact")

	// public endpoint: the website contact form posts without auth
	cg.POST("", api.submit)

	// admin endpoints
	adm := cg.Group("", jwt, adminMiddleware())
	adm.GET("", api.query)
	adm.GET("/stats", api.stats)
	adm.GET("/:id", api.retrieve)
	adm.PUT("/:id", api.update)
	adm.PUT("/:id/read", api.markAsRead)
	adm.PUT("/:id/reply", api.reply)
	adm.PUT("/:id/close", api.close)
	adm.DELETE("/:id", api.destroy)
}

// Handlers

func (api *contactApi) submit(ctx echo.Context) error {
	var data contact.NewContact
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContact")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cnt, err := api.svc.Submit(data)
	if err != nil {
		return errors.Wrap(err, "submitting contact message")
	}
	return ctx.JSON(http.StatusCreated, cnt)
}

func (api *contactApi) query(ctx echo.Context) error {
	filter := new(contact.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []contact.Contact{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	page := new(Pagination)
	page.Bind(ctx)

	cnts, err := api.svc.Filter(*filter, ordering.Orderings, page.Page)
	if err != nil {
		return errors.Wrap(err, "querying contact messages")
	}
	if cnts == nil {
		cnts = []contact.Contact{}
	}
	return ctx.JSON(http.StatusOK, cnts)
}

func (api *contactApi) retrieve(ctx echo.Context) error {
	cnt, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == contact.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding contact message by ID")
	}
	return ctx.JSON(http.StatusOK, cnt)
}

func (api *contactApi) update(ctx echo.Context) error {
	var data contact.UpdateContact
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateContact")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cnt, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating contact message")
	}
	return ctx.JSON(http.StatusOK, cnt)
}

func (api *contactApi) markAsRead(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cnt, err := api.svc.MarkAsRead(ctx.Param("id"), actor.ID)
	if err != nil {
		return errors.Wrap(err, "marking contact message as read")
	}
	return ctx.JSON(http.StatusOK, cnt)
}

func (api *contactApi) reply(ctx echo.Context) error {
	var data contact.ReplyContact
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReplyContact")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cnt, err := api.svc.Reply(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "replying to contact message")
	}
	return ctx.JSON(http.StatusOK, cnt)
}

func (api *contactApi) close(ctx echo.Context) error {
	cnt, err := api.svc.Close(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "closing contact message")
	}
	return ctx.JSON(http.StatusOK, cnt)
}

func (api *contactApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting contact message")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contactApi) stats(ctx echo.Context) error {
	stats, err := api.svc.GetStats()
	if err != nil {
		return errors.Wrap(err, "getting contact stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
