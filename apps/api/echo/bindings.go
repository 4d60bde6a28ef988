package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lejardineden/backend/core"
)

var (
	orderingParam = "ordering"
	limitParam    = "limit"
	offsetParam   = "offset"
)

type Ordering struct {
	Orderings []core.Ordering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.Ordering{Field: field, Ascending: !descending})
	}
}

type Pagination struct {
	Page core.Pagination
}

func (p *Pagination) Bind(ctx echo.Context) {
	if limit, err := strconv.Atoi(ctx.QueryParam(limitParam)); err == nil {
		p.Page.Limit = limit
	}
	if offset, err := strconv.Atoi(ctx.QueryParam(offsetParam)); err == nil {
		p.Page.Offset = offset
	}
	p.Page.Clean()
}
