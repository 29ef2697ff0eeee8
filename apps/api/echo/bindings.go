package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/platedhq/plated/core"
)

var pageParam = "page"

// Pagination binds the `page` query parameter; the page size is fixed.
type Pagination struct {
	core.Pagination
}

func (p *Pagination) Bind(ctx echo.Context, pageSize int) {
	p.Page = 1
	p.PageSize = pageSize

	val := ctx.QueryParam(pageParam)
	if val == "" {
		return
	}
	if page, err := strconv.Atoi(val); err == nil && page > 0 {
		p.Page = page
	}
}
