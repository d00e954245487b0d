package handler

import (
	"flipclub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupPrize struct {
	container *do.Injector
}

func (gr *groupPrize) Show(c echo.Context) error {
	ctx := c.Request().Context()

	serviceDrawing, err := do.Invoke[*services.ServiceDrawing](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	prize, err := serviceDrawing.GetPrize(ctx, c.Param("month"))
	return httpx.RestAbort(c, prize, err)
}

func (gr *groupPrize) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	serviceEntry, err := do.Invoke[*services.ServiceEntry](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	stats, err := serviceEntry.MonthStats(ctx, c.Param("month"))
	return httpx.RestAbort(c, stats, err)
}
