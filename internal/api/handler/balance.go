package handler

import (
	"time"

	"flipclub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupBalance struct {
	container *do.Injector
}

func (gr *groupBalance) Show(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceBalance, err := do.Invoke[*services.ServiceBalance](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	view, err := serviceBalance.GetBalance(ctx, user.ID)
	return httpx.RestAbort(c, view, err)
}

func (gr *groupBalance) Withdraw(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceBalance, err := do.Invoke[*services.ServiceBalance](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	request, err := serviceBalance.RequestWithdrawal(ctx, user.ID, time.Now())
	return httpx.RestAbort(c, request, err)
}

func (gr *groupBalance) Withdrawals(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceBalance, err := do.Invoke[*services.ServiceBalance](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	requests, err := serviceBalance.ListWithdrawals(ctx, user.ID)
	return httpx.RestAbort(c, requests, err)
}
