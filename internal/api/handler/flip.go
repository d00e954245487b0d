package handler

import (
	"time"

	"flipclub/internal/interfaces"
	"flipclub/internal/models"
	"flipclub/internal/services"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupFlip struct {
	container *do.Injector
}

type flipRequest struct {
	Side models.FlipSide `json:"side"`
}

func (gr *groupFlip) Status(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceFlip, err := do.Invoke[*services.ServiceFlip](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	status, err := serviceFlip.Status(ctx, user.ID, time.Now())
	return httpx.RestAbort(c, status, err)
}

func (gr *groupFlip) Flip(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	limiter, err := do.Invoke[interfaces.Limiter](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	err = limiter.Allow(ctx, services.LimitKeyUserFlip(user.ID), redis_rate.PerMinute(services.FLIP_RATE_LIMIT_PER_MINUTE))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req flipRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceFlip, err := do.Invoke[*services.ServiceFlip](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	outcome, err := serviceFlip.Resolve(ctx, user.ID, req.Side, time.Now())
	return httpx.RestAbort(c, outcome, err)
}
