package handler

import (
	"errors"
	"time"

	"flipclub/internal/models"
	"flipclub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAdmin struct {
	container *do.Injector
}

type bonusRequest struct {
	UserID    int64      `json:"user_id"`
	Units     int        `json:"units"`
	Reason    string     `json:"reason"`
	GrantedBy string     `json:"granted_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (gr *groupAdmin) GrantBonus(c echo.Context) error {
	ctx := c.Request().Context()

	var req bonusRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceEntitlement, err := do.Invoke[*services.ServiceEntitlement](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	grant, err := serviceEntitlement.Grant(ctx, req.UserID, req.Units, req.Reason, req.GrantedBy, req.ExpiresAt, time.Now().UTC())
	return httpx.RestAbort(c, grant, err)
}

type prizeRequest struct {
	Month       string    `json:"month"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	DrawingDate time.Time `json:"drawing_date"`
}

func (gr *groupAdmin) SetPrize(c echo.Context) error {
	ctx := c.Request().Context()

	var req prizeRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceDrawing, err := do.Invoke[*services.ServiceDrawing](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	prize, err := serviceDrawing.SetMonthlyPrize(ctx, &models.MonthlyPrize{
		Month:       req.Month,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		DrawingDate: req.DrawingDate,
	})
	return httpx.RestAbort(c, prize, err)
}

func (gr *groupAdmin) ActivatePrize(c echo.Context) error {
	ctx := c.Request().Context()

	serviceDrawing, err := do.Invoke[*services.ServiceDrawing](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	err = serviceDrawing.Activate(ctx, c.Param("month"))
	return httpx.RestAbort(c, nil, err)
}

func (gr *groupAdmin) CancelPrize(c echo.Context) error {
	ctx := c.Request().Context()

	serviceDrawing, err := do.Invoke[*services.ServiceDrawing](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	err = serviceDrawing.Cancel(ctx, c.Param("month"))
	return httpx.RestAbort(c, nil, err)
}

func (gr *groupAdmin) Draw(c echo.Context) error {
	ctx := c.Request().Context()

	serviceDrawing, err := do.Invoke[*services.ServiceDrawing](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result, err := serviceDrawing.Draw(ctx, c.Param("month"), time.Now())
	return httpx.RestAbort(c, result, err)
}

type settleRequest struct {
	Action    string `json:"action"`
	TxRef     string `json:"tx_ref"`
	SettledBy string `json:"settled_by"`
}

func (gr *groupAdmin) SettleWithdrawal(c echo.Context) error {
	ctx := c.Request().Context()

	var req settleRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceBalance, err := do.Invoke[*services.ServiceBalance](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	id := c.Param("id")
	switch req.Action {
	case "approve":
		err = serviceBalance.Approve(ctx, id)
	case "reject":
		err = serviceBalance.Reject(ctx, id, req.SettledBy)
	case "pay":
		err = serviceBalance.Pay(ctx, id, req.TxRef, req.SettledBy)
	default:
		err = errorx.Wrap(errors.New("action must be approve, reject or pay"), errorx.Validation)
	}

	return httpx.RestAbort(c, nil, err)
}

func (gr *groupAdmin) Audit(c echo.Context) error {
	ctx := c.Request().Context()

	serviceEntry, err := do.Invoke[*services.ServiceEntry](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result, auditErr := serviceEntry.Audit(ctx, c.Param("month"))
	if result != nil && len(result.Mismatches) > 0 {
		// surface the report even when the audit fails
		return httpx.RestAbort(c, result, nil)
	}

	return httpx.RestAbort(c, result, auditErr)
}
