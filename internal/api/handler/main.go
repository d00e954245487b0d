package handler

import (
	"net/http"

	"flipclub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
	AdminKey  string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🪙")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		bot, err := do.Invoke[*services.Bot](cfg.Container)
		if err != nil {
			return nil, err
		}
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)

		routesAPIv1Me := routesAPIv1.Group("/user/me")
		routesAPIv1Me.Use(Authn(bot))
		{
			m := groupUser{cfg.Container}
			routesAPIv1Me.GET("", m.Me)
		}

		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.
		routesAPIv1.GET("", Hello)

		routesAPIv1User := routesAPIv1.Group("/user")
		{
			u := groupUser{cfg.Container}
			routesAPIv1User.POST("/connect/ton", u.ConnectTonWallet)
		}

		f := groupFlip{cfg.Container}
		routesAPIv1.GET("/flip/status", f.Status)
		routesAPIv1.POST("/flip", f.Flip)

		p := groupPrize{cfg.Container}
		routesAPIv1.GET("/prize/:month", p.Show)
		routesAPIv1.GET("/prize/:month/stats", p.Stats)

		b := groupBalance{cfg.Container}
		routesAPIv1.GET("/balance", b.Show)
		routesAPIv1.POST("/balance/withdraw", b.Withdraw)
		routesAPIv1.GET("/balance/withdrawals", b.Withdrawals)

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		{
			routesAPIv1Admin.Use(AuthnAdmin(cfg.AdminKey))
			a := groupAdmin{cfg.Container}
			routesAPIv1Admin.POST("/bonus", a.GrantBonus)
			routesAPIv1Admin.POST("/prize", a.SetPrize)
			routesAPIv1Admin.POST("/prize/:month/activate", a.ActivatePrize)
			routesAPIv1Admin.POST("/prize/:month/cancel", a.CancelPrize)
			routesAPIv1Admin.POST("/prize/:month/draw", a.Draw)
			routesAPIv1Admin.POST("/withdrawal/:id", a.SettleWithdrawal)
			routesAPIv1Admin.GET("/audit/:month", a.Audit)
		}
	}

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}
