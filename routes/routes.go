package routes

import (
	"radio_fleet_tool/app"
	"radio_fleet_tool/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)

	// 单一鉴权入口；公开路径见 app.PublicPaths
	r.Use(app.AuthRequired(s.Auth))

	authCtl := controllers.NewAuthController(s)
	radioCtl := controllers.NewRadioController(s)
	ledgerCtl := controllers.NewLedgerController(s)

	api := r.Group("/api")
	{
		authGrp := api.Group("/auth")
		{
			authGrp.POST("/login", authCtl.Login)
			authGrp.POST("/logout", authCtl.Logout)
			authGrp.GET("/session", authCtl.SessionInfo)
			authGrp.PUT("/credentials", authCtl.ChangeCredentials)

			authGrp.GET("/oidc/login", authCtl.OIDCLogin)
			authGrp.GET("/oidc/callback", authCtl.OIDCCallback)
		}

		radios := api.Group("/radios")
		{
			radios.POST("", radioCtl.Create)
			radios.GET("", radioCtl.List)
			radios.GET("/:id", radioCtl.Get)
			radios.PATCH("/:id", radioCtl.Update)
			radios.PUT("/:id/status", radioCtl.UpdateStatus)
			radios.DELETE("/:id", radioCtl.Delete)
			radios.POST("/:id/borrow", radioCtl.Borrow)
		}

		loans := api.Group("/loans")
		{
			loans.POST("/:loanId/return", radioCtl.Return)
			loans.GET("/history", ledgerCtl.History)
			loans.GET("/borrowers", ledgerCtl.Suggestions)
		}

		api.GET("/dashboard", ledgerCtl.Dashboard)
	}
}
