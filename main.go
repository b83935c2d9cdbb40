package main

import (
	"context"
	"log"
	"os"

	"radio_fleet_tool/app"
	"radio_fleet_tool/config"
	"radio_fleet_tool/db"
	"radio_fleet_tool/routes"
)

func main() {
	config.LoadEnv()

	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application)

	app.BootstrapFirstAdmin(context.Background(), application.Config, db.NewRepo(application.DB))

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
