package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Solvro/web-eventownik-v2-sub001/configs"
	"github.com/Solvro/web-eventownik-v2-sub001/configs/configslog"
	handlers "github.com/Solvro/web-eventownik-v2-sub001/handlers/public"
	"github.com/Solvro/web-eventownik-v2-sub001/routes"
	"github.com/Solvro/web-eventownik-v2-sub001/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"
)

func main() {
	cfg := configs.Get()
	configslog.Init(cfg.Env)
	defer configslog.Sync()

	engine := html.New("./views", ".html")

	app := fiber.New(fiber.Config{
		Views:     engine,
		AppName:   "eventownik-forms",
		BodyLimit: 12 << 20,
	})

	attachmentService := services.NewAttachmentService()
	blockService := services.NewBlockService()
	formService := services.NewFormService(attachmentService, blockService)

	formHandler := handlers.NewPublicFormHandler(formService, attachmentService, blockService)
	routes.SetupRoutes(app, formHandler)

	app.Static("/assets", "./public")

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		configslog.SLog.Info("shutting down")
		blockService.Close()
		attachmentService.Close()
		_ = app.Shutdown()
	}()

	configslog.SLog.Infof("listening on %s (backend: %s)", cfg.ListenAddr, cfg.APIBaseURL)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		configslog.Log.Fatal("server stopped", zap.Error(err))
	}
}
