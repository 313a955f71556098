package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes groups the handlers mounted by RegisterRoutes.
type Routes struct {
	Upload   *UploadHandler
	Screen   *ScreenHandler
	Result   *ResultHandler
	Registry *prometheus.Registry
}

func RegisterRoutes(app *fiber.App, r Routes) {
	api := app.Group("/api/v1")

	api.Get("/health", HandleHealth)
	api.Get("/job-categories", HandleJobCategories)
	api.Post("/upload", r.Upload.HandleUpload)
	api.Post("/screen", r.Screen.HandleScreen)
	api.Get("/result/:id", r.Result.HandleGetResult)
	api.Get("/report/:id", r.Result.HandleGetReport)

	if r.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})))
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Kermit Tech CV Screener API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/health",
				"GET /api/v1/job-categories",
				"POST /api/v1/upload",
				"POST /api/v1/screen",
				"GET /api/v1/result/:id",
				"GET /api/v1/report/:id",
				"GET /metrics",
			},
		})
	})
}

// ErrorHandler renders unhandled errors as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
