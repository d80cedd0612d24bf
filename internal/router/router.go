package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/quranakh/quranakh-api/internal/config"
	"github.com/quranakh/quranakh-api/internal/handler"
	"github.com/quranakh/quranakh-api/internal/middleware"
	"github.com/quranakh/quranakh-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	RubricHandler     *handler.RubricHandler
	GradingHandler    *handler.GradingHandler
	GradebookHandler  *handler.GradebookHandler
	AttendanceHandler *handler.AttendanceHandler
	MasteryHandler    *handler.MasteryHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware,
			middleware.RateLimit("assignments", 60, time.Minute))
		deps.AssignmentHandler.Register(assignments)

		if deps.SubmissionHandler != nil {
			deps.SubmissionHandler.Register(assignments)
		}
		if deps.RubricHandler != nil {
			deps.RubricHandler.RegisterAssignmentRoutes(assignments)
		}
		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(assignments)
		}
	}

	if deps.RubricHandler != nil {
		rubrics := api.Group("/rubrics", jwtMiddleware)
		deps.RubricHandler.Register(rubrics)
	}

	students := api.Group("/students", jwtMiddleware)
	if deps.GradebookHandler != nil {
		deps.GradebookHandler.RegisterStudentRoutes(students)
	}
	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.RegisterStudentRoutes(students)

		attendance := api.Group("/attendance", jwtMiddleware)
		deps.AttendanceHandler.Register(attendance)
	}
	if deps.MasteryHandler != nil {
		deps.MasteryHandler.RegisterStudentRoutes(students)
	}

	if deps.GradebookHandler != nil {
		parents := api.Group("/parents", jwtMiddleware)
		deps.GradebookHandler.RegisterParentRoutes(parents)
	}
}
