// Package main provides the Fluxion API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/fluxion-ai/fluxion/pkg/eventbus"
	"github.com/fluxion-ai/fluxion/pkg/persistence"
	"github.com/fluxion-ai/fluxion/pkg/registry"
	"github.com/fluxion-ai/fluxion/pkg/services"
	"github.com/fluxion-ai/fluxion/pkg/web"
	"github.com/fluxion-ai/fluxion/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger       *slog.Logger
	persistence  persistence.Persistence
	registry     *registry.Registry
	eventBus     eventbus.EventBus
	validate     *validator.Validate
	executorOpts []workflow.Option
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	executorOpts ...workflow.Option,
) *API {
	return &API{
		logger:       logger,
		persistence:  persistence,
		registry:     registry,
		eventBus:     eventBus,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		executorOpts: executorOpts,
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, nil)
	opts := append([]workflow.Option{workflow.WithEventBus(a.eventBus)}, a.executorOpts...)
	executor := workflow.NewExecutor(a.logger, a.persistence, a.registry, opts...)

	handlers := web.NewAPIHandlers(workflowService, executor, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Fluxion API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Patch("/:id/status", handlers.UpdateWorkflowStatus)
	w.Put("/:id/agent", handlers.BindAgent)
	w.Delete("/:id/agent", handlers.UnbindAgent)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Get("/:id/instances", handlers.GetWorkflowInstances)

	i := app.Group("/instances")
	i.Get("/:id", handlers.GetWorkflowInstance)
	i.Post("/:id/suspend", handlers.SuspendWorkflowInstance)
	i.Post("/:id/resume", handlers.ResumeWorkflowInstance)
	i.Post("/:id/cancel", handlers.CancelWorkflowInstance)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
