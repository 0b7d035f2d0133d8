// Package server assembles the HTTP application: middleware chain,
// routes and lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joanvup/rifa-app/config"
	"github.com/joanvup/rifa-app/events/kafka"
	"github.com/joanvup/rifa-app/middleware"
	"github.com/joanvup/rifa-app/storage"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// App is the raffle service application.
type App struct {
	engine     *gin.Engine
	config     *config.Config
	logger     zerolog.Logger
	service    *RaffleService
	handler    *RaffleHandler
	httpServer *http.Server
	onShutdown []func()
}

// Options holds the dependencies the application is built from. Reports
// and Emitter are optional.
type Options struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   storage.Store
	Reports SettlementCache
	Emitter *kafka.Emitter
}

// New wires the application. Amounts marshal as JSON numbers so API
// clients receive 2500 rather than "2500".
func New(opts Options) *App {
	decimal.MarshalJSONWithoutQuotes = true

	if opts.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{
		engine:  gin.New(),
		config:  opts.Config,
		logger:  opts.Logger,
		service: NewRaffleService(opts.Store, opts.Reports, opts.Emitter, opts.Logger),
	}
	app.handler = NewRaffleHandler(app.service, opts.Logger)

	return app
}

// UseCommonMiddlewares installs the standard middleware chain. Recovery
// runs first so later middleware panics are still caught.
func (a *App) UseCommonMiddlewares() {
	a.engine.Use(middleware.Recovery(a.logger))
	a.engine.Use(middleware.TraceID())
	a.engine.Use(middleware.Logging(a.logger))
	a.engine.Use(middleware.Timeout(a.config.Server.RequestTimeout))

	if a.config.Server.EnableCORS {
		a.engine.Use(middleware.CORS())
	}
}

// RegisterRoutes installs the raffle API routes and the health check.
func (a *App) RegisterRoutes() {
	a.engine.GET("/health", a.healthCheck)
	a.engine.GET("/api/health", a.healthCheck)

	api := a.engine.Group("/api")
	{
		books := api.Group("/books")
		{
			books.POST("", a.handler.CreateBook)
			books.GET("", a.handler.ListBooks)
			books.GET("/:id", a.handler.GetBook)
			books.POST("/:id/draws", a.handler.ConductDraw)
			books.GET("/:id/draws", a.handler.ListDraws)
		}

		api.POST("/tickets/:id/action", a.handler.ApplyTicketAction)

		api.GET("/configuration", a.handler.GetSettings)
		api.PUT("/configuration", a.handler.UpdateSettings)

		api.GET("/draws/:id/settlement", a.handler.SettleDraw)
	}

	a.logger.Info().Msg("Raffle API routes registered")
}

func (a *App) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now(),
		"environment": a.config.Environment,
	})
}

// Service returns the raffle service, used by tests and custom wiring.
func (a *App) Service() *RaffleService {
	return a.service
}

// Router returns the gin engine for custom route registration.
func (a *App) Router() *gin.Engine {
	return a.engine
}

// OnShutdown registers a function called during graceful shutdown.
func (a *App) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	return a.waitForShutdown()
}

func (a *App) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, fn := range a.onShutdown {
		fn()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Error during server shutdown")
		return err
	}

	a.logger.Info().Msg("Server shutdown complete")
	return nil
}
