// Package web hosts the JSON api of the back office on fiber.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/billing"
	"github.com/PrepDesk/PrepDesk/internal/config"
	"github.com/PrepDesk/PrepDesk/internal/entitlement"
	accesslog "github.com/PrepDesk/PrepDesk/internal/logger/adapter/fiber"
	"github.com/PrepDesk/PrepDesk/internal/web/handler"
	"github.com/PrepDesk/PrepDesk/internal/web/handler/admin/permission"
	"github.com/PrepDesk/PrepDesk/internal/web/handler/admin/plan"
	"github.com/PrepDesk/PrepDesk/internal/web/handler/admin/role"
	"github.com/PrepDesk/PrepDesk/internal/web/handler/admin/subscription"
	"github.com/PrepDesk/PrepDesk/internal/web/handler/admin/user"
	billinghandler "github.com/PrepDesk/PrepDesk/internal/web/handler/billing"
	"github.com/PrepDesk/PrepDesk/internal/web/handler/dashboard"
	"github.com/PrepDesk/PrepDesk/internal/web/handler/login"
	"github.com/PrepDesk/PrepDesk/internal/web/handler/me"
	"github.com/PrepDesk/PrepDesk/internal/web/session"
)

const (
	// DefaultCheckAliveURI is used when no health check path is configured.
	DefaultCheckAliveURI = "/checkalive"
	// MetricsPath serves the prometheus metrics.
	MetricsPath = "/metrics"
)

// Options are the services built by the daemon.
type Options struct {
	Sessions *session.Store
	// Billing is always required; its routes are only mounted when billing is enabled.
	Billing *billing.Synchronizer
}

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *auth.Service
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and stops the web service gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// CheckAlive answers the load balancer health check.
func (s *Service) CheckAlive(c fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, opts Options) (*Service, error) {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	if opts.Sessions == nil || opts.Billing == nil {
		panic("sessions and billing cannot be nil")
	}

	checkAliveURI := cfg.Webserver.CheckAliveURI
	if checkAliveURI == "" {
		checkAliveURI = DefaultCheckAliveURI
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Immutable:      true,
			ErrorHandler:   ErrorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(accesslog.New(accesslog.Config{Config: cfg.Log, CheckAliveURI: checkAliveURI}))

	authService := auth.NewService(db)
	users := auth.NewLocalProvider(db)

	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authService: authService,
	}
	service.alive.Store(true)

	app.Get(checkAliveURI, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// attach the principal of the session cookie (after health and metrics)
	app.Use(SessionMiddleware(opts.Sessions, users))

	deps := &handler.Deps{
		Cfg:         cfg,
		DB:          db,
		Auth:        authService,
		Users:       users,
		Sessions:    opts.Sessions,
		Entitlement: entitlement.NewService(db),
		Billing:     opts.Billing,
	}

	// init handlers (they register their own routes with permission checks)
	handlers := []handler.Service{
		new(login.Service),
		new(me.Service),
		new(dashboard.Service),
		new(role.Service),
		new(user.Service),
		new(permission.Service),
		new(plan.Service),
		new(subscription.Service),
	}

	if cfg.Billing.Enabled {
		handlers = append(handlers, new(billinghandler.Service))
	}

	for _, h := range handlers {
		if err := h.Init(app, deps); err != nil {
			return nil, err
		}
	}

	return service, nil
}
