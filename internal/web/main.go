// Package web exposes the thin HTTP surface: authentication flows,
// self-service account management and permission queries, all as JSON.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/usershub-go/usershub/internal/auth"
	"github.com/usershub-go/usershub/internal/config"
	"github.com/usershub-go/usershub/internal/permissions"
	"github.com/usershub-go/usershub/internal/usermanager"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authManager  *auth.Manager
	resolver     *permissions.Resolver
	userManager  *usermanager.Manager
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	go s.WaitShutdown()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: report not-alive first so the
	// LB drains this instance before the listener stops.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration and wires the
// routes.
func New(
	cfg *config.Config,
	db *gorm.DB,
	authManager *auth.Manager,
	resolver *permissions.Resolver,
	userManager *usermanager.Manager,
) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authManager: authManager,
		resolver:    resolver,
		userManager: userManager,
	}

	service.alive.Store(true)

	app.Get("/checkalive", func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get("/auth/providers", service.listProviders)
	app.Post("/auth/login/:provider", service.login)
	app.Get("/auth/authorize/:provider", service.authorize)
	app.Get("/auth/logout/:provider", service.logout)

	app.Post("/register", service.register)
	app.Get("/register/confirm/:token", service.confirmRegistration)
	app.Post("/password/forgot", service.forgotPassword)
	app.Post("/password/change", service.changePassword)

	authenticated := app.Group("", service.RequireUser)
	authenticated.Get("/me", service.currentUser)
	authenticated.Get("/permissions/cruved/:application", service.cruved)

	return service
}
