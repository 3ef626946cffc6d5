package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/usershub-go/usershub/internal/auth"
	"github.com/usershub-go/usershub/internal/config"
	"github.com/usershub-go/usershub/internal/db/dsn"
	"github.com/usershub-go/usershub/internal/db/models"
	"github.com/usershub-go/usershub/internal/permissions"
	"github.com/usershub-go/usershub/internal/usermanager"
	"github.com/usershub-go/usershub/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService web.Service
	addr       string
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(d.addr)
}

// New creates a new Daemon instance with the provided configuration. Any
// failure here is fatal: the service must never come up with a partial
// store or a half-configured provider set.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := gorm.Open(openDriver(cfg), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err = db.AutoMigrate(models.All()...); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	seed(cfg, db)

	reconciler := auth.NewReconciler(db, cfg.Auth.DefaultReconciliationGroupID)

	authManager := auth.NewManager(db)
	deps := auth.Deps{DB: db, Reconciler: reconciler}

	if err = authManager.InitProviders(providerDeclarations(cfg), deps); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize authentication providers")
	}

	resolver := permissions.NewResolver(db, permissions.NewCache())
	userManager := usermanager.NewManager(db, cfg.Security.Password, cfg.Auth.DefaultReconciliationGroupID)

	return &Daemon{
		webService: *web.New(cfg, db, authManager, resolver, userManager),
		addr:       fmt.Sprintf(":%d", cfg.Webserver.Port),
	}
}

// openDriver selects the gorm driver for the configured engine.
func openDriver(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case "postgres":
		return gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		return sqlite.Open(dsn.Create(cfg))
	default:
		return gormmysql.Open(dsn.Create(cfg))
	}
}

// providerDeclarations returns the configured provider declarations. An
// empty configuration still gets the local password provider so the
// service is never unreachable.
func providerDeclarations(cfg *config.Config) []map[string]any {
	if len(cfg.Auth.Providers) > 0 {
		return cfg.Auth.Providers
	}

	return []map[string]any{
		{"module": auth.KindLocal, "id_provider": "local"},
	}
}
