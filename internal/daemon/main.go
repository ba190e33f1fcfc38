// Package daemon wires configuration, database, billing and the web service together.
package daemon

import (
	"fmt"
	"io"

	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/billing"
	"github.com/PrepDesk/PrepDesk/internal/billing/provider"
	"github.com/PrepDesk/PrepDesk/internal/config"
	"github.com/PrepDesk/PrepDesk/internal/db"
	"github.com/PrepDesk/PrepDesk/internal/db/dsn"
	"github.com/PrepDesk/PrepDesk/internal/web"
	"github.com/PrepDesk/PrepDesk/internal/web/session"
)

// SessionTable stores the login sessions on mysql and postgres.
const SessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	storage    session.Storage
	webService *web.Service
}

// Start serves http until SIGINT or SIGTERM and releases the connections afterwards.
func (d *Daemon) Start() error {
	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)
	log.Info().Str("addr", addr).Str("engine", d.cfg.DB.GormEngine).Msg("starting web service")

	go func() {
		_ = d.webService.Start(addr)
	}()

	d.webService.WaitShutdown()

	return d.Close()
}

// Close closes the session storage and the database pool.
func (d *Daemon) Close() error {
	if c, ok := d.storage.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close session storage")
		}
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// New opens and migrates the database, seeds it and builds the web service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrNilConfig
	}

	conn, err := Prepare(cfg)
	if err != nil {
		return nil, err
	}

	storage := NewSessionStorage(cfg)

	client := provider.NewRESTClient(cfg.Billing.APIURL, cfg.Billing.SecretKey, cfg.Billing.RequestTimeout)
	sync := billing.New(conn, client, billing.Config{
		SuccessURL:         cfg.Billing.SuccessURL,
		CancelURL:          cfg.Billing.CancelURL,
		WebhookSecret:      cfg.Billing.WebhookSecret,
		WebhookTolerance:   cfg.Billing.WebhookTolerance,
		OptimisticCheckout: cfg.Billing.OptimisticCheckout,
	})

	if !cfg.Billing.Enabled {
		log.Warn().Msg("billing is disabled: checkout and webhook routes are not mounted")
	}

	webService, err := web.New(cfg, conn, web.Options{
		Sessions: session.New(storage, cfg.Webserver.Session.ExpiryTime),
		Billing:  sync,
	})
	if err != nil {
		return nil, err
	}

	return &Daemon{cfg: cfg, db: conn, storage: storage, webService: webService}, nil
}

// Prepare opens the database, migrates the schema and seeds the catalog, the
// default roles and the first administrator.
func Prepare(cfg *config.Config) (*gorm.DB, error) {
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}

	if err = db.Migrate(conn); err != nil {
		return nil, err
	}

	if err = Seed(cfg, conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// NewSessionStorage returns the session storage for the configured engine.
// The sqlite engine keeps sessions in memory.
func NewSessionStorage(cfg *config.Config) session.Storage {
	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Postgres(cfg),
			Table:         SessionTable,
		})
	case config.EngineSQLite:
		log.Warn().Msg("sqlite engine: sessions are kept in memory and lost on restart")
		return session.NewMemoryStorage()
	default:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         SessionTable,
		})
	}
}
