// Package db is the `sinks/db` plugin (SPEC_FULL.md §10.4): it persists
// each delivered message as a row via gorm, against either a postgres
// or sqlite backend chosen by the service's `driver` option.
package db

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/sinks"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Driver names accepted by the service's `driver` option.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options is the `[config:<name>]` section's sink-specific settings.
type Options struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Message is the row persisted for every delivered item.
type Message struct {
	ID        uint `gorm:"primarykey"`
	Service   string
	Target    string
	Section   string
	Topic     string
	Title     string
	Body      string
	CreatedAt time.Time
}

func (Message) TableName() string { return "mqttwarn_messages" }

type sink struct {
	db *gorm.DB
}

// Build compiles svc into a registry.Entry, opening the connection and
// migrating the Message table. The target's addrs is ignored: every
// target of a db service writes to the same table.
func Build(svc *config.ServiceConfig, log logger.ILogger) (*registry.Entry, error) {
	var opts Options
	if err := mapstructure.Decode(svc.Options, &opts); err != nil {
		return nil, fmt.Errorf("sinks/db %s: decode options: %w", svc.Name, err)
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	case DriverSQLite, "":
		dsn := opts.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("sinks/db %s: unsupported driver %q", svc.Name, opts.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("sinks/db %s: open: %w", svc.Name, err)
	}
	if err := conn.AutoMigrate(&Message{}); err != nil {
		return nil, fmt.Errorf("sinks/db %s: migrate: %w", svc.Name, err)
	}

	s := &sink{db: conn}

	return &registry.Entry{
		Name:       svc.Name,
		Module:     "db",
		Deliver:    s.deliver,
		Closer:     s,
		TargetKeys: sinks.TargetKeySet(svc),
		Config:     sinks.BuildConfig(svc),
		Log:        log,
	}, nil
}

func (s *sink) deliver(ctx *model.ServiceCtx, item *model.Item) bool {
	row := Message{
		Service:   item.Service,
		Target:    item.Target,
		Section:   item.Section,
		Topic:     item.Topic,
		Title:     item.Title,
		Body:      item.Message,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		ctx.Log.Error("db sink: insert: %v", err)
		return false
	}
	return true
}

// Close releases the underlying *sql.DB connection.
func (s *sink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
