package cmd

import (
	"context"
	"fmt"

	"github.com/rskv-p/mqttwarn/admin"
	"github.com/rskv-p/mqttwarn/bootstrap"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/lifecycle"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/sinks/wsfeed"
	"github.com/spf13/cobra"
)

var runConfigFlag string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run mqttwarn as a service (default mode)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService(runConfigFlag)
	},
}

func init() {
	runCmd.Flags().StringVar(&runConfigFlag, "config", "", "path to the INI configuration file")
}

func runService(configFlag string) error {
	path := config.ResolvePath(configFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	logger.Configure(cfg.Defaults.LogFormat, config.ResolveLogPath(cfg.Defaults.LogFile))
	log := logger.NewLogger(lifecycle.ScriptName, cfg.Defaults.LogLevel)

	feed := wsfeed.NewHub()
	reg, err := bootstrap.BuildRegistry(cfg, feed, log)
	if err != nil {
		return fmt.Errorf("build service registry: %w", err)
	}

	engine, err := lifecycle.New(cfg, reg, nil, log)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	if cfg.Defaults.AdminAddr != "" {
		adminSrv := admin.New(cfg.Defaults.AdminAddr, engine.Events(), feed, log)
		engine.SetAdmin(adminSrv)
	}

	return engine.Run(context.Background())
}
