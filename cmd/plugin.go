package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/rskv-p/mqttwarn/bootstrap"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/sinks"
	"github.com/rskv-p/mqttwarn/sinks/wsfeed"
	"github.com/spf13/cobra"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Run a single configured service plugin standalone",
}

var (
	pluginRunName   string
	pluginRunData   string
	pluginRunConfig string
)

// pluginData is the --data flag's JSON shape: a single item delivered
// directly to the named service, bypassing the broker and dispatcher.
type pluginData struct {
	Target   string `json:"target"`
	Topic    string `json:"topic"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Image    string `json:"image"`
	Priority int    `json:"priority"`
}

var pluginRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Deliver one ad-hoc item through a configured service, without a broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlugin(pluginRunConfig, pluginRunName, pluginRunData)
	},
}

func init() {
	pluginRunCmd.Flags().StringVar(&pluginRunName, "plugin", "", "the [config:<name>] service to invoke")
	pluginRunCmd.Flags().StringVar(&pluginRunData, "data", "{}", "JSON item: target, topic, title, message, image, priority")
	pluginRunCmd.Flags().StringVar(&pluginRunConfig, "config", "", "path to the INI configuration file")
	pluginRunCmd.MarkFlagRequired("plugin")
	pluginCmd.AddCommand(pluginRunCmd)
}

func runPlugin(configFlag, pluginName, dataJSON string) error {
	path := config.ResolvePath(configFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	var data pluginData
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return fmt.Errorf("parse --data: %w", err)
	}

	log := logger.NewLogger("mqttwarn-plugin", cfg.Defaults.LogLevel)

	svc, ok := cfg.Services[pluginName]
	if !ok {
		return fmt.Errorf("no such service %q in %s", pluginName, path)
	}

	entry, err := bootstrap.Build(svc, wsfeed.NewHub(), log)
	if err != nil {
		return fmt.Errorf("build service %q: %w", pluginName, err)
	}

	item := &model.Item{
		Service:  pluginName,
		Target:   data.Target,
		Config:   entry.Config,
		Addrs:    sinks.Addrs(entry.Config, data.Target),
		Topic:    data.Topic,
		Title:    data.Title,
		Message:  data.Message,
		Image:    data.Image,
		Priority: data.Priority,
	}

	svcCtx := &model.ServiceCtx{Log: log}
	if !entry.Deliver(svcCtx, item) {
		return fmt.Errorf("service %q reported delivery failure", pluginName)
	}
	return nil
}
