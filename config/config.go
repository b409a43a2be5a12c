// Package config loads the INI-dialect configuration file described in
// SPEC_FULL.md §6 into the typed Config value the core consumes. It is a
// peripheral collaborator per spec.md §1 ("the core accepts an already-
// parsed configuration value"); it does not reach into the dispatch
// engine's internals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	EnvConfigPath = "MQTTWARNINI"
	EnvLogPath    = "MQTTWARNLOG"

	DefaultConfigPath = "/etc/mqttwarn/mqttwarn.ini"
)

// Defaults mirrors the [defaults] section of SPEC_FULL.md §6.
type Defaults struct {
	Hostname     string
	Port         int
	Username     string
	Password     string
	ClientID     string
	LWT          string
	SkipRetained bool
	CleanSession bool
	Protocol     int
	Transport    string
	Directory    string
	LogFile      string
	LogFormat    string
	LogLevel     string
	NumWorkers   int
	Launch       []string
	Functions    string
	AdminAddr    string

	TLS         bool
	CACerts     string
	CertFile    string
	KeyFile     string
	TLSVersion  string
	TLSInsecure bool
}

// ServiceConfig is one [config:<name>] section.
type ServiceConfig struct {
	Name    string
	Module  string
	Targets map[string]any
	Options map[string]any
}

// HandlerConfig is one handler section (or the synthesized failover
// pseudo-handler).
type HandlerConfig struct {
	Section  string
	Topic    string
	QoS      int
	Targets  any
	Filter   string
	DataMap  string
	AllData  string
	Format   string
	Title    string
	Image    string
	Priority string
	Template string
}

// CronConfig is one [cron:<name>] section.
type CronConfig struct {
	Name     string
	Target   string
	Interval float64
	Now      bool
}

// Config is the fully-parsed configuration handed to the lifecycle
// controller.
type Config struct {
	Defaults Defaults
	Services map[string]*ServiceConfig
	Handlers []*HandlerConfig
	Cron     []*CronConfig
	Failover *HandlerConfig
}

// ResolvePath applies the MQTTWARNINI environment override over an
// explicit --config flag value, falling back to DefaultConfigPath.
func ResolvePath(flagValue string) string {
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v
	}
	if flagValue != "" {
		return flagValue
	}
	return DefaultConfigPath
}

// ResolveLogPath applies the MQTTWARNLOG environment override over the
// configured logfile.
func ResolveLogPath(configured string) string {
	if v := os.Getenv(EnvLogPath); v != "" {
		return v
	}
	return configured
}

// Load parses path as an INI-dialect configuration file.
func Load(path string) (*Config, error) {
	raw, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := &Config{
		Services: map[string]*ServiceConfig{},
	}

	def := raw.Section("defaults")
	cfg.Defaults = Defaults{
		Hostname:     def.Key("hostname").MustString("localhost"),
		Port:         def.Key("port").MustInt(1883),
		Username:     def.Key("username").String(),
		Password:     def.Key("password").String(),
		ClientID:     def.Key("client_id").String(),
		LWT:          def.Key("lwt").String(),
		SkipRetained: def.Key("skipretained").MustBool(false),
		CleanSession: def.Key("clean_session").MustBool(true),
		Protocol:     def.Key("protocol").MustInt(4),
		Transport:    def.Key("transport").MustString("tcp"),
		Directory:    def.Key("directory").String(),
		LogFile:      def.Key("logfile").String(),
		LogFormat:    def.Key("logformat").MustString("console"),
		LogLevel:     def.Key("loglevel").MustString("info"),
		NumWorkers:   def.Key("num_workers").MustInt(1),
		Launch:       splitCommaList(def.Key("launch").String()),
		Functions:    def.Key("functions").String(),
		AdminAddr:    def.Key("admin_addr").String(),

		TLS:         def.Key("tls").MustBool(false),
		CACerts:     def.Key("ca_certs").String(),
		CertFile:    def.Key("certfile").String(),
		KeyFile:     def.Key("keyfile").String(),
		TLSVersion:  def.Key("tls_version").MustString("tlsv1_2"),
		TLSInsecure: def.Key("tls_insecure").MustBool(false),
	}

	for _, sec := range raw.Sections() {
		name := sec.Name()
		switch {
		case name == "defaults" || name == ini.DefaultSection:
			continue
		case name == "failover":
			cfg.Failover = handlerFromSection(name, sec)
		case strings.HasPrefix(name, "cron:"):
			cfg.Cron = append(cfg.Cron, cronFromSection(strings.TrimPrefix(name, "cron:"), sec))
		case strings.HasPrefix(name, "config:"):
			svcName := strings.TrimPrefix(name, "config:")
			sc, err := serviceFromSection(svcName, sec)
			if err != nil {
				return nil, err
			}
			cfg.Services[svcName] = sc
		default:
			if sec.HasKey("targets") {
				cfg.Handlers = append(cfg.Handlers, handlerFromSection(name, sec))
			}
			// sections without `targets` are skipped; no warning is
			// logged for them, here or in the handler-table builder.
		}
	}

	return cfg, nil
}

func splitCommaList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func handlerFromSection(name string, sec *ini.Section) *HandlerConfig {
	h := &HandlerConfig{
		Section:  name,
		Topic:    sec.Key("topic").String(),
		QoS:      sec.Key("qos").MustInt(0),
		Filter:   sec.Key("filter").String(),
		DataMap:  sec.Key("datamap").String(),
		AllData:  sec.Key("alldata").String(),
		Format:   sec.Key("format").String(),
		Title:    sec.Key("title").String(),
		Image:    sec.Key("image").String(),
		Priority: sec.Key("priority").String(),
		Template: sec.Key("template").String(),
	}
	if sec.HasKey("targets") {
		h.Targets = ParseLiteral(sec.Key("targets").String())
	}
	if h.Topic == "" {
		h.Topic = name
	}
	return h
}

func cronFromSection(name string, sec *ini.Section) *CronConfig {
	interval, _ := strconv.ParseFloat(sec.Key("interval").MustString("60"), 64)
	return &CronConfig{
		Name:     name,
		Target:   sec.Key("target").String(),
		Interval: interval,
		Now:      sec.Key("now").MustBool(false),
	}
}

func serviceFromSection(name string, sec *ini.Section) (*ServiceConfig, error) {
	sc := &ServiceConfig{
		Name:    name,
		Module:  sec.Key("module").String(),
		Options: map[string]any{},
	}
	if !sec.HasKey("targets") {
		return nil, fmt.Errorf("config:%s: missing required `targets` option", name)
	}
	targetsRaw := ParseLiteral(sec.Key("targets").String())
	m, ok := targetsRaw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config:%s: `targets` must be a mapping, got %T", name, targetsRaw)
	}
	sc.Targets = m

	for _, key := range sec.Keys() {
		if key.Name() == "targets" || key.Name() == "module" {
			continue
		}
		sc.Options[key.Name()] = ParseLiteral(key.String())
	}
	return sc, nil
}
