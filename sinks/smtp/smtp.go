// Package smtp is the `sinks/smtp` plugin (SPEC_FULL.md §10.4): it sends
// the formatted message as an email via net/smtp. No suitable
// non-stdlib SMTP client appears anywhere in the retrieval pack (see
// DESIGN.md), so this one component uses the standard library directly.
package smtp

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/sinks"
)

// Options is the `[config:<name>]` section's sink-specific settings.
type Options struct {
	Server   string `mapstructure:"server"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// sendFunc matches net/smtp.SendMail's signature, substituted in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Build compiles svc into a registry.Entry. Each target's addrs is a
// one-element list holding the recipient address.
func Build(svc *config.ServiceConfig, log logger.ILogger) (*registry.Entry, error) {
	var opts Options
	if err := mapstructure.Decode(svc.Options, &opts); err != nil {
		return nil, fmt.Errorf("sinks/smtp %s: decode options: %w", svc.Name, err)
	}
	if opts.Server == "" {
		return nil, fmt.Errorf("sinks/smtp %s: server is required", svc.Name)
	}
	if opts.From == "" {
		opts.From = opts.Username
	}

	cfg := sinks.BuildConfig(svc)
	cfg["server"] = opts.Server
	cfg["username"] = opts.Username
	cfg["password"] = opts.Password
	cfg["from"] = opts.From

	return &registry.Entry{
		Name:       svc.Name,
		Module:     "smtp",
		Deliver:    newDeliver(smtp.SendMail),
		TargetKeys: sinks.TargetKeySet(svc),
		Config:     cfg,
		Log:        log,
	}, nil
}

func newDeliver(send sendFunc) func(ctx *model.ServiceCtx, item *model.Item) bool {
	return func(ctx *model.ServiceCtx, item *model.Item) bool {
		return deliver(send, ctx, item)
	}
}

func deliver(send sendFunc, ctx *model.ServiceCtx, item *model.Item) bool {
	to, ok := recipientFromAddrs(item.Addrs)
	if !ok {
		ctx.Log.Error("smtp sink: target %q has no recipient in addrs", item.Target)
		return false
	}

	server, _ := item.Config["server"].(string)
	username, _ := item.Config["username"].(string)
	password, _ := item.Config["password"].(string)
	from, _ := item.Config["from"].(string)

	host := server
	if i := strings.LastIndex(server, ":"); i != -1 {
		host = server[:i]
	}

	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	subject := item.Title
	if subject == "" {
		subject = item.Topic
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", from, to, subject, item.Message)

	if err := send(server, auth, from, []string{to}, []byte(msg)); err != nil {
		ctx.Log.Error("smtp sink: send to %s via %s: %v", to, server, err)
		return false
	}
	return true
}

func recipientFromAddrs(addrs any) (string, bool) {
	switch v := addrs.(type) {
	case string:
		return v, v != ""
	case []any:
		if len(v) == 0 {
			return "", false
		}
		s, ok := v[0].(string)
		return s, ok
	default:
		return "", false
	}
}
