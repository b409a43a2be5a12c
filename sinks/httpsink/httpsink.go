// Package httpsink is the `sinks/httpsink` plugin (SPEC_FULL.md §10.4): it
// POSTs (or GETs) the formatted message to the target's configured URL,
// optionally signing the request with a bearer JWT when the service
// declares a signing_key.
package httpsink

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/sinks"
)

// Options is the `[config:<name>]` section's sink-specific settings.
// Method defaults to POST; ContentType defaults to
// "text/plain; charset=utf-8". SigningKey, when set, causes every request to carry
// a bearer JWT (HS256) signed with this secret.
type Options struct {
	Method      string `mapstructure:"method"`
	ContentType string `mapstructure:"content_type"`
	SigningKey  string `mapstructure:"signing_key"`
	Timeout     int    `mapstructure:"timeout_seconds"`
}

// Build compiles svc into a registry.Entry. Each target's addrs is the
// destination URL.
func Build(svc *config.ServiceConfig, log logger.ILogger) (*registry.Entry, error) {
	var opts Options
	if err := mapstructure.Decode(svc.Options, &opts); err != nil {
		return nil, fmt.Errorf("sinks/httpsink %s: decode options: %w", svc.Name, err)
	}
	if opts.Method == "" {
		opts.Method = http.MethodPost
	}
	if opts.ContentType == "" {
		opts.ContentType = "text/plain; charset=utf-8"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10
	}

	cfg := sinks.BuildConfig(svc)
	cfg["method"] = opts.Method
	cfg["content_type"] = opts.ContentType
	cfg["signing_key"] = opts.SigningKey
	cfg["timeout_seconds"] = opts.Timeout

	client := &http.Client{Timeout: time.Duration(opts.Timeout) * time.Second}

	return &registry.Entry{
		Name:       svc.Name,
		Module:     "httpsink",
		Deliver:    newDeliver(client),
		TargetKeys: sinks.TargetKeySet(svc),
		Config:     cfg,
		Log:        log,
	}, nil
}

func newDeliver(client *http.Client) func(ctx *model.ServiceCtx, item *model.Item) bool {
	return func(ctx *model.ServiceCtx, item *model.Item) bool {
		return deliver(client, ctx, item)
	}
}

func deliver(client *http.Client, ctx *model.ServiceCtx, item *model.Item) bool {
	url, ok := urlFromAddrs(item.Addrs)
	if !ok {
		ctx.Log.Error("httpsink: target %q has no URL in addrs", item.Target)
		return false
	}

	method, _ := item.Config["method"].(string)
	contentType, _ := item.Config["content_type"].(string)

	req, err := http.NewRequest(method, url, bytes.NewBufferString(item.Message))
	if err != nil {
		ctx.Log.Error("httpsink: build request for %s: %v", url, err)
		return false
	}
	req.Header.Set("Content-Type", contentType)

	if signingKey, _ := item.Config["signing_key"].(string); signingKey != "" {
		token, err := signJWT(signingKey, item)
		if err != nil {
			ctx.Log.Error("httpsink: sign request for %s: %v", url, err)
			return false
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		ctx.Log.Error("httpsink: request to %s: %v", url, err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		ctx.Log.Error("httpsink: %s returned %s", url, resp.Status)
		return false
	}
	return true
}

func signJWT(signingKey string, item *model.Item) (string, error) {
	claims := jwt.MapClaims{
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(5 * time.Minute).Unix(),
		"service": item.Service,
		"target":  item.Target,
		"topic":   item.Topic,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(signingKey))
}

func urlFromAddrs(addrs any) (string, bool) {
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
