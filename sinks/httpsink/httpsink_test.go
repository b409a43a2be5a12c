package httpsink

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverPostsMessageBody(t *testing.T) {
	var gotBody string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := &model.ServiceCtx{Log: logger.NewLogger("test", logger.LevelError)}
	item := &model.Item{
		Message: "hello world",
		Target:  "webhook",
		Addrs:   srv.URL,
		Config:  map[string]any{"method": http.MethodPost, "content_type": "text/plain"},
	}
	assert.True(t, deliver(srv.Client(), ctx, item))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "hello world", gotBody)
}

func TestDeliverSignsBearerTokenWhenSigningKeySet(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := &model.ServiceCtx{Log: logger.NewLogger("test", logger.LevelError)}
	item := &model.Item{
		Message: "x",
		Target:  "webhook",
		Addrs:   srv.URL,
		Service: "httpsink",
		Topic:   "a/b",
		Config:  map[string]any{"method": http.MethodPost, "content_type": "text/plain", "signing_key": "s3cr3t"},
	}
	require.True(t, deliver(srv.Client(), ctx, item))
	require.Contains(t, gotAuth, "Bearer ")

	tokStr := gotAuth[len("Bearer "):]
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokStr, claims, func(*jwt.Token) (any, error) {
		return []byte("s3cr3t"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a/b", claims["topic"])
}

func TestDeliverNonSuccessStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx := &model.ServiceCtx{Log: logger.NewLogger("test", logger.LevelError)}
	item := &model.Item{
		Message: "x", Target: "webhook", Addrs: srv.URL,
		Config: map[string]any{"method": http.MethodPost, "content_type": "text/plain"},
	}
	assert.False(t, deliver(srv.Client(), ctx, item))
}

func TestDeliverMissingAddrsFails(t *testing.T) {
	ctx := &model.ServiceCtx{Log: logger.NewLogger("test", logger.LevelError)}
	item := &model.Item{Message: "x", Target: "missing"}
	assert.False(t, deliver(http.DefaultClient, ctx, item))
}

func TestBuildAppliesDefaultsAndDeclaresTargetKeys(t *testing.T) {
	svc := &config.ServiceConfig{
		Name:    "httpsink",
		Targets: map[string]any{"webhook": []any{"http://localhost/x"}},
	}
	entry, err := Build(svc, logger.NewLogger("test", logger.LevelError))
	require.NoError(t, err)
	assert.True(t, entry.HasTarget("webhook"))
	assert.Equal(t, http.MethodPost, entry.Config["method"])
	assert.Equal(t, 10, entry.Config["timeout_seconds"])
}
