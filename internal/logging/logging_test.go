package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		level     zapcore.Level
		encoding  string
		expectErr bool
	}{
		{name: "defaults", cfg: nil, level: zapcore.InfoLevel, encoding: "json"},
		{name: "debug console", cfg: &Config{Level: "DEBUG", Format: "console", Output: "stdout"}, level: zapcore.DebugLevel, encoding: "console"},
		{name: "warn json", cfg: &Config{Level: "warn", Format: "json"}, level: zapcore.WarnLevel, encoding: "json"},
		{name: "bad level", cfg: &Config{Level: "loud"}, expectErr: true},
		{name: "bad format", cfg: &Config{Level: "info", Format: "xml"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zcfg, err := zapConfig(tt.cfg)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, zcfg.Level.Level())
			assert.Equal(t, tt.encoding, zcfg.Encoding)
		})
	}

	logger, err := NewLogger(&Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestContextLogger(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	FromContext(ctx).Info("hello")
	assert.Equal(t, 1, logs.FilterMessage("hello").Len())
}

func TestMiddlewareAndRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(Service(zap.New(core), "annealhive", "test")))
	r.Use(Recoverer)
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	inside := logs.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	fields := inside[0].ContextMap()
	assert.Equal(t, "/ok", fields["path"])
	assert.Equal(t, "annealhive", fields["service"])
	assert.NotEmpty(t, fields["request_id"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("Recovered from panic").Len())

	completed := logs.FilterMessage("Request completed").All()
	require.Len(t, completed, 2)
	assert.Equal(t, int64(http.StatusInternalServerError), completed[1].ContextMap()["status"])
}
