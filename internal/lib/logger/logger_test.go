package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/linemk/ecofinds/internal/lib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	for _, env := range []string{logger.EnvLocal, logger.EnvDev, logger.EnvProd, "unknown"} {
		t.Run(env, func(t *testing.T) {
			assert.NotNil(t, logger.SetupLogger(env))
		})
	}
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		env       string
		wantEnv   string
		wantDebug bool
	}{
		{env: "dev", wantEnv: logger.EnvDev, wantDebug: true},
		{env: "development", wantEnv: logger.EnvDev, wantDebug: true},
		{env: " Production ", wantEnv: logger.EnvProd, wantDebug: false},
		{env: "prod", wantEnv: logger.EnvProd, wantDebug: false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(tt.env, &buf)

			log.Debug("debug line")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))

			buf.Reset()
			log.Info("info line")
			var rec map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
			assert.Equal(t, "info line", rec["msg"])
			assert.Equal(t, tt.wantEnv, rec["env"])
		})
	}
}

func TestNew_LocalIsPretty(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New("local", &buf)

	log.Debug("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), `"env": "local"`)
}
