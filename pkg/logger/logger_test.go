package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/conteo-inventario/pkg/logger"
)

func TestComponent_EtiquetaYNivel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "warn", Out: &buf})

	c := l.Component("request")
	c.Info().Msg("descartado por nivel")
	c.Warn().Str("location", "T02").Msg("ubicación omitida")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "request", line["component"])
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "T02", line["location"])
}

func TestNew_NivelDesconocidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Level: "ruidoso", Out: &buf})
	l.Debug().Msg("no")
	assert.Zero(t, buf.Len())
	l.Info().Msg("sí")
	assert.NotZero(t, buf.Len())
}
