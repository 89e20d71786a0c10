package server_test

import (
	"testing"
	"time"

	"clia-tracker/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Limits(t *testing.T) {
	tests := []struct {
		name     string
		cfg      server.Config
		body     int
		shutdown time.Duration
	}{
		{"Defaults", server.Config{}, 64 << 20, 10 * time.Second},
		{"Negative", server.Config{BodyLimitMB: -1, ShutdownSeconds: -5}, 64 << 20, 10 * time.Second},
		{"Custom", server.Config{BodyLimitMB: 8, ShutdownSeconds: 3}, 8 << 20, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.body, tt.cfg.BodyLimit())
			assert.Equal(t, tt.shutdown, tt.cfg.ShutdownTimeout())
		})
	}
}

func TestConfig_Address(t *testing.T) {
	assert.Equal(t, ":9090", server.Config{Port: "9090"}.Address())
}
