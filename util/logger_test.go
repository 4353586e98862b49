package util

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetStdLogger(t *testing.T) {
	as := require.New(t)

	core, logs := observer.New(zap.DebugLevel)
	std := GetStdLogger(zap.New(core), "http")
	std.Print("http: TLS handshake error")

	entries := logs.All()
	as.Len(entries, 1)
	as.Equal(zapcore.WarnLevel, entries[0].Level)
	as.Equal("http", entries[0].ContextMap()["subsystem"])
}
