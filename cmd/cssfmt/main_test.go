package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"cssfmt/config"
	"cssfmt/state"
)

func testEnv(t *testing.T) *state.LocalEnv {
	t.Helper()
	env := state.EnvFromContext(state.ContextWithEnv(context.Background()))
	env.Log = zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	env.Cfg = cfg
	return env
}

func TestWriteConfiguration_Default(t *testing.T) {
	env := testEnv(t)

	var buf bytes.Buffer
	if err := writeConfiguration(&buf, "", true, env); err != nil {
		t.Fatalf("writeConfiguration() error = %v", err)
	}
	if !strings.Contains(buf.String(), "pipeline:") {
		t.Errorf("default configuration does not have pipeline section:\n%s", buf.String())
	}
}

func TestWriteConfiguration_Actual(t *testing.T) {
	env := testEnv(t)
	env.Cfg.Pipeline.Steps = []string{"remove_media_queries"}

	var buf bytes.Buffer
	if err := writeConfiguration(&buf, "out.yaml", false, env); err != nil {
		t.Fatalf("writeConfiguration() error = %v", err)
	}
	if !strings.Contains(buf.String(), "remove_media_queries") {
		t.Errorf("actual configuration does not have changed steps:\n%s", buf.String())
	}
}

func TestWriteConfiguration_Error(t *testing.T) {
	env := testEnv(t)
	if err := writeConfiguration(failingWriter{}, "", true, env); err == nil {
		t.Error("expected write error")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, context.Canceled
}
