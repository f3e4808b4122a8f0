package handler

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "bloodbank-handler-log")
	if err != nil {
		panic(fmt.Sprintf("create log directory failed: %s", err))
	}

	var logConfig = logger.Configuration{
		Directory: dir,
		File:      "handler.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "debug",
		},
	}
	if err := logger.Initialise(logConfig); err != nil {
		panic(fmt.Sprintf("logger initialization failed: %s", err))
	}

	code := m.Run()
	logger.Finalise()
	os.RemoveAll(dir)
	os.Exit(code)
}

// Mock Invoker
type mockInvoker struct {
	payload  []byte
	err      error
	function string
	args     []string
}

func (m *mockInvoker) Invoke(ctx context.Context, function string, args []string) ([]byte, error) {
	m.function = function
	m.args = args
	return m.payload, m.err
}
