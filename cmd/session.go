// File: cmd/session.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webtester/internal/browser"
	"github.com/xkilldash9x/webtester/internal/config"
	"github.com/xkilldash9x/webtester/internal/events"
	"github.com/xkilldash9x/webtester/internal/pageobject"
	"github.com/xkilldash9x/webtester/internal/wait"
)

// pageDriver is a browser tab page objects can act on.
type pageDriver interface {
	pageobject.Driver
	Navigate(ctx context.Context, url string) error
	Close() error
}

// newDriver launches the browser. Tests replace it with an in-memory page.
var newDriver = func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (pageDriver, error) {
	return browser.New(ctx, cfg, logger)
}

// session wires a browser tab to page objects, an event bus and the optional
// event recording of one command run.
type session struct {
	driver   pageDriver
	bus      *events.Bus
	factory  *pageobject.Factory
	recorder *events.Recorder
	logger   *zap.Logger

	closers []func() error
}

func openSession(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*session, error) {
	s := &session{bus: events.NewBus(logger), logger: logger}

	if cfg.Events().LogEvents {
		s.bus.Register(events.NewLoggingListener(logger))
	}
	if path := cfg.Events().RecordFile; path != "" {
		f, err := os.Create(path)
		if err != nil {
			s.bus.Shutdown()
			return nil, fmt.Errorf("failed to create event record file: %w", err)
		}
		s.recorder = events.NewRecorder(f, logger)
		s.bus.Register(s.recorder)
		s.closers = append(s.closers, f.Close)
	}

	driver, err := newDriver(ctx, cfg.Browser(), logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.driver = driver

	poller := wait.NewPoller(cfg.Wait(), logger)
	s.factory = pageobject.NewFactory(driver, s.bus, poller, logger)
	return s, nil
}

// Close shuts the browser down, then stops event dispatch and closes the record file.
func (s *session) Close() error {
	var firstErr error
	if s.driver != nil {
		firstErr = s.driver.Close()
	}
	s.bus.Shutdown()
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.recorder != nil {
		s.logger.Info("Events recorded.", zap.Int("count", s.recorder.Count()))
	}
	return firstErr
}
