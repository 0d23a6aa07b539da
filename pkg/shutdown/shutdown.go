package shutdown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CleanupFunc performs one component's cleanup during shutdown
type CleanupFunc func(ctx context.Context) error

type namedCleanup struct {
	name string
	fn   CleanupFunc
}

// Manager coordinates graceful shutdown of registered components
type Manager struct {
	logger   *logrus.Logger
	cleanups []namedCleanup
	mu       sync.Mutex
	done     bool
}

// NewManager creates a new shutdown manager
func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// RegisterCleanup adds a named cleanup to run during shutdown.
// Cleanups run in registration order.
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, namedCleanup{name: name, fn: fn})
}

// Shutdown executes all registered cleanups, stopping at the context
// deadline. A second call is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	m.done = true
	cleanups := m.cleanups
	m.mu.Unlock()

	m.logger.Info("Starting graceful shutdown")
	start := time.Now()

	var failed int
	for _, c := range cleanups {
		if ctx.Err() != nil {
			m.logger.WithField("handler", c.name).Error("Shutdown timeout exceeded before handler ran")
			return fmt.Errorf("shutdown timeout exceeded: %w", ctx.Err())
		}

		handlerStart := time.Now()
		if err := c.fn(ctx); err != nil {
			failed++
			m.logger.WithFields(logrus.Fields{
				"handler":  c.name,
				"duration": time.Since(handlerStart).Seconds(),
				"error":    err.Error(),
			}).Error("Shutdown handler failed")
			continue
		}

		m.logger.WithFields(logrus.Fields{
			"handler":  c.name,
			"duration": time.Since(handlerStart).Seconds(),
		}).Info("Shutdown handler completed")
	}

	duration := time.Since(start)
	if failed > 0 {
		m.logger.WithFields(logrus.Fields{
			"duration": duration.Seconds(),
			"errors":   failed,
		}).Warn("Shutdown completed with errors")
		return fmt.Errorf("%d shutdown handler(s) failed", failed)
	}

	m.logger.WithFields(logrus.Fields{
		"duration": duration.Seconds(),
	}).Info("Shutdown completed successfully")
	return nil
}
