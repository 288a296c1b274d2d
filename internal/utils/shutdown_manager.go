package utils

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type shutdownTask struct {
	name string
	fn   func(context.Context) error
}

// ShutdownManager runs registered cleanup tasks when the process is asked to stop.
// Tasks run in reverse registration order.
type ShutdownManager struct {
	cancelFunc context.CancelFunc
	tasks      []shutdownTask
	timeout    time.Duration
	logger     *zap.Logger
	mu         sync.Mutex
	once       sync.Once
	done       chan struct{}
}

func NewShutdownManager(ctx context.Context, logger *zap.Logger) (context.Context, *ShutdownManager) {
	ctx, cancel := context.WithCancel(ctx)
	manager := &ShutdownManager{
		cancelFunc: cancel,
		timeout:    15 * time.Second,
		logger:     logger,
		done:       make(chan struct{}),
	}
	return ctx, manager
}

func (sm *ShutdownManager) Register(name string, task func(context.Context) error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.tasks = append(sm.tasks, shutdownTask{name: name, fn: task})
}

func (sm *ShutdownManager) StartListening() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		sm.logger.Info("received signal", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
		defer cancel()
		sm.Shutdown(ctx)
	}()
}

// Shutdown cancels the root context and runs every task once.
func (sm *ShutdownManager) Shutdown(ctx context.Context) {
	sm.once.Do(func() {
		sm.cancelFunc()

		sm.mu.Lock()
		tasks := make([]shutdownTask, len(sm.tasks))
		copy(tasks, sm.tasks)
		sm.mu.Unlock()

		for i := len(tasks) - 1; i >= 0; i-- {
			sm.logger.Info("shutting down", zap.String("component", tasks[i].name))
			if err := tasks[i].fn(ctx); err != nil {
				sm.logger.Error("shutdown task failed", zap.String("component", tasks[i].name), zap.Error(err))
			}
		}

		sm.logger.Info("graceful shutdown complete")
		close(sm.done)
	})
}

// Done is closed after all tasks have run.
func (sm *ShutdownManager) Done() <-chan struct{} {
	return sm.done
}
