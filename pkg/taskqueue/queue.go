package taskqueue

import (
	"context"
	"fmt"
	"time"
)

// Queue manages task submission and status tracking.
type Queue interface {
	// Enqueue submits a task and returns its ID.
	Enqueue(ctx context.Context, taskType TaskType, payload interface{}) (string, error)

	// EnqueueIn submits a task that becomes runnable after delay.
	EnqueueIn(ctx context.Context, taskType TaskType, payload interface{}, delay time.Duration) (string, error)

	// GetTask returns the task record for taskID.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// WaitForTask blocks until the task reaches a terminal status.
	// A zero timeout waits indefinitely (bounded by ctx).
	WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error)

	// UpdateTaskStatus updates the task's status, result and error.
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error

	// NotifyTaskUpdate publishes a status-change notification.
	NotifyTaskUpdate(ctx context.Context, taskID string) error

	// DeleteTask removes the task record.
	DeleteTask(ctx context.Context, taskID string) error

	// Close releases queue connections.
	Close() error
}

// Handler executes tasks of the types it declares.
type Handler interface {
	// ProcessTask runs one task. A non-nil error marks the task failed
	// and makes it eligible for queue-level retry.
	ProcessTask(ctx context.Context, task *Task) error

	// GetTaskTypes lists the task types this handler accepts.
	GetTaskTypes() []TaskType
}

// Worker runs handlers against the queue.
type Worker interface {
	// RegisterHandler attaches a handler for a task type.
	RegisterHandler(taskType TaskType, handler Handler)

	// Start begins consuming tasks in background goroutines.
	Start() error

	// Stop shuts the worker down.
	Stop()
}

// Config holds queue connection and retry settings.
type Config struct {
	RedisAddr     string         // Redis address
	RedisPassword string         // Redis password
	RedisDB       int            // Redis database number
	Concurrency   int            // concurrent task executions per worker
	RetryLimit    int            // max retries per task
	RetryDelay    time.Duration  // delay between retries
	Queues        map[string]int // queue name to priority
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		RedisDB:     0,
		Concurrency: 4,
		RetryLimit:  3,
		RetryDelay:  time.Minute,
		Queues: map[string]int{
			"default": 1,
		},
	}
}

// TaskError is a queue-level error.
type TaskError string

// Error implements the error interface.
func (e TaskError) Error() string {
	return string(e)
}

// ErrTaskNotFound reports an unknown task ID.
var ErrTaskNotFound = TaskError("task not found")

// ErrTaskTimeout reports that waiting for a task timed out.
var ErrTaskTimeout = TaskError("task timed out")

// Factory creates a queue from a configuration.
type Factory func(cfg *Config) (Queue, error)

// queueFactories maps implementation names to factories.
var queueFactories = make(map[string]Factory)

// RegisterQueueFactory registers a queue implementation.
func RegisterQueueFactory(name string, factory Factory) {
	queueFactories[name] = factory
}

// NewQueue creates a queue instance by implementation name.
func NewQueue(name string, cfg *Config) (Queue, error) {
	factory, exists := queueFactories[name]
	if !exists {
		return nil, fmt.Errorf("unknown queue implementation: %s", name)
	}
	return factory(cfg)
}
