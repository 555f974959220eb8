package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisTest starts a miniredis instance and returns its address
// plus a cleanup function.
func setupRedisTest(t *testing.T) (string, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	return mr.Addr(), func() {
		mr.Close()
	}
}

func testConfig(redisAddr string) *Config {
	return &Config{
		RedisAddr:   redisAddr,
		Concurrency: 2,
		RetryLimit:  2,
		RetryDelay:  time.Second,
		Queues:      map[string]int{"default": 1},
	}
}

func TestNewRedisQueue(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	assert.NoError(t, err)
	assert.NotNil(t, queue)

	err = queue.Close()
	assert.NoError(t, err)
}

func TestRedisQueue_Enqueue(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	payload := &OCRJobPayload{
		PDFURL:   "https://example.com/report.pdf",
		Filename: "report.pdf",
	}

	taskID, err := queue.Enqueue(ctx, TaskOCRDocument, payload)
	assert.NoError(t, err)
	assert.NotEmpty(t, taskID)

	task, err := queue.GetTask(ctx, taskID)
	assert.NoError(t, err)
	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, TaskOCRDocument, task.Type)
	assert.Equal(t, StatusPending, task.Status)
	assert.NotNil(t, task.Payload)

	var decoded OCRJobPayload
	require.NoError(t, UnmarshalPayload(task.Payload, &decoded))
	assert.Equal(t, payload.PDFURL, decoded.PDFURL)
	assert.Equal(t, payload.Filename, decoded.Filename)
}

func TestRedisQueue_EnqueueIn(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	payload := &OCRJobPayload{
		PDFURL: "https://example.com/delayed.pdf",
	}

	taskID, err := queue.EnqueueIn(ctx, TaskOCRDocument, payload, time.Second)
	assert.NoError(t, err)
	assert.NotEmpty(t, taskID)

	task, err := queue.GetTask(ctx, taskID)
	assert.NoError(t, err)
	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, StatusPending, task.Status)
}

func TestRedisQueue_UpdateTaskStatus(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	payload := &OCRJobPayload{PDFURL: "https://example.com/status.pdf"}

	taskID, err := queue.Enqueue(ctx, TaskOCRDocument, payload)
	require.NoError(t, err)

	err = queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, nil, "")
	assert.NoError(t, err)

	task, err := queue.GetTask(ctx, taskID)
	assert.NoError(t, err)
	assert.Equal(t, StatusProcessing, task.Status)
	assert.NotNil(t, task.StartedAt)
	assert.Equal(t, 1, task.Attempts)

	result := map[string]interface{}{
		"filename":    "status.pdf",
		"total_pages": 3,
	}
	err = queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, result, "")
	assert.NoError(t, err)

	task, err = queue.GetTask(ctx, taskID)
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)
	assert.NotEmpty(t, task.Result)

	failTaskID, err := queue.Enqueue(ctx, TaskOCRDocument, payload)
	require.NoError(t, err)

	errorMsg := "Failed to download PDF from URL"
	err = queue.UpdateTaskStatus(ctx, failTaskID, StatusFailed, nil, errorMsg)
	assert.NoError(t, err)

	failTask, err := queue.GetTask(ctx, failTaskID)
	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, failTask.Status)
	assert.Equal(t, errorMsg, failTask.Error)
	assert.NotNil(t, failTask.CompletedAt)
}

func TestRedisQueue_DeleteTask(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()
	payload := &OCRJobPayload{PDFURL: "https://example.com/delete.pdf"}

	taskID, err := queue.Enqueue(ctx, TaskOCRDocument, payload)
	require.NoError(t, err)

	err = queue.DeleteTask(ctx, taskID)
	assert.NoError(t, err)

	_, err = queue.GetTask(ctx, taskID)
	assert.Error(t, err)
	assert.Equal(t, ErrTaskNotFound, err)
}

func TestRedisQueue_NotifyTaskUpdate(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskOCRDocument, &OCRJobPayload{PDFURL: "https://example.com/a.pdf"})
	require.NoError(t, err)

	err = queue.NotifyTaskUpdate(ctx, taskID)
	assert.NoError(t, err)
}

func TestRedisQueue_WaitForTask(t *testing.T) {
	redisAddr, cleanup := setupRedisTest(t)
	defer cleanup()

	queue, err := NewRedisQueue(testConfig(redisAddr))
	require.NoError(t, err)
	defer queue.Close()

	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskOCRDocument, &OCRJobPayload{PDFURL: "https://example.com/wait.pdf"})
	require.NoError(t, err)

	err = queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, map[string]string{"text": "done"}, "")
	require.NoError(t, err)

	task, err := queue.WaitForTask(ctx, taskID, 2*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
}

// mockHandler implements Handler for worker tests.
type mockHandler struct {
	processFunc func(context.Context, *Task) error
	taskTypes   []TaskType
}

func (h *mockHandler) ProcessTask(ctx context.Context, task *Task) error {
	if h.processFunc != nil {
		return h.processFunc(ctx, task)
	}
	return nil
}

func (h *mockHandler) GetTaskTypes() []TaskType {
	return h.taskTypes
}

// TestRedisWorker exercises the full enqueue/consume cycle against a
// real Redis server; it skips when none is running.
func TestRedisWorker(t *testing.T) {
	redisAddr := "localhost:6379"

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	_, err := client.Ping(ctx).Result()
	if err != nil {
		t.Skip("Skipping Redis worker test: Redis not available at localhost:6379")
		return
	}
	client.Close()

	cfg := testConfig(redisAddr)

	queue, err := NewRedisQueue(cfg)
	require.NoError(t, err)
	defer queue.Close()

	worker := NewRedisWorker(queue, cfg)
	require.NotNil(t, worker)

	processed := make(chan string, 1)
	handler := &mockHandler{
		processFunc: func(ctx context.Context, task *Task) error {
			processed <- task.ID
			return nil
		},
		taskTypes: []TaskType{TaskOCRDocument},
	}

	worker.RegisterHandler(TaskOCRDocument, handler)
	require.NoError(t, worker.Start())
	defer worker.Stop()

	payload := &OCRJobPayload{
		PDFURL:   "https://example.com/worker.pdf",
		Filename: "worker.pdf",
	}

	taskID, err := queue.Enqueue(ctx, TaskOCRDocument, payload)
	require.NoError(t, err)

	select {
	case gotID := <-processed:
		assert.Equal(t, taskID, gotID)
	case <-time.After(5 * time.Second):
		t.Fatal("Task was not processed within 5 seconds")
	}
}

func TestTaskInfo(t *testing.T) {
	now := time.Now()
	startedAt := now.Add(-5 * time.Minute)
	completedAt := now.Add(-1 * time.Minute)

	task := &Task{
		ID:          "task-123",
		Type:        TaskOCRDocument,
		Status:      StatusCompleted,
		Error:       "",
		CreatedAt:   now.Add(-10 * time.Minute),
		UpdatedAt:   now,
		StartedAt:   &startedAt,
		CompletedAt: &completedAt,
		Attempts:    1,
		MaxRetries:  3,
	}

	info := NewTaskInfo(task)

	assert.Equal(t, task.ID, info.ID)
	assert.Equal(t, task.Type, info.Type)
	assert.Equal(t, task.Status, info.Status)
	assert.Equal(t, task.Error, info.Error)
	assert.Equal(t, task.CreatedAt, info.CreatedAt)
	assert.Equal(t, task.StartedAt, info.StartedAt)
	assert.Equal(t, task.CompletedAt, info.CompletedAt)
}
