package imagegen

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/plateful-app/plateful/internal/pkg/cache"
)

// Cache key format for generation task status
const TaskStatusKeyFormat = "task:status:%s" // Format: task:status:<task_id>

// TaskStatusTTL bounds how long a cached task snapshot survives; tasks are
// short-lived on the provider side anyway.
const TaskStatusTTL = 1 * time.Hour

// SetTaskStatus mirrors the last-known task state into the cache so the HTTP
// status endpoint can answer client polls without a provider round trip on
// terminal states.
func SetTaskStatus(task *Task) error {
	if task == nil || task.TaskID == "" {
		return nil
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(TaskStatusKeyFormat, task.TaskID)
	return cache.Set(key, string(data), TaskStatusTTL)
}

// GetTaskStatus retrieves the cached task snapshot, if any.
func GetTaskStatus(taskID string) (*Task, error) {
	key := fmt.Sprintf(TaskStatusKeyFormat, taskID)
	data, err := cache.Get(key)
	if err != nil {
		return nil, err
	}
	var task Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return nil, err
	}
	return &task, nil
}
