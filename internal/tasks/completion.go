package tasks

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"
)

// ErrUnknownTask is returned when a completion targets a task that is not
// part of the current task list.
var ErrUnknownTask = errors.New("unknown task")

// Completion records that an operator dismissed a task.
type Completion struct {
	TaskID      string    `json:"task_id" dynamodbav:"SK"`
	CompletedAt time.Time `json:"completed_at" dynamodbav:"CompletedAt"`
	CompletedBy string    `json:"completed_by,omitempty" dynamodbav:"CompletedBy,omitempty"`
}

// CompletionStore persists completion state keyed by task ID. The generator
// never reads it; callers merge it into a TaskList with ApplyCompletions.
type CompletionStore interface {
	Complete(ctx context.Context, c Completion) error
	Reopen(ctx context.Context, taskID string) error
	Completions(ctx context.Context) (map[string]Completion, error)
}

// ApplyCompletions returns a copy of list with Completed and CompletedAt set
// from done. Tasks absent from done are reported open.
func ApplyCompletions(list TaskList, done map[string]Completion) TaskList {
	return TaskList{
		Daily:  applyTo(list.Daily, done),
		Weekly: applyTo(list.Weekly, done),
	}
}

func applyTo(in []AutoTask, done map[string]Completion) []AutoTask {
	out := make([]AutoTask, len(in))
	for i, t := range in {
		t.Metrics = maps.Clone(t.Metrics)
		t.Completed = false
		t.CompletedAt = nil
		if c, ok := done[t.ID]; ok {
			at := c.CompletedAt
			t.Completed = true
			t.CompletedAt = &at
		}
		out[i] = t
	}
	return out
}

// Pending returns the tasks of list that are not completed.
func Pending(list []AutoTask) []AutoTask {
	out := make([]AutoTask, 0, len(list))
	for _, t := range list {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// MemoryStore is an in-process CompletionStore.
type MemoryStore struct {
	mu   sync.RWMutex
	done map[string]Completion
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{done: make(map[string]Completion)}
}

// Complete records a completion, replacing any earlier one.
func (s *MemoryStore) Complete(_ context.Context, c Completion) error {
	s.mu.Lock()
	s.done[c.TaskID] = c
	s.mu.Unlock()
	return nil
}

// Reopen forgets the completion of a task.
func (s *MemoryStore) Reopen(_ context.Context, taskID string) error {
	s.mu.Lock()
	delete(s.done, taskID)
	s.mu.Unlock()
	return nil
}

// Completions returns a copy of every recorded completion.
func (s *MemoryStore) Completions(_ context.Context) (map[string]Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Completion, len(s.done))
	for k, v := range s.done {
		out[k] = v
	}
	return out, nil
}
