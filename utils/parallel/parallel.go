package parallel

import (
	"context"
	"fmt"
	"sync"
)

// Task represents a function to be executed in parallel
type Task[T any] func(ctx context.Context) (T, error)

// Result holds the value and error from a parallel task execution
type Result[T any] struct {
	Value T
	Error error
}

// Results holds the results from parallel execution, keyed like the tasks
type Results[T any] map[string]Result[T]

// Builder manages parallel task execution
type Builder[T any] struct {
	tasks map[string]Task[T]
}

// NewBuilder creates a new parallel builder
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{
		tasks: make(map[string]Task[T]),
	}
}

// Add adds a keyed task to be executed in parallel. A later task with the same key replaces the earlier one.
func (b *Builder[T]) Add(key string, task Task[T]) *Builder[T] {
	b.tasks[key] = task
	return b
}

// Len returns the number of tasks added
func (b *Builder[T]) Len() int {
	return len(b.tasks)
}

// Run executes all tasks concurrently and waits for every one of them
func (b *Builder[T]) Run(ctx context.Context) Results[T] {
	results := make(Results[T], len(b.tasks))
	if len(b.tasks) == 0 {
		return results
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for key, task := range b.tasks {
		wg.Add(1)
		go func(k string, t Task[T]) {
			defer wg.Done()
			value, err := t(ctx)

			mu.Lock()
			results[k] = Result[T]{Value: value, Error: err}
			mu.Unlock()
		}(key, task)
	}

	wg.Wait()
	return results
}

// Get returns the value and error stored for key
func (r Results[T]) Get(key string) (T, error) {
	result, exists := r[key]
	if !exists {
		var zero T
		return zero, fmt.Errorf("no result found for key: %s", key)
	}
	return result.Value, result.Error
}

// Errors returns the failed results' errors keyed like the tasks
func (r Results[T]) Errors() map[string]error {
	errs := make(map[string]error)
	for k, res := range r {
		if res.Error != nil {
			errs[k] = res.Error
		}
	}
	return errs
}
