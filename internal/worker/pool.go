// Package worker provides a parallel frame rendering worker pool with
// terminal progress reporting, used by batch commands that rasterize many
// globe views in one run.
package worker

import (
	"context"
	"sync"
	"time"
)

// FrameRenderer rasterizes one frame of a sequence and writes it out.
type FrameRenderer interface {
	RenderFrame(ctx context.Context, task Task) (path string, err error)
}

// Task describes one frame: its position in the sequence and the view
// parameters that distinguish it from its neighbors.
type Task struct {
	Index    int
	Rotate   [3]float64
	TimeStep string
}

// Result is the outcome of one frame.
type Result struct {
	Task    Task
	Path    string
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each frame completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Renderer   FrameRenderer
	OnProgress ProgressFunc
}

// Pool renders frames in parallel with a bounded number of workers.
type Pool struct {
	workers    int
	renderer   FrameRenderer
	onProgress ProgressFunc
}

// New creates a worker pool. A non-positive worker count means one.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		workers:    workers,
		renderer:   cfg.Renderer,
		onProgress: cfg.OnProgress,
	}
}

// Run renders all tasks and returns their results. It blocks until every
// task has completed or the context is cancelled; cancelled tasks report
// ctx.Err() as their result.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var (
		completed int
		failed    int
		mu        sync.Mutex
	)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.work(ctx, taskCh, resultCh)
		}()
	}

	go func() {
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
			}
		}
		close(taskCh)
	}()

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})
	go func() {
		for result := range resultCh {
			results = append(results, result)

			mu.Lock()
			completed++
			if result.Err != nil {
				failed++
			}
			c, f := completed, failed
			mu.Unlock()

			if p.onProgress != nil {
				p.onProgress(c, len(tasks), f)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

func (p *Pool) work(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			results <- Result{Task: task, Err: ctx.Err()}
			continue
		default:
		}

		start := time.Now()
		path, err := p.renderer.RenderFrame(ctx, task)
		results <- Result{
			Task:    task,
			Path:    path,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}
