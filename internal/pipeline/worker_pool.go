package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// WorkerPool fans a batch of documents out over parallel pipeline runs.
type WorkerPool struct {
	ctx            context.Context
	pipeline       *Pipeline
	tasks          chan DocumentTask
	results        chan DocumentTaskResult
	progressChan   chan ProgressUpdate
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	numWorkers     int
	totalTasks     int
	completedTasks int
	mu             sync.RWMutex
}

// DocumentTask is one document queued for processing.
type DocumentTask struct {
	ID   string
	Path string
}

// DocumentTaskResult pairs a task with its outcome.
type DocumentTaskResult struct {
	Error  error
	Result *DocumentResult
	Task   DocumentTask
}

// ProgressUpdate reports one task status transition. Formatting is left
// to the consumer; failed transitions carry the error.
type ProgressUpdate struct {
	TaskID      string
	Path        string
	Status      TaskStatus
	Err         error
	Completed   int
	Total       int
	ElapsedTime time.Duration
}

// TaskStatus represents the status of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// NewWorkerPool creates a pool running documents through the given
// pipeline.
func NewWorkerPool(p *Pipeline, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		pipeline:     p,
		numWorkers:   numWorkers,
		tasks:        make(chan DocumentTask, numWorkers*2),
		results:      make(chan DocumentTaskResult, numWorkers*2),
		progressChan: make(chan ProgressUpdate, 100),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case task, ok := <-wp.tasks:
			if !ok {
				return
			}

			wp.processTask(task)
		}
	}
}

func (wp *WorkerPool) processTask(task DocumentTask) {
	start := time.Now()

	wp.sendProgress(ProgressUpdate{
		TaskID: task.ID,
		Path:   task.Path,
		Status: TaskStatusProcessing,
	})

	result, err := wp.pipeline.ProcessDocument(wp.ctx, task.Path, KindForPath(task.Path))
	elapsed := time.Since(start)

	wp.mu.Lock()
	wp.completedTasks++
	completed := wp.completedTasks
	total := wp.totalTasks
	wp.mu.Unlock()

	status := TaskStatusCompleted
	if err != nil {
		status = TaskStatusFailed
	}

	wp.sendProgress(ProgressUpdate{
		TaskID:      task.ID,
		Path:        task.Path,
		Status:      status,
		Err:         err,
		Completed:   completed,
		Total:       total,
		ElapsedTime: elapsed,
	})

	wp.results <- DocumentTaskResult{
		Task:   task,
		Result: result,
		Error:  err,
	}
}

// sendProgress sends a progress update if the channel is not full.
func (wp *WorkerPool) sendProgress(update ProgressUpdate) {
	select {
	case wp.progressChan <- update:
	default:
		// Progress channel is full, skip this update to avoid blocking
	}
}

// SubmitTask queues a document.
func (wp *WorkerPool) SubmitTask(task DocumentTask) {
	wp.mu.Lock()
	wp.totalTasks++
	wp.mu.Unlock()

	wp.sendProgress(ProgressUpdate{
		TaskID: task.ID,
		Path:   task.Path,
		Status: TaskStatusPending,
	})

	select {
	case wp.tasks <- task:
	case <-wp.ctx.Done():
	}
}

// SubmitBatch queues multiple documents.
func (wp *WorkerPool) SubmitBatch(tasks []DocumentTask) {
	for _, task := range tasks {
		wp.SubmitTask(task)
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan DocumentTaskResult {
	return wp.results
}

// Progress returns the progress channel.
func (wp *WorkerPool) Progress() <-chan ProgressUpdate {
	return wp.progressChan
}

// Wait waits for all submitted tasks to complete and closes the pool.
func (wp *WorkerPool) Wait() {
	close(wp.tasks)
	wp.wg.Wait()
	close(wp.results)
	close(wp.progressChan)
}

// Shutdown cancels outstanding work and waits for cleanup.
func (wp *WorkerPool) Shutdown() {
	wp.cancel()
	wp.Wait()
}

// GetStats returns current processing statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	return WorkerPoolStats{
		TotalTasks:     wp.totalTasks,
		CompletedTasks: wp.completedTasks,
		PendingTasks:   wp.totalTasks - wp.completedTasks,
		NumWorkers:     wp.numWorkers,
	}
}

// WorkerPoolStats provides statistics about the worker pool.
type WorkerPoolStats struct {
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	PendingTasks   int `json:"pending_tasks"`
	NumWorkers     int `json:"num_workers"`
}

// ProgressTracker consumes progress updates and owns their display:
// failures are reported as they arrive, and Render draws the summary line.
type ProgressTracker struct {
	out          io.Writer
	startTime    time.Time
	taskStatuses map[string]TaskStatus
	mu           sync.Mutex
}

// NewProgressTracker creates a tracker writing to out.
func NewProgressTracker(out io.Writer) *ProgressTracker {
	return &ProgressTracker{
		out:          out,
		startTime:    time.Now(),
		taskStatuses: make(map[string]TaskStatus),
	}
}

// Observe records a status transition and reports failures immediately.
func (pt *ProgressTracker) Observe(update ProgressUpdate) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.taskStatuses[update.TaskID] = update.Status

	if update.Status == TaskStatusFailed && update.Err != nil {
		fmt.Fprintf(pt.out, "\n❌ Failed to process %s: %v\n", update.Path, update.Err)
	}
}

// Counts returns per-status task counts and the total.
func (pt *ProgressTracker) Counts() (map[TaskStatus]int, int) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	counts := make(map[TaskStatus]int)
	for _, status := range pt.taskStatuses {
		counts[status]++
	}
	return counts, len(pt.taskStatuses)
}

// Render draws the one-line progress summary.
func (pt *ProgressTracker) Render() {
	counts, total := pt.Counts()

	completed := counts[TaskStatusCompleted]
	failed := counts[TaskStatusFailed]
	processing := counts[TaskStatusProcessing]

	pt.mu.Lock()
	defer pt.mu.Unlock()

	fmt.Fprintf(pt.out, "\r🔄 Progress: %d/%d completed", completed, total)

	if failed > 0 {
		fmt.Fprintf(pt.out, " (%d failed)", failed)
	}

	if processing > 0 {
		fmt.Fprintf(pt.out, " (%d processing)", processing)
	}

	if total > 0 {
		percentage := float64(completed) / float64(total) * 100
		fmt.Fprintf(pt.out, " [%.1f%%]", percentage)
	}

	fmt.Fprintf(pt.out, " [%v elapsed]", time.Since(pt.startTime).Round(time.Second))
}

// RenderEvery redraws the summary line at the given interval until done
// is closed.
func (pt *ProgressTracker) RenderEvery(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pt.Render()
		case <-done:
			return
		}
	}
}
