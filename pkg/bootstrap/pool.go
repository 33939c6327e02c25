package bootstrap

import (
	"sync"
)

// workerPool fans resample tasks out over a fixed number of goroutines.
// Resamples are independent, so the pool needs no coordination beyond
// "submit everything, then wait".
type workerPool struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = 1
	}
	pool := &workerPool{
		tasks: make(chan func(), workers*2),
	}
	pool.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}
	return pool
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// submit queues a task. Must not be called after wait.
func (p *workerPool) submit(task func()) {
	p.tasks <- task
}

// wait closes the queue and blocks until every submitted task has finished.
func (p *workerPool) wait() {
	p.once.Do(func() { close(p.tasks) })
	p.wg.Wait()
}
