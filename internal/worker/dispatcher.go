package worker

import (
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// Dispatcher runs jobs sequentially per key and concurrently across keys.
// Each active key owns one goroutine that drains its mailbox and exits when it is empty.
type Dispatcher struct {
	mu         sync.Mutex
	mailboxes  map[int64][]func()
	maxPending int
	wg         sync.WaitGroup
	logger     *zerolog.Logger
}

// NewDispatcher creates a dispatcher. maxPending <= 0 means unbounded mailboxes.
func NewDispatcher(maxPending int, logger *zerolog.Logger) *Dispatcher {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &Dispatcher{
		mailboxes:  make(map[int64][]func()),
		maxPending: maxPending,
		logger:     logger,
	}
}

// Submit queues job behind earlier jobs with the same key.
// It returns false when the key's mailbox is full.
func (d *Dispatcher) Submit(key int64, job func()) bool {
	d.mu.Lock()
	queue, active := d.mailboxes[key]
	if active {
		if d.maxPending > 0 && len(queue) >= d.maxPending {
			d.mu.Unlock()
			return false
		}
		d.mailboxes[key] = append(queue, job)
		d.mu.Unlock()
		return true
	}

	d.mailboxes[key] = nil
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(key, job)
	return true
}

func (d *Dispatcher) drain(key int64, job func()) {
	defer d.wg.Done()
	for {
		d.run(key, job)

		d.mu.Lock()
		queue := d.mailboxes[key]
		if len(queue) == 0 {
			delete(d.mailboxes, key)
			d.mu.Unlock()
			return
		}
		job = queue[0]
		queue[0] = nil
		d.mailboxes[key] = queue[1:]
		d.mu.Unlock()
	}
}

func (d *Dispatcher) run(key int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Int64("key", key).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("job panicked")
		}
	}()
	job()
}

// Pending returns the number of queued jobs for key, excluding the running one.
func (d *Dispatcher) Pending(key int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.mailboxes[key])
}

// Active returns the number of keys with a running job.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.mailboxes)
}

// Wait blocks until every submitted job has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
