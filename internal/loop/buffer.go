package loop

import "sync"

// TaskBuffer stores pending tasks in a fixed-size ring. It is safe for
// concurrent producers and a single consumer.
type TaskBuffer struct {
	mu       sync.Mutex
	data     []func()
	head     int
	tail     int
	count    int
	overflow uint64
}

// NewTaskBuffer constructs a ring buffer with the provided capacity.
func NewTaskBuffer(capacity int) *TaskBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &TaskBuffer{data: make([]func(), capacity)}
}

func (b *TaskBuffer) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Push stages a task, returning false if the buffer is full.
func (b *TaskBuffer) Push(task func()) bool {
	if task == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == len(b.data) {
		b.overflow++
		return false
	}
	b.data[b.tail] = task
	b.tail = (b.tail + 1) % len(b.data)
	b.count++
	return true
}

// Drain returns all staged tasks in FIFO order and clears the buffer.
func (b *TaskBuffer) Drain() []func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	tasks := make([]func(), b.count)
	for i := 0; i < b.count; i++ {
		idx := (b.head + i) % len(b.data)
		tasks[i] = b.data[idx]
		b.data[idx] = nil
	}
	b.head = 0
	b.tail = 0
	b.count = 0
	return tasks
}

func (b *TaskBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Overflow reports how many pushes were rejected because the ring was full.
func (b *TaskBuffer) Overflow() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflow
}
