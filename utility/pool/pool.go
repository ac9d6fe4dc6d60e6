// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pool provides a fixed capacity allocator for values of one type.
// All slots are allocated up front and handed out from a free list, so
// allocation and release are constant time and never touch the heap.
// A Pool is safe for concurrent use.
package pool

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// package errors
var (
	ErrInvalidArgument = errors.New("pool: invalid argument")
	ErrOutOfMemory     = errors.New("pool: no free blocks left")
	ErrUnderflow       = errors.New("pool: deallocate called with no blocks in use")
	ErrForeignPointer  = errors.New("pool: pointer does not belong to this pool")
	ErrMisaligned      = errors.New("pool: pointer is not aligned to a block boundary")
	ErrDoubleFree      = errors.New("pool: block is already free")
)

// Releaser is implemented by values that hold on to something
// which must be let go before their block is reused.
type Releaser interface {
	Release()
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	logger logrus.FieldLogger
}

// WithLogger sets the logger used to report leaks and failing releases.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Pool is a typed slab of n blocks.
type Pool[T any] struct {
	mutex sync.RWMutex

	blocks []T
	free   []int
	isFree []bool

	logger logrus.FieldLogger
}

// New creates a pool with room for n values of T.
func New[T any](n int, opts ...Option) (*Pool[T], error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: capacity must be greater than zero, got %d", ErrInvalidArgument, n)
	}

	o := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool[T]{
		blocks: make([]T, n),
		free:   make([]int, n),
		isFree: make([]bool, n),
		logger: o.logger,
	}
	// The head of the free list is the end of the slice, fill it
	// backwards so the first allocation hands out block 0.
	for i := range p.free {
		p.free[i] = n - 1 - i
		p.isFree[i] = true
	}
	return p, nil
}

// Allocate takes a block from the pool and passes it to init, if not nil,
// before returning it. The block starts out as the zero value of T.
// If init panics the block stays free.
func (p *Pool[T]) Allocate(init func(*T)) (*T, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.free) == 0 {
		return nil, ErrOutOfMemory
	}

	index := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.isFree[index] = false

	block := &p.blocks[index]
	if init != nil {
		done := false
		defer func() {
			// A panicking init hands the block back before the panic goes on.
			if !done {
				var zero T
				*block = zero
				p.isFree[index] = true
				p.free = append(p.free, index)
			}
		}()
		init(block)
		done = true
	}
	return block, nil
}

// Deallocate returns the block pointed to by ptr to the pool. The block
// is released, if it implements Releaser, and zeroed. A panicking Release
// is logged and otherwise ignored, the block is returned either way.
func (p *Pool[T]) Deallocate(ptr *T) error {
	if ptr == nil {
		return fmt.Errorf("%w: nil pointer", ErrInvalidArgument)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.free) == len(p.blocks) {
		return ErrUnderflow
	}

	index, err := p.indexOf(ptr)
	if err != nil {
		return err
	}
	if p.isFree[index] {
		return fmt.Errorf("%w: block %d", ErrDoubleFree, index)
	}

	p.release(ptr)

	var zero T
	p.blocks[index] = zero
	p.free = append(p.free, index)
	p.isFree[index] = true
	return nil
}

func (p *Pool[T]) indexOf(ptr *T) (int, error) {
	var zero T
	blockSize := unsafe.Sizeof(zero)
	if blockSize == 0 {
		// Zero sized values all share one address, any of them is as good.
		for i, free := range p.isFree {
			if !free {
				return i, nil
			}
		}
		return 0, ErrForeignPointer
	}

	begin := uintptr(unsafe.Pointer(unsafe.SliceData(p.blocks)))
	end := begin + uintptr(len(p.blocks))*blockSize
	addr := uintptr(unsafe.Pointer(ptr))

	if addr < begin || addr >= end {
		return 0, ErrForeignPointer
	}
	if (addr-begin)%blockSize != 0 {
		return 0, ErrMisaligned
	}
	return int((addr - begin) / blockSize), nil
}

func (p *Pool[T]) release(ptr *T) {
	r, ok := any(ptr).(Releaser)
	if !ok {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			p.logger.WithField("panic", v).Error("pool: block release panicked, block returned anyway")
		}
	}()
	r.Release()
}

// Size is the capacity of the pool.
func (p *Pool[T]) Size() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return len(p.blocks)
}

// InUse is the number of blocks currently handed out.
func (p *Pool[T]) InUse() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return len(p.blocks) - len(p.free)
}

// Available is the number of blocks that can still be allocated.
func (p *Pool[T]) Available() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return len(p.free)
}

// Close drops the backing storage. Blocks still in use at this point are
// leaked; this is logged but never fails.
func (p *Pool[T]) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if inUse := len(p.blocks) - len(p.free); inUse != 0 {
		p.logger.WithFields(logrus.Fields{
			"in_use": inUse,
			"size":   len(p.blocks),
		}).Warn("pool: closed with blocks still in use")
	}
	p.blocks = nil
	p.free = nil
	p.isFree = nil
	return nil
}
