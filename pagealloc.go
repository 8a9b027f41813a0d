/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package pagealloc implements a fixed-arena buddy allocator.
//
// The allocator manages one contiguous arena of 2^maxOrder bytes,
// partitioned into pages of 2^minOrder bytes. Allocations are rounded up
// to the smallest enclosing power of two and served by splitting larger
// free blocks in half; on release a block is eagerly merged with its buddy
// at each order, so the free lists never hold two mergeable buddies.
// Blocks are located by address arithmetic only: per-page metadata lives
// in a flat descriptor table outside the arena, and allocated memory is
// handed to the caller untouched.
//
// The allocator is not safe for concurrent use. Callers embedding it in a
// multi-threaded runtime serialize Alloc and Free externally, typically
// with one mutex around the Allocator.
package pagealloc

import (
	"errors"
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

const (
	// DefaultMinOrder is log2 of the default page size (4KB pages).
	DefaultMinOrder = 12

	// DefaultMaxOrder is log2 of the default arena size (1MB arena).
	DefaultMaxOrder = 20

	// maxOrderLimit caps the arena at 1GB so page indices and offsets
	// stay well inside int range on 32-bit hosts.
	maxOrderLimit = 30
)

var (
	// ErrTooLarge is returned by Alloc when the requested size does not
	// fit in the largest block the arena supports.
	ErrTooLarge = errors.New("pagealloc: size exceeds max block size")

	// ErrNoMemory is returned by Alloc when no free block can satisfy
	// the request until memory is released.
	ErrNoMemory = errors.New("pagealloc: out of memory")
)

// Allocator is a fixed-arena buddy allocator. It hands out naturally
// aligned power-of-two sized slices of the arena; Alloc and Free both run
// in O(maxOrder-minOrder).
type Allocator struct {
	// arena is the memory being managed. Its contents are owned by
	// callers once allocated; the allocator never writes into it.
	arena []byte

	// arenaStart is a cached pointer to the start of the arena, used to
	// resolve block slices back to offsets in Free.
	arenaStart unsafe.Pointer

	// pages has one descriptor per 2^minOrder bytes of arena.
	pages []pageDesc

	// free links free block heads per order, minOrder..maxOrder.
	free freeLists

	minOrder int
	maxOrder int
	pageSize int

	// unmap releases an mmap-backed arena; nil for heap arenas.
	unmap func([]byte) error
}

// New creates an allocator managing a heap-backed arena of 2^maxOrder
// bytes partitioned into pages of 2^minOrder bytes.
// The arena is allocated without zeroing; Alloc'd blocks hold garbage.
func New(minOrder, maxOrder int) (*Allocator, error) {
	if err := checkOrders(minOrder, maxOrder); err != nil {
		return nil, err
	}
	size := 1 << maxOrder
	return newAllocator(dirtmake.Bytes(size, size), minOrder, nil), nil
}

// NewFromArena creates an allocator over a caller-supplied arena, e.g. a
// region carved out of a larger mapping. len(arena) must be a power of
// two greater than the 2^minOrder page size.
func NewFromArena(arena []byte, minOrder int) (*Allocator, error) {
	n := len(arena)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("pagealloc: arena size must be a power of two, got %d", n)
	}
	if err := checkOrders(minOrder, bits.TrailingZeros(uint(n))); err != nil {
		return nil, err
	}
	return newAllocator(arena, minOrder, nil), nil
}

func checkOrders(minOrder, maxOrder int) error {
	if minOrder <= 0 || minOrder >= maxOrder {
		return fmt.Errorf("pagealloc: need 0 < minOrder < maxOrder, got %d and %d", minOrder, maxOrder)
	}
	if maxOrder > maxOrderLimit {
		return fmt.Errorf("pagealloc: maxOrder must be <= %d, got %d", maxOrderLimit, maxOrder)
	}
	return nil
}

func newAllocator(arena []byte, minOrder int, unmap func([]byte) error) *Allocator {
	maxOrder := bits.TrailingZeros(uint(len(arena)))
	a := &Allocator{
		arena:      arena,
		arenaStart: unsafe.Pointer(&arena[0]),
		pages:      make([]pageDesc, len(arena)>>minOrder),
		free:       newFreeLists(minOrder, maxOrder),
		minOrder:   minOrder,
		maxOrder:   maxOrder,
		pageSize:   1 << minOrder,
		unmap:      unmap,
	}
	for i := range a.pages {
		a.pages[i].prev, a.pages[i].next = nilPage, nilPage
	}
	// the whole arena starts as one free block of the largest order
	a.free.push(a.pages, 0, maxOrder)
	return a
}

// orderFor returns the smallest order whose block holds size bytes, or -1
// when size exceeds the arena's largest block.
func (a *Allocator) orderFor(size int) int {
	if size <= 0 {
		return -1
	}
	order := a.minOrder
	if size > a.pageSize {
		order = bits.Len(uint(size - 1))
	}
	if order > a.maxOrder {
		return -1
	}
	return order
}

// Alloc allocates a block of at least size bytes. The returned slice has
// len size and cap the full block size 2^orderFor(size); its base is
// aligned to the block size and disjoint from every other live block.
// It returns ErrTooLarge when no order can hold size, and ErrNoMemory
// when the arena has no free block of a sufficient order. A failed Alloc
// mutates no state.
func (a *Allocator) Alloc(size int) ([]byte, error) {
	order := a.orderFor(size)
	if order < 0 {
		return nil, ErrTooLarge
	}
	for o := order; o <= a.maxOrder; o++ {
		idx := a.free.head(o)
		if idx == nilPage {
			continue
		}
		a.free.unlink(a.pages, idx)
		if o > order {
			a.split(idx, o, order)
		}
		d := &a.pages[idx]
		d.state = pageAllocated
		d.order = uint8(order)
		off := int(idx) << a.minOrder
		return a.arena[off : off+size : off+(1<<order)], nil
	}
	return nil, ErrNoMemory
}

// split halves the block headed by page idx from order `from` down to
// order `to`. At each step the lower half is retained for the next step
// and the upper half's head page is pushed onto the free list of the
// step's order, so the original base survives as the final block's base.
func (a *Allocator) split(idx int32, from, to int) {
	for order := from - 1; order >= to; order-- {
		buddy := idx | int32(1)<<(order-a.minOrder)
		a.free.push(a.pages, buddy, order)
	}
}

// Free releases a block previously returned by Alloc. The slice must
// have the base pointer Alloc returned; do not reslice the front off
// (e.g. block[n:]) before freeing. The block is merged with its buddy at
// each order while the buddy is entirely free, so after Free returns no
// two free same-order buddies exist.
//
// Free panics on a detectable contract violation: a pointer outside the
// arena, a misaligned base, or a block that is not currently allocated
// (double free).
func (a *Allocator) Free(block []byte) {
	if cap(block) == 0 {
		return
	}
	// Read the base pointer from the slice header directly to avoid a
	// panic on zero-length slices.
	base := *(*uintptr)(unsafe.Pointer(&block))
	off := int(base - uintptr(a.arenaStart))
	if off < 0 || off >= len(a.arena) {
		panic("pagealloc: block not in arena")
	}
	a.freeAt(off)
}

// FreeAt releases the block whose base sits at the given arena offset,
// as returned by Offset. It panics like Free on invalid input; use
// IsValidOffset first for untrusted offsets.
func (a *Allocator) FreeAt(offset int) {
	if offset < 0 || offset >= len(a.arena) {
		panic("pagealloc: offset out of range")
	}
	a.freeAt(offset)
}

func (a *Allocator) freeAt(off int) {
	if off&(a.pageSize-1) != 0 {
		panic("pagealloc: misaligned block")
	}
	idx := int32(off >> a.minOrder)
	d := &a.pages[idx]
	if d.state != pageAllocated {
		panic("pagealloc: double free or invalid block")
	}
	order := int(d.order)
	d.state = pageUntracked

	// Walk upward merging buddy pairs. The buddy participates only when
	// its head descriptor is free at this exact order; a buddy that is
	// allocated, split further, or absorbed into a larger block fails
	// the check. The lower-index page survives as the merged head.
	for order < a.maxOrder {
		buddy := idx ^ int32(1)<<(order-a.minOrder)
		bd := &a.pages[buddy]
		if bd.state != pageFree || int(bd.order) != order {
			break
		}
		a.free.unlink(a.pages, buddy)
		if buddy < idx {
			idx = buddy
		}
		order++
	}
	a.free.push(a.pages, idx, order)
}

// Offset returns the arena offset of a block returned by Alloc, for
// embedders that store positions instead of slices. Panics if the block
// does not belong to this allocator.
func (a *Allocator) Offset(block []byte) int {
	base := *(*uintptr)(unsafe.Pointer(&block))
	off := int(base - uintptr(a.arenaStart))
	if off < 0 || off >= len(a.arena) {
		panic("pagealloc: block not in arena")
	}
	return off
}

// IsValidOffset reports whether offset is in bounds and page aligned. It
// does not check allocation state.
func (a *Allocator) IsValidOffset(offset int) bool {
	return offset >= 0 && offset < len(a.arena) && offset&(a.pageSize-1) == 0
}

// Reset discards all allocations and returns the arena to its initial
// state, a single free block of the largest order. Blocks handed out
// before Reset must not be used or freed afterwards.
func (a *Allocator) Reset() {
	for i := range a.pages {
		a.pages[i] = pageDesc{prev: nilPage, next: nilPage}
	}
	a.free.reset()
	a.free.push(a.pages, 0, a.maxOrder)
}

// Close releases an mmap-backed arena (see NewMmap). It is a no-op for
// heap-backed arenas. The allocator must not be used after Close.
func (a *Allocator) Close() error {
	if a.unmap == nil {
		return nil
	}
	arena := a.arena
	unmap := a.unmap
	a.arena, a.arenaStart, a.pages, a.unmap = nil, nil, nil, nil
	return unmap(arena)
}

// Size returns the arena size in bytes.
func (a *Allocator) Size() int { return len(a.arena) }

// PageSize returns the size of the smallest allocatable block.
func (a *Allocator) PageSize() int { return a.pageSize }

// MinOrder returns log2 of the page size.
func (a *Allocator) MinOrder() int { return a.minOrder }

// MaxOrder returns log2 of the arena size.
func (a *Allocator) MaxOrder() int { return a.maxOrder }
