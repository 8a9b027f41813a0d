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

package pagealloc

// Page descriptor states. Only the lowest-index page of a block carries
// meaningful state; once pages are absorbed into a larger block their
// descriptors drop back to pageUntracked.
const (
	pageUntracked uint8 = iota
	pageFree
	pageAllocated
)

// nilPage terminates free-list links.
const nilPage = int32(-1)

// pageDesc is the per-page metadata record. Free block heads are linked
// through prev/next into the free list of their order; both fields are
// indices into the descriptor table, so the lists are intrusive and never
// allocate nodes. state and order change together with list membership in
// push/unlink, making the descriptor the single source of truth for
// whether a block may be merged.
type pageDesc struct {
	state uint8
	order uint8
	prev  int32
	next  int32
}

// freeLists holds one doubly-linked list of free block heads per order.
// heads[o-minOrder] is the page index of the first free block of order o,
// or nilPage when the list is empty.
type freeLists struct {
	heads    []int32
	minOrder int
}

func newFreeLists(minOrder, maxOrder int) freeLists {
	f := freeLists{
		heads:    make([]int32, maxOrder-minOrder+1),
		minOrder: minOrder,
	}
	f.reset()
	return f
}

func (f *freeLists) reset() {
	for i := range f.heads {
		f.heads[i] = nilPage
	}
}

// head returns the first free block of the given order, or nilPage.
func (f *freeLists) head(order int) int32 {
	return f.heads[order-f.minOrder]
}

// push marks page idx free as the head of a block of the given order and
// links it at the front of that order's list.
func (f *freeLists) push(pages []pageDesc, idx int32, order int) {
	d := &pages[idx]
	d.state = pageFree
	d.order = uint8(order)
	d.prev = nilPage
	h := f.heads[order-f.minOrder]
	d.next = h
	if h != nilPage {
		pages[h].prev = idx
	}
	f.heads[order-f.minOrder] = idx
}

// unlink removes page idx from the free list of its current order and
// drops the descriptor back to untracked.
func (f *freeLists) unlink(pages []pageDesc, idx int32) {
	d := &pages[idx]
	if d.prev != nilPage {
		pages[d.prev].next = d.next
	} else {
		f.heads[int(d.order)-f.minOrder] = d.next
	}
	if d.next != nilPage {
		pages[d.next].prev = d.prev
	}
	d.state = pageUntracked
	d.prev, d.next = nilPage, nilPage
}

// count walks one order's list and returns its length.
func (f *freeLists) count(pages []pageDesc, order int) int {
	n := 0
	for idx := f.head(order); idx != nilPage; idx = pages[idx].next {
		n++
	}
	return n
}
