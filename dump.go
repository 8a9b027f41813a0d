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

import (
	"fmt"
	"strings"
)

// Stats is a read-only snapshot of free-list occupancy.
type Stats struct {
	// MinOrder and MaxOrder are log2 of the page and arena sizes.
	MinOrder int
	MaxOrder int
	// FreeByOrder[i] is the number of free blocks of order MinOrder+i.
	FreeByOrder []int
	// FreeBytes is the total free space in bytes.
	FreeBytes int
	// TotalBytes is the arena size in bytes.
	TotalBytes int
}

// Stats returns the current free-list occupancy. It does not mutate the
// allocator.
func (a *Allocator) Stats() Stats {
	s := Stats{
		MinOrder:    a.minOrder,
		MaxOrder:    a.maxOrder,
		FreeByOrder: make([]int, a.maxOrder-a.minOrder+1),
		TotalBytes:  len(a.arena),
	}
	for o := a.minOrder; o <= a.maxOrder; o++ {
		n := a.free.count(a.pages, o)
		s.FreeByOrder[o-a.minOrder] = n
		s.FreeBytes += n << o
	}
	return s
}

// Available returns the total free bytes available for allocation.
func (a *Allocator) Available() int {
	total := 0
	for o := a.minOrder; o <= a.maxOrder; o++ {
		total += a.free.count(a.pages, o) << o
	}
	return total
}

// Dump returns a one-line report of free-list occupancy, one
// "count:sizeK" field per order from the smallest block size up to the
// whole arena, e.g. "0:4K 1:8K 0:16K".
func (a *Allocator) Dump() string {
	var b strings.Builder
	for o := a.minOrder; o <= a.maxOrder; o++ {
		if o > a.minOrder {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d:%dK", a.free.count(a.pages, o), (1<<o)/1024)
	}
	return b.String()
}
