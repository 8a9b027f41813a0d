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

import "fmt"

// NewMmap creates an allocator whose arena is an anonymous private
// mapping instead of Go heap memory, keeping a large arena out of the
// garbage collector's working set. Close unmaps the arena. On platforms
// without mmap support the arena falls back to the heap and Close is a
// no-op.
func NewMmap(minOrder, maxOrder int) (*Allocator, error) {
	if err := checkOrders(minOrder, maxOrder); err != nil {
		return nil, err
	}
	arena, unmap, err := mapAnon(1 << maxOrder)
	if err != nil {
		return nil, fmt.Errorf("pagealloc: mmap arena: %w", err)
	}
	return newAllocator(arena, minOrder, unmap), nil
}
