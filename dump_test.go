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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	a := newTestAllocator(t, 12, 14)
	assert.Equal(t, "0:4K 0:8K 1:16K", a.Dump())

	b, err := a.Alloc(4096)
	require.NoError(t, err)
	assert.Equal(t, "1:4K 1:8K 0:16K", a.Dump())

	// Dump observes only; back-to-back calls agree
	assert.Equal(t, a.Dump(), a.Dump())

	a.Free(b)
	assert.Equal(t, "0:4K 0:8K 1:16K", a.Dump())
}

func TestStats(t *testing.T) {
	a := newTestAllocator(t, 12, 14)

	s := a.Stats()
	assert.Equal(t, 12, s.MinOrder)
	assert.Equal(t, 14, s.MaxOrder)
	assert.Equal(t, []int{0, 0, 1}, s.FreeByOrder)
	assert.Equal(t, 16384, s.FreeBytes)
	assert.Equal(t, 16384, s.TotalBytes)

	b, err := a.Alloc(4096)
	require.NoError(t, err)
	s = a.Stats()
	assert.Equal(t, []int{1, 1, 0}, s.FreeByOrder)
	assert.Equal(t, 12288, s.FreeBytes)
	assert.Equal(t, 16384, s.TotalBytes)

	a.Free(b)
	assert.Equal(t, []int{0, 0, 1}, a.Stats().FreeByOrder)
}

func TestAvailable(t *testing.T) {
	a := newTestAllocator(t, 12, 16)
	assert.Equal(t, 64*1024, a.Available())

	b1, err := a.Alloc(100) // one 4KB page
	require.NoError(t, err)
	assert.Equal(t, 60*1024, a.Available())

	b2, err := a.Alloc(9000) // one 16KB block
	require.NoError(t, err)
	assert.Equal(t, 44*1024, a.Available())

	a.Free(b1)
	a.Free(b2)
	assert.Equal(t, 64*1024, a.Available())
}
