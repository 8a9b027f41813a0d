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

//go:build !(unix || linux || darwin || freebsd || openbsd || netbsd)

package pagealloc

import "github.com/bytedance/gopkg/lang/dirtmake"

// No mmap on this platform; hand back a heap arena with no unmap func so
// Close becomes a no-op.
func mapAnon(size int) ([]byte, func([]byte) error, error) {
	return dirtmake.Bytes(size, size), nil, nil
}
