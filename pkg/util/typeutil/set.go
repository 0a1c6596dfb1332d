// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package typeutil

import (
	"cmp"
	"slices"
)

// Set 为基于 map 的集合，用于记录正在访问的对象与激活的分组。
// 非并发安全，由单次调用独占。
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](elements ...T) Set[T] {
	set := make(Set[T], len(elements))
	set.Insert(elements...)
	return set
}

func (set Set[T]) Insert(elements ...T) {
	for _, elem := range elements {
		set[elem] = struct{}{}
	}
}

// Contain 判断所有元素是否都在集合中。
func (set Set[T]) Contain(elements ...T) bool {
	for _, elem := range elements {
		if _, ok := set[elem]; !ok {
			return false
		}
	}
	return true
}

// ContainAny 判断是否至少有一个元素在集合中，elements 为空时返回 false。
func (set Set[T]) ContainAny(elements ...T) bool {
	for _, elem := range elements {
		if _, ok := set[elem]; ok {
			return true
		}
	}
	return false
}

func (set Set[T]) Remove(elements ...T) {
	for _, elem := range elements {
		delete(set, elem)
	}
}

func (set Set[T]) Len() int {
	return len(set)
}

func (set Set[T]) Collect() []T {
	elements := make([]T, 0, len(set))
	for elem := range set {
		elements = append(elements, elem)
	}
	return elements
}

// SortedOf 返回升序排列的元素，用于输出稳定的日志与错误信息。
func SortedOf[T cmp.Ordered](set Set[T]) []T {
	elements := set.Collect()
	slices.Sort(elements)
	return elements
}
