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

package conc

import (
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"
	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"

	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

// Pool 是基于 ants 的泛型协程池，提交的任务以 Future 形式返回结果。
type Pool[T any] struct {
	inner     *ants.Pool
	opt       *poolOption
	submitted atomic.Int64
}

// NewPool 创建容量为 cap 的协程池，cap <= 0 时使用 CPU 核数。
func NewPool[T any](cap int, opts ...PoolOption) (*Pool[T], error) {
	if cap <= 0 {
		cap = runtime.NumCPU()
	}
	opt := &poolOption{}
	for _, o := range opts {
		o(opt)
	}

	pool, err := ants.NewPool(cap, opt.antsOptions()...)
	if err != nil {
		return nil, errors.Wrap(err, "create ants pool")
	}
	return &Pool[T]{inner: pool, opt: opt}, nil
}

// Submit 提交一个任务，立即返回对应的 Future。
// 非阻塞模式下协程池已满时，Future 携带 merr.ErrPoolExhausted。
func (pool *Pool[T]) Submit(method func() (T, error)) *Future[T] {
	future := newFuture[T]()
	err := pool.inner.Submit(func() {
		defer close(future.ch)
		defer func() {
			if x := recover(); x != nil {
				if !pool.opt.concealPanic {
					panic(x)
				}
				future.err = fmt.Errorf("panicked with error: %v", x)
			}
		}()
		future.value, future.err = method()
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			err = merr.WrapErrPoolExhausted(err.Error())
		}
		future.err = err
		close(future.ch)
		return future
	}
	pool.submitted.Inc()
	return future
}

// Cap 返回协程池容量。
func (pool *Pool[T]) Cap() int {
	return pool.inner.Cap()
}

// Running 返回正在执行任务的 worker 数量。
func (pool *Pool[T]) Running() int {
	return pool.inner.Running()
}

// Free 返回空闲 worker 数量。
func (pool *Pool[T]) Free() int {
	return pool.inner.Free()
}

// Submitted 返回成功提交过的任务总数。
func (pool *Pool[T]) Submitted() int64 {
	return pool.submitted.Load()
}

func (pool *Pool[T]) Release() {
	pool.inner.Release()
}
