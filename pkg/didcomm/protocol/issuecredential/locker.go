/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import "sync"

// threadLocker serializes work on a single thread. Different threads proceed concurrently.
type threadLocker struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	sync.Mutex
	refs int
}

func newThreadLocker() *threadLocker {
	return &threadLocker{locks: map[string]*threadLock{}}
}

// lock blocks until the thread is free and returns the function releasing it.
func (l *threadLocker) lock(threadID string) func() {
	l.mu.Lock()

	tl, ok := l.locks[threadID]
	if !ok {
		tl = &threadLock{}
		l.locks[threadID] = tl
	}

	tl.refs++
	l.mu.Unlock()

	tl.Lock()

	return func() {
		tl.Unlock()

		l.mu.Lock()
		tl.refs--

		if tl.refs == 0 {
			delete(l.locks, threadID)
		}

		l.mu.Unlock()
	}
}
