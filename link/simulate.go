//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package link

import (
	"sync"
	"time"
)

// Simulate runs fn for n in-process parties and waits for all of them
// to finish. The first failing party closes every party's
// connections so that blocked peers fail fast. Simulate returns the
// first error.
func Simulate(n int, timeout time.Duration, fn func(ctx *Context) error) error {
	ctxs, err := Local(n, timeout)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var once sync.Once
	var first error

	closeAll := func() {
		for _, ctx := range ctxs {
			ctx.Close()
		}
	}

	for _, ctx := range ctxs {
		wg.Add(1)
		go func(ctx *Context) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				once.Do(func() {
					first = err
					go closeAll()
				})
			}
		}(ctx)
	}
	wg.Wait()
	closeAll()

	return first
}
