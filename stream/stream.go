// Package stream provides small generic channel pipeline combinators.
package stream

import (
	"context"
	"sync"
)

// Slice, et al., taken from:
// https://betterprogramming.pub/writing-a-stream-api-in-go-afbc3c4350e2

func Slice[T any](ctx context.Context, in []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Filter[T any](ctx context.Context, predicate func(T) bool, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for element := range in {
			if predicate(element) {
				select {
				case <-ctx.Done():
					return
				case out <- element:
				}
			}
		}
	}()
	return out
}

func Transform[I any, O any](ctx context.Context, transformer func(I) O, in <-chan I) <-chan O {
	out := make(chan O)
	go func() {
		defer close(out)
		for element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- transformer(element):
			}
		}
	}()
	return out
}

func Collect[T any](ctx context.Context, in <-chan T) []T {
	out := make([]T, 0)
	for element := range in {
		select {
		case <-ctx.Done():
			return out
		default:
			out = append(out, element)
		}
	}
	return out
}

// Sink drains the channel through fn, blocking until in closes.
// A nil fn just drains.
func Sink[T any](ctx context.Context, fn func(T), in <-chan T) {
	for element := range in {
		select {
		case <-ctx.Done():
			return
		default:
			if fn != nil {
				fn(element)
			}
		}
	}
}

// Batch groups elements into slices, emitting when full reports true
// or the input closes. A nil full batches everything into one slice.
func Batch[T any](ctx context.Context, full func([]T) bool, in <-chan T) <-chan []T {
	out := make(chan []T)
	go func() {
		defer close(out)
		var batch []T
		flush := func() bool {
			if len(batch) == 0 {
				return true
			}
			select {
			case <-ctx.Done():
				return false
			case out <- batch:
				batch = nil
				return true
			}
		}
		for element := range in {
			batch = append(batch, element)
			if full != nil && full(batch) {
				if !flush() {
					return
				}
			}
		}
		flush()
	}()
	return out
}

// BatchSize is the common Batch case: emit every n elements.
func BatchSize[T any](ctx context.Context, n int, in <-chan T) <-chan []T {
	return Batch(ctx, func(batch []T) bool { return len(batch) == n }, in)
}

// Merge fans multiple channels into one. The output closes when all
// inputs have closed.
func Merge[T any](ctx context.Context, ins ...<-chan T) <-chan T {
	out := make(chan T)
	wait := sync.WaitGroup{}
	wait.Add(len(ins))
	for _, in := range ins {
		go func(in <-chan T) {
			defer wait.Done()
			for element := range in {
				select {
				case <-ctx.Done():
					return
				case out <- element:
				}
			}
		}(in)
	}
	go func() {
		wait.Wait()
		close(out)
	}()
	return out
}

// Tee duplicates a stream. Both outputs must be consumed;
// a slow reader on either side blocks the other.
func Tee[T any](ctx context.Context, in <-chan T) (<-chan T, <-chan T) {
	a, b := make(chan T), make(chan T)
	go func() {
		defer close(a)
		defer close(b)
		for element := range in {
			element := element
			for _, out := range []chan T{a, b} {
				select {
				case <-ctx.Done():
					return
				case out <- element:
				}
			}
		}
	}()
	return a, b
}
