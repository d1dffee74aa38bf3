package fn

import "sync"

// FanOut runs the functions concurrently and returns their results in order.
func FanOut[T any](fns ...func() T) []T {
	out := make([]T, len(fns))
	var wg sync.WaitGroup
	for i, f := range fns {
		wg.Add(1)
		go func(i int, f func() T) {
			defer wg.Done()
			out[i] = f()
		}(i, f)
	}
	wg.Wait()
	return out
}

// FanOutResult runs the functions concurrently and returns each Result in
// order. Failures do not cancel or fail the other functions; the caller
// decides which results are required and which are best-effort.
func FanOutResult[T any](fns ...func() Result[T]) []Result[T] {
	results := make([]Result[T], len(fns))
	var wg sync.WaitGroup
	for i, f := range fns {
		wg.Add(1)
		go func(i int, f func() Result[T]) {
			defer wg.Done()
			results[i] = f()
		}(i, f)
	}
	wg.Wait()
	return results
}

// Collect returns all values if every result is ok, or the first error.
func Collect[T any](results []Result[T]) Result[[]T] {
	out := make([]T, len(results))
	for i, r := range results {
		if r.IsErr() {
			_, err := r.Unwrap()
			return Err[[]T](err)
		}
		v, _ := r.Unwrap()
		out[i] = v
	}
	return Ok(out)
}
