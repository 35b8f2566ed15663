package serial

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_NoReentry(t *testing.T) {
	var (
		q     Queue
		trace []string
	)
	q.Do(func() {
		trace = append(trace, "outer:start")
		q.Do(func() { trace = append(trace, "inner") })
		trace = append(trace, "outer:end")
	})
	assert.Equal(t, []string{"outer:start", "outer:end", "inner"}, trace)
	assert.Zero(t, q.Len())
}

func TestQueue_Order(t *testing.T) {
	var (
		q   Queue
		got []int
	)
	q.Push(func() { got = append(got, 1) })
	q.Push(func() { got = append(got, 2) })
	assert.Equal(t, 2, q.Len())
	q.Do(func() { got = append(got, 3) })
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestQueue_Panic(t *testing.T) {
	var q Queue
	assert.Panics(t, func() { q.Do(func() { panic("boom") }) })

	ran := false
	q.Do(func() { ran = true })
	assert.True(t, ran, "queue must recover after a panicking task")
}

func TestQueue_Concurrent(t *testing.T) {
	var (
		q       Queue
		wg      sync.WaitGroup
		running int
		count   int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Do(func() {
				running++
				assert.Equal(t, 1, running)
				count++
				running--
			})
		}()
	}
	wg.Wait()
	q.Drain()
	assert.Equal(t, 50, count)
}
