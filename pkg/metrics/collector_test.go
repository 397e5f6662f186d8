package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEdgeSampler_SamplesOnStart(t *testing.T) {
	calls := make(chan int, 4)
	count := 3
	s := NewEdgeSampler(func() int {
		calls <- count
		return count
	})

	s.Start(20 * time.Millisecond)
	defer s.Stop()

	select {
	case n := <-calls:
		assert.Equal(t, 3, n)
	case <-time.After(time.Second):
		t.Fatal("sampler did not sample on start")
	}
}

func TestEdgeSampler_NilFuncIsSafe(t *testing.T) {
	s := NewEdgeSampler(nil)
	s.Start(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	s.Stop()
}
