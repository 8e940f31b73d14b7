package action

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_CountsAndKeepsRecent(t *testing.T) {
	r := NewRecorder(2)
	for i := 1; i <= 3; i++ {
		if err := r.MoveRelative(0, i); err != nil {
			t.Fatalf("move: %v", err)
		}
	}
	assert.Equal(t, uint64(3), r.Count())
	dx, dy := r.Total()
	assert.Equal(t, int64(0), dx)
	assert.Equal(t, int64(6), dy)
	assert.Equal(t, []Move{{0, 2}, {0, 3}}, r.Recent())
}

func TestRecorder_ConcurrentMoves(t *testing.T) {
	r := NewRecorder(0)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				_ = r.MoveRelative(1, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(1000), r.Count())
	assert.Empty(t, r.Recent())
}
