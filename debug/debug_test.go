package debug

import (
	"context"
	"testing"
)

func TestSampleProcess(t *testing.T) {
	s, err := SampleProcess(context.Background())
	if err != nil {
		t.Skipf("process stats unavailable: %v", err)
	}
	if s.RSS == 0 || s.HeapAlloc == 0 {
		t.Fatalf("expected non-zero rss and heap, got %+v", s)
	}
}
