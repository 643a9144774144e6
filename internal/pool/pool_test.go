package pool

import (
	"sync"
	"testing"
)

func TestPoolWithReset(t *testing.T) {
	resets := 0
	p := NewPoolWithReset(
		func() *[]int {
			s := make([]int, 0, 4)
			return &s
		},
		func(s *[]int) {
			*s = (*s)[:0]
			resets++
		},
	)

	s := p.Get()
	*s = append(*s, 1, 2, 3)
	p.Put(s)

	s = p.Get()
	if len(*s) != 0 {
		t.Errorf("expected empty slice after reset, got %v", *s)
	}
	if resets != 2 {
		t.Errorf("expected reset on every Get, got %d", resets)
	}
	p.Put(nil)
}

func TestGetBuffer(t *testing.T) {
	b := GetBuffer(1024)
	if len(*b) != 0 || cap(*b) < 1024 {
		t.Fatalf("unexpected buffer len=%d cap=%d", len(*b), cap(*b))
	}
	*b = append(*b, "hello"...)
	PutBuffer(b)

	b = GetBuffer(8)
	if len(*b) != 0 {
		t.Errorf("buffer not reset: %q", *b)
	}
	PutBuffer(b)
	PutBuffer(nil)
}

func TestGetMarksZeroed(t *testing.T) {
	m := GetMarks(5)
	if len(*m) != 5 {
		t.Fatalf("expected len 5, got %d", len(*m))
	}
	for i := range *m {
		(*m)[i] = true
	}
	PutMarks(m)

	m = GetMarks(3)
	for i, v := range *m {
		if v {
			t.Errorf("mark %d not cleared", i)
		}
	}
	PutMarks(m)

	big := GetMarks(64)
	if len(*big) != 64 {
		t.Errorf("expected len 64, got %d", len(*big))
	}
	PutMarks(big)
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m := GetMarks(n%8 + 1)
				(*m)[0] = true
				PutMarks(m)
				b := GetBuffer(32)
				*b = append(*b, 'x')
				PutBuffer(b)
			}
		}(i)
	}
	wg.Wait()
}
