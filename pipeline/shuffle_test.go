package pipeline

import (
	"context"
	"math/rand"
	"sort"
	"testing"
)

func TestShuffle_BufferOneIsIdentity(t *testing.T) {
	in := []int{5, 4, 3, 2, 1}
	p := Shuffle(FromSlice(in), 1, rand.New(rand.NewSource(7)))
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, in) {
		t.Errorf("buffer size 1 must preserve order: got %v, want %v", got, in)
	}
}

func TestShuffle_IsPermutation(t *testing.T) {
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	for _, n := range []int{2, 10, 100, 1000} {
		p := Shuffle(FromSlice(in), n, rand.New(rand.NewSource(int64(n))))
		got, err := Collect(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		sorted := append([]int(nil), got...)
		sort.Ints(sorted)
		if !intSliceEqual(sorted, in) {
			t.Errorf("buffer %d: output is not a permutation of input", n)
		}
	}
}

func TestShuffle_LargeBufferReorders(t *testing.T) {
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	p := Shuffle(FromSlice(in), len(in), rand.New(rand.NewSource(1)))
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if intSliceEqual(got, in) {
		t.Error("full-buffer shuffle left 100 elements in input order; the buffer is not being sampled")
	}
}

func TestShuffle_LocalityBound(t *testing.T) {
	// The first emitted element must come from the initial buffer fill,
	// i.e. one of the first n inputs.
	const n = 10
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	p := Shuffle(FromSlice(in), n, rand.New(rand.NewSource(42)))
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] >= n {
		t.Errorf("first output %d cannot come from beyond the initial buffer of %d", got[0], n)
	}
}

func TestShuffle_EmptyUpstream(t *testing.T) {
	p := Shuffle(Empty[int](), 8, rand.New(rand.NewSource(1)))
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestShuffle_ClosePropagates(t *testing.T) {
	closed := false
	iter := &trackedIter{items: []int{1, 2, 3}, onClose: func() { closed = true }}
	p := Shuffle(From[int](iter), 2, rand.New(rand.NewSource(1)))
	if _, err := Take(context.Background(), p, 1); err != nil {
		t.Fatal(err)
	}
	if !closed {
		t.Error("shuffle must close its source on abandonment")
	}
}
