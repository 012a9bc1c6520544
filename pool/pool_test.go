package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := New(context.Background(), 4)
	var n atomic.Int64
	for i := 0; i < 50; i++ {
		p.Submit(func(ctx context.Context) error {
			n.Add(1)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n.Load() != 50 {
		t.Fatalf("ran %d jobs, want 50", n.Load())
	}
}

func TestPoolPropagatesFirstError(t *testing.T) {
	p := New(context.Background(), 2)
	want := errors.New("boom")
	p.Submit(func(ctx context.Context) error { return want })
	for i := 0; i < 10; i++ {
		p.Submit(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}
	if err := p.Wait(); err == nil {
		t.Fatal("expected an error from Wait")
	}
}

func TestAssemblerOrdersOutOfOrderResults(t *testing.T) {
	a := NewAssembler(5)
	order := []int{3, 1, 0, 4, 2}
	go func() {
		for _, i := range order {
			a.Put(i, i)
		}
		a.Close()
	}()
	var got []int
	for r := range a.Results() {
		got = append(got, r.(int))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got %v, want strictly increasing 0..4", got)
		}
	}
}
