package queue

import (
	"strings"
	"sync"
	"testing"
)

type line struct {
	Owner string
	Text  string
}

func TestQueue_New(t *testing.T) {
	q := New[line]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestQueue_PushPop(t *testing.T) {
	q := New[line]()

	if _, ok := q.Pop(); ok {
		t.Error("expected Pop on empty queue to report false")
	}

	q.Push(line{"alice", "first"}, line{"bob", "second"})
	if q.Len() != 2 {
		t.Errorf("expected length 2, got %d", q.Len())
	}

	first, ok := q.Pop()
	if !ok || first.Text != "first" {
		t.Errorf("expected first, got %+v (ok=%v)", first, ok)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
}

func TestQueue_Peek(t *testing.T) {
	q := New[line]()
	if _, ok := q.Peek(); ok {
		t.Error("expected Peek on empty queue to report false")
	}

	q.Push(line{"alice", "a"}, line{"alice", "b"})
	last, ok := q.Peek()
	if !ok || last.Text != "b" {
		t.Errorf("expected b, got %+v", last)
	}
	if q.Len() != 2 {
		t.Errorf("Peek must not remove, len=%d", q.Len())
	}
}

func TestQueue_Drain(t *testing.T) {
	q := New[line]()
	q.Push(line{Text: "1"}, line{Text: "2"}, line{Text: "3"})

	result := q.Drain()

	if len(result) != 3 || result[0].Text != "1" || result[2].Text != "3" {
		t.Errorf("unexpected items: %+v", result)
	}
	if q.Len() != 0 {
		t.Error("expected empty queue after Drain")
	}
}

func TestQueue_DrainFunc(t *testing.T) {
	q := New[line]()
	q.Push(line{"alice", "a1"}, line{"bob", "b1"}, line{"alice", "a2"})

	alice := q.DrainFunc(func(l line) bool { return l.Owner == "alice" })

	if len(alice) != 2 || alice[0].Text != "a1" || alice[1].Text != "a2" {
		t.Errorf("unexpected alice lines: %+v", alice)
	}
	rest := q.Drain()
	if len(rest) != 1 || rest[0].Owner != "bob" {
		t.Errorf("unexpected remaining lines: %+v", rest)
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[line]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.Push(line{Text: strings.Repeat("x", id)})
		}(i)
	}
	wg.Wait()

	if q.Len() != 100 {
		t.Errorf("expected 100 items, got %d", q.Len())
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Pop()
		}()
	}
	wg.Wait()

	if q.Len() != 50 {
		t.Errorf("expected 50 items after pops, got %d", q.Len())
	}
}

func TestQueue_ConcurrentDrain(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		q.Push(i)
	}

	var wg sync.WaitGroup
	results := make(chan []int, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- q.Drain()
		}()
	}
	wg.Wait()
	close(results)

	total := 0
	for r := range results {
		total += len(r)
	}
	if total != 100 {
		t.Errorf("expected total 100 items, got %d", total)
	}
}
