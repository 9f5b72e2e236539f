package vector

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	ids := []string{"a", "b", "c"}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("expected [a b], got [%s %s]", results[0].ID, results[1].ID)
	}
}

func TestMemoryIndex_SelfMatch(t *testing.T) {
	idx, _ := NewMemoryIndex(4)
	v := []float32{0.3, -1.2, 4, 0.5}
	_ = idx.Add(context.Background(), []string{"v"}, [][]float32{v})

	results, err := idx.Search(context.Background(), v, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "v" {
		t.Fatalf("unexpected results %+v", results)
	}
	if results[0].Score < 1-1e-6 || results[0].Score > 1+1e-6 {
		t.Errorf("self similarity = %f, want ~1", results[0].Score)
	}
}

func TestMemoryIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"first", "second", "third"}, [][]float32{{1, 1}, {1, 1}, {1, 1}})

	results, err := idx.Search(ctx, []float32{1, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "second", "third"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, r := range results {
		if r.ID != want[i] {
			t.Errorf("results[%d]=%s, want %s", i, r.ID, want[i])
		}
	}
}

func TestMemoryIndex_EmptyAndNonPositiveK(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	results, err := idx.Search(ctx, []float32{1, 0}, 5)
	if err != nil || len(results) != 0 {
		t.Fatalf("empty index: results=%v err=%v", results, err)
	}

	_ = idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}})
	for _, k := range []int{0, -3} {
		results, err = idx.Search(ctx, []float32{1, 0}, k)
		if err != nil || len(results) != 0 {
			t.Errorf("k=%d: results=%v err=%v", k, results, err)
		}
	}

	results, _ = idx.Search(ctx, []float32{1, 0}, 10)
	if len(results) != 1 {
		t.Errorf("k larger than size should return all, got %d", len(results))
	}
}

func TestMemoryIndex_Errors(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()

	err := idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0}})
	if !errors.Is(err, ErrArityMismatch) {
		t.Errorf("expected ErrArityMismatch, got %v", err)
	}

	// The valid first vector must not be stored when the second is bad.
	err = idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0}, {1, 0}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("failed Add stored %d entries", idx.Size())
	}

	_, err = idx.Search(ctx, []float32{1, 0}, 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch on search, got %v", err)
	}
}

func TestMemoryIndex_CopiesInput(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	v := []float32{1, 0}
	_ = idx.Add(ctx, []string{"a"}, [][]float32{v})
	v[0], v[1] = 0, 1

	results, _ := idx.Search(ctx, []float32{1, 0}, 1)
	if results[0].Score < 0.999 {
		t.Errorf("index aliased caller slice, score=%f", results[0].Score)
	}
}

func TestMemoryIndex_Remove(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"x", "y"}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Remove(ctx, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Errorf("expected size 1, got %d", idx.Size())
	}
	if ids := idx.IDs(); len(ids) != 1 || ids[0] != "y" {
		t.Errorf("IDs=%v, want [y]", ids)
	}
}

func TestMemoryIndex_EvictOldest(t *testing.T) {
	idx, _ := NewMemoryIndex(1)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"a", "b", "c", "d"}, [][]float32{{1}, {2}, {3}, {4}})

	if n := idx.EvictOldest(2); n != 2 {
		t.Errorf("evicted %d, want 2", n)
	}
	ids := idx.IDs()
	if len(ids) != 2 || ids[0] != "c" || ids[1] != "d" {
		t.Errorf("IDs=%v, want [c d]", ids)
	}
	if n := idx.EvictOldest(10); n != 2 {
		t.Errorf("evicted %d, want 2", n)
	}
	if idx.EvictOldest(0) != 0 || idx.Size() != 0 {
		t.Error("expected empty index")
	}
}
