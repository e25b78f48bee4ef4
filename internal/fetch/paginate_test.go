package fetch

import (
	"context"
	"errors"
	"testing"
)

func TestCollectOffset(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		pageSize     int
		wantRequests int
	}{
		{"empty result", 0, 50, 1},
		{"single partial page", 30, 50, 1},
		{"exact page boundary", 100, 50, 2},
		{"remainder page", 120, 50, 3},
		{"one record", 1, 50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests int
			fn := func(_ context.Context, startAt, pageSize int) ([]int, int, error) {
				requests++
				var items []int
				for i := startAt; i < tt.total && i < startAt+pageSize; i++ {
					items = append(items, i)
				}
				return items, tt.total, nil
			}

			got, err := CollectOffset(context.Background(), tt.pageSize, fn)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.total {
				t.Errorf("len = %d, want %d", len(got), tt.total)
			}
			if requests != tt.wantRequests {
				t.Errorf("requests = %d, want %d", requests, tt.wantRequests)
			}
			for i, v := range got {
				if v != i {
					t.Fatalf("order broken at %d: got %d", i, v)
				}
			}
		})
	}
}

func TestCollectOffsetPropagatesError(t *testing.T) {
	boom := errors.New("page exploded")
	var requests int
	fn := func(_ context.Context, startAt, pageSize int) ([]int, int, error) {
		requests++
		if startAt > 0 {
			return nil, 0, boom
		}
		return []int{0, 1}, 10, nil
	}

	_, err := CollectOffset(context.Background(), 2, fn)
	if !errors.Is(err, boom) {
		t.Fatalf("expected page error, got %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2 (abort on first failure)", requests)
	}
}

func TestCollectOffsetRejectsBadPageSize(t *testing.T) {
	_, err := CollectOffset(context.Background(), 0, func(context.Context, int, int) ([]int, int, error) {
		t.Fatal("page func must not run")
		return nil, 0, nil
	})
	if err == nil {
		t.Fatal("expected error for page size 0")
	}
}

func TestCollectOffsetStopsOnEmptyPage(t *testing.T) {
	var requests int
	fn := func(_ context.Context, startAt, pageSize int) ([]int, int, error) {
		requests++
		if startAt > 0 {
			return nil, 1000, nil
		}
		return []int{0, 1}, 1000, nil
	}

	got, err := CollectOffset(context.Background(), 2, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || requests != 2 {
		t.Errorf("len = %d requests = %d, want 2 and 2", len(got), requests)
	}
}

func TestCollectCursor(t *testing.T) {
	pages := [][]string{{"a", "b"}, {"c"}, {"d", "e"}}
	var requests int
	fn := func(_ context.Context, page int) ([]string, bool, error) {
		requests++
		return pages[page-1], page < len(pages), nil
	}

	got, err := CollectCursor(context.Background(), fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b", "c", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if requests != 3 {
		t.Errorf("requests = %d, want 3", requests)
	}
}

func TestCollectCursorEmptyFirstPage(t *testing.T) {
	got, err := CollectCursor(context.Background(), func(_ context.Context, page int) ([]string, bool, error) {
		return nil, false, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestCollectCursorPropagatesError(t *testing.T) {
	boom := errors.New("cursor lost")
	_, err := CollectCursor(context.Background(), func(_ context.Context, page int) ([]int, bool, error) {
		if page == 2 {
			return nil, false, boom
		}
		return []int{page}, true, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected cursor error, got %v", err)
	}
}
