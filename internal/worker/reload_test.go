package worker

import (
	"context"
	"errors"
	"testing"

	"budgetreview/internal/amqp"
	"budgetreview/internal/dataset"
)

type fakeStore struct {
	invalidations int
	loads         int
	loadErr       error
}

func (f *fakeStore) Invalidate(string) int64 {
	f.invalidations++
	return int64(f.invalidations)
}

func (f *fakeStore) Snapshot(context.Context) (dataset.Snapshot, error) {
	f.loads++
	return dataset.Snapshot{}, f.loadErr
}

func TestHandleDatasetUpdated(t *testing.T) {
	tests := []struct {
		name              string
		versions          []int64
		wantInvalidations int
		wantSeen          int64
	}{
		{"single update", []int64{1}, 1, 1},
		{"increasing versions", []int64{1, 2, 3}, 3, 3},
		{"duplicate delivery", []int64{2, 2}, 1, 2},
		{"stale after newer", []int64{3, 1}, 1, 3},
		{"unversioned always reloads", []int64{0, 0}, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			w := NewReloadWorker(store, nil)
			for _, v := range tt.versions {
				if err := w.HandleDatasetUpdated(context.Background(), &amqp.DatasetUpdatedMessage{Version: v, Source: "test"}); err != nil {
					t.Fatalf("HandleDatasetUpdated: %v", err)
				}
			}
			if store.invalidations != tt.wantInvalidations {
				t.Errorf("invalidations = %d, want %d", store.invalidations, tt.wantInvalidations)
			}
			if store.loads != tt.wantInvalidations {
				t.Errorf("loads = %d, want %d", store.loads, tt.wantInvalidations)
			}
			if w.LastSeen() != tt.wantSeen {
				t.Errorf("LastSeen() = %d, want %d", w.LastSeen(), tt.wantSeen)
			}
		})
	}
}

func TestHandleDatasetUpdatedReloadFailureIsAcked(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("sheet unavailable")}
	w := NewReloadWorker(store, nil)
	if err := w.HandleDatasetUpdated(context.Background(), &amqp.DatasetUpdatedMessage{Version: 1}); err != nil {
		t.Fatalf("expected nil error so the message is acked, got %v", err)
	}
	if store.invalidations != 1 {
		t.Fatalf("store not invalidated")
	}
}
