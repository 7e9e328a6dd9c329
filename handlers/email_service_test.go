package handlers

import (
	"testing"

	"github.com/google/uuid"
	"p9e.in/fleetparts/models"
)

func TestResequenceForMergeContinuesAfterTarget(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	// Gapped source positions; relative order must survive the merge
	source := []models.EmailMessage{
		{ID: b, Position: 5},
		{ID: a, Position: 2},
		{ID: c, Position: 9},
	}

	merged := resequenceForMerge(3, source)

	if len(merged) != 3 {
		t.Fatalf("merged %d messages, want 3", len(merged))
	}
	wantOrder := []uuid.UUID{a, b, c}
	for i, msg := range merged {
		if msg.ID != wantOrder[i] {
			t.Fatalf("message %d = %s, want %s", i, msg.ID, wantOrder[i])
		}
		if msg.Position != 4+i {
			t.Errorf("message %d position = %d, want %d", i, msg.Position, 4+i)
		}
	}
}

func TestResequenceForMergeEmptyTarget(t *testing.T) {
	source := []models.EmailMessage{
		{ID: uuid.New(), Position: 7},
		{ID: uuid.New(), Position: 1},
	}

	// -1 is the sentinel max for a thread with no messages
	merged := resequenceForMerge(-1, source)

	if merged[0].Position != 0 || merged[1].Position != 1 {
		t.Errorf("positions = %d, %d, want 0, 1", merged[0].Position, merged[1].Position)
	}
}

func TestResequenceForMergeStableOnEqualPositions(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	source := []models.EmailMessage{
		{ID: a, Position: 0},
		{ID: b, Position: 0},
	}

	merged := resequenceForMerge(2, source)

	if merged[0].ID != a || merged[1].ID != b {
		t.Error("equal positions must keep their original order")
	}
	if merged[0].Position != 3 || merged[1].Position != 4 {
		t.Errorf("positions = %d, %d, want 3, 4", merged[0].Position, merged[1].Position)
	}
}
