package embedder

import (
	"context"
	"testing"
)

func Test_Heuristic_Deterministic(t *testing.T) {
	t.Parallel()

	h := NewHeuristic()
	ctx := context.Background()
	text := "show me all devices in the network"

	a, err := h.Embed(ctx, []string{text})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, err := h.Embed(ctx, []string{text})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("component %d differs between runs: %v vs %v", i, a[0][i], b[0][i])
		}
	}
}

func Test_Heuristic_FeatureLayout(t *testing.T) {
	t.Parallel()

	h := NewHeuristic()
	vecs, err := h.Embed(context.Background(), []string{"ip ip ip"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	vec := vecs[0]

	if len(vec) != Dimension {
		t.Fatalf("want width %d, got %d", Dimension, len(vec))
	}
	if vec[0] != 3 {
		t.Errorf("token count: want 3, got %v", vec[0])
	}
	if vec[1] != 1 {
		t.Errorf("distinct tokens: want 1, got %v", vec[1])
	}
	if vec[2] != 2 {
		t.Errorf("mean token length: want 2, got %v", vec[2])
	}
	// "ip" is the fourth domain keyword (index 3+3).
	if vec[6] != 3 {
		t.Errorf("ip keyword count: want 3, got %v", vec[6])
	}
}

func Test_Heuristic_EmptyText(t *testing.T) {
	t.Parallel()

	h := NewHeuristic()
	vecs, err := h.Embed(context.Background(), []string{""})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i, v := range vecs[0] {
		if v != 0 {
			t.Fatalf("component %d non-zero for empty text: %v", i, v)
		}
	}
}

func Test_Heuristic_HashFeaturesInRange(t *testing.T) {
	t.Parallel()

	h := NewHeuristic()
	vecs, err := h.Embed(context.Background(), []string{"router switch firewall"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	base := 3 + len(heuristicKeywords)
	for i := base; i < base+3; i++ {
		if vecs[0][i] < 0 || vecs[0][i] >= 1 {
			t.Errorf("hash feature %d out of [0,1): %v", i, vecs[0][i])
		}
	}
}
