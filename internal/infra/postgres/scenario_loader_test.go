package postgres

import (
	"encoding/json"
	"testing"

	"scamslayer-service/internal/catalog"
)

func TestDecodeScenarioKeepsAnswerKey(t *testing.T) {
	for _, sc := range catalog.Scenarios() {
		raw, err := json.Marshal(sc)
		if err != nil {
			t.Fatalf("marshal %d: %v", sc.ID, err)
		}
		got, err := decodeScenario(sc.ID, raw)
		if err != nil {
			t.Fatalf("decode %d: %v", sc.ID, err)
		}
		if err := got.Validate(); err != nil {
			t.Fatalf("decoded scenario %d invalid: %v", sc.ID, err)
		}
		if got.Badge != sc.Badge || got.RequiredScoreForBadge != sc.RequiredScoreForBadge {
			t.Fatalf("badge settings lost for %d: %+v", sc.ID, got)
		}
	}
}

func TestDecodeScenarioRejectsGarbage(t *testing.T) {
	if _, err := decodeScenario(1, []byte("{not json")); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestDecodeScenarioUsesRowID(t *testing.T) {
	got, err := decodeScenario(42, []byte(`{"id":7,"title":"x"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 42 {
		t.Fatalf("expected row id 42, got %d", got.ID)
	}
}
