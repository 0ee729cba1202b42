package util

import "testing"

func TestChunkIDStable(t *testing.T) {
	a := ChunkID("https://example.com/docs", 3)
	b := ChunkID("https://example.com/docs", 3)
	if a != b {
		t.Errorf("expected stable IDs, got %s and %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("expected 16-char ID, got %d chars", len(a))
	}
}

func TestChunkIDVaries(t *testing.T) {
	if ChunkID("https://example.com/a", 0) == ChunkID("https://example.com/b", 0) {
		t.Error("different URLs should produce different IDs")
	}
	if ChunkID("https://example.com/a", 0) == ChunkID("https://example.com/a", 1) {
		t.Error("different chunk indexes should produce different IDs")
	}
}

func TestNewRunIDUnique(t *testing.T) {
	if NewRunID() == NewRunID() {
		t.Error("expected unique run IDs")
	}
}
