package model

import (
	"testing"
)

func TestNewBlock(t *testing.T) {
	block := NewBlock(3, []byte("payload"))

	if block.Seq != 3 {
		t.Errorf("expected seq 3, got %d", block.Seq)
	}
	if block.Len() != 7 {
		t.Errorf("expected len 7, got %d", block.Len())
	}
}
