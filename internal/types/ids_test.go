// internal/types/ids_test.go
package types

import (
	"testing"
)

func TestNewDocumentID(t *testing.T) {
	id := NewDocumentID()
	if id == "" {
		t.Error("expected non-empty DocumentID")
	}
	if len(string(id)) != 36 {
		t.Errorf("expected UUID format, got %s", id)
	}
	if id == NewDocumentID() {
		t.Error("expected distinct IDs")
	}
}
