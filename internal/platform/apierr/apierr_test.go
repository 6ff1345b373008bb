package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("load instrument: %w", NotFound("instrument_not_found", "The requested instrument id does not exist."))
	if got := StatusOf(wrapped); got != http.StatusNotFound {
		t.Fatalf("StatusOf(wrapped not found) = %d", got)
	}
	if got := StatusOf(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("StatusOf(plain) = %d", got)
	}
	if !Is(wrapped, http.StatusNotFound) || Is(wrapped, http.StatusForbidden) {
		t.Fatalf("Is mismatch for %v", wrapped)
	}
	if wrapped.Error() != "load instrument: The requested instrument id does not exist." {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}
