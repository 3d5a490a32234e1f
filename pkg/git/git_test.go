package git

import (
	"context"
	"testing"
)

func TestAvailableMissingExecutable(t *testing.T) {
	c := NewClient("/nonexistent/git-binary")
	if c.Available(context.Background()) {
		t.Error("Available should be false for a missing executable")
	}
}

func TestShortHash(t *testing.T) {
	long := Revision{Hash: "0123456789abcdef0123456789abcdef01234567"}
	if got := long.ShortHash(); got != "0123456789" {
		t.Errorf("ShortHash = %q, want first ten characters", got)
	}
	short := Revision{Hash: "abc"}
	if got := short.ShortHash(); got != "abc" {
		t.Errorf("ShortHash = %q, want unchanged short hash", got)
	}
}

func TestLogOutsideRepository(t *testing.T) {
	revs, err := NewClient("").Log(context.Background(), t.TempDir(), 10)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if revs != nil {
		t.Errorf("got %d revisions outside version control, want none", len(revs))
	}
}
