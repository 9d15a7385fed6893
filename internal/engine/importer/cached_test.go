package importer

import (
	"errors"
	"testing"
)

type countingImporter struct {
	calls int
	fail  bool
}

func (c *countingImporter) Import(path string, flags Flags) (*Scene, error) {
	c.calls++
	if c.fail {
		return nil, errors.New("broken")
	}
	return &Scene{Root: &Node{Name: path}}, nil
}

func TestCached(t *testing.T) {
	next := &countingImporter{}
	c := NewCached(next)

	a, _ := c.Import("a.glb", DefaultFlags)
	again, _ := c.Import("a.glb", DefaultFlags)
	if a != again || next.calls != 1 {
		t.Errorf("second import should hit the cache, calls = %d", next.calls)
	}

	if _, err := c.Import("a.glb", Triangulate); err != nil {
		t.Fatal(err)
	}
	if next.calls != 2 {
		t.Error("different flags should import again")
	}

	c.Forget()
	c.Import("a.glb", DefaultFlags)
	if next.calls != 3 {
		t.Error("Forget should drop cached scenes")
	}
}

func TestCachedSkipsFailures(t *testing.T) {
	next := &countingImporter{fail: true}
	c := NewCached(next)

	if _, err := c.Import("bad.glb", 0); err == nil {
		t.Fatal("expected error")
	}
	next.fail = false
	if _, err := c.Import("bad.glb", 0); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if next.calls != 2 {
		t.Errorf("calls = %d, want 2", next.calls)
	}
}
