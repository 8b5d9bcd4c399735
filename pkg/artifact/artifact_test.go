package artifact

import "testing"

func TestNewArtifact(t *testing.T) {
	a := New("content", "mock", "mock-1", "prompt")

	if a.ID == "" || a.Hash == "" {
		t.Fatal("artifact must carry an id and a hash")
	}
	if a.Version != 1 {
		t.Errorf("Version = %d, want 1", a.Version)
	}
	if a.Adapter != "mock" || a.Model != "mock-1" {
		t.Errorf("provenance fields not set: %q %q", a.Adapter, a.Model)
	}
}

func TestNewVersionKeepsIdentity(t *testing.T) {
	a := New("before", "mock", "mock-1", "prompt")
	b := a.NewVersion("after")

	if b.ID != a.ID {
		t.Error("a new version must keep the artifact identity")
	}
	if b.Version != 2 {
		t.Errorf("Version = %d, want 2", b.Version)
	}
	if b.Hash == a.Hash {
		t.Error("changed content must change the hash")
	}
	if a.Content != "before" {
		t.Error("the original artifact must stay immutable")
	}
}

func TestWithMetadataCopies(t *testing.T) {
	a := New("content", "mock", "mock-1", "prompt")
	b := a.WithMetadata("stage", "plan")

	if b.Metadata["stage"] != "plan" {
		t.Error("metadata entry not added")
	}
	if _, ok := a.Metadata["stage"]; ok {
		t.Error("the original artifact's metadata must not be mutated")
	}
	if b.Hash != a.Hash || b.Version != a.Version {
		t.Error("metadata must not affect hash or version")
	}
}
