package internal

import (
	"testing"
)

func TestWriteArtifactFileRoundTrip(t *testing.T) {
	MockFileSystem(true)
	defer MockFileSystem(false)

	contents := "terraform {}\n"
	if err := WriteArtifactFile("/tmp/rightstart-test/nested/backend.tf", contents); err != nil {
		t.Fatalf("write artifact: %s", err)
	}

	got, err := ReadArtifactFile("/tmp/rightstart-test/nested/backend.tf")
	if err != nil {
		t.Fatalf("read artifact: %s", err)
	}
	if got != contents {
		t.Errorf("expected %q, got %q", contents, got)
	}
}
