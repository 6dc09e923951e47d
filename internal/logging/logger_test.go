package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race.log")
	if err := Init(path, "debug"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Debug("frames built", "frames", 71)
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "frames built") || !strings.Contains(string(data), "frames=71") {
		t.Errorf("log file = %q", data)
	}
}

func TestInitBadLevel(t *testing.T) {
	if err := Init("", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
