package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const listFixture = `{
  "vehicles": [
    {
      "id": "vehicle-t-90m-op7-001",
      "type": "main-battle-tank",
      "names": [{"value": "T-90M Proryv", "language": "en"}]
    }
  ],
  "vehicleTypes": [
    {"id": "main-battle-tank", "name": "Main Battle Tank"}
  ]
}
`

func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	runErr := fn()
	w.Close()
	os.Stdout = orig
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured output: %v", err)
	}
	if runErr != nil {
		t.Fatalf("command: %v", runErr)
	}
	return string(out)
}

func TestListOutputIsPlainASCII(t *testing.T) {
	resetCommandState(t)
	t.Cleanup(func() { listDB, listCategory = "", "" })

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "odesa_oblast.json"), []byte(listFixture), 0644); err != nil {
		t.Fatalf("seed database: %v", err)
	}

	dataDir = dir
	noNotify = true
	listDB = "OP7"

	out := captureStdout(t, func() error { return runList(listCmd, nil) })

	if !strings.Contains(out, "Odesa Oblast (OP7): ") {
		t.Errorf("missing header line in output:\n%s", out)
	}
	if !strings.Contains(out, "vehicle-t-90m-op7-001") {
		t.Errorf("record not listed:\n%s", out)
	}
	// Console output is plain ASCII for this fixture; fancy punctuation in
	// format strings would trip terminals and log scrapers.
	for i, r := range out {
		if r > 127 {
			t.Errorf("non-ASCII rune %q at byte %d in output", r, i)
			break
		}
	}
}
