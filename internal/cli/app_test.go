package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
)

const addPayload = `
database: OP7
category: vehicles
entity:
  type: main-battle-tank
  names:
    - value: T-90M Proryv
      language: en
type:
  id: main-battle-tank
  name: Main Battle Tank
`

// fakeAnalyzer is a stand-in for the analyzer web service that records
// every call it receives.
type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeAnalyzer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, req.URL.Path)
		f.mu.Unlock()
		if req.URL.Path == "/api/databases" {
			_ = json.NewEncoder(w).Encode(map[string]any{"databases": []string{"OP7"}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})
}

func (f *fakeAnalyzer) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.calls {
		if p == path {
			n++
		}
	}
	return n
}

func resetCommandState(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		viper.Reset()
		dataDir, serviceURL = "", ""
		verbose, noNotify, noBackup, noCache = false, false, false, false
		addDB, addFile = "", ""
		addTimeout = 2 * time.Minute
	})
}

// The add command must not return until the delayed analyze repeat has
// reached the service; a one-shot process exits right after RunE.
func TestAddCommandWaitsForDelayedAnalyze(t *testing.T) {
	resetCommandState(t)

	svc := &fakeAnalyzer{}
	server := httptest.NewServer(svc.handler())
	defer server.Close()

	dir := t.TempDir()
	db := filepath.Join(dir, "odesa_oblast.json")
	if err := os.WriteFile(db, []byte("{\n  \"vehicles\": [],\n  \"vehicleTypes\": []\n}\n"), 0644); err != nil {
		t.Fatalf("seed database: %v", err)
	}
	payload := filepath.Join(dir, "t90m.yaml")
	if err := os.WriteFile(payload, []byte(addPayload), 0644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	dataDir = dir
	serviceURL = server.URL
	noBackup = true
	addDB = "OP7"
	addFile = payload
	addTimeout = time.Minute
	viper.Set("service.repeat_delay", "50ms")

	if err := runAdd(addCmd, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Both analyze calls, the in-sequence one and the delayed repeat,
	// happened before the command returned.
	if got := svc.count("/api/analyze"); got != 2 {
		t.Errorf("analyze calls = %d, want 2", got)
	}
	if got := svc.count("/api/load_database"); got != 1 {
		t.Errorf("load_database calls = %d, want 1", got)
	}

	// The record itself was written.
	raw, err := os.ReadFile(db)
	if err != nil {
		t.Fatalf("read database: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("parse database: %v", err)
	}
	vehicles, _ := doc["vehicles"].([]any)
	if len(vehicles) != 1 {
		t.Errorf("vehicles = %d, want 1", len(vehicles))
	}
}
