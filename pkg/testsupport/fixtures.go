package testsupport

import (
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-reservation-cache/store/bunstore"
)

//go:embed fixtures/*.json
var embedded embed.FS

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// SeedFixtures returns the shared seed: two restaurants, their tables and
// time slots, three guests and three reservations.
//
// Restaurant 1 has a created reservation on 2024-01-01 18:00 holding table 1
// and a confirmed one on 2024-01-02. Restaurant 2 has one canceled reservation.
func SeedFixtures(t testing.TB) bunstore.Fixtures {
	t.Helper()

	data, err := embedded.ReadFile("fixtures/seed.json")
	if err != nil {
		t.Fatalf("failed to read embedded seed: %v", err)
	}

	var f bunstore.Fixtures
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("failed to unmarshal embedded seed: %v", err)
	}
	return f
}
