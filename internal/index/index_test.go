package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestEdgeKey(t *testing.T) {
	if got := EdgeKey(1, 2); got != "1->2" {
		t.Errorf("EdgeKey = %q, want %q", got, "1->2")
	}
}

func TestLoadCreatesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "index.db")
	db := Open(path)

	doc, err := db.Load(false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Images) != 0 {
		t.Errorf("fresh document has %d entries", len(doc.Images))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("index file not created: %v", err)
	}
}

func TestAddVersionIdempotent(t *testing.T) {
	db := Open(filepath.Join(t.TempDir(), "index.db"))

	for i := 0; i < 2; i++ {
		if _, err := db.AddVersion("img_001", 2, "", ""); err != nil {
			t.Fatalf("AddVersion: %v", err)
		}
	}

	doc, err := db.Load(true)
	if err != nil {
		t.Fatal(err)
	}
	got := doc.Images["img_001"].Versions
	if !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("versions = %v, want [2]", got)
	}
}

func TestAddVersionKeepsSortedOrder(t *testing.T) {
	db := Open(filepath.Join(t.TempDir(), "index.db"))

	for _, v := range []int{5, 2, 9, 2, 1} {
		if _, err := db.AddVersion("img_001", v, "", ""); err != nil {
			t.Fatal(err)
		}
	}

	doc, _ := db.Load(false)
	got := doc.Images["img_001"].Versions
	if !reflect.DeepEqual(got, []int{1, 2, 5, 9}) {
		t.Errorf("versions = %v, want [1 2 5 9]", got)
	}
}

func TestAddVersionEdgeMapping(t *testing.T) {
	db := Open(filepath.Join(t.TempDir(), "index.db"))

	if _, err := db.AddVersion("img_001", 2, EdgeKey(1, 2), "/a/first.iva"); err != nil {
		t.Fatal(err)
	}
	// Re-recording the same edge overwrites the mapping in place.
	doc, err := db.AddVersion("img_001", 2, EdgeKey(1, 2), "/a/second.iva")
	if err != nil {
		t.Fatal(err)
	}

	entry := doc.Images["img_001"]
	if len(entry.Matrices) != 1 {
		t.Fatalf("matrices has %d entries, want 1", len(entry.Matrices))
	}
	if got := entry.Matrices["1->2"]; got != "/a/second.iva" {
		t.Errorf("edge path = %q, want /a/second.iva", got)
	}
	if !reflect.DeepEqual(entry.Versions, []int{2}) {
		t.Errorf("versions = %v, want [2]", entry.Versions)
	}
}

func TestCacheAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	db := Open(path)
	if _, err := db.AddVersion("img_001", 1, "", ""); err != nil {
		t.Fatal(err)
	}

	// A second handle writes behind the first handle's cache.
	other := Open(path)
	if _, err := other.AddVersion("img_002", 1, "", ""); err != nil {
		t.Fatal(err)
	}

	cached, _ := db.Load(false)
	if _, ok := cached.Images["img_002"]; ok {
		t.Error("cached read observed an external write without reload")
	}

	fresh, _ := db.Load(true)
	if _, ok := fresh.Images["img_002"]; !ok {
		t.Error("forced reload did not observe the external write")
	}
}

func TestDocumentShapeOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	db := Open(path)
	if _, err := db.AddVersion("img_001", 2, "1->2", "transformations/img_001/v1_to_v2_matrix.iva"); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]map[string]struct {
		Versions []int             `json:"versions"`
		Matrices map[string]string `json:"matrices"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("index document is not the expected shape: %v", err)
	}
	entry := doc["images"]["img_001"]
	if !reflect.DeepEqual(entry.Versions, []int{2}) {
		t.Errorf("versions on disk = %v", entry.Versions)
	}
	if entry.Matrices["1->2"] == "" {
		t.Error("edge mapping missing on disk")
	}
}

func TestRemove(t *testing.T) {
	db := Open(filepath.Join(t.TempDir(), "index.db"))
	if _, err := db.AddVersion("img_001", 1, "", ""); err != nil {
		t.Fatal(err)
	}
	if err := db.Remove("img_001"); err != nil {
		t.Fatal(err)
	}
	if err := db.Remove("img_001"); err != nil {
		t.Fatalf("removing absent entry: %v", err)
	}
	doc, _ := db.Load(true)
	if len(doc.Images) != 0 {
		t.Errorf("document still has %d entries", len(doc.Images))
	}
}
