package recordstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type rec struct {
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func TestOpenMissingDocumentStartsEmpty(t *testing.T) {
	s := Open[rec]("test", filepath.Join(t.TempDir(), "absent.json"), nil)
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

func TestOpenCorruptDocumentStartsEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Open[rec]("test", p, nil)
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
	// The store keeps working after a failed load.
	s.Update("/a", func(cur rec, _ bool) (rec, bool) {
		cur.Count++
		return cur, true
	})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	p := filepath.Join(t.TempDir(), "store.json")
	s := Open[rec]("test", p, nil)
	s.Update("/x/one", func(cur rec, ok bool) (rec, bool) {
		if ok {
			t.Error("record should not exist yet")
		}
		return rec{Count: 1, Tags: []string{"a"}}, true
	})
	s.Update("/x/two", func(cur rec, _ bool) (rec, bool) {
		return rec{Count: 2}, true
	})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := Open[rec]("test", p, nil)
	if reloaded.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reloaded.Len())
	}
	got, ok := reloaded.Get("/x/one")
	if !ok || got.Count != 1 || len(got.Tags) != 1 || got.Tags[0] != "a" {
		t.Errorf("Get = %+v, %v", got, ok)
	}
	keys := reloaded.Keys()
	if len(keys) != 2 || keys[0] != "/x/one" || keys[1] != "/x/two" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestUpdateWithoutKeepLeavesMappingAlone(t *testing.T) {
	s := Open[rec]("test", filepath.Join(t.TempDir(), "s.json"), nil)
	_, kept := s.Update("/p", func(cur rec, _ bool) (rec, bool) {
		return rec{Count: 9}, false
	})
	if kept {
		t.Error("Update should report not kept")
	}
	if _, ok := s.Get("/p"); ok {
		t.Error("record should not have been created")
	}
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	s := Open[rec]("test", filepath.Join(t.TempDir(), "s.json"), nil)
	boom := errors.New("disk full")
	s.write = func(string, []byte) error { return boom }

	s.Update("/p", func(cur rec, _ bool) (rec, bool) { return rec{Count: 3}, true })
	if err := s.Save(); !errors.Is(err, boom) {
		t.Fatalf("Save err = %v, want %v", err, boom)
	}
	if got, ok := s.Get("/p"); !ok || got.Count != 3 {
		t.Errorf("in-memory record lost: %+v, %v", got, ok)
	}
}

func TestDelete(t *testing.T) {
	s := Open[rec]("test", filepath.Join(t.TempDir(), "s.json"), nil)
	s.Update("/p", func(cur rec, _ bool) (rec, bool) { return cur, true })
	if !s.Delete("/p") {
		t.Error("Delete existing should return true")
	}
	if s.Delete("/p") {
		t.Error("Delete missing should return false")
	}
}
