package patchstore_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ajbucci/rustfmsynth-sub000/codec"
	"github.com/ajbucci/rustfmsynth-sub000/patch"
	"github.com/ajbucci/rustfmsynth-sub000/patchstore"
)

func openStore(t *testing.T) *patchstore.Store {
	t.Helper()
	s, err := patchstore.Open(filepath.Join(t.TempDir(), "patches.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)

	state, err := codec.EncodePatch(patch.Default(patch.OperatorCount))
	if err != nil {
		t.Fatal(err)
	}

	rec := patchstore.Record{Name: "warm bell", Section: "bells", State: state}
	if err := s.Save(rec); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load("warm bell")
	if err != nil {
		t.Fatal(err)
	}
	if got != rec {
		t.Errorf("Load = %+v, want %+v", got, rec)
	}

	// The stored state decodes like any share link.
	if _, err := codec.DecodePatch(got.State, patch.OperatorCount); err != nil {
		t.Errorf("stored state should decode: %v", err)
	}
}

func TestSaveOverwritesByName(t *testing.T) {
	s := openStore(t)

	if err := s.Save(patchstore.Record{Name: "lead", State: "v1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(patchstore.Record{Name: "lead", Section: "solo", State: "v2"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load("lead")
	if err != nil {
		t.Fatal(err)
	}
	if got.State != "v2" || got.Section != "solo" {
		t.Errorf("Load = %+v, want overwritten record", got)
	}

	recs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("List returned %d records, want 1", len(recs))
	}
}

func TestListOrdering(t *testing.T) {
	s := openStore(t)

	for _, rec := range []patchstore.Record{
		{Name: "zap", Section: "fx", State: "s"},
		{Name: "organ", Section: "keys", State: "s"},
		{Name: "bell", Section: "fx", State: "s"},
	} {
		if err := s.Save(rec); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"bell", "zap", "organ"}
	if len(recs) != len(want) {
		t.Fatalf("List returned %d records, want %d", len(recs), len(want))
	}
	for i, name := range want {
		if recs[i].Name != name {
			t.Errorf("recs[%d] = %q, want %q", i, recs[i].Name, name)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	s := openStore(t)

	_, err := s.Load("nope")
	if !errors.Is(err, patchstore.ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := openStore(t)

	if err := s.Save(patchstore.Record{Name: "gone", State: "s"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("gone"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load("gone"); !errors.Is(err, patchstore.ErrNotFound) {
		t.Error("deleted patch should be gone")
	}
	if err := s.Delete("gone"); !errors.Is(err, patchstore.ErrNotFound) {
		t.Errorf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestRejectsEmptyFields(t *testing.T) {
	s := openStore(t)

	if err := s.Save(patchstore.Record{State: "s"}); err == nil {
		t.Error("empty name should be rejected")
	}
	if err := s.Save(patchstore.Record{Name: "n"}); err == nil {
		t.Error("empty state should be rejected")
	}
}
