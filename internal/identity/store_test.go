package identity

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/muurk/ithorft/internal/protocol"
)

var (
	remote = protocol.NewAddress(protocol.ClassRemote, 0x12345)
	unit   = protocol.NewAddress(protocol.ClassVentilationUnit, 0x1234)
)

func TestFileStore_NotFound(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "identity.yaml"))

	_, err := s.LoadIdentity()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadIdentity() error = %v, want ErrNotFound", err)
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identity.yaml")
	s := NewFileStore(path)

	want := protocol.Identity{
		Remote:          remote,
		Unit:            unit,
		Status:          protocol.StatusPaired,
		PreviousRemotes: []protocol.Address{protocol.NewAddress(protocol.ClassRemote, 7)},
	}
	if err := s.SaveIdentity(want); err != nil {
		t.Fatalf("SaveIdentity() error = %v", err)
	}

	got, err := NewFileStore(path).LoadIdentity()
	if err != nil {
		t.Fatalf("LoadIdentity() error = %v", err)
	}
	if got.Remote != want.Remote || got.Unit != want.Unit || got.Status != want.Status {
		t.Errorf("LoadIdentity() = %v, want %v", got, want)
	}
	if len(got.PreviousRemotes) != 1 || got.PreviousRemotes[0] != want.PreviousRemotes[0] {
		t.Errorf("PreviousRemotes = %v, want %v", got.PreviousRemotes, want.PreviousRemotes)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("file mode = %o, want 600", perm)
		}
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "identity.yaml"))

	if err := s.SaveIdentity(protocol.Identity{Remote: remote, Unit: unit, Status: protocol.StatusPaired}); err != nil {
		t.Fatal(err)
	}
	reset := protocol.Identity{Status: protocol.StatusUnpaired, PreviousRemotes: []protocol.Address{remote}}
	if err := s.SaveIdentity(reset); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadIdentity()
	if err != nil {
		t.Fatal(err)
	}
	if got.IsPaired() || got.Unit != 0 {
		t.Errorf("LoadIdentity() = %v, want unpaired", got)
	}
	if used := got.UsedRemotes(); len(used) != 1 || used[0] != remote {
		t.Errorf("UsedRemotes() = %v, want [%s]", used, remote)
	}
}

func TestFileStore_InvalidFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "version: [1"},
		{"wrong version", "version: 2\nstatus: paired\n"},
		{"unknown status", "version: 1\nstatus: bound\n"},
		{"bad address", "version: 1\nstatus: paired\nremote: \"29-1\"\nunit: \"18:004660\"\n"},
		{"paired without unit", "version: 1\nstatus: paired\nremote: \"29:074565\"\n"},
		{"pairing state", "version: 1\nstatus: pairing\nremote: \"29:074565\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "identity.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := NewFileStore(path).LoadIdentity()
			if err == nil {
				t.Error("LoadIdentity() error = nil, want error")
			}
			if errors.Is(err, ErrNotFound) {
				t.Error("invalid file reported as not found")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      protocol.Identity
		wantErr bool
	}{
		{"unpaired empty", protocol.Identity{}, false},
		{"paired", protocol.Identity{Remote: remote, Unit: unit, Status: protocol.StatusPaired}, false},
		{"paired missing unit", protocol.Identity{Remote: remote, Status: protocol.StatusPaired}, true},
		{"paired wrong remote class", protocol.Identity{Remote: unit, Unit: unit, Status: protocol.StatusPaired}, true},
		{"pairing", protocol.Identity{Remote: remote, Status: protocol.StatusPairing}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.id); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(nil)
	if _, err := s.LoadIdentity(); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty LoadIdentity() error = %v, want ErrNotFound", err)
	}

	id := protocol.Identity{Remote: remote, Unit: unit, Status: protocol.StatusPaired}
	if err := s.SaveIdentity(id); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadIdentity()
	if err != nil || got.Remote != remote || got.Unit != unit {
		t.Errorf("LoadIdentity() = %v, %v", got, err)
	}

	s.FailSave = errors.New("read-only")
	if err := s.SaveIdentity(protocol.Identity{}); err == nil {
		t.Error("SaveIdentity() with FailSave should fail")
	}
	if s.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", s.Saves())
	}
}
