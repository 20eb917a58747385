package fsperm

import (
	"os"
	"runtime"
	"testing"
)

// AssertPrivateDirPerm fails the test unless dir exists and is accessible by
// the owner alone. Keystore and snapshot directories are created 0700;
// anything looser exposes wallet material to other local users.
func AssertPrivateDirPerm(t testing.TB, dir string) {
	t.Helper()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat %s: %v", dir, err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", dir)
	}
	if runtime.GOOS == "windows" {
		// Windows ACLs do not map onto unix permission bits.
		return
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Fatalf("%s has perm %04o, want 0700", dir, perm)
	}
}
