//go:build !darwin

package permissions

import "testing"

func TestEnsurePermissionsIsNoop(t *testing.T) {
	if err := EnsurePermissions(false); err != nil {
		t.Fatalf("audio-only preflight failed: %v", err)
	}
	if err := EnsurePermissions(true); err != nil {
		t.Fatalf("camera preflight failed: %v", err)
	}
}
