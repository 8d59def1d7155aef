package capture

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyDeviceErrorKeepsDetail(t *testing.T) {
	denied := classifyDeviceError(errors.New("Host error: input access denied"))
	if !errors.Is(denied, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", denied)
	}
	if !strings.Contains(denied.Error(), "Host error") {
		t.Fatalf("expected the device-level detail to survive, got %q", denied)
	}

	absent := classifyDeviceError(errors.New("no default input device"))
	if !errors.Is(absent, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", absent)
	}
	if !strings.Contains(absent.Error(), "no default input device") {
		t.Fatalf("expected the device-level detail to survive, got %q", absent)
	}

	plain := errors.New("stream underflow")
	if got := classifyDeviceError(plain); got != plain {
		t.Fatalf("unclassified errors must pass through, got %v", got)
	}

	if got := classifyDeviceError(nil); got != nil {
		t.Fatalf("expected nil for nil, got %v", got)
	}
}
