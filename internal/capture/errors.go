package capture

import "errors"

var (
	// ErrPermissionDenied means the platform refused access to a device.
	ErrPermissionDenied = errors.New("device access denied")

	// ErrDeviceUnavailable means no matching device exists.
	ErrDeviceUnavailable = errors.New("no matching device found")
)
