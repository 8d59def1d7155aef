//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation
#import <AVFoundation/AVFoundation.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}

int checkCameraPermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeVideo];
    return (int)status;
}

void requestCameraPermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeVideo completionHandler:^(BOOL granted) {}];
}
*/
import "C"

import "fmt"

const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

// CheckMicrophone returns the current microphone permission status
func CheckMicrophone() (int, error) {
	status := int(C.checkMicrophonePermission())
	return status, nil
}

// RequestMicrophone triggers the system microphone permission dialog
func RequestMicrophone() error {
	C.requestMicrophonePermission()
	return nil
}

// CheckCamera returns the current camera permission status
func CheckCamera() (int, error) {
	status := int(C.checkCameraPermission())
	return status, nil
}

// RequestCamera triggers the system camera permission dialog
func RequestCamera() error {
	C.requestCameraPermission()
	return nil
}

// EnsurePermissions checks and requests the device permissions a live
// session needs before capture is attempted. The camera check only runs
// when a camera will actually be opened.
func EnsurePermissions(needCamera bool) error {
	micStatus, _ := CheckMicrophone()
	if micStatus != PermissionAuthorized {
		fmt.Println("⚠️  Microphone permission required")
		RequestMicrophone()
		return fmt.Errorf("microphone permission not granted")
	}

	if needCamera {
		camStatus, _ := CheckCamera()
		if camStatus != PermissionAuthorized {
			fmt.Println("⚠️  Camera permission required")
			RequestCamera()
			return fmt.Errorf("camera permission not granted")
		}
	}

	return nil
}
