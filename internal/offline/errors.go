package offline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInstallFailed matches every error returned by a failed install
	ErrInstallFailed = errors.New("install failed")
	// ErrNotActive is returned when a request reaches a manager that has not
	// started activating
	ErrNotActive = errors.New("manager is not active")
	// ErrPassThrough tells the host to send the request to the network itself.
	// Non-GET requests are never handled by the manager.
	ErrPassThrough = errors.New("request is not handled")
)

// InstallError reports the shell file that broke the install
type InstallError struct {
	Generation string
	Path       string
	Status     int
	Err        error
}

func (e *InstallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("install %s: %s: %v", e.Generation, e.Path, e.Err)
	}
	return fmt.Sprintf("install %s: %s: unexpected status %d", e.Generation, e.Path, e.Status)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

func (e *InstallError) Is(target error) bool {
	return target == ErrInstallFailed
}
