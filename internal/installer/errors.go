package installer

import "fmt"

// Phase names the step of an installation that failed.
type Phase string

const (
	PhaseResolve  Phase = "resolve"
	PhaseDownload Phase = "download"
	PhaseVerify   Phase = "verify"
	PhaseExtract  Phase = "extract"
	PhaseValidate Phase = "validate"
	PhaseInstall  Phase = "install"
)

// DownloadError represents a failure while fetching one JDK major version.
// The target directory is left as it was before the attempt.
type DownloadError struct {
	Major int   // Java major version
	Phase Phase // Step that failed
	Err   error // Underlying error
}

// Error returns a human-readable error message naming the version and phase.
func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("java %d: %s failed: %v", e.Major, e.Phase, e.Err)
	}
	return fmt.Sprintf("java %d: %s failed", e.Major, e.Phase)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *DownloadError) Unwrap() error {
	return e.Err
}
