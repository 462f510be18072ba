// internal/session/options.go
package session

// SelectionMode is the selection discipline applied by Select.
type SelectionMode string

const (
	// SelectExclusive selects the target and deselects everything else,
	// with no toggle-off. This is the default: it avoids the "nothing
	// selected but chat enabled" ambiguity of the toggle discipline.
	SelectExclusive SelectionMode = "exclusive"
	// SelectToggle deselects the target when it is already selected.
	SelectToggle SelectionMode = "toggle"
)

// FailedUploadPolicy controls what happens to a Document whose upload fails.
type FailedUploadPolicy string

const (
	// KeepFailed keeps the document visible with an error badge.
	KeepFailed FailedUploadPolicy = "keep"
	// RemoveFailed removes the document from the registry immediately.
	RemoveFailed FailedUploadPolicy = "remove"
)

// DefaultMaxFileBytes is the client-side upload size limit (10 MiB).
const DefaultMaxFileBytes = 10 << 20

// pdfContentType is the only MIME type accepted for upload.
const pdfContentType = "application/pdf"

// Options configure the behavioral variants of the coordinator.
type Options struct {
	Selection            SelectionMode
	FailedUploads        FailedUploadPolicy
	MaxFileBytes         int64
	MaxConcurrentUploads int64
}

// withDefaults fills zero values with the recommended defaults.
func (o Options) withDefaults() Options {
	if o.Selection == "" {
		o.Selection = SelectExclusive
	}
	if o.FailedUploads == "" {
		o.FailedUploads = KeepFailed
	}
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = DefaultMaxFileBytes
	}
	if o.MaxConcurrentUploads <= 0 {
		o.MaxConcurrentUploads = 2
	}
	return o
}
