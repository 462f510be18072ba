// internal/types/models.go
package types

import "time"

// UploadState is the lifecycle state of a Document's remote handshake.
type UploadState string

const (
	UploadPending  UploadState = "pending"
	UploadUploaded UploadState = "uploaded"
	UploadFailed   UploadState = "failed"
)

// Progress milestones. These signal which phase of the two-step handshake a
// document is in; they are not transfer telemetry.
const (
	ProgressNone           = 0
	ProgressSessionCreated = 30
	ProgressTransferring   = 60
	ProgressDone           = 100
)

// Document is one uploaded (or uploading) file in the registry.
// Invariants: Selected implies UploadState == UploadUploaded and Error == "";
// at most one Document in the registry is Selected at any time.
type Document struct {
	ID          DocumentID  `json:"id"`
	Name        string      `json:"name"`
	Size        int64       `json:"size"`
	UploadState UploadState `json:"upload_state"`
	Progress    int         `json:"progress"`
	Selected    bool        `json:"selected"`
	SessionID   SessionID   `json:"session_id,omitempty"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Usable reports whether the document can be selected and chatted against.
func (d *Document) Usable() bool {
	return d.UploadState == UploadUploaded && d.Error == ""
}

// Role distinguishes the two sides of a transcript.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Source is a retrieval snippet the remote answering service cites as
// grounding for an assistant message. Immutable once attached.
type Source struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Type    string `json:"type"`
}

// Message is one transcript entry. Sources are only ever present on
// assistant messages.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
	Sources []Source  `json:"sources,omitempty"`
}

// SessionSummary is a read-only projection fetched from the remote side
// after state-changing operations. It is never derived locally.
type SessionSummary struct {
	DocumentCount int       `json:"document_count"`
	PDFUploaded   bool      `json:"pdf_uploaded"`
	IndexReady    bool      `json:"index_ready"`
	MessageCount  int       `json:"message_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// HealthStatus is the tri-state result of the remote liveness check.
type HealthStatus string

const (
	HealthUnknown   HealthStatus = "unknown"
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)
