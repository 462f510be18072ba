package ragapi

import "context"

// Client defines the interface for the remote chat-with-PDF service.
// Implementations handle protocol-specific details such as request
// formatting, multipart encoding, and error-body parsing.
type Client interface {
	// Health probes the liveness endpoint. A nil error means healthy.
	Health(ctx context.Context) error

	// CreateSession requests a new remote session and returns its identifier.
	CreateSession(ctx context.Context) (string, error)

	// UploadPDF submits the file plus session identifier as a multipart payload.
	UploadPDF(ctx context.Context, sessionID string, file File) error

	// Ask sends a question against the given session.
	Ask(ctx context.Context, sessionID, question string) (*ChatResponse, error)

	// ClearSession tears down the remote session.
	ClearSession(ctx context.Context, sessionID string) error

	// SessionInfo fetches the session metadata projection.
	SessionInfo(ctx context.Context, sessionID string) (*SessionInfo, error)

	// ListDocuments returns the filename-addressed document listing.
	ListDocuments(ctx context.Context) ([]RemoteDocument, error)

	// DeleteDocument removes a document by filename.
	DeleteDocument(ctx context.Context, name string) error
}

// Config holds common configuration for service clients.
type Config struct {
	BaseURL string
	// ChatPath selects the question endpoint; some deployments expose it
	// as /chat, others as /ask. Defaults to /chat when empty.
	ChatPath string
	Timeout  int // seconds, 0 means the implementation default
}
