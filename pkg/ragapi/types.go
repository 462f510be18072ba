package ragapi

import "time"

// File is the client-side description of a file offered for upload.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// Source is a retrieval snippet cited by the answering service.
type Source struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Type    string `json:"type"`
}

// ChatResponse is the answering service's reply to a question.
// Sources may be absent; callers must treat that as an empty list.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// SessionInfo is the remote session metadata projection.
type SessionInfo struct {
	SessionID     string    `json:"session_id"`
	DocumentCount int       `json:"document_count"`
	PDFUploaded   bool      `json:"pdf_uploaded"`
	IndexReady    bool      `json:"index_ready"`
	MessageCount  int       `json:"message_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// RemoteDocument is one entry of the filename-addressed document listing.
type RemoteDocument struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
