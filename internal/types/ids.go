// internal/types/ids.go
package types

import "github.com/google/uuid"

// DocumentID is a client-generated opaque identifier, minted the moment a
// file is accepted for upload and before any network call is made.
type DocumentID string

// SessionID identifies the remote per-document retrieval session. It is
// assigned by the remote service and never generated locally.
type SessionID string

func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}
