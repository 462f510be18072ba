// internal/types/interfaces.go
package types

import "context"

type RegistryStore interface {
	Load(ctx context.Context) ([]*Document, error)
	Save(ctx context.Context, docs []*Document) error
}

type TranscriptStore interface {
	Append(ctx context.Context, session SessionID, msg *Message) error
	List(ctx context.Context, session SessionID) ([]*Message, error)
	Count(ctx context.Context, session SessionID) (int64, error)
	Clear(ctx context.Context, session SessionID) error
}
