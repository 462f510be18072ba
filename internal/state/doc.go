// Package state provides filesystem-backed storage implementations.
package state

import "github.com/user/docchat/internal/types"

// Compile-time interface compliance checks.
var _ types.RegistryStore = (*RegistryStore)(nil)
var _ types.TranscriptStore = (*TranscriptStore)(nil)
