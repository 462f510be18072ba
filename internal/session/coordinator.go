// internal/session/coordinator.go
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/docchat/internal/types"
	"github.com/user/docchat/pkg/ragapi"
)

// apologyMessage is the assistant-facing reply appended when a question
// fails. The underlying error goes to the banner, not the transcript.
const apologyMessage = "Sorry, something went wrong answering your question."

// Coordinator owns all mutable chat/session state: the document registry,
// the transcript of the selected session, the loading flag, the error
// banner, and the health status. State is mutated only through its methods;
// every mutation is followed by a subscriber notification so a rendering
// surface can redraw.
type Coordinator struct {
	api         ragapi.Client
	registry    types.RegistryStore
	transcripts types.TranscriptStore
	opts        Options
	uploadSem   *semaphore.Weighted

	mu          sync.Mutex
	docs        []*types.Document
	loading     bool
	lastErr     string
	health      types.HealthStatus
	summary     *types.SessionSummary
	showSources bool
	subs        []func()
}

// New creates a Coordinator wired to the remote client and the given stores,
// restoring any previously persisted registry.
func New(api ragapi.Client, registry types.RegistryStore, transcripts types.TranscriptStore, opts Options) (*Coordinator, error) {
	opts = opts.withDefaults()

	docs, err := registry.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	return &Coordinator{
		api:         api,
		registry:    registry,
		transcripts: transcripts,
		opts:        opts,
		uploadSem:   semaphore.NewWeighted(opts.MaxConcurrentUploads),
		docs:        docs,
		health:      types.HealthUnknown,
	}, nil
}

// Subscribe registers a callback invoked after every state change.
func (c *Coordinator) Subscribe(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// notify invokes subscribers outside the state lock.
func (c *Coordinator) notify() {
	c.mu.Lock()
	subs := append([]func(){}, c.subs...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// persistLocked writes the registry snapshot. Caller must hold c.mu.
func (c *Coordinator) persistLocked(ctx context.Context) {
	if err := c.registry.Save(ctx, c.docs); err != nil {
		slog.Error("persist registry failed", "error", err)
	}
}

// snapshotLocked deep-copies the full registry state. Caller must hold c.mu.
// Rollback depends on this being the complete prior value, not a diff.
func (c *Coordinator) snapshotLocked() []*types.Document {
	snapshot := make([]*types.Document, len(c.docs))
	for i, d := range c.docs {
		cp := *d
		snapshot[i] = &cp
	}
	return snapshot
}

// findLocked returns the registry entry with the given ID. Caller must hold c.mu.
func (c *Coordinator) findLocked(id types.DocumentID) *types.Document {
	for _, d := range c.docs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Documents returns a copy of the registry in insertion order.
func (c *Coordinator) Documents() []*types.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SelectedDocument returns a copy of the selected document, or nil.
func (c *Coordinator) SelectedDocument() *types.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.docs {
		if d.Selected {
			cp := *d
			return &cp
		}
	}
	return nil
}

// Select applies the configured selection discipline to the given document.
// Documents that are not successfully uploaded cannot be selected.
func (c *Coordinator) Select(ctx context.Context, id types.DocumentID) error {
	c.mu.Lock()
	doc := c.findLocked(id)
	if doc == nil {
		c.mu.Unlock()
		return fmt.Errorf("document not found: %s", id)
	}
	if !doc.Usable() {
		c.mu.Unlock()
		return fmt.Errorf("document %s is not ready for chat", doc.Name)
	}

	wasSelected := doc.Selected
	for _, d := range c.docs {
		d.Selected = false
	}
	if !(c.opts.Selection == SelectToggle && wasSelected) {
		doc.Selected = true
	}
	// Any selection change invalidates the cached remote projection.
	c.summary = nil
	selected := doc.Selected
	sessionID := doc.SessionID
	c.persistLocked(ctx)
	c.mu.Unlock()

	if selected {
		c.refreshSummary(ctx, sessionID)
	}
	c.notify()
	return nil
}

// RemoveDocument removes a document optimistically, then tears down its
// remote session. A remote failure restores the exact pre-removal registry
// snapshot and surfaces the error on the banner.
func (c *Coordinator) RemoveDocument(ctx context.Context, id types.DocumentID) error {
	c.mu.Lock()
	doc := c.findLocked(id)
	if doc == nil {
		c.mu.Unlock()
		return fmt.Errorf("document not found: %s", id)
	}

	snapshot := c.snapshotLocked()
	removed := *doc

	kept := c.docs[:0:0]
	for _, d := range c.docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	c.docs = kept
	if removed.Selected {
		c.summary = nil
	}
	c.persistLocked(ctx)
	c.mu.Unlock()
	c.notify()

	if removed.SessionID == "" {
		// Never reached the remote side; local removal is final.
		return nil
	}

	if err := c.api.ClearSession(ctx, string(removed.SessionID)); err != nil {
		c.mu.Lock()
		c.docs = snapshot
		c.lastErr = err.Error()
		c.persistLocked(ctx)
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("clear session: %w", err)
	}

	if c.transcripts != nil {
		if err := c.transcripts.Clear(ctx, removed.SessionID); err != nil {
			slog.Warn("clear transcript failed", "session_id", string(removed.SessionID), "error", err)
		}
	}
	return nil
}

// Ask sends a question against the selected document's session. It is a
// silent no-op when no usable document is selected or the question is
// blank, and rejects a new question while one is still in flight.
func (c *Coordinator) Ask(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)

	c.mu.Lock()
	var sel *types.Document
	for _, d := range c.docs {
		if d.Selected && d.Usable() {
			sel = d
			break
		}
	}
	if sel == nil || question == "" {
		c.mu.Unlock()
		return nil
	}
	if c.loading {
		c.mu.Unlock()
		slog.Debug("ask rejected: question already in flight")
		return nil
	}
	sessionID := sel.SessionID
	c.loading = true
	c.mu.Unlock()

	// Loading must clear on every path, including parse failures.
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		c.notify()
	}()

	userMsg := &types.Message{Role: types.RoleUser, Content: question, At: time.Now()}
	if err := c.transcripts.Append(ctx, sessionID, userMsg); err != nil {
		return fmt.Errorf("append user message: %w", err)
	}
	c.notify()

	resp, err := c.api.Ask(ctx, string(sessionID), question)
	if err != nil {
		apology := &types.Message{Role: types.RoleAssistant, Content: apologyMessage, At: time.Now()}
		if appendErr := c.transcripts.Append(ctx, sessionID, apology); appendErr != nil {
			slog.Error("append apology failed", "error", appendErr)
		}
		c.mu.Lock()
		c.lastErr = err.Error()
		c.mu.Unlock()
		return fmt.Errorf("ask: %w", err)
	}

	sources := make([]types.Source, 0, len(resp.Sources))
	for _, s := range resp.Sources {
		sources = append(sources, types.Source{Content: s.Content, Source: s.Source, Type: s.Type})
	}
	assistantMsg := &types.Message{
		Role:    types.RoleAssistant,
		Content: resp.Answer,
		At:      time.Now(),
		Sources: sources,
	}
	if err := c.transcripts.Append(ctx, sessionID, assistantMsg); err != nil {
		return fmt.Errorf("append assistant message: %w", err)
	}

	c.refreshSummary(ctx, sessionID)
	return nil
}

// Transcript returns the selected document's conversation history.
func (c *Coordinator) Transcript(ctx context.Context) ([]*types.Message, error) {
	sel := c.SelectedDocument()
	if sel == nil {
		return nil, nil
	}
	return c.transcripts.List(ctx, sel.SessionID)
}

// CheckHealth performs the remote liveness check and records the result.
func (c *Coordinator) CheckHealth(ctx context.Context) types.HealthStatus {
	status := types.HealthHealthy
	if err := c.api.Health(ctx); err != nil {
		slog.Debug("health check failed", "error", err)
		status = types.HealthUnhealthy
	}

	c.mu.Lock()
	c.health = status
	c.mu.Unlock()
	c.notify()
	return status
}

// Health returns the last observed health status (unknown before any check).
func (c *Coordinator) Health() types.HealthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

// refreshSummary fetches the remote session projection. Best effort: the
// summary is an enrichment, so failures only log.
func (c *Coordinator) refreshSummary(ctx context.Context, sessionID types.SessionID) {
	info, err := c.api.SessionInfo(ctx, string(sessionID))
	if err != nil {
		slog.Debug("session info unavailable", "session_id", string(sessionID), "error", err)
		return
	}
	c.mu.Lock()
	c.summary = &types.SessionSummary{
		DocumentCount: info.DocumentCount,
		PDFUploaded:   info.PDFUploaded,
		IndexReady:    info.IndexReady,
		MessageCount:  info.MessageCount,
		CreatedAt:     info.CreatedAt,
	}
	c.mu.Unlock()
}

// Summary returns the cached remote session projection, or nil.
func (c *Coordinator) Summary() *types.SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return nil
	}
	cp := *c.summary
	return &cp
}

// Loading reports whether a question is currently in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastError returns the current banner error, empty when none.
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError dismisses the banner.
func (c *Coordinator) ClearError() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
	c.notify()
}

// setError records a banner error.
func (c *Coordinator) setError(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
	c.notify()
}

// ToggleSources flips source visibility and returns the new value.
// Sources start hidden.
func (c *Coordinator) ToggleSources() bool {
	c.mu.Lock()
	c.showSources = !c.showSources
	v := c.showSources
	c.mu.Unlock()
	c.notify()
	return v
}

// SourcesVisible reports whether retrieval sources should be rendered.
func (c *Coordinator) SourcesVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showSources
}
