// internal/session/coordinator_test.go
package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/user/docchat/internal/state"
	"github.com/user/docchat/internal/types"
	"github.com/user/docchat/pkg/ragapi"
)

// mockClient is a scripted ragapi.Client that records which remote calls
// were made. Unset hooks fall back to a success default.
type mockClient struct {
	mu    sync.Mutex
	calls []string

	healthFn func() error
	createFn func() (string, error)
	uploadFn func(sessionID string, file ragapi.File) error
	askFn    func(sessionID, question string) (*ragapi.ChatResponse, error)
	clearFn  func(sessionID string) error
	infoFn   func(sessionID string) (*ragapi.SessionInfo, error)
}

func (m *mockClient) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockClient) Health(ctx context.Context) error {
	m.record("health")
	if m.healthFn != nil {
		return m.healthFn()
	}
	return nil
}

func (m *mockClient) CreateSession(ctx context.Context) (string, error) {
	m.record("create-session")
	if m.createFn != nil {
		return m.createFn()
	}
	return "s1", nil
}

func (m *mockClient) UploadPDF(ctx context.Context, sessionID string, file ragapi.File) error {
	m.record("upload-pdf")
	if m.uploadFn != nil {
		return m.uploadFn(sessionID, file)
	}
	return nil
}

func (m *mockClient) Ask(ctx context.Context, sessionID, question string) (*ragapi.ChatResponse, error) {
	m.record("ask")
	if m.askFn != nil {
		return m.askFn(sessionID, question)
	}
	return &ragapi.ChatResponse{Answer: "ok"}, nil
}

func (m *mockClient) ClearSession(ctx context.Context, sessionID string) error {
	m.record("clear-session")
	if m.clearFn != nil {
		return m.clearFn(sessionID)
	}
	return nil
}

func (m *mockClient) SessionInfo(ctx context.Context, sessionID string) (*ragapi.SessionInfo, error) {
	m.record("session-info")
	if m.infoFn != nil {
		return m.infoFn(sessionID)
	}
	return &ragapi.SessionInfo{SessionID: sessionID, DocumentCount: 1, PDFUploaded: true, IndexReady: true}, nil
}

func (m *mockClient) ListDocuments(ctx context.Context) ([]ragapi.RemoteDocument, error) {
	m.record("list-documents")
	return nil, nil
}

func (m *mockClient) DeleteDocument(ctx context.Context, name string) error {
	m.record("delete-document")
	return nil
}

func pdfFile(name string, size int64) ragapi.File {
	return ragapi.File{Name: name, Size: size, ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
}

func newCoordinator(t *testing.T, api ragapi.Client, opts Options) *Coordinator {
	t.Helper()
	dir := t.TempDir()
	c, err := New(api, state.NewRegistryStore(dir), state.NewTranscriptStore(dir), opts)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// uploadSelected uploads a file and selects the resulting document.
func uploadSelected(t *testing.T, c *Coordinator) types.DocumentID {
	t.Helper()
	ctx := context.Background()
	id, err := c.Upload(ctx, pdfFile("report.pdf", 2<<20))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Select(ctx, id); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestSelectExclusive(t *testing.T) {
	api := &mockClient{}
	sessions := []string{"s1", "s2"}
	api.createFn = func() (string, error) {
		id := sessions[0]
		sessions = sessions[1:]
		return id, nil
	}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()

	a, err := c.Upload(ctx, pdfFile("a.pdf", 100))
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Upload(ctx, pdfFile("b.pdf", 100))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Select(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := c.Select(ctx, b); err != nil {
		t.Fatal(err)
	}

	selectedCount := 0
	for _, d := range c.Documents() {
		if d.Selected {
			selectedCount++
			if d.ID != b {
				t.Errorf("expected %s selected, got %s", b, d.ID)
			}
		}
	}
	if selectedCount != 1 {
		t.Errorf("expected exactly 1 selected document, got %d", selectedCount)
	}

	// Exclusive discipline has no toggle-off.
	if err := c.Select(ctx, b); err != nil {
		t.Fatal(err)
	}
	if sel := c.SelectedDocument(); sel == nil || sel.ID != b {
		t.Error("expected document to stay selected under exclusive discipline")
	}
}

func TestSelectToggle(t *testing.T) {
	api := &mockClient{}
	c := newCoordinator(t, api, Options{Selection: SelectToggle})
	ctx := context.Background()

	id, err := c.Upload(ctx, pdfFile("a.pdf", 100))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Select(ctx, id); err != nil {
		t.Fatal(err)
	}
	if c.SelectedDocument() == nil {
		t.Fatal("expected document selected")
	}

	// Selecting the already-selected document deselects it.
	if err := c.Select(ctx, id); err != nil {
		t.Fatal(err)
	}
	if c.SelectedDocument() != nil {
		t.Error("expected document deselected after toggle")
	}
}

func TestSelectRejectsFailedDocument(t *testing.T) {
	api := &mockClient{createFn: func() (string, error) {
		return "", fmt.Errorf("service unavailable")
	}}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()

	id, err := c.Upload(ctx, pdfFile("a.pdf", 100))
	if err == nil {
		t.Fatal("expected upload error")
	}

	if err := c.Select(ctx, id); err == nil {
		t.Error("expected selection of failed document to be rejected")
	}
	if c.SelectedDocument() != nil {
		t.Error("expected no selection")
	}
}

func TestAskNoSelectionIsNoOp(t *testing.T) {
	api := &mockClient{}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()

	if err := c.Ask(ctx, "hello?"); err != nil {
		t.Fatal(err)
	}
	if api.callCount() != 0 {
		t.Errorf("expected no network calls, got %v", api.calls)
	}
}

func TestAskBlankQuestionIsNoOp(t *testing.T) {
	api := &mockClient{}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()
	uploadSelected(t, c)

	before := api.callCount()
	if err := c.Ask(ctx, "   \t  "); err != nil {
		t.Fatal(err)
	}
	if api.callCount() != before {
		t.Error("expected no network call for blank question")
	}

	msgs, err := c.Transcript(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty transcript, got %d messages", len(msgs))
	}
}

func TestAskSuccess(t *testing.T) {
	api := &mockClient{askFn: func(sessionID, question string) (*ragapi.ChatResponse, error) {
		if sessionID != "s1" {
			t.Errorf("expected session 's1', got %q", sessionID)
		}
		return &ragapi.ChatResponse{
			Answer:  "It is a summary.",
			Sources: []ragapi.Source{{Content: "...", Source: "report.pdf", Type: "text"}},
		}, nil
	}}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()
	uploadSelected(t, c)

	if err := c.Ask(ctx, "What is the summary?"); err != nil {
		t.Fatal(err)
	}

	msgs, err := c.Transcript(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != types.RoleUser || msgs[0].Content != "What is the summary?" {
		t.Errorf("unexpected user message %+v", msgs[0])
	}
	if msgs[1].Role != types.RoleAssistant || msgs[1].Content != "It is a summary." {
		t.Errorf("unexpected assistant message %+v", msgs[1])
	}
	if len(msgs[1].Sources) != 1 || msgs[1].Sources[0].Source != "report.pdf" {
		t.Errorf("expected 1 source, got %+v", msgs[1].Sources)
	}
	if c.Loading() {
		t.Error("expected loading cleared after success")
	}

	// Sources start hidden until toggled.
	if c.SourcesVisible() {
		t.Error("expected sources hidden initially")
	}
	if !c.ToggleSources() {
		t.Error("expected sources visible after toggle")
	}
}

func TestAskFailure(t *testing.T) {
	api := &mockClient{askFn: func(sessionID, question string) (*ragapi.ChatResponse, error) {
		return nil, fmt.Errorf("status 500")
	}}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()
	uploadSelected(t, c)

	if err := c.Ask(ctx, "What is the summary?"); err == nil {
		t.Fatal("expected ask error")
	}

	msgs, err := c.Transcript(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Content != apologyMessage {
		t.Errorf("expected apology message, got %q", msgs[1].Content)
	}
	// The banner carries the raw detail, distinct from the transcript entry.
	if c.LastError() != "status 500" {
		t.Errorf("expected banner 'status 500', got %q", c.LastError())
	}
	if c.Loading() {
		t.Error("expected loading cleared after failure")
	}
}

func TestAskRejectedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	api := &mockClient{askFn: func(sessionID, question string) (*ragapi.ChatResponse, error) {
		<-release
		return &ragapi.ChatResponse{Answer: "first"}, nil
	}}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()
	uploadSelected(t, c)

	done := make(chan error, 1)
	go func() { done <- c.Ask(ctx, "first question") }()

	// Wait for the first ask to be in flight.
	deadline := time.After(2 * time.Second)
	for !c.Loading() {
		select {
		case <-deadline:
			t.Fatal("first ask never entered loading state")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// A second ask while one is pending is ignored.
	if err := c.Ask(ctx, "second question"); err != nil {
		t.Fatal(err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	msgs, err := c.Transcript(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages (rejected ask appends nothing), got %d", len(msgs))
	}
}

func TestRemoveDocumentSuccess(t *testing.T) {
	api := &mockClient{}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()
	id := uploadSelected(t, c)

	if err := c.RemoveDocument(ctx, id); err != nil {
		t.Fatal(err)
	}
	if len(c.Documents()) != 0 {
		t.Error("expected empty registry after removal")
	}
	if c.SelectedDocument() != nil {
		t.Error("expected selection cleared")
	}
	if c.Summary() != nil {
		t.Error("expected cached summary invalidated")
	}
}

func TestRemoveDocumentRollback(t *testing.T) {
	api := &mockClient{clearFn: func(sessionID string) error {
		return fmt.Errorf("status 502")
	}}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()
	id := uploadSelected(t, c)

	before := c.Documents()

	if err := c.RemoveDocument(ctx, id); err == nil {
		t.Fatal("expected removal error")
	}

	after := c.Documents()
	if len(after) != len(before) {
		t.Fatalf("expected registry restored to %d documents, got %d", len(before), len(after))
	}
	for i := range before {
		if after[i].ID != before[i].ID || after[i].Selected != before[i].Selected ||
			after[i].UploadState != before[i].UploadState || after[i].SessionID != before[i].SessionID {
			t.Errorf("snapshot mismatch at %d: before %+v, after %+v", i, before[i], after[i])
		}
	}
	if c.LastError() != "status 502" {
		t.Errorf("expected banner 'status 502', got %q", c.LastError())
	}
}

func TestRemoveFailedDocumentSkipsRemoteCall(t *testing.T) {
	api := &mockClient{createFn: func() (string, error) {
		return "", fmt.Errorf("down")
	}}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()

	id, _ := c.Upload(ctx, pdfFile("a.pdf", 100))
	before := api.callCount()

	if err := c.RemoveDocument(ctx, id); err != nil {
		t.Fatal(err)
	}
	if api.callCount() != before {
		t.Error("expected no clear-session call for a document without a session")
	}
	if len(c.Documents()) != 0 {
		t.Error("expected document removed")
	}
}

func TestHealthTriState(t *testing.T) {
	api := &mockClient{}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()

	if c.Health() != types.HealthUnknown {
		t.Errorf("expected initial health unknown, got %s", c.Health())
	}

	if got := c.CheckHealth(ctx); got != types.HealthHealthy {
		t.Errorf("expected healthy, got %s", got)
	}

	api.healthFn = func() error { return fmt.Errorf("connection refused") }
	if got := c.CheckHealth(ctx); got != types.HealthUnhealthy {
		t.Errorf("expected unhealthy, got %s", got)
	}
}

func TestRegistryRestoredAcrossRestart(t *testing.T) {
	api := &mockClient{}
	dir := t.TempDir()
	ctx := context.Background()

	c1, err := New(api, state.NewRegistryStore(dir), state.NewTranscriptStore(dir), Options{})
	if err != nil {
		t.Fatal(err)
	}
	id, err := c1.Upload(ctx, pdfFile("report.pdf", 2<<20))
	if err != nil {
		t.Fatal(err)
	}
	if err := c1.Select(ctx, id); err != nil {
		t.Fatal(err)
	}

	c2, err := New(api, state.NewRegistryStore(dir), state.NewTranscriptStore(dir), Options{})
	if err != nil {
		t.Fatal(err)
	}
	docs := c2.Documents()
	if len(docs) != 1 {
		t.Fatalf("expected 1 restored document, got %d", len(docs))
	}
	if !docs[0].Selected || docs[0].SessionID != "s1" {
		t.Errorf("expected restored selection and session, got %+v", docs[0])
	}
}

func TestSubscribeNotified(t *testing.T) {
	api := &mockClient{}
	c := newCoordinator(t, api, Options{})
	ctx := context.Background()

	var mu sync.Mutex
	notified := 0
	c.Subscribe(func() {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	if _, err := c.Upload(ctx, pdfFile("a.pdf", 100)); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if notified == 0 {
		t.Error("expected subscriber to be notified during upload")
	}
}
