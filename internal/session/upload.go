// internal/session/upload.go
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/docchat/internal/types"
	"github.com/user/docchat/pkg/ragapi"
)

// validate applies the client-side file constraints. It runs before any
// Document is created or any network activity happens.
func (c *Coordinator) validate(file ragapi.File) error {
	if file.ContentType != pdfContentType {
		return fmt.Errorf("%s: only PDF files can be uploaded", file.Name)
	}
	if file.Size > c.opts.MaxFileBytes {
		return fmt.Errorf("%s: file exceeds the %d MiB upload limit", file.Name, c.opts.MaxFileBytes>>20)
	}
	return nil
}

// mutateDoc applies fn to the registry entry with the given ID and persists.
// Returns false when the entry no longer exists (removed mid-upload).
func (c *Coordinator) mutateDoc(ctx context.Context, id types.DocumentID, fn func(*types.Document)) bool {
	c.mu.Lock()
	doc := c.findLocked(id)
	if doc == nil {
		c.mu.Unlock()
		return false
	}
	fn(doc)
	c.persistLocked(ctx)
	c.mu.Unlock()
	c.notify()
	return true
}

// failUpload applies the configured failed-upload policy to the document.
func (c *Coordinator) failUpload(ctx context.Context, id types.DocumentID, cause error) {
	if c.opts.FailedUploads == RemoveFailed {
		c.mu.Lock()
		kept := c.docs[:0:0]
		for _, d := range c.docs {
			if d.ID != id {
				kept = append(kept, d)
			}
		}
		c.docs = kept
		c.persistLocked(ctx)
		c.mu.Unlock()
		c.notify()
		return
	}

	c.mutateDoc(ctx, id, func(d *types.Document) {
		d.UploadState = types.UploadFailed
		d.Error = cause.Error()
		d.Progress = types.ProgressNone
	})
}

// Upload drives the two-step remote handshake for one file: create a
// session, then submit the file against it. All progress is communicated
// through Document state; the milestones signal phase, not bytes moved.
func (c *Coordinator) Upload(ctx context.Context, file ragapi.File) (types.DocumentID, error) {
	if err := c.validate(file); err != nil {
		c.setError(err.Error())
		return "", err
	}

	doc := &types.Document{
		ID:          types.NewDocumentID(),
		Name:        file.Name,
		Size:        file.Size,
		UploadState: types.UploadPending,
		Progress:    types.ProgressNone,
		CreatedAt:   time.Now(),
	}

	c.mu.Lock()
	c.docs = append(c.docs, doc)
	c.persistLocked(ctx)
	c.mu.Unlock()
	c.notify()

	sessionID, err := c.api.CreateSession(ctx)
	if err != nil {
		c.failUpload(ctx, doc.ID, err)
		return doc.ID, fmt.Errorf("create session: %w", err)
	}

	if !c.mutateDoc(ctx, doc.ID, func(d *types.Document) {
		d.SessionID = types.SessionID(sessionID)
		d.Progress = types.ProgressSessionCreated
	}) {
		return doc.ID, fmt.Errorf("document removed during upload: %s", file.Name)
	}

	c.mutateDoc(ctx, doc.ID, func(d *types.Document) {
		d.Progress = types.ProgressTransferring
	})

	if err := c.api.UploadPDF(ctx, sessionID, file); err != nil {
		c.failUpload(ctx, doc.ID, err)
		return doc.ID, fmt.Errorf("upload pdf: %w", err)
	}

	c.mutateDoc(ctx, doc.ID, func(d *types.Document) {
		d.Progress = types.ProgressDone
		d.UploadState = types.UploadUploaded
	})

	slog.Info("document uploaded", "name", file.Name, "session_id", sessionID)
	return doc.ID, nil
}

// UploadResult reports the outcome of one file in a batch upload.
type UploadResult struct {
	Name string
	ID   types.DocumentID
	Err  error
}

// UploadAll uploads the given files independently and concurrently, bounded
// by the configured semaphore. One file's failure never aborts or affects
// its siblings; each result carries its own error.
func (c *Coordinator) UploadAll(ctx context.Context, files []ragapi.File) []UploadResult {
	results := make([]UploadResult, len(files))
	var wg sync.WaitGroup

	for i, file := range files {
		if err := c.uploadSem.Acquire(ctx, 1); err != nil {
			results[i] = UploadResult{Name: file.Name, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, file ragapi.File) {
			defer wg.Done()
			defer c.uploadSem.Release(1)
			id, err := c.Upload(ctx, file)
			results[i] = UploadResult{Name: file.Name, ID: id, Err: err}
		}(i, file)
	}

	wg.Wait()
	return results
}
