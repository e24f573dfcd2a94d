package cloudmetrics

import (
	"strings"
	"sync"
)

type Recorder interface {
	RecordRecipeCreated(bookID, source string)
	RecordImportProcessed(bookID, status string)
	RecordInvitationAccepted(bookID string)
	RecordEngineError(bookID, operation string)
}

type recorder struct {
	metrics       *metrics
	defaultBookID string
}

type noopRecorder struct{}

func (noopRecorder) RecordRecipeCreated(string, string)   {}
func (noopRecorder) RecordImportProcessed(string, string) {}
func (noopRecorder) RecordInvitationAccepted(string)      {}
func (noopRecorder) RecordEngineError(string, string)     {}

var (
	activeRecorder Recorder = noopRecorder{}
	recorderMu     sync.RWMutex
)

func setRecorder(rec Recorder) {
	if rec == nil {
		return
	}
	recorderMu.Lock()
	activeRecorder = rec
	recorderMu.Unlock()
}

func RecordRecipeCreated(bookID, source string) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordRecipeCreated(bookID, source)
}

func RecordImportProcessed(bookID, status string) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordImportProcessed(bookID, status)
}

func RecordInvitationAccepted(bookID string) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordInvitationAccepted(bookID)
}

func RecordEngineError(bookID, operation string) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordEngineError(bookID, operation)
}

func (r *recorder) RecordRecipeCreated(bookID, source string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.recipesCreated.WithLabelValues(r.normalizeBook(bookID), normalizeLabel(source)).Inc()
}

func (r *recorder) RecordImportProcessed(bookID, status string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.importsProcessed.WithLabelValues(r.normalizeBook(bookID), normalizeLabel(status)).Inc()
}

func (r *recorder) RecordInvitationAccepted(bookID string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.invitationsAccepted.WithLabelValues(r.normalizeBook(bookID)).Inc()
}

func (r *recorder) RecordEngineError(bookID, operation string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.engineErrors.WithLabelValues(r.normalizeBook(bookID), normalizeLabel(operation)).Inc()
}

func (r *recorder) normalizeBook(bookID string) string {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		bookID = strings.TrimSpace(r.defaultBookID)
	}
	if bookID == "" {
		return "unknown"
	}
	return bookID
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
