package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/platebook/platebook/internal/cloudmetrics"
	"github.com/platebook/platebook/internal/event"
	"github.com/platebook/platebook/internal/providers/ocr"
	"github.com/platebook/platebook/internal/providers/storage"
	"github.com/platebook/platebook/internal/ratelimit"
	recipedomain "github.com/platebook/platebook/internal/recipe/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrImportInProgress = errors.New("import_in_progress")
	ErrInvalidFile      = errors.New("invalid_file")
)

// allowedExtensions mirrors what the upload form accepts.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

type ImportRequest struct {
	BookID      string
	Filename    string
	ContentType string
	File        io.Reader
}

// ImportResult carries the created draft along with the raw extraction so
// the client can show what the parser worked from.
type ImportResult struct {
	Recipe        *recipedomain.RecipeResponse `json:"recipe"`
	ExtractedText string                       `json:"extracted_text"`
	FilePath      string                       `json:"file_path"`
}

type Service interface {
	Import(ctx context.Context, userID string, req ImportRequest) (*ImportResult, error)
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Parser    *Parser
	Storage   storage.Provider
	OCR       ocr.Provider
	Recipes   recipedomain.Service
	Limiter   *ratelimit.Limiter `optional:"true"`
	Publisher event.EventPublisher
}

type service struct {
	log       *zap.Logger
	parser    *Parser
	storage   storage.Provider
	ocr       ocr.Provider
	recipes   recipedomain.Service
	limiter   *ratelimit.Limiter
	publisher event.EventPublisher
}

func NewService(p Params) Service {
	return &service{
		log:       p.Log.Named("importer.service"),
		parser:    p.Parser,
		storage:   p.Storage,
		ocr:       p.OCR,
		recipes:   p.Recipes,
		limiter:   p.Limiter,
		publisher: p.Publisher,
	}
}

func (s *service) Import(ctx context.Context, userID string, req ImportRequest) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !allowedExtensions[ext] {
		return nil, ErrInvalidFile
	}
	if req.File == nil {
		return nil, ErrInvalidFile
	}

	// One import at a time per user and book. The lock covers the slow
	// extraction step so retries do not pile up duplicate drafts.
	if s.limiter != nil && s.limiter.Enabled() {
		token, ok, err := s.limiter.TryLockImport(ctx, userID, req.BookID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrImportInProgress
		}
		defer func() {
			if err := s.limiter.ReleaseImport(ctx, userID, req.BookID, token); err != nil {
				s.log.Warn("failed to release import lock", zap.Error(err))
			}
		}()
	}

	key := fmt.Sprintf("recipe-imports/%s/%s%s", userID, ulid.Make().String(), ext)
	if err := s.storage.Put(ctx, key, req.File, req.ContentType); err != nil {
		cloudmetrics.RecordImportProcessed(req.BookID, "upload_failed")
		return nil, err
	}

	text, err := s.ocr.ExtractText(ctx, key)
	if err != nil {
		cloudmetrics.RecordImportProcessed(req.BookID, "extract_failed")
		return nil, err
	}

	parsed := s.parser.Parse(text)

	title := parsed.Title
	if title == "" {
		title = "Imported Recipe"
	}

	recipe, err := s.recipes.Create(ctx, userID, recipedomain.CreateRecipeRequest{
		BookID:       req.BookID,
		Title:        title,
		Ingredients:  parsed.Ingredients,
		Instructions: parsed.Instructions,
		CookTime:     parsed.CookTime,
		Servings:     parsed.Servings,
		ImagePath:    key,
		OCRSource:    true,
	})
	if err != nil {
		cloudmetrics.RecordImportProcessed(req.BookID, "create_failed")
		return nil, err
	}

	cloudmetrics.RecordImportProcessed(req.BookID, "ok")
	s.emitImported(ctx, recipe)

	return &ImportResult{
		Recipe:        recipe,
		ExtractedText: text,
		FilePath:      key,
	}, nil
}

func (s *service) emitImported(ctx context.Context, recipe *recipedomain.RecipeResponse) {
	if s.publisher == nil {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"book_id":   recipe.BookID,
		"recipe_id": recipe.ID,
		"user_id":   recipe.CreatedBy,
	})
	if err != nil {
		s.log.Warn("failed to marshal recipe.imported payload", zap.Error(err))
		return
	}

	if err := s.publisher.Publish(ctx, event.RecipeImportedTopic, payload); err != nil {
		s.log.Warn("failed to publish recipe.imported", zap.Error(err))
	}
}
