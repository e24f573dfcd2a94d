package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/platebook/platebook/internal/book/domain"
	"github.com/platebook/platebook/internal/clock"
	"github.com/platebook/platebook/internal/event"
	"github.com/platebook/platebook/internal/permission"
	"github.com/platebook/platebook/internal/providers/pdf"
	"github.com/platebook/platebook/internal/providers/storage"
	recipedomain "github.com/platebook/platebook/internal/recipe/domain"
	"github.com/platebook/platebook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	RecipeRepo recipedomain.Repository
	Storage    storage.Provider
	PDF        pdf.Provider
	Publisher  event.EventPublisher
	Clock      clock.Clock
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	recipeRepo recipedomain.Repository
	storage    storage.Provider
	pdf        pdf.Provider
	publisher  event.EventPublisher
	clock      clock.Clock
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("book.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		recipeRepo: p.RecipeRepo,
		storage:    p.Storage,
		pdf:        p.PDF,
		publisher:  p.Publisher,
		clock:      p.Clock,
	}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateBookRequest) (*domain.BookResponse, error) {
	ownerID, err := parseUser(userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	book := domain.RecipeBook{
		ID:          s.genID.Generate(),
		OwnerID:     ownerID,
		Name:        name,
		Slug:        slug.Make(name),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
	}

	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	return s.toResponse(&book), nil
}

func (s *service) Get(ctx context.Context, userID string, bookID string) (*domain.BookDetailResponse, error) {
	uid, err := parseUser(userID)
	if err != nil {
		return nil, err
	}

	book, members, err := s.loadBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	role, ok := resolveRole(book, members, uid)
	if !ok {
		return nil, domain.ErrForbidden
	}

	count, err := s.recipeRepo.CountByBook(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	return &domain.BookDetailResponse{
		BookResponse: *s.toResponse(book),
		Role:         role,
		RecipeCount:  count,
		Members:      toMemberResponses(members),
	}, nil
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]domain.BookListResponseItem, error) {
	uid, err := parseUser(userID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListBooksByUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.BookListResponseItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.BookListResponseItem{
			ID:          item.ID.String(),
			Name:        item.Name,
			Description: item.Description,
			IsPublic:    item.IsPublic,
			Role:        item.Role,
			RecipeCount: item.RecipeCount,
			CreatedAt:   item.CreatedAt,
		})
	}

	return resp, nil
}

func (s *service) Update(ctx context.Context, userID string, bookID string, req domain.UpdateBookRequest) (*domain.BookResponse, error) {
	book, _, err := s.authorizeOwner(ctx, userID, bookID, permission.ActionEditBook)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
		fields["slug"] = slug.Make(name)
		book.Name = name
		book.Slug = slug.Make(name)
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		fields["description"] = description
		book.Description = description
	}

	if err := s.repo.UpdateBook(ctx, book.ID, fields); err != nil {
		return nil, err
	}

	return s.toResponse(book), nil
}

func (s *service) Delete(ctx context.Context, userID string, bookID string) error {
	book, _, err := s.authorizeOwner(ctx, userID, bookID, permission.ActionDeleteBook)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteBook(ctx, book.ID); err != nil {
		return err
	}

	if book.IsPublic {
		if err := s.storage.DeletePublic(ctx, snapshotKey(book.ID)); err != nil {
			s.log.Warn("failed to remove public snapshot", zap.String("book_id", book.ID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *service) Members(ctx context.Context, userID string, bookID string) ([]domain.MemberResponse, error) {
	uid, err := parseUser(userID)
	if err != nil {
		return nil, err
	}

	book, members, err := s.loadBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if _, ok := resolveRole(book, members, uid); !ok {
		return nil, domain.ErrForbidden
	}

	return toMemberResponses(members), nil
}

func (s *service) RemoveMember(ctx context.Context, userID string, bookID string, memberUserID string) error {
	book, members, err := s.authorizeOwner(ctx, userID, bookID, permission.ActionRemoveMember)
	if err != nil {
		return err
	}

	target, err := parseUser(memberUserID)
	if err != nil {
		return domain.ErrInvalidMember
	}
	if !permission.IsMember(toPermissionMembers(members), target.String()) {
		return domain.ErrInvalidMember
	}

	_, err = s.repo.RemoveMember(ctx, book.ID, target)
	return err
}

func (s *service) Join(ctx context.Context, userID string, bookID string) error {
	uid, err := parseUser(userID)
	if err != nil {
		return err
	}

	book, _, err := s.loadBook(ctx, bookID)
	if err != nil {
		return err
	}

	// Self-service joining is only open on public books.
	if !book.IsPublic {
		return domain.ErrForbidden
	}
	if book.OwnerID == uid {
		return nil
	}

	err = s.repo.AddMember(ctx, domain.RecipeBookMember{
		ID:        s.genID.Generate(),
		BookID:    book.ID,
		UserID:    uid,
		Role:      permission.RoleMember,
		CreatedAt: s.clock.Now(),
	})
	if err != nil && !db.IsDuplicateKeyErr(err) {
		return err
	}
	return nil
}

func (s *service) Leave(ctx context.Context, userID string, bookID string) error {
	uid, err := parseUser(userID)
	if err != nil {
		return err
	}

	book, _, err := s.loadBook(ctx, bookID)
	if err != nil {
		return err
	}

	// The owner cannot leave their own book; they delete it instead.
	if book.OwnerID == uid {
		return domain.ErrForbidden
	}

	affected, err := s.repo.RemoveMember(ctx, book.ID, uid)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrInvalidMember
	}
	return nil
}

func (s *service) Publish(ctx context.Context, userID string, bookID string) (*domain.BookResponse, error) {
	book, _, err := s.authorizeOwner(ctx, userID, bookID, permission.ActionEditBook)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.buildSnapshot(ctx, book)
	if err != nil {
		return nil, err
	}

	if err := s.storage.PutPublic(ctx, snapshotKey(book.ID), snapshot, "application/json"); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBook(ctx, book.ID, map[string]any{
		"is_public":  true,
		"updated_at": s.clock.Now(),
	}); err != nil {
		return nil, err
	}
	book.IsPublic = true

	s.emitBookPublished(ctx, book)

	return s.toResponse(book), nil
}

func (s *service) Unpublish(ctx context.Context, userID string, bookID string) (*domain.BookResponse, error) {
	book, _, err := s.authorizeOwner(ctx, userID, bookID, permission.ActionEditBook)
	if err != nil {
		return nil, err
	}

	if err := s.storage.DeletePublic(ctx, snapshotKey(book.ID)); err != nil {
		s.log.Warn("failed to remove public snapshot", zap.String("book_id", book.ID.String()), zap.Error(err))
	}

	if err := s.repo.UpdateBook(ctx, book.ID, map[string]any{
		"is_public":  false,
		"updated_at": s.clock.Now(),
	}); err != nil {
		return nil, err
	}
	book.IsPublic = false

	return s.toResponse(book), nil
}

func (s *service) ExportPDF(ctx context.Context, userID string, bookID string) (io.Reader, error) {
	uid, err := parseUser(userID)
	if err != nil {
		return nil, err
	}

	book, members, err := s.loadBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if _, ok := resolveRole(book, members, uid); !ok {
		return nil, domain.ErrForbidden
	}

	recipes, err := s.recipeRepo.ListByBook(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	data := pdf.BookData{
		Name:        book.Name,
		Description: book.Description,
		OwnerName:   book.OwnerID.String(),
		ExportedAt:  s.clock.Now().Format("January 2, 2006"),
		Recipes:     make([]pdf.RecipeData, 0, len(recipes)),
	}
	for _, recipe := range recipes {
		servings := ""
		if recipe.Servings != nil {
			servings = fmt.Sprintf("%d", *recipe.Servings)
		}
		data.Recipes = append(data.Recipes, pdf.RecipeData{
			Title:        recipe.Title,
			Description:  recipe.Description,
			Category:     recipe.Category,
			CookTime:     recipe.CookTime,
			Servings:     servings,
			Ingredients:  recipe.Ingredients,
			Instructions: recipe.Instructions,
		})
	}

	return s.pdf.GenerateBook(ctx, data)
}

func (s *service) loadBook(ctx context.Context, bookID string) (*domain.RecipeBook, []domain.MemberListItem, error) {
	raw := strings.TrimSpace(bookID)
	if raw == "" {
		return nil, nil, domain.ErrInvalidBook
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, nil, domain.ErrInvalidBook
	}

	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.repo.ListMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return book, members, nil
}

func (s *service) authorizeOwner(ctx context.Context, userID string, bookID string, action permission.Action) (*domain.RecipeBook, []domain.MemberListItem, error) {
	uid, err := parseUser(userID)
	if err != nil {
		return nil, nil, err
	}

	book, members, err := s.loadBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}

	if !permission.Can(action, toPermissionMembers(members), book.OwnerID.String(), uid.String()) {
		return nil, nil, domain.ErrForbidden
	}
	return book, members, nil
}

type snapshotRecipe struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	CookTime     string   `json:"cook_time"`
	Servings     *int     `json:"servings"`
}

type snapshotDocument struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Recipes     []snapshotRecipe `json:"recipes"`
	PublishedAt time.Time        `json:"published_at"`
}

func (s *service) buildSnapshot(ctx context.Context, book *domain.RecipeBook) ([]byte, error) {
	recipes, err := s.recipeRepo.ListByBook(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	doc := snapshotDocument{
		ID:          book.ID.String(),
		Name:        book.Name,
		Description: book.Description,
		Recipes:     make([]snapshotRecipe, 0, len(recipes)),
		PublishedAt: s.clock.Now(),
	}
	for _, recipe := range recipes {
		doc.Recipes = append(doc.Recipes, snapshotRecipe{
			Title:        recipe.Title,
			Description:  recipe.Description,
			Category:     recipe.Category,
			Ingredients:  recipe.Ingredients,
			Instructions: recipe.Instructions,
			CookTime:     recipe.CookTime,
			Servings:     recipe.Servings,
		})
	}

	return json.Marshal(doc)
}

func (s *service) emitBookPublished(ctx context.Context, book *domain.RecipeBook) {
	if s.publisher == nil {
		return
	}

	payload := map[string]string{
		"book_id":      book.ID.String(),
		"name":         book.Name,
		"published_at": s.clock.Now().Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal book.published payload", zap.Error(err))
		return
	}

	if err := s.publisher.Publish(ctx, event.BookPublishedTopic, data); err != nil {
		s.log.Warn("failed to publish book.published", zap.Error(err))
	}
}

func (s *service) toResponse(book *domain.RecipeBook) *domain.BookResponse {
	resp := &domain.BookResponse{
		ID:          book.ID.String(),
		OwnerID:     book.OwnerID.String(),
		Name:        book.Name,
		Slug:        book.Slug,
		Description: book.Description,
		IsPublic:    book.IsPublic,
	}
	if book.IsPublic {
		resp.PublicURL = s.storage.PublicURL(snapshotKey(book.ID))
	}
	return resp
}

func snapshotKey(bookID snowflake.ID) string {
	return fmt.Sprintf("recipe_books/%s.json", bookID)
}

func parseUser(userID string) (snowflake.ID, error) {
	raw := strings.TrimSpace(userID)
	if raw == "" {
		return 0, domain.ErrInvalidUser
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidUser
	}
	return id, nil
}

func resolveRole(book *domain.RecipeBook, members []domain.MemberListItem, userID snowflake.ID) (string, bool) {
	if book.OwnerID == userID {
		return domain.RoleOwner, true
	}
	for _, m := range members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

func toPermissionMembers(members []domain.MemberListItem) []permission.Member {
	out := make([]permission.Member, 0, len(members))
	for _, m := range members {
		out = append(out, permission.Member{
			UserID: m.UserID.String(),
			Role:   m.Role,
		})
	}
	return out
}

func toMemberResponses(members []domain.MemberListItem) []domain.MemberResponse {
	out := make([]domain.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, domain.MemberResponse{
			UserID:      m.UserID.String(),
			DisplayName: m.DisplayName,
			Email:       m.Email,
			Role:        m.Role,
			JoinedAt:    m.CreatedAt,
		})
	}
	return out
}
