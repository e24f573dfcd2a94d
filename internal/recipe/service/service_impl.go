package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bookdomain "github.com/platebook/platebook/internal/book/domain"
	"github.com/platebook/platebook/internal/cloudmetrics"
	"github.com/platebook/platebook/internal/permission"
	"github.com/platebook/platebook/internal/recipe/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	BookRepo bookdomain.Repository
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	bookRepo bookdomain.Repository
}

func NewService(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("recipe.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		bookRepo: p.BookRepo,
	}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateRecipeRequest) (*domain.RecipeResponse, error) {
	uid, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return nil, err
	}
	bookID, err := parseID(req.BookID, domain.ErrInvalidBook)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "Other"
	}
	if !domain.ValidCategory(category) {
		return nil, domain.ErrInvalidCategory
	}

	book, members, err := s.loadBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !permission.Can(permission.ActionCreateRecipe, members, book.OwnerID.String(), uid.String()) {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	recipe := domain.Recipe{
		ID:           s.genID.Generate(),
		BookID:       bookID,
		CreatedBy:    uid,
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		Category:     category,
		Ingredients:  datatypes.NewJSONSlice(emptyIfNil(req.Ingredients)),
		Instructions: datatypes.NewJSONSlice(emptyIfNil(req.Instructions)),
		CookTime:     strings.TrimSpace(req.CookTime),
		Servings:     req.Servings,
		ImagePath:    req.ImagePath,
		OCRSource:    req.OCRSource,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, &recipe); err != nil {
		return nil, err
	}

	source := "manual"
	if recipe.OCRSource {
		source = "ocr"
	}
	cloudmetrics.RecordRecipeCreated(recipe.BookID.String(), source)

	return toResponse(&recipe), nil
}

func (s *service) Get(ctx context.Context, userID string, recipeID string) (*domain.RecipeResponse, error) {
	uid, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return nil, err
	}
	id, err := parseID(recipeID, domain.ErrInvalidRecipe)
	if err != nil {
		return nil, err
	}

	recipe, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	book, members, err := s.loadBook(ctx, recipe.BookID)
	if err != nil {
		return nil, err
	}
	if !canView(book, members, uid) {
		return nil, domain.ErrForbidden
	}

	return toResponse(recipe), nil
}

func (s *service) ListByBook(ctx context.Context, userID string, bookID string) ([]domain.RecipeResponse, error) {
	uid, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return nil, err
	}
	id, err := parseID(bookID, domain.ErrInvalidBook)
	if err != nil {
		return nil, err
	}

	book, members, err := s.loadBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(book, members, uid) {
		return nil, domain.ErrForbidden
	}

	recipes, err := s.repo.ListByBook(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		resp = append(resp, *toResponse(&recipes[i]))
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, userID string, recipeID string, req domain.UpdateRecipeRequest) (*domain.RecipeResponse, error) {
	uid, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return nil, err
	}
	id, err := parseID(recipeID, domain.ErrInvalidRecipe)
	if err != nil {
		return nil, err
	}

	recipe, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	book, members, err := s.loadBook(ctx, recipe.BookID)
	if err != nil {
		return nil, err
	}
	if !canManage(book, members, recipe, uid) {
		return nil, domain.ErrForbidden
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		fields["title"] = title
		recipe.Title = title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		fields["description"] = description
		recipe.Description = description
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if !domain.ValidCategory(category) {
			return nil, domain.ErrInvalidCategory
		}
		fields["category"] = category
		recipe.Category = category
	}
	if req.Ingredients != nil {
		recipe.Ingredients = datatypes.NewJSONSlice(req.Ingredients)
		fields["ingredients"] = recipe.Ingredients
	}
	if req.Instructions != nil {
		recipe.Instructions = datatypes.NewJSONSlice(req.Instructions)
		fields["instructions"] = recipe.Instructions
	}
	if req.CookTime != nil {
		cookTime := strings.TrimSpace(*req.CookTime)
		fields["cook_time"] = cookTime
		recipe.CookTime = cookTime
	}
	if req.Servings != nil {
		fields["servings"] = *req.Servings
		recipe.Servings = req.Servings
	}
	if req.ImagePath != nil {
		fields["image_path"] = *req.ImagePath
		recipe.ImagePath = *req.ImagePath
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}

	return toResponse(recipe), nil
}

func (s *service) Delete(ctx context.Context, userID string, recipeID string) error {
	uid, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return err
	}
	id, err := parseID(recipeID, domain.ErrInvalidRecipe)
	if err != nil {
		return err
	}

	recipe, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	book, members, err := s.loadBook(ctx, recipe.BookID)
	if err != nil {
		return err
	}
	if !canManage(book, members, recipe, uid) {
		return domain.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

func (s *service) loadBook(ctx context.Context, bookID snowflake.ID) (*bookdomain.RecipeBook, []permission.Member, error) {
	book, err := s.bookRepo.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.bookRepo.ListMembers(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}

	members := make([]permission.Member, 0, len(items))
	for _, item := range items {
		members = append(members, permission.Member{
			UserID: item.UserID.String(),
			Role:   item.Role,
		})
	}
	return book, members, nil
}

func canView(book *bookdomain.RecipeBook, members []permission.Member, userID snowflake.ID) bool {
	uid := userID.String()
	return permission.IsOwner(book.OwnerID.String(), uid) || permission.IsMember(members, uid)
}

// canManage allows the recipe's creator to edit their own recipe, and the
// book owner or an admin to edit anyone's.
func canManage(book *bookdomain.RecipeBook, members []permission.Member, recipe *domain.Recipe, userID snowflake.ID) bool {
	if recipe.CreatedBy == userID {
		return canView(book, members, userID)
	}
	uid := userID.String()
	return permission.IsOwner(book.OwnerID.String(), uid) || permission.IsAdmin(members, uid)
}

func toResponse(recipe *domain.Recipe) *domain.RecipeResponse {
	return &domain.RecipeResponse{
		ID:           recipe.ID.String(),
		BookID:       recipe.BookID.String(),
		CreatedBy:    recipe.CreatedBy.String(),
		Title:        recipe.Title,
		Description:  recipe.Description,
		Category:     recipe.Category,
		Ingredients:  recipe.Ingredients,
		Instructions: recipe.Instructions,
		CookTime:     recipe.CookTime,
		Servings:     recipe.Servings,
		ImagePath:    recipe.ImagePath,
		OCRSource:    recipe.OCRSource,
		CreatedAt:    recipe.CreatedAt,
		UpdatedAt:    recipe.UpdatedAt,
	}
}

func parseID(raw string, invalid error) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, invalid
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil {
		return 0, invalid
	}
	return id, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
