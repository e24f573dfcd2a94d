package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/platebook/platebook/internal/auth/domain"
	bookdomain "github.com/platebook/platebook/internal/book/domain"
	bookrepository "github.com/platebook/platebook/internal/book/repository"
	"github.com/platebook/platebook/internal/recipe/domain"
	"github.com/platebook/platebook/internal/recipe/repository"
	"github.com/platebook/platebook/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc      domain.Service
	bookRepo bookdomain.Repository
	node     *snowflake.Node
	db       *gorm.DB

	owner  snowflake.ID
	admin  snowflake.ID
	member snowflake.ID
	bookID snowflake.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&authdomain.User{},
		&bookdomain.RecipeBook{},
		&bookdomain.RecipeBookMember{},
		&domain.Recipe{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	bookRepo := bookrepository.NewRepository(dbConn)
	svc := NewService(Params{
		DB:       dbConn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.NewRepository(dbConn),
		BookRepo: bookRepo,
	})

	env := &testEnv{
		svc:      svc,
		bookRepo: bookRepo,
		node:     node,
		db:       dbConn,
	}

	env.owner = env.newUser(t, "owner@example.com")
	env.admin = env.newUser(t, "admin@example.com")
	env.member = env.newUser(t, "member@example.com")

	env.bookID = node.Generate()
	err = bookRepo.CreateBook(context.Background(), bookdomain.RecipeBook{
		ID:        env.bookID,
		OwnerID:   env.owner,
		Name:      "Test Book",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	env.addMember(t, env.admin, "admin")
	env.addMember(t, env.member, "member")

	return env
}

func (e *testEnv) newUser(t *testing.T, email string) snowflake.ID {
	t.Helper()

	user := authdomain.User{
		ID:        e.node.Generate(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user.ID
}

func (e *testEnv) addMember(t *testing.T, userID snowflake.ID, role string) {
	t.Helper()

	err := e.bookRepo.AddMember(context.Background(), bookdomain.RecipeBookMember{
		ID:        e.node.Generate(),
		BookID:    e.bookID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
}

func (e *testEnv) createRecipe(t *testing.T, userID snowflake.ID, title string) *domain.RecipeResponse {
	t.Helper()

	recipe, err := e.svc.Create(context.Background(), userID.String(), domain.CreateRecipeRequest{
		BookID:       e.bookID.String(),
		Title:        title,
		Category:     "Dinner",
		Ingredients:  []string{"salt"},
		Instructions: []string{"season"},
	})
	if err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	return recipe
}

func TestCreateRecipeDefaultsCategory(t *testing.T) {
	env := newTestEnv(t)

	recipe, err := env.svc.Create(context.Background(), env.member.String(), domain.CreateRecipeRequest{
		BookID: env.bookID.String(),
		Title:  "Mystery Dish",
	})
	if err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	if recipe.Category != "Other" {
		t.Fatalf("expected category Other, got %q", recipe.Category)
	}
	if recipe.Ingredients == nil || recipe.Instructions == nil {
		t.Fatal("expected empty slices, got nil")
	}
}

func TestCreateRecipeRejectsUnknownCategory(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), env.member.String(), domain.CreateRecipeRequest{
		BookID:   env.bookID.String(),
		Title:    "Chili",
		Category: "dinner",
	})
	if err != domain.ErrInvalidCategory {
		t.Fatalf("expected ErrInvalidCategory for lowercase category, got %v", err)
	}
}

func TestCreateRecipeDeniedForOutsider(t *testing.T) {
	env := newTestEnv(t)
	outsider := env.newUser(t, "outsider@example.com")

	_, err := env.svc.Create(context.Background(), outsider.String(), domain.CreateRecipeRequest{
		BookID: env.bookID.String(),
		Title:  "Intruder Pie",
	})
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateRecipePermissions(t *testing.T) {
	env := newTestEnv(t)
	other := env.newUser(t, "other@example.com")
	env.addMember(t, other, "member")

	recipe := env.createRecipe(t, env.member, "Pancakes")

	title := "Fluffy Pancakes"
	if _, err := env.svc.Update(context.Background(), other.String(), recipe.ID, domain.UpdateRecipeRequest{Title: &title}); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for unrelated member, got %v", err)
	}

	updated, err := env.svc.Update(context.Background(), env.member.String(), recipe.ID, domain.UpdateRecipeRequest{Title: &title})
	if err != nil {
		t.Fatalf("creator update failed: %v", err)
	}
	if updated.Title != "Fluffy Pancakes" {
		t.Fatalf("unexpected title %q", updated.Title)
	}

	title = "Admin Pancakes"
	if _, err := env.svc.Update(context.Background(), env.admin.String(), recipe.ID, domain.UpdateRecipeRequest{Title: &title}); err != nil {
		t.Fatalf("admin update failed: %v", err)
	}

	title = "Owner Pancakes"
	if _, err := env.svc.Update(context.Background(), env.owner.String(), recipe.ID, domain.UpdateRecipeRequest{Title: &title}); err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
}

func TestDeleteRecipe(t *testing.T) {
	env := newTestEnv(t)
	other := env.newUser(t, "other@example.com")
	env.addMember(t, other, "member")

	recipe := env.createRecipe(t, env.member, "Toast")

	if err := env.svc.Delete(context.Background(), other.String(), recipe.ID); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for unrelated member, got %v", err)
	}

	if err := env.svc.Delete(context.Background(), env.member.String(), recipe.ID); err != nil {
		t.Fatalf("creator delete failed: %v", err)
	}

	if _, err := env.svc.Get(context.Background(), env.member.String(), recipe.ID); err != domain.ErrRecipeNotFound {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}
}

func TestListByBook(t *testing.T) {
	env := newTestEnv(t)

	env.createRecipe(t, env.member, "First")
	env.createRecipe(t, env.admin, "Second")

	recipes, err := env.svc.ListByBook(context.Background(), env.owner.String(), env.bookID.String())
	if err != nil {
		t.Fatalf("failed to list recipes: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}

	outsider := env.newUser(t, "outsider@example.com")
	if _, err := env.svc.ListByBook(context.Background(), outsider.String(), env.bookID.String()); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
