package importer

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/platebook/platebook/internal/auth/domain"
	bookdomain "github.com/platebook/platebook/internal/book/domain"
	bookrepository "github.com/platebook/platebook/internal/book/repository"
	"github.com/platebook/platebook/internal/providers/ocr"
	recipedomain "github.com/platebook/platebook/internal/recipe/domain"
	reciperepository "github.com/platebook/platebook/internal/recipe/repository"
	recipeservice "github.com/platebook/platebook/internal/recipe/service"
	"github.com/platebook/platebook/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memStorage struct {
	objects map[string][]byte
}

func (m *memStorage) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memStorage) Get(ctx context.Context, key string) ([]byte, error) { return m.objects[key], nil }
func (m *memStorage) Delete(ctx context.Context, key string) error       { delete(m.objects, key); return nil }
func (m *memStorage) PresignGet(ctx context.Context, key string, lifetime time.Duration) (string, error) {
	return "https://example.test/" + key, nil
}
func (m *memStorage) PutPublic(ctx context.Context, key string, body []byte, contentType string) error {
	return nil
}
func (m *memStorage) DeletePublic(ctx context.Context, key string) error { return nil }
func (m *memStorage) PublicURL(key string) string                        { return "" }

type testEnv struct {
	svc     Service
	storage *memStorage
	node    *snowflake.Node
	db      *gorm.DB

	owner  snowflake.ID
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
		&recipedomain.Recipe{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	recipes := recipeservice.NewService(recipeservice.Params{
		DB:       dbConn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     reciperepository.NewRepository(dbConn),
		BookRepo: bookrepository.NewRepository(dbConn),
	})

	parser := newTestParser(t)
	store := &memStorage{objects: make(map[string][]byte)}
	svc := NewService(Params{
		Log:     zap.NewNop(),
		Parser:  parser,
		Storage: store,
		OCR:     ocr.NewSimulated(nil),
		Recipes: recipes,
	})

	env := &testEnv{
		svc:     svc,
		storage: store,
		node:    node,
		db:      dbConn,
	}

	owner := authdomain.User{
		ID:        node.Generate(),
		Email:     "owner@example.com",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := dbConn.Create(&owner).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	env.owner = owner.ID

	env.bookID = node.Generate()
	err = bookrepository.NewRepository(dbConn).CreateBook(context.Background(), bookdomain.RecipeBook{
		ID:        env.bookID,
		OwnerID:   env.owner,
		Name:      "Imports",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	return env
}

func TestImportCreatesDraft(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.svc.Import(context.Background(), env.owner.String(), ImportRequest{
		BookID:      env.bookID.String(),
		Filename:    "cookies.jpg",
		ContentType: "image/jpeg",
		File:        strings.NewReader("fake image bytes"),
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if result.Recipe.Title != "Classic Chocolate Chip Cookies" {
		t.Fatalf("unexpected title %q", result.Recipe.Title)
	}
	if !result.Recipe.OCRSource {
		t.Fatal("expected ocr_source recipe")
	}
	if len(result.Recipe.Ingredients) != 10 {
		t.Fatalf("expected 10 ingredients, got %d", len(result.Recipe.Ingredients))
	}
	if result.Recipe.CookTime == "" {
		t.Fatal("expected cook time")
	}

	prefix := "recipe-imports/" + env.owner.String() + "/"
	if !strings.HasPrefix(result.FilePath, prefix) {
		t.Fatalf("unexpected file path %q", result.FilePath)
	}
	if !strings.HasSuffix(result.FilePath, ".jpg") {
		t.Fatalf("expected .jpg suffix, got %q", result.FilePath)
	}
	if _, ok := env.storage.objects[result.FilePath]; !ok {
		t.Fatal("expected uploaded object in storage")
	}
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Import(context.Background(), env.owner.String(), ImportRequest{
		BookID:      env.bookID.String(),
		Filename:    "recipe.exe",
		ContentType: "application/octet-stream",
		File:        strings.NewReader("nope"),
	})
	if err != ErrInvalidFile {
		t.Fatalf("expected ErrInvalidFile, got %v", err)
	}
}

func TestImportDeniedForOutsider(t *testing.T) {
	env := newTestEnv(t)

	outsider := authdomain.User{
		ID:        env.node.Generate(),
		Email:     "outsider@example.com",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := env.db.Create(&outsider).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	_, err := env.svc.Import(context.Background(), outsider.ID.String(), ImportRequest{
		BookID:      env.bookID.String(),
		Filename:    "cookies.png",
		ContentType: "image/png",
		File:        strings.NewReader("fake"),
	})
	if err != recipedomain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
