package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/platebook/platebook/internal/auth/domain"
	"github.com/platebook/platebook/internal/book/domain"
	"github.com/platebook/platebook/internal/book/repository"
	"github.com/platebook/platebook/internal/clock"
	"github.com/platebook/platebook/internal/providers/pdf"
	recipedomain "github.com/platebook/platebook/internal/recipe/domain"
	reciperepository "github.com/platebook/platebook/internal/recipe/repository"
	"github.com/platebook/platebook/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memStorage keeps objects in memory so tests can assert on published
// snapshots.
type memStorage struct {
	private map[string][]byte
	public  map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{
		private: make(map[string][]byte),
		public:  make(map[string][]byte),
	}
}

func (m *memStorage) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.private[key] = data
	return nil
}

func (m *memStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return m.private[key], nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	delete(m.private, key)
	return nil
}

func (m *memStorage) PresignGet(ctx context.Context, key string, lifetime time.Duration) (string, error) {
	return "https://example.test/" + key, nil
}

func (m *memStorage) PutPublic(ctx context.Context, key string, body []byte, contentType string) error {
	m.public[key] = body
	return nil
}

func (m *memStorage) DeletePublic(ctx context.Context, key string) error {
	delete(m.public, key)
	return nil
}

func (m *memStorage) PublicURL(key string) string {
	return "https://public.example.test/" + key
}

type testEnv struct {
	svc        domain.Service
	repo       domain.Repository
	recipeRepo recipedomain.Repository
	storage    *memStorage
	node       *snowflake.Node
	db         *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&authdomain.User{},
		&domain.RecipeBook{},
		&domain.RecipeBookMember{},
		&recipedomain.Recipe{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	repo := repository.NewRepository(dbConn)
	recipeRepo := reciperepository.NewRepository(dbConn)
	storage := newMemStorage()

	svc := NewService(Params{
		DB:         dbConn,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repo,
		RecipeRepo: recipeRepo,
		Storage:    storage,
		PDF:        pdf.New(),
		Clock:      clock.NewSystemClock(),
	})

	return &testEnv{
		svc:        svc,
		repo:       repo,
		recipeRepo: recipeRepo,
		storage:    storage,
		node:       node,
		db:         dbConn,
	}
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

func (e *testEnv) addMember(t *testing.T, bookID string, userID snowflake.ID, role string) {
	t.Helper()

	id, err := snowflake.ParseString(bookID)
	if err != nil {
		t.Fatalf("invalid book id: %v", err)
	}
	err = e.repo.AddMember(context.Background(), domain.RecipeBookMember{
		ID:        e.node.Generate(),
		BookID:    id,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
}

func TestCreateAndGetBook(t *testing.T) {
	env := newTestEnv(t)
	owner := env.newUser(t, "owner@example.com")

	book, err := env.svc.Create(context.Background(), owner.String(), domain.CreateBookRequest{
		Name:        "  Family Favorites ",
		Description: "Weeknight staples",
	})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	if book.Name != "Family Favorites" {
		t.Fatalf("expected trimmed name, got %q", book.Name)
	}
	if book.Slug != "family-favorites" {
		t.Fatalf("expected slug family-favorites, got %q", book.Slug)
	}

	detail, err := env.svc.Get(context.Background(), owner.String(), book.ID)
	if err != nil {
		t.Fatalf("failed to get book: %v", err)
	}
	if detail.Role != domain.RoleOwner {
		t.Fatalf("expected role owner, got %q", detail.Role)
	}
	if detail.RecipeCount != 0 {
		t.Fatalf("expected 0 recipes, got %d", detail.RecipeCount)
	}
	if len(detail.Members) != 0 {
		t.Fatalf("owner must not appear as member, got %d members", len(detail.Members))
	}
}

func TestCreateBookRejectsBlankName(t *testing.T) {
	env := newTestEnv(t)
	owner := env.newUser(t, "owner@example.com")

	_, err := env.svc.Create(context.Background(), owner.String(), domain.CreateBookRequest{
		Name: "   ",
	})
	if err != domain.ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestGetBookDeniedForOutsider(t *testing.T) {
	env := newTestEnv(t)
	owner := env.newUser(t, "owner@example.com")
	outsider := env.newUser(t, "outsider@example.com")

	book, err := env.svc.Create(context.Background(), owner.String(), domain.CreateBookRequest{Name: "Secret"})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	if _, err := env.svc.Get(context.Background(), outsider.String(), book.ID); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateBookOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.newUser(t, "owner@example.com")
	admin := env.newUser(t, "admin@example.com")

	book, err := env.svc.Create(context.Background(), owner.String(), domain.CreateBookRequest{Name: "Brunch"})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	env.addMember(t, book.ID, admin, "admin")

	name := "Sunday Brunch"
	if _, err := env.svc.Update(context.Background(), admin.String(), book.ID, domain.UpdateBookRequest{Name: &name}); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for admin, got %v", err)
	}

	updated, err := env.svc.Update(context.Background(), owner.String(), book.ID, domain.UpdateBookRequest{Name: &name})
	if err != nil {
		t.Fatalf("failed to update book: %v", err)
	}
	if updated.Name != "Sunday Brunch" || updated.Slug != "sunday-brunch" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	owner := env.newUser(t, "owner@example.com")
	member := env.newUser(t, "member@example.com")

	book, err := env.svc.Create(context.Background(), owner.String(), domain.CreateBookRequest{Name: "Potluck"})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	env.addMember(t, book.ID, member, "member")

	if err := env.svc.RemoveMember(context.Background(), member.String(), book.ID, member.String()); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for member, got %v", err)
	}

	if err := env.svc.RemoveMember(context.Background(), owner.String(), book.ID, owner.String()); err != domain.ErrInvalidMember {
		t.Fatalf("expected ErrInvalidMember removing owner, got %v", err)
	}

	if err := env.svc.RemoveMember(context.Background(), owner.String(), book.ID, member.String()); err != nil {
		t.Fatalf("failed to remove member: %v", err)
	}

	members, err := env.svc.Members(context.Background(), owner.String(), book.ID)
	if err != nil {
		t.Fatalf("failed to list members: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected no members, got %d", len(members))
	}
}

func TestLeave(t *testing.T) {
	env := newTestEnv(t)
	owner := env.newUser(t, "owner@example.com")
	member := env.newUser(t, "member@example.com")

	book, err := env.svc.Create(context.Background(), owner.String(), domain.CreateBookRequest{Name: "Bakes"})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	env.addMember(t, book.ID, member, "member")

	if err := env.svc.Leave(context.Background(), owner.String(), book.ID); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for owner leave, got %v", err)
	}

	if err := env.svc.Leave(context.Background(), member.String(), book.ID); err != nil {
		t.Fatalf("failed to leave: %v", err)
	}

	if _, err := env.svc.Get(context.Background(), member.String(), book.ID); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden after leaving, got %v", err)
	}
}

func TestJoinPublicBook(t *testing.T) {
	env := newTestEnv(t)
	owner := env.newUser(t, "owner@example.com")
	joiner := env.newUser(t, "joiner@example.com")

	book, err := env.svc.Create(context.Background(), owner.String(), domain.CreateBookRequest{Name: "Open Kitchen"})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	if err := env.svc.Join(context.Background(), joiner.String(), book.ID); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden joining private book, got %v", err)
	}

	if _, err := env.svc.Publish(context.Background(), owner.String(), book.ID); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	if err := env.svc.Join(context.Background(), joiner.String(), book.ID); err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	// Joining again is a no-op.
	if err := env.svc.Join(context.Background(), joiner.String(), book.ID); err != nil {
		t.Fatalf("second join failed: %v", err)
	}

	detail, err := env.svc.Get(context.Background(), joiner.String(), book.ID)
	if err != nil {
		t.Fatalf("failed to get after join: %v", err)
	}
	if detail.Role != "member" {
		t.Fatalf("expected member role, got %q", detail.Role)
	}
	if len(detail.Members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(detail.Members))
	}
}

func TestPublishWritesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	owner := env.newUser(t, "owner@example.com")

	book, err := env.svc.Create(context.Background(), owner.String(), domain.CreateBookRequest{Name: "Soups"})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	bookID, _ := snowflake.ParseString(book.ID)
	err = env.recipeRepo.Create(context.Background(), &recipedomain.Recipe{
		ID:           env.node.Generate(),
		BookID:       bookID,
		CreatedBy:    owner,
		Title:        "Tomato Soup",
		Category:     "Soup",
		Ingredients:  []string{"4 tomatoes", "1 onion"},
		Instructions: []string{"Simmer", "Blend"},
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}

	published, err := env.svc.Publish(context.Background(), owner.String(), book.ID)
	if err != nil {
		t.Fatalf("failed to publish: %v", err)
	}
	if !published.IsPublic {
		t.Fatal("expected book to be public")
	}
	if !strings.Contains(published.PublicURL, "recipe_books/"+book.ID+".json") {
		t.Fatalf("unexpected public url %q", published.PublicURL)
	}

	key := fmt.Sprintf("recipe_books/%s.json", book.ID)
	raw, ok := env.storage.public[key]
	if !ok {
		t.Fatalf("expected snapshot at %s", key)
	}

	var doc struct {
		Name    string `json:"name"`
		Recipes []struct {
			Title string `json:"title"`
		} `json:"recipes"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if doc.Name != "Soups" || len(doc.Recipes) != 1 || doc.Recipes[0].Title != "Tomato Soup" {
		t.Fatalf("unexpected snapshot: %+v", doc)
	}

	if _, err := env.svc.Unpublish(context.Background(), owner.String(), book.ID); err != nil {
		t.Fatalf("failed to unpublish: %v", err)
	}
	if _, ok := env.storage.public[key]; ok {
		t.Fatal("expected snapshot removed after unpublish")
	}
}

func TestListByUserCoversOwnedAndMemberBooks(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice@example.com")
	bob := env.newUser(t, "bob@example.com")

	owned, err := env.svc.Create(context.Background(), alice.String(), domain.CreateBookRequest{Name: "Mine"})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	shared, err := env.svc.Create(context.Background(), bob.String(), domain.CreateBookRequest{Name: "Shared"})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	env.addMember(t, shared.ID, alice, "member")

	items, err := env.svc.ListByUser(context.Background(), alice.String())
	if err != nil {
		t.Fatalf("failed to list books: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 books, got %d", len(items))
	}

	roles := map[string]string{}
	for _, item := range items {
		roles[item.ID] = item.Role
	}
	if roles[owned.ID] != domain.RoleOwner {
		t.Fatalf("expected owner role for %s, got %q", owned.ID, roles[owned.ID])
	}
	if roles[shared.ID] != "member" {
		t.Fatalf("expected member role for %s, got %q", shared.ID, roles[shared.ID])
	}
}

func TestExportPDFRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.newUser(t, "owner@example.com")
	outsider := env.newUser(t, "outsider@example.com")

	book, err := env.svc.Create(context.Background(), owner.String(), domain.CreateBookRequest{Name: "Grill"})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	if _, err := env.svc.ExportPDF(context.Background(), outsider.String(), book.ID); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	out, err := env.svc.ExportPDF(context.Background(), owner.String(), book.ID)
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}
	data, err := io.ReadAll(out)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty pdf")
	}
}
