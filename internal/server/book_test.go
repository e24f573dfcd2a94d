package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	bookdomain "github.com/platebook/platebook/internal/book/domain"
	"github.com/platebook/platebook/internal/config"
)

type fakeBookService struct {
	createCalls int
	lastUserID  string
	lastReq     bookdomain.CreateBookRequest
	createErr   error
	getErr      error
	joinCalls   int
	joinErr     error
}

func (f *fakeBookService) Create(ctx context.Context, userID string, req bookdomain.CreateBookRequest) (*bookdomain.BookResponse, error) {
	f.createCalls++
	f.lastUserID = userID
	f.lastReq = req
	_ = ctx
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &bookdomain.BookResponse{ID: "1", OwnerID: userID, Name: req.Name, Slug: "family-favorites"}, nil
}

func (f *fakeBookService) Get(ctx context.Context, userID string, bookID string) (*bookdomain.BookDetailResponse, error) {
	_ = ctx
	_ = userID
	_ = bookID
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &bookdomain.BookDetailResponse{
		BookResponse: bookdomain.BookResponse{ID: bookID, OwnerID: userID, Name: "Family Favorites"},
		Role:         bookdomain.RoleOwner,
	}, nil
}

func (f *fakeBookService) ListByUser(ctx context.Context, userID string) ([]bookdomain.BookListResponseItem, error) {
	_ = ctx
	_ = userID
	return nil, nil
}

func (f *fakeBookService) Update(ctx context.Context, userID string, bookID string, req bookdomain.UpdateBookRequest) (*bookdomain.BookResponse, error) {
	_ = ctx
	_ = userID
	_ = bookID
	_ = req
	return &bookdomain.BookResponse{ID: bookID}, nil
}

func (f *fakeBookService) Delete(ctx context.Context, userID string, bookID string) error {
	_ = ctx
	_ = userID
	_ = bookID
	return nil
}

func (f *fakeBookService) Members(ctx context.Context, userID string, bookID string) ([]bookdomain.MemberResponse, error) {
	_ = ctx
	_ = userID
	_ = bookID
	return nil, nil
}

func (f *fakeBookService) RemoveMember(ctx context.Context, userID string, bookID string, memberUserID string) error {
	_ = ctx
	_ = userID
	_ = bookID
	_ = memberUserID
	return nil
}

func (f *fakeBookService) Join(ctx context.Context, userID string, bookID string) error {
	f.joinCalls++
	_ = ctx
	_ = userID
	_ = bookID
	return f.joinErr
}

func (f *fakeBookService) Leave(ctx context.Context, userID string, bookID string) error {
	_ = ctx
	_ = userID
	_ = bookID
	return nil
}

func (f *fakeBookService) Publish(ctx context.Context, userID string, bookID string) (*bookdomain.BookResponse, error) {
	_ = ctx
	_ = userID
	return &bookdomain.BookResponse{ID: bookID, IsPublic: true}, nil
}

func (f *fakeBookService) Unpublish(ctx context.Context, userID string, bookID string) (*bookdomain.BookResponse, error) {
	_ = ctx
	_ = userID
	return &bookdomain.BookResponse{ID: bookID}, nil
}

func (f *fakeBookService) ExportPDF(ctx context.Context, userID string, bookID string) (io.Reader, error) {
	_ = ctx
	_ = userID
	_ = bookID
	return bytes.NewReader([]byte("%PDF-1.4")), nil
}

func TestCreateBookHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bookSvc := &fakeBookService{}
	srv := &Server{cfg: config.Config{}, bookSvc: bookSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/books", authAs("200"), srv.CreateBook)

	req := httptest.NewRequest(http.MethodPost, "/api/books", bytes.NewBufferString(`{"name":"Family Favorites","description":"Sunday dinners"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if bookSvc.createCalls != 1 {
		t.Fatalf("expected one Create call, got %d", bookSvc.createCalls)
	}
	if bookSvc.lastUserID != "200" {
		t.Fatalf("expected user 200, got %q", bookSvc.lastUserID)
	}
	if bookSvc.lastReq.Name != "Family Favorites" {
		t.Fatalf("unexpected bound name %q", bookSvc.lastReq.Name)
	}
}

func TestCreateBookBlankNameReturns400(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bookSvc := &fakeBookService{createErr: bookdomain.ErrInvalidName}
	srv := &Server{cfg: config.Config{}, bookSvc: bookSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/books", authAs("200"), srv.CreateBook)

	req := httptest.NewRequest(http.MethodPost, "/api/books", bytes.NewBufferString(`{"name":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestGetBookNotFoundReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bookSvc := &fakeBookService{getErr: bookdomain.ErrBookNotFound}
	srv := &Server{cfg: config.Config{}, bookSvc: bookSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/books/:id", authAs("200"), srv.GetBook)

	req := httptest.NewRequest(http.MethodGet, "/api/books/42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestGetBookForbiddenReturns403(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bookSvc := &fakeBookService{getErr: bookdomain.ErrForbidden}
	srv := &Server{cfg: config.Config{}, bookSvc: bookSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/books/:id", authAs("200"), srv.GetBook)

	req := httptest.NewRequest(http.MethodGet, "/api/books/42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestJoinBookPrivateForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bookSvc := &fakeBookService{joinErr: bookdomain.ErrForbidden}
	srv := &Server{cfg: config.Config{}, bookSvc: bookSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/books/:id/join", authAs("200"), srv.JoinBook)

	req := httptest.NewRequest(http.MethodPost, "/api/books/42/join", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
	if bookSvc.joinCalls != 1 {
		t.Fatalf("expected one Join call, got %d", bookSvc.joinCalls)
	}
}

func TestExportBookPDFSetsContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{cfg: config.Config{}, bookSvc: &fakeBookService{}}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/books/:id/export.pdf", authAs("200"), srv.ExportBookPDF)

	req := httptest.NewRequest(http.MethodGet, "/api/books/42/export.pdf", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", got)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF body")
	}
}
