package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/platebook/platebook/internal/config"
	invitationdomain "github.com/platebook/platebook/internal/invitation/domain"
)

type fakeInvitationService struct {
	createCalls int
	lastReq     invitationdomain.CreateInvitationRequest
	createErr   error
	acceptCalls int
	acceptErr   error
	previewErr  error
}

func (f *fakeInvitationService) Create(ctx context.Context, userID string, req invitationdomain.CreateInvitationRequest) (*invitationdomain.InvitationResponse, error) {
	f.createCalls++
	f.lastReq = req
	_ = ctx
	_ = userID
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &invitationdomain.InvitationResponse{
		ID:     "7",
		BookID: req.BookID,
		Email:  req.Email,
		Role:   req.Role,
		Status: invitationdomain.StatusPending,
		Token:  "secret-token",
	}, nil
}

func (f *fakeInvitationService) ListByBook(ctx context.Context, userID string, bookID string) ([]invitationdomain.InvitationResponse, error) {
	_ = ctx
	_ = userID
	_ = bookID
	return nil, nil
}

func (f *fakeInvitationService) GetByToken(ctx context.Context, token string) (*invitationdomain.InvitationPreview, error) {
	_ = ctx
	_ = token
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	return &invitationdomain.InvitationPreview{
		BookName:    "Family Favorites",
		Role:        "member",
		InviterName: "Alice",
		Email:       "guest@example.com",
	}, nil
}

func (f *fakeInvitationService) Accept(ctx context.Context, userID string, token string) (*invitationdomain.AcceptResult, error) {
	f.acceptCalls++
	_ = ctx
	_ = userID
	_ = token
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	return &invitationdomain.AcceptResult{BookID: "42", Role: "member"}, nil
}

func (f *fakeInvitationService) Revoke(ctx context.Context, userID string, bookID string, invitationID string) error {
	_ = ctx
	_ = userID
	_ = bookID
	_ = invitationID
	return nil
}

func TestCreateInvitationHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	invSvc := &fakeInvitationService{}
	srv := &Server{cfg: config.Config{}, invitationSvc: invSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/books/:id/invitations", authAs("200"), srv.InviteRateLimit(), srv.CreateInvitation)

	req := httptest.NewRequest(http.MethodPost, "/api/books/42/invitations", bytes.NewBufferString(`{"email":"guest@example.com","role":"member"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if invSvc.createCalls != 1 {
		t.Fatalf("expected one Create call, got %d", invSvc.createCalls)
	}
	if invSvc.lastReq.BookID != "42" {
		t.Fatalf("expected book id from path, got %q", invSvc.lastReq.BookID)
	}
}

func TestCreateInvitationUnknownRoleReturns400(t *testing.T) {
	gin.SetMode(gin.TestMode)

	invSvc := &fakeInvitationService{createErr: invitationdomain.ErrInvalidRole}
	srv := &Server{cfg: config.Config{}, invitationSvc: invSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/books/:id/invitations", authAs("200"), srv.CreateInvitation)

	req := httptest.NewRequest(http.MethodPost, "/api/books/42/invitations", bytes.NewBufferString(`{"email":"guest@example.com","role":"owner"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAcceptInvitationRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	invSvc := &fakeInvitationService{}
	srv := &Server{cfg: config.Config{}, invitationSvc: invSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/invitations/accept", authAs("200"), srv.AcceptInvitation)

	req := httptest.NewRequest(http.MethodPost, "/api/invitations/accept", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if invSvc.acceptCalls != 0 {
		t.Fatal("expected Accept not to be called without a token")
	}
}

func TestAcceptInvitationSpentTokenReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)

	invSvc := &fakeInvitationService{acceptErr: invitationdomain.ErrInvitationNotFound}
	srv := &Server{cfg: config.Config{}, invitationSvc: invSvc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/invitations/accept", authAs("200"), srv.AcceptInvitation)

	req := httptest.NewRequest(http.MethodPost, "/api/invitations/accept", bytes.NewBufferString(`{"token":"already-used"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestInvitationPreviewRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{
		cfg:                  config.Config{},
		invitationSvc:        &fakeInvitationService{},
		invitePreviewLimiter: newRateLimiter(2, time.Minute),
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/public/invitations/:token", srv.PreviewRateLimit(), srv.GetInvitationByToken)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/public/invitations/some-token", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/public/invitations/some-token", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}
