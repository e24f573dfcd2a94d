package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/platebook/platebook/internal/auth/domain"
	authrepository "github.com/platebook/platebook/internal/auth/repository"
	bookdomain "github.com/platebook/platebook/internal/book/domain"
	bookrepository "github.com/platebook/platebook/internal/book/repository"
	"github.com/platebook/platebook/internal/config"
	"github.com/platebook/platebook/internal/invitation/domain"
	"github.com/platebook/platebook/internal/invitation/repository"
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
		&domain.RecipeBookInvitation{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	users, _ := authrepository.New(dbConn)
	bookRepo := bookrepository.NewRepository(dbConn)
	svc := NewService(Params{
		DB:       dbConn,
		Log:      zap.NewNop(),
		Config:   config.Config{PublicBaseURL: "http://localhost:8080"},
		GenID:    node,
		Repo:     repository.NewRepository(dbConn),
		BookRepo: bookRepo,
		Users:    users,
	})

	env := &testEnv{
		svc:      svc,
		bookRepo: bookRepo,
		node:     node,
		db:       dbConn,
	}

	env.owner = env.newUser(t, "owner@example.com")
	env.admin = env.newUser(t, "admin@example.com")

	env.bookID = node.Generate()
	err = bookRepo.CreateBook(context.Background(), bookdomain.RecipeBook{
		ID:        env.bookID,
		OwnerID:   env.owner,
		Name:      "Shared Dishes",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	err = bookRepo.AddMember(context.Background(), bookdomain.RecipeBookMember{
		ID:        node.Generate(),
		BookID:    env.bookID,
		UserID:    env.admin,
		Role:      "admin",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to add admin: %v", err)
	}

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

func (e *testEnv) invite(t *testing.T, inviter snowflake.ID, email, role string) *domain.InvitationResponse {
	t.Helper()

	invitation, err := e.svc.Create(context.Background(), inviter.String(), domain.CreateInvitationRequest{
		BookID: e.bookID.String(),
		Email:  email,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("failed to create invitation: %v", err)
	}
	return invitation
}

func TestCreateInvitation(t *testing.T) {
	env := newTestEnv(t)

	invitation := env.invite(t, env.owner, "Guest@Example.com", "member")
	if invitation.Email != "guest@example.com" {
		t.Fatalf("expected normalized email, got %q", invitation.Email)
	}
	if invitation.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %q", invitation.Status)
	}
	if invitation.Token == "" {
		t.Fatal("expected token in create response")
	}

	listed, err := env.svc.ListByBook(context.Background(), env.owner.String(), env.bookID.String())
	if err != nil {
		t.Fatalf("failed to list invitations: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 invitation, got %d", len(listed))
	}
	if listed[0].Token != "" {
		t.Fatal("token must not be exposed on list")
	}
}

func TestCreateInvitationAdminAllowedMemberDenied(t *testing.T) {
	env := newTestEnv(t)
	member := env.newUser(t, "member@example.com")

	err := env.bookRepo.AddMember(context.Background(), bookdomain.RecipeBookMember{
		ID:        env.node.Generate(),
		BookID:    env.bookID,
		UserID:    member,
		Role:      "member",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to add member: %v", err)
	}

	env.invite(t, env.admin, "from-admin@example.com", "member")

	_, err = env.svc.Create(context.Background(), member.String(), domain.CreateInvitationRequest{
		BookID: env.bookID.String(),
		Email:  "from-member@example.com",
		Role:   "member",
	})
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateInvitationRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), env.owner.String(), domain.CreateInvitationRequest{
		BookID: env.bookID.String(),
		Email:  "guest@example.com",
		Role:   "owner",
	})
	if err != domain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestGetByToken(t *testing.T) {
	env := newTestEnv(t)
	invitation := env.invite(t, env.owner, "guest@example.com", "member")

	preview, err := env.svc.GetByToken(context.Background(), invitation.Token)
	if err != nil {
		t.Fatalf("failed to get by token: %v", err)
	}
	if preview.BookName != "Shared Dishes" || preview.Role != "member" {
		t.Fatalf("unexpected preview: %+v", preview)
	}

	if _, err := env.svc.GetByToken(context.Background(), "no-such-token"); err != domain.ErrInvitationNotFound {
		t.Fatalf("expected ErrInvitationNotFound, got %v", err)
	}
}

func TestAcceptInvitation(t *testing.T) {
	env := newTestEnv(t)
	guest := env.newUser(t, "guest@example.com")
	invitation := env.invite(t, env.owner, "guest@example.com", "member")

	result, err := env.svc.Accept(context.Background(), guest.String(), invitation.Token)
	if err != nil {
		t.Fatalf("failed to accept: %v", err)
	}
	if result.AlreadyMember {
		t.Fatal("expected fresh membership")
	}
	if result.Role != "member" {
		t.Fatalf("expected member role, got %q", result.Role)
	}

	members, err := env.bookRepo.ListMembers(context.Background(), env.bookID)
	if err != nil {
		t.Fatalf("failed to list members: %v", err)
	}
	found := false
	for _, m := range members {
		if m.UserID == guest {
			found = true
		}
	}
	if !found {
		t.Fatal("expected guest in members")
	}

	// The token is spent once accepted.
	if _, err := env.svc.GetByToken(context.Background(), invitation.Token); err != domain.ErrInvitationNotFound {
		t.Fatalf("expected ErrInvitationNotFound after accept, got %v", err)
	}
}

func TestAcceptTwiceIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	guest := env.newUser(t, "guest@example.com")

	first := env.invite(t, env.owner, "guest@example.com", "member")
	second := env.invite(t, env.owner, "guest@example.com", "member")

	if _, err := env.svc.Accept(context.Background(), guest.String(), first.Token); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	result, err := env.svc.Accept(context.Background(), guest.String(), second.Token)
	if err != nil {
		t.Fatalf("second accept failed: %v", err)
	}
	if !result.AlreadyMember {
		t.Fatal("expected already-member result")
	}

	members, err := env.bookRepo.ListMembers(context.Background(), env.bookID)
	if err != nil {
		t.Fatalf("failed to list members: %v", err)
	}
	count := 0
	for _, m := range members {
		if m.UserID == guest {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected one membership row, got %d", count)
	}
}

func TestOwnerAcceptGainsNoMembershipRow(t *testing.T) {
	env := newTestEnv(t)
	invitation := env.invite(t, env.admin, "owner@example.com", "member")

	result, err := env.svc.Accept(context.Background(), env.owner.String(), invitation.Token)
	if err != nil {
		t.Fatalf("owner accept failed: %v", err)
	}
	if !result.AlreadyMember {
		t.Fatal("expected already-member result for owner")
	}

	members, err := env.bookRepo.ListMembers(context.Background(), env.bookID)
	if err != nil {
		t.Fatalf("failed to list members: %v", err)
	}
	for _, m := range members {
		if m.UserID == env.owner {
			t.Fatal("owner must never appear in members")
		}
	}
}

func TestRevokeInvitation(t *testing.T) {
	env := newTestEnv(t)
	guest := env.newUser(t, "guest@example.com")
	invitation := env.invite(t, env.owner, "guest@example.com", "member")

	if err := env.svc.Revoke(context.Background(), env.owner.String(), env.bookID.String(), invitation.ID); err != nil {
		t.Fatalf("failed to revoke: %v", err)
	}

	// Revoking again is a no-op.
	if err := env.svc.Revoke(context.Background(), env.owner.String(), env.bookID.String(), invitation.ID); err != nil {
		t.Fatalf("second revoke failed: %v", err)
	}

	if _, err := env.svc.Accept(context.Background(), guest.String(), invitation.Token); err != domain.ErrInvitationNotFound {
		t.Fatalf("expected ErrInvitationNotFound after revoke, got %v", err)
	}
}
