package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/platebook/platebook/internal/auth/domain"
	bookdomain "github.com/platebook/platebook/internal/book/domain"
	"github.com/platebook/platebook/internal/cloudmetrics"
	"github.com/platebook/platebook/internal/config"
	"github.com/platebook/platebook/internal/event"
	"github.com/platebook/platebook/internal/invitation/domain"
	"github.com/platebook/platebook/internal/permission"
	"github.com/platebook/platebook/internal/providers/email"
	"github.com/platebook/platebook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenBytes = 16

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Config    config.Config
	GenID     *snowflake.Node
	Repo      domain.Repository
	BookRepo  bookdomain.Repository
	Users     authdomain.Repository
	Email     email.Provider
	Publisher event.EventPublisher
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	cfg       config.Config
	genID     *snowflake.Node
	repo      domain.Repository
	bookRepo  bookdomain.Repository
	users     authdomain.Repository
	email     email.Provider
	publisher event.EventPublisher
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("invitation.service"),
		cfg:       p.Config,
		genID:     p.GenID,
		repo:      p.Repo,
		bookRepo:  p.BookRepo,
		users:     p.Users,
		email:     p.Email,
		publisher: p.Publisher,
	}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateInvitationRequest) (*domain.InvitationResponse, error) {
	uid, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return nil, err
	}
	bookID, err := parseID(req.BookID, domain.ErrInvalidBook)
	if err != nil {
		return nil, err
	}

	address, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}

	role := strings.TrimSpace(req.Role)
	if role != permission.RoleAdmin && role != permission.RoleMember {
		return nil, domain.ErrInvalidRole
	}

	book, members, err := s.loadBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !permission.Can(permission.ActionInvite, members, book.OwnerID.String(), uid.String()) {
		return nil, domain.ErrForbidden
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}

	invitation := domain.RecipeBookInvitation{
		ID:        s.genID.Generate(),
		BookID:    bookID,
		Email:     address,
		Role:      role,
		Token:     token,
		Status:    domain.StatusPending,
		InvitedBy: uid,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, invitation); err != nil {
		return nil, err
	}

	s.sendInviteEmail(ctx, book, &invitation)

	return toResponse(&invitation, true), nil
}

func (s *service) ListByBook(ctx context.Context, userID string, bookID string) ([]domain.InvitationResponse, error) {
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
	if !permission.Can(permission.ActionInvite, members, book.OwnerID.String(), uid.String()) {
		return nil, domain.ErrForbidden
	}

	invitations, err := s.repo.ListByBook(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.InvitationResponse, 0, len(invitations))
	for i := range invitations {
		resp = append(resp, *toResponse(&invitations[i], false))
	}
	return resp, nil
}

func (s *service) GetByToken(ctx context.Context, token string) (*domain.InvitationPreview, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, domain.ErrInvitationNotFound
	}

	invitation, err := s.repo.GetPendingByToken(ctx, trimmed)
	if err != nil {
		return nil, err
	}

	book, err := s.bookRepo.GetBook(ctx, invitation.BookID)
	if err != nil {
		return nil, err
	}

	preview := &domain.InvitationPreview{
		BookName:        book.Name,
		BookDescription: book.Description,
		Role:            invitation.Role,
		Email:           invitation.Email,
	}
	if inviter, err := s.users.FindByID(ctx, invitation.InvitedBy); err == nil {
		preview.InviterName = inviter.DisplayName
	}
	return preview, nil
}

func (s *service) Accept(ctx context.Context, userID string, token string) (*domain.AcceptResult, error) {
	uid, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, domain.ErrInvitationNotFound
	}

	var result *domain.AcceptResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bookRepo := s.bookRepo.WithTx(tx)

		invitation, err := repo.GetPendingByToken(ctx, trimmed)
		if err != nil {
			return err
		}

		book, err := bookRepo.GetBook(ctx, invitation.BookID)
		if err != nil {
			return err
		}

		// The owner already has full access; an owner accepting their
		// own invitation must not gain a membership row.
		if book.OwnerID == uid {
			if err := repo.MarkAccepted(ctx, invitation.ID); err != nil {
				return err
			}
			result = &domain.AcceptResult{
				BookID:        book.ID.String(),
				Role:          bookdomain.RoleOwner,
				AlreadyMember: true,
			}
			return nil
		}

		alreadyMember := false
		err = bookRepo.AddMember(ctx, bookdomain.RecipeBookMember{
			ID:        s.genID.Generate(),
			BookID:    invitation.BookID,
			UserID:    uid,
			Role:      invitation.Role,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			if !db.IsDuplicateKeyErr(err) {
				return err
			}
			alreadyMember = true
		}

		if err := repo.MarkAccepted(ctx, invitation.ID); err != nil {
			return err
		}

		result = &domain.AcceptResult{
			BookID:        book.ID.String(),
			Role:          invitation.Role,
			AlreadyMember: alreadyMember,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cloudmetrics.RecordInvitationAccepted(result.BookID)
	s.emitAccepted(ctx, result, uid)

	return result, nil
}

func (s *service) Revoke(ctx context.Context, userID string, bookID string, invitationID string) error {
	uid, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return err
	}
	bid, err := parseID(bookID, domain.ErrInvalidBook)
	if err != nil {
		return err
	}
	id, err := parseID(invitationID, domain.ErrInvitationNotFound)
	if err != nil {
		return err
	}

	book, members, err := s.loadBook(ctx, bid)
	if err != nil {
		return err
	}
	if !permission.Can(permission.ActionInvite, members, book.OwnerID.String(), uid.String()) {
		return domain.ErrForbidden
	}

	invitation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// Revoking an invitation that is already gone is a no-op.
		if err == domain.ErrInvitationNotFound {
			return nil
		}
		return err
	}
	if invitation.BookID != bid {
		return domain.ErrInvitationNotFound
	}

	_, err = s.repo.Delete(ctx, id)
	return err
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

func (s *service) sendInviteEmail(ctx context.Context, book *bookdomain.RecipeBook, invitation *domain.RecipeBookInvitation) {
	if s.email == nil {
		return
	}

	inviterName := ""
	if inviter, err := s.users.FindByID(ctx, invitation.InvitedBy); err == nil {
		inviterName = inviter.DisplayName
	}

	data := map[string]string{
		"book_name":    book.Name,
		"inviter_name": inviterName,
		"role":         invitation.Role,
		"invite_url":   fmt.Sprintf("%s/invite/%s", s.cfg.PublicBaseURL, invitation.Token),
	}

	if err := s.email.SendTemplate(ctx, []string{invitation.Email}, "invite_member", data); err != nil {
		s.log.Warn("failed to send invitation email",
			zap.String("book_id", book.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *service) emitAccepted(ctx context.Context, result *domain.AcceptResult, userID snowflake.ID) {
	if s.publisher == nil {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"book_id": result.BookID,
		"user_id": userID.String(),
		"role":    result.Role,
	})
	if err != nil {
		s.log.Warn("failed to marshal invitation.accepted payload", zap.Error(err))
		return
	}

	if err := s.publisher.Publish(ctx, event.InvitationAcceptedTopic, payload); err != nil {
		s.log.Warn("failed to publish invitation.accepted", zap.Error(err))
	}
}

func toResponse(invitation *domain.RecipeBookInvitation, includeToken bool) *domain.InvitationResponse {
	resp := &domain.InvitationResponse{
		ID:         invitation.ID.String(),
		BookID:     invitation.BookID.String(),
		Email:      invitation.Email,
		Role:       invitation.Role,
		Status:     invitation.Status,
		InvitedBy:  invitation.InvitedBy.String(),
		CreatedAt:  invitation.CreatedAt,
		AcceptedAt: invitation.AcceptedAt,
	}
	if includeToken {
		resp.Token = invitation.Token
	}
	return resp
}

func newInviteToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(addr.Address), nil
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
