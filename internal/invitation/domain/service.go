package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, userID string, req CreateInvitationRequest) (*InvitationResponse, error)
	ListByBook(ctx context.Context, userID string, bookID string) ([]InvitationResponse, error)
	GetByToken(ctx context.Context, token string) (*InvitationPreview, error)
	Accept(ctx context.Context, userID string, token string) (*AcceptResult, error)
	Revoke(ctx context.Context, userID string, bookID string, invitationID string) error
}

type CreateInvitationRequest struct {
	BookID string
	Email  string
	Role   string
}

type InvitationResponse struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	Token      string     `json:"token,omitempty"`
	InvitedBy  string     `json:"invited_by"`
	CreatedAt  time.Time  `json:"created_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// InvitationPreview is what an invitee sees before accepting. It carries
// no identifiers besides the book's display fields.
type InvitationPreview struct {
	BookName        string `json:"book_name"`
	BookDescription string `json:"book_description"`
	Role            string `json:"role"`
	InviterName     string `json:"inviter_name"`
	Email           string `json:"email"`
}

type AcceptResult struct {
	BookID        string `json:"book_id"`
	Role          string `json:"role"`
	AlreadyMember bool   `json:"already_member"`
}

var (
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrInvalidBook        = errors.New("invalid_book")
	ErrInvalidUser        = errors.New("invalid_user")
	ErrInvitationNotFound = errors.New("invitation_not_found")
	ErrForbidden          = errors.New("forbidden")
)
