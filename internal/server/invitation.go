package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/platebook/platebook/internal/audit/masking"
	invitationdomain "github.com/platebook/platebook/internal/invitation/domain"
)

type CreateInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

func (s *Server) CreateInvitation(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bookID := c.Param("id")
	resp, err := s.invitationSvc.Create(c.Request.Context(), userID.String(), invitationdomain.CreateInvitationRequest{
		BookID: bookID,
		Email:  req.Email,
		Role:   req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, bookID, userID, "invitation.created", "invitation", resp.ID, map[string]any{
		"email": resp.Email,
		"role":  resp.Role,
		"token": masking.MaskSecret(resp.Token),
	})

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListInvitations(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.invitationSvc.ListByBook(c.Request.Context(), userID.String(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvitationByToken(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrInvitationNotFound)
		return
	}

	resp, err := s.invitationSvc.GetByToken(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) AcceptInvitation(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	resp, err := s.invitationSvc.Accept(c.Request.Context(), userID.String(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, resp.BookID, userID, "invitation.accepted", "user", userID.String(), map[string]any{
		"role":           resp.Role,
		"already_member": resp.AlreadyMember,
		"token":          masking.MaskSecret(token),
	})

	c.JSON(http.StatusOK, resp)
}

func (s *Server) RevokeInvitation(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bookID := c.Param("id")
	invitationID := c.Param("invitation_id")
	if err := s.invitationSvc.Revoke(c.Request.Context(), userID.String(), bookID, invitationID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, bookID, userID, "invitation.revoked", "invitation", invitationID, nil)

	c.Status(http.StatusNoContent)
}
