package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/platebook/platebook/internal/audit/domain"
	bookdomain "github.com/platebook/platebook/internal/book/domain"
)

func (s *Server) CreateBook(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req bookdomain.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookSvc.Create(c.Request.Context(), userID.String(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, resp.ID, userID, "book.created", "recipe_book", resp.ID, map[string]any{
		"name": resp.Name,
	})

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListBooks(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.bookSvc.ListByUser(c.Request.Context(), userID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBook(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.bookSvc.Get(c.Request.Context(), userID.String(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateBook(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req bookdomain.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookSvc.Update(c.Request.Context(), userID.String(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, resp.ID, userID, "book.updated", "recipe_book", resp.ID, nil)

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteBook(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bookID := c.Param("id")
	if err := s.bookSvc.Delete(c.Request.Context(), userID.String(), bookID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, bookID, userID, "book.deleted", "recipe_book", bookID, nil)

	c.Status(http.StatusNoContent)
}

func (s *Server) ListBookMembers(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.bookSvc.Members(c.Request.Context(), userID.String(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveBookMember(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bookID := c.Param("id")
	memberID := c.Param("user_id")
	if err := s.bookSvc.RemoveMember(c.Request.Context(), userID.String(), bookID, memberID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, bookID, userID, "book.member_removed", "user", memberID, nil)

	c.Status(http.StatusNoContent)
}

func (s *Server) JoinBook(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bookID := c.Param("id")
	if err := s.bookSvc.Join(c.Request.Context(), userID.String(), bookID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, bookID, userID, "book.member_joined", "user", userID.String(), nil)

	c.Status(http.StatusNoContent)
}

func (s *Server) LeaveBook(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bookID := c.Param("id")
	if err := s.bookSvc.Leave(c.Request.Context(), userID.String(), bookID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, bookID, userID, "book.member_left", "user", userID.String(), nil)

	c.Status(http.StatusNoContent)
}

func (s *Server) PublishBook(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.bookSvc.Publish(c.Request.Context(), userID.String(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, resp.ID, userID, "book.published", "recipe_book", resp.ID, map[string]any{
		"public_url": resp.PublicURL,
	})

	c.JSON(http.StatusOK, resp)
}

func (s *Server) UnpublishBook(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.bookSvc.Unpublish(c.Request.Context(), userID.String(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, resp.ID, userID, "book.unpublished", "recipe_book", resp.ID, nil)

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ExportBookPDF(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bookID := c.Param("id")
	reader, err := s.bookSvc.ExportPDF(c.Request.Context(), userID.String(), bookID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, bookID, userID, "book.exported", "recipe_book", bookID, nil)

	c.Header("Content-Disposition", `attachment; filename="recipe-book.pdf"`)
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, nil)
}

func (s *Server) auditBookAction(c *gin.Context, bookID string, userID snowflake.ID, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}

	var book *snowflake.ID
	if parsed, err := snowflake.ParseString(bookID); err == nil && parsed != 0 {
		book = &parsed
	}

	actorID := userID.String()
	var target *string
	if targetID != "" {
		target = &targetID
	}

	_ = s.auditSvc.AuditLog(c.Request.Context(), book, string(auditdomain.ActorTypeUser), &actorID, action, targetType, target, metadata)
}
