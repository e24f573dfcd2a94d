package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup removes data seeded by end to end runs. It matches user emails
// and book names against the given prefix and is never registered in
// production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.Environment == "production" {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	like := prefix + "%"

	var bookIDs []int64
	if err := s.db.WithContext(ctx).
		Table("recipe_books").
		Select("id").
		Where("name LIKE ?", like).
		Scan(&bookIDs).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	if len(bookIDs) > 0 {
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM audit_logs WHERE book_id IN ?`, bookIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM recipe_book_invitations WHERE book_id IN ?`, bookIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM recipes WHERE book_id IN ?`, bookIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM recipe_book_members WHERE book_id IN ?`, bookIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM recipe_books WHERE id IN ?`, bookIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
	}

	var userIDs []int64
	if err := s.db.WithContext(ctx).
		Table("users").
		Select("id").
		Where("email LIKE ?", like).
		Scan(&userIDs).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	if len(userIDs) > 0 {
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM sessions WHERE user_id IN ?`, userIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM recipe_book_members WHERE user_id IN ?`, userIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM users WHERE id IN ?`, userIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
