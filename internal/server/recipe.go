package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	recipedomain "github.com/platebook/platebook/internal/recipe/domain"
)

const maxImageUploadBytes = 10 << 20

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func (s *Server) CreateRecipe(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req recipedomain.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.BookID = c.Param("id")
	req.OCRSource = false

	resp, err := s.recipeSvc.Create(c.Request.Context(), userID.String(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, req.BookID, userID, "recipe.created", "recipe", resp.ID, map[string]any{
		"title":    resp.Title,
		"category": resp.Category,
	})

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetRecipe(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.recipeSvc.Get(c.Request.Context(), userID.String(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListRecipes(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.recipeSvc.ListByBook(c.Request.Context(), userID.String(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRecipe(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req recipedomain.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recipeSvc.Update(c.Request.Context(), userID.String(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, resp.BookID, userID, "recipe.updated", "recipe", resp.ID, nil)

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteRecipe(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	recipeID := c.Param("id")
	resp, err := s.recipeSvc.Get(c.Request.Context(), userID.String(), recipeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.recipeSvc.Delete(c.Request.Context(), userID.String(), recipeID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, resp.BookID, userID, "recipe.deleted", "recipe", recipeID, nil)

	c.Status(http.StatusNoContent)
}

func (s *Server) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": recipedomain.Categories})
}

func (s *Server) UploadRecipeImage(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExtensions[ext] {
		AbortWithError(c, newValidationError("file", "unsupported_type", "file must be a jpg, png, or webp image"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	key := fmt.Sprintf("recipe-images/%s/%s%s", userID.String(), uuid.NewString(), ext)
	contentType := fileHeader.Header.Get("Content-Type")
	if err := s.storage.PutPublic(c.Request.Context(), key, body, contentType); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"image_path": key,
		"url":        s.storage.PublicURL(key),
	})
}
