package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/platebook/platebook/internal/importer"
	"github.com/platebook/platebook/internal/observability/logger"
	"go.uber.org/zap"
)

const maxImportUploadBytes = 20 << 20

func (s *Server) ImportRecipe(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if s.limiter.Enabled() {
		ctx := c.Request.Context()
		result, err := s.limiter.AllowImport(ctx, userID.String())
		if err != nil {
			logger.FromContext(ctx).Warn("import rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			retryAfter := int(result.RetryAfter / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer file.Close()

	resp, err := s.importSvc.Import(c.Request.Context(), userID.String(), importer.ImportRequest{
		BookID:      c.Param("id"),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		File:        file,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditBookAction(c, c.Param("id"), userID, "recipe.imported", "recipe", resp.Recipe.ID, map[string]any{
		"filename":  fileHeader.Filename,
		"file_path": resp.FilePath,
	})

	c.JSON(http.StatusOK, resp)
}
