package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/domain/entity"
	domainErrors "github.com/rivon0507/courier-back/internal/domain/errors"
	domainService "github.com/rivon0507/courier-back/internal/domain/service"
	"github.com/rivon0507/courier-back/internal/handler/http/middleware"
)

// MeResponse is the body of GET /users/me.
type MeResponse struct {
	User               entity.UserProfile `json:"user"`
	DefaultWorkspaceID *uuid.UUID         `json:"defaultWorkspaceId,omitempty"`
}

// MeHandler serves the authenticated user's own profile.
type MeHandler struct {
	logger    *zap.Logger
	directory domainService.UserDirectory
}

// NewMeHandler creates a MeHandler.
func NewMeHandler(logger *zap.Logger, directory domainService.UserDirectory) *MeHandler {
	return &MeHandler{
		logger:    logger.Named("me_handler"),
		directory: directory,
	}
}

// Me handles GET /users/me.
func (h *MeHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondWithError(c, http.StatusUnauthorized, domainErrors.CodeUnauthorized, "Authentication required", h.logger)
		return
	}

	user, err := h.directory.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			RespondWithError(c, http.StatusUnauthorized, domainErrors.CodeUnauthorized, "Unknown principal", h.logger)
			return
		}
		h.logger.Error("failed to load profile", zap.Error(err))
		RespondWithError(c, http.StatusInternalServerError, "INTERNAL", "Internal server error", h.logger)
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		User:               user.ToProfile(),
		DefaultWorkspaceID: user.DefaultWorkspaceID,
	})
}
