package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/drac2606/django-data-monitor/internal/dto"
	"github.com/drac2606/django-data-monitor/internal/errors"
	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/repositories"
	"github.com/drac2606/django-data-monitor/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AdminHandler manages dashboard users and their permissions
type AdminHandler struct {
	userRepo     repositories.UserRepositoryInterface
	authService  services.AuthServiceInterface
	auditService services.AuditServiceInterface
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	userRepo repositories.UserRepositoryInterface,
	authService services.AuthServiceInterface,
	auditService services.AuditServiceInterface,
) *AdminHandler {
	return &AdminHandler{
		userRepo:     userRepo,
		authService:  authService,
		auditService: auditService,
	}
}

// CreateUser provisions a dashboard user
// @Summary Create user (admin)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateUserRequest true "User details"
// @Success 201 {object} SuccessResponse{data=dto.UserResponse}
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001"
// @Failure 409 {object} errors.ErrorResponse "USER_002 - Email already registered"
// @Router /api/v1/admin/users [post]
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req dto.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := h.authService.CreateUser(&req)
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrUserAlreadyExists):
			return SendError(c, errors.UserAlreadyExists)
		case stderrors.Is(err, models.ErrInvalidPermission):
			return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails(err.Error()))
		case stderrors.Is(err, services.ErrPasswordValidation):
			return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    toUserResponse(user),
		Message: "User created successfully",
	})
}

// ListUsers lists all users with pagination
// @Summary List users (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Success 200 {object} SuccessResponse
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, limit, ok := pagination(c)
	if !ok {
		return SendError(c, errors.ValidationOutOfRange,
			errors.WithDetails("page must be greater than 0 and limit between 1 and 100"))
	}

	users, total, err := h.userRepo.ListUsers((page-1)*limit, limit)
	if err != nil {
		return SendSystemError(c, err)
	}

	data := make([]adminUserView, len(users))
	for i, user := range users {
		data[i] = toAdminUserView(user)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
		Meta: pageMeta(total, page, limit),
	})
}

// GetUserByID retrieves a specific user
// @Summary Get user by ID (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} errors.ErrorResponse "USER_001 - User not found"
// @Router /api/v1/admin/users/{userId} [get]
func (h *AdminHandler) GetUserByID(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("User ID must be a valid UUID"))
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		return sendUserError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: toAdminUserView(user)})
}

// UpdatePermissions replaces a user's permission codenames
// @Summary Set user permissions (admin)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Param request body dto.UpdatePermissionsRequest true "Permission codenames"
// @Success 200 {object} SuccessResponse
// @Router /api/v1/admin/users/{userId}/permissions [put]
func (h *AdminHandler) UpdatePermissions(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("User ID must be a valid UUID"))
	}

	var req dto.UpdatePermissionsRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := h.userRepo.UpdatePermissions(userID, req.Permissions); err != nil {
		return sendUserError(c, err)
	}

	h.audit(c, models.AuditActionPermissionsChanged, userID, models.AuditMetadata{
		"permissions": req.Permissions,
	})

	return c.JSON(http.StatusOK, SuccessResponse{
		Message: "Permissions updated; they apply from the user's next login",
		Data:    map[string]interface{}{"user_id": userID, "permissions": req.Permissions},
	})
}

// UnlockUser unlocks a user account locked by failed logins
// @Summary Unlock user account (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} errors.ErrorResponse "USER_001 - User not found"
// @Router /api/v1/admin/users/{userId}/unlock [post]
func (h *AdminHandler) UnlockUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("User ID must be a valid UUID"))
	}

	if err := h.userRepo.UnlockAccount(userID); err != nil {
		return sendUserError(c, err)
	}

	h.audit(c, models.AuditActionAccountUnlocked, userID, nil)

	return c.JSON(http.StatusOK, SuccessResponse{Message: "User account unlocked successfully"})
}

// DeleteUser soft deletes a user
// @Summary Delete user (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Cannot delete own account"
// @Router /api/v1/admin/users/{userId} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("User ID must be a valid UUID"))
	}

	adminID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}
	if adminID == userID {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Cannot delete your own account"))
	}

	if err := h.userRepo.Delete(userID); err != nil {
		return sendUserError(c, err)
	}

	h.audit(c, models.AuditActionUserDeleted, userID, nil)

	return c.JSON(http.StatusOK, SuccessResponse{Message: "User deleted successfully"})
}

// UserActivity returns a user's audit trail, newest first
// @Summary User activity (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID (UUID)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param action query string false "Only entries of this action, e.g. report_viewed"
// @Success 200 {object} SuccessResponse
// @Router /api/v1/admin/users/{userId}/activity [get]
func (h *AdminHandler) UserActivity(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("User ID must be a valid UUID"))
	}

	page, limit, ok := pagination(c)
	if !ok {
		return SendError(c, errors.ValidationOutOfRange,
			errors.WithDetails("page must be greater than 0 and limit between 1 and 100"))
	}

	logs, total, err := h.auditService.GetUserActivity(userID, c.QueryParam("action"), (page-1)*limit, limit)
	if stderrors.Is(err, services.ErrInvalidAction) {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("action is not a known audit action"))
	}
	if err != nil {
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: logs,
		Meta: pageMeta(total, page, limit),
	})
}

// audit records an admin action against the target user
func (h *AdminHandler) audit(c echo.Context, action string, target uuid.UUID, metadata models.AuditMetadata) {
	adminID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	log := &models.AuditLog{
		UserID:     &adminID,
		Action:     action,
		Resource:   models.AuditResourceUser,
		ResourceID: target.String(),
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
		Metadata:   metadata,
	}

	if err := h.auditService.CreateAuditLog(log); err != nil {
		slog.Warn("Failed to create audit log",
			"trace_id", getTraceID(c),
			"action", action,
			"error", err.Error(),
		)
	}
}

type adminUserView struct {
	dto.UserResponse
	IsLocked            bool       `json:"isLocked"`
	FailedLoginAttempts int        `json:"failedLoginAttempts"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
}

func toUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		Role:        user.Role,
		Permissions: user.PermissionList(),
		CreatedAt:   user.CreatedAt,
	}
}

func toAdminUserView(user *models.User) adminUserView {
	return adminUserView{
		UserResponse:        toUserResponse(user),
		IsLocked:            user.IsLocked(),
		FailedLoginAttempts: user.FailedLoginAttempts,
		LastLoginAt:         user.LastLoginAt,
	}
}

func sendUserError(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, repositories.ErrUserNotFound):
		return SendError(c, errors.UserNotFound)
	case stderrors.Is(err, models.ErrInvalidPermission):
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails(err.Error()))
	}
	return SendSystemError(c, err)
}

func pagination(c echo.Context) (page, limit int, ok bool) {
	page = queryInt(c, "page", 1)
	limit = queryInt(c, "limit", 20)
	return page, limit, page >= 1 && limit >= 1 && limit <= 100
}

func pageMeta(total int64, page, limit int) map[string]interface{} {
	return map[string]interface{}{
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
	}
}
