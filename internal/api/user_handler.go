package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/api/middleware"
	"jobtracker/internal/database"
	"jobtracker/internal/errcode"
	"jobtracker/internal/users"
)

// UserHandler 处理当前用户的资料与口令修改。
type UserHandler struct {
	users *users.Store
}

func NewUserHandler(store *users.Store) *UserHandler {
	return &UserHandler{users: store}
}

type profileResponse struct {
	UserID    uint    `json:"user_id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	CreatedAt string  `json:"created_at"`
	LastLogin *string `json:"last_login"`
}

func newProfileResponse(u *database.User) profileResponse {
	resp := profileResponse{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: formatTimestamp(u.CreatedAt),
	}
	if u.LastLogin != nil {
		s := formatTimestamp(*u.LastLogin)
		resp.LastLogin = &s
	}
	return resp
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{"user": newProfileResponse(user)})
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, req.Username, req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{"user": newProfileResponse(user)})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword 校验当前口令后替换。已签发的令牌不会失效。
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errcode.Has(err, errcode.InvalidCredentials) {
			middleware.LoggerFromContext(c).Info("change password: current password mismatch")
		}
		h.fail(c, err)
		return
	}

	middleware.LoggerFromContext(c).Info("password changed")
	OK(c, http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	if errcode.Has(err, errcode.Internal) {
		middleware.LoggerFromContext(c).Error("user request failed", slog.Any("error", err))
	}
	Fail(c, err)
}
