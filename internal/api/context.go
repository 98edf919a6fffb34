package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/api/middleware"
)

// identityFromContext 返回已认证调用方的用户 ID；缺失时直接写出 401。
func identityFromContext(c *gin.Context) (uint, bool) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Missing authorization: Missing Authorization Header",
		})
		return 0, false
	}
	return id.UserID, true
}

// jobIDParam 解析路径中的 job ID，非数字按不存在处理。
func jobIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		NotFound(c, "Job not found")
		return 0, false
	}
	return uint(id), true
}

// bindJSON 解析请求体；空 body 或非法 JSON 返回 400。
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		BadRequest(c, "No data provided")
		return false
	}
	return true
}
