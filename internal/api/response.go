package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/errcode"
)

// OK 输出成功响应，body 中总是带 success=true。
func OK(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

// Fail 将业务错误映射为统一的失败响应。
// Internal 错误的消息附带底层原因，其余错误只返回 Message。
func Fail(c *gin.Context, err error) {
	var e *errcode.Error
	if !errors.As(err, &e) {
		Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	msg := e.Message
	if e.Code == errcode.Internal && e.Err != nil {
		msg = e.Error()
	}
	Error(c, e.Code.HTTPStatus(), msg)
}

func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
