package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/authsvc/pkg/errors"
)

// SendError 将错误映射为 {"statusCode","message"} 响应并中止请求
func SendError(c *gin.Context, err error) {
	resp := errors.ToErrorResponse(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(resp.StatusCode, resp)
}

// SendSuccess 返回 200 和 JSON 数据
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendMessage 返回 200 和纯文本消息
func SendMessage(c *gin.Context, message string) {
	c.String(http.StatusOK, message)
}
