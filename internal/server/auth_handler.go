package server

import (
	"errors"
	"net/http"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/auth"
	"github.com/eryajf/medqa/internal/model"
	"github.com/gin-gonic/gin"
)

// loginRequest 登录请求
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 用户登录,签发 JWT
func (s *HTTPServer) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Response{
			Code:    400,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	identity, err := s.verifier.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserDisabled) {
			c.JSON(http.StatusUnauthorized, model.Response{
				Code:    401,
				Message: err.Error(),
			})
			return
		}
		logx.Error("login failed for user %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, model.Response{
			Code:    500,
			Message: "internal error",
		})
		return
	}

	token, err := auth.GenerateToken(identity, s.cfg.Auth.JWTSecret, time.Duration(s.cfg.Auth.TokenExpires)*time.Hour)
	if err != nil {
		logx.Error("generate token failed: %v", err)
		c.JSON(http.StatusInternalServerError, model.Response{
			Code:    500,
			Message: "internal error",
		})
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Code:    200,
		Message: "success",
		Data: gin.H{
			"token":    token,
			"username": identity.Username,
			"roles":    identity.Roles,
		},
	})
}
