package server

import (
	"errors"
	"net/http"

	"github.com/eryajf/medqa/internal/model"
	"github.com/eryajf/medqa/internal/qa"
	"github.com/gin-gonic/gin"
)

// askRequest 问答请求
// question 用 any 接收,由 ValidateQuestion 在边界处校验类型
type askRequest struct {
	Question       any     `json:"question"`
	NumDocuments   int     `json:"num_documents"`
	MinRelevance   float64 `json:"min_relevance"`
	IncludeSources *bool   `json:"include_sources"`
}

// summaryRequest 文献综述请求
type summaryRequest struct {
	Topic        any `json:"topic"`
	NumDocuments int `json:"num_documents"`
}

// Ask 问答接口
func (s *HTTPServer) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Response{
			Code:    400,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	question, err := qa.ValidateQuestion(req.Question)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, qa.ErrInvalidQuestion) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, model.Response{
			Code:    status,
			Message: err.Error(),
		})
		return
	}

	opts := qa.AskOptions{
		NumDocuments:   req.NumDocuments,
		MinRelevance:   req.MinRelevance,
		IncludeSources: true,
	}
	if req.IncludeSources != nil {
		opts.IncludeSources = *req.IncludeSources
	}

	resp := s.qaEngine.AskQuestion(c.Request.Context(), question, opts)
	c.JSON(http.StatusOK, model.Response{
		Code:    200,
		Message: "success",
		Data:    resp,
	})
}

// Summary 文献综述接口
func (s *HTTPServer) Summary(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Response{
			Code:    400,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	topic, err := qa.ValidateQuestion(req.Topic)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, model.Response{
			Code:    422,
			Message: err.Error(),
		})
		return
	}

	resp := s.qaEngine.ResearchSummary(c.Request.Context(), topic, req.NumDocuments)
	c.JSON(http.StatusOK, model.Response{
		Code:    200,
		Message: "success",
		Data:    resp,
	})
}

// Insights 集合洞察接口
func (s *HTTPServer) Insights(c *gin.Context) {
	insights, err := s.qaEngine.CollectionInsights(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.Response{
			Code:    500,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, model.Response{
		Code:    200,
		Message: "success",
		Data:    insights,
	})
}
