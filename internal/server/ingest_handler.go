package server

import (
	"net/http"

	"github.com/eryajf/medqa/internal/model"
	"github.com/eryajf/medqa/internal/processor"
	"github.com/gin-gonic/gin"
)

// ingestRequest 数据摄入请求
type ingestRequest struct {
	SearchTerm      string `json:"search_term" binding:"required"`
	MaxResults      int    `json:"max_results"`
	ResetCollection bool   `json:"reset_collection"`
}

// exportRequest 集合导出请求
type exportRequest struct {
	OutputPath string `json:"output_path" binding:"required"`
}

// importRequest 集合导入请求
type importRequest struct {
	InputPath string `json:"input_path" binding:"required"`
}

// Ingest 从 PubMed 检索文章并写入向量库
func (s *HTTPServer) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Response{
			Code:    400,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	if req.MaxResults <= 0 {
		req.MaxResults = s.cfg.PubMed.MaxArticles
	}

	result := s.proc.Pipeline(c.Request.Context(), processor.PipelineOptions{
		SearchTerm:            req.SearchTerm,
		MaxResults:            req.MaxResults,
		ResetCollection:       req.ResetCollection,
		FallbackSimpleQueries: true,
	})

	// 流水线本身不抛错,失败信息携带在结果对象里
	c.JSON(http.StatusOK, model.Response{
		Code:    200,
		Message: "success",
		Data:    result,
	})
}

// VectorStats 集合统计信息
func (s *HTTPServer) VectorStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
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
		Data:    stats,
	})
}

// ExportCollection 导出集合到 JSON 文件
func (s *HTTPServer) ExportCollection(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Response{
			Code:    400,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	if err := s.store.Export(c.Request.Context(), req.OutputPath); err != nil {
		c.JSON(http.StatusInternalServerError, model.Response{
			Code:    500,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, model.Response{
		Code:    200,
		Message: "success",
		Data:    gin.H{"output_path": req.OutputPath},
	})
}

// ImportCollection 从 JSON 文件导入集合
func (s *HTTPServer) ImportCollection(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Response{
			Code:    400,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	imported, err := s.store.Import(c.Request.Context(), req.InputPath)
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
		Data:    gin.H{"imported": imported},
	})
}

// ResetCollection 清空集合
func (s *HTTPServer) ResetCollection(c *gin.Context) {
	if err := s.store.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, model.Response{
			Code:    500,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, model.Response{
		Code:    200,
		Message: "collection reset",
	})
}
