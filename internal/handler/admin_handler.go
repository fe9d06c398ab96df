package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"interview-coach-go/internal/service"
	"interview-coach-go/pkg/log"
)

// AdminHandler 负责维护面试主题目录，仅管理员可用。
type AdminHandler struct {
	subjectService service.SubjectService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(subjectService service.SubjectService) *AdminHandler {
	return &AdminHandler{subjectService: subjectService}
}

// CreateCatalogRequest 定义了创建主题目录的请求体。
type CreateCatalogRequest struct {
	Title     string `json:"title" binding:"required"`
	Objective string `json:"objective"`
}

// CreateCatalog 创建一个主题目录。
func (h *AdminHandler) CreateCatalog(c *gin.Context) {
	var req CreateCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("CreateCatalog: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载")
		return
	}
	catalog, err := h.subjectService.CreateCatalog(req.Title, req.Objective)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": catalog})
}

// CreateSubtopicRequest 定义了在目录下创建子主题的请求体。
type CreateSubtopicRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateSubtopic 在 :id 指定的目录下创建子主题。
func (h *AdminHandler) CreateSubtopic(c *gin.Context) {
	catalogID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "无效的目录 ID")
		return
	}
	var req CreateSubtopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	subtopic, err := h.subjectService.CreateSubtopic(uint(catalogID), req.Name, req.Description)
	if err != nil {
		log.Warnf("CreateSubtopic: Failed for catalog %d, error: %v", catalogID, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": subtopic})
}
