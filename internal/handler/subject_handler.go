package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-coach-go/internal/service"
)

// SubjectHandler 向候选人列出可选的面试主题。
type SubjectHandler struct {
	subjectService service.SubjectService
}

// NewSubjectHandler 创建一个新的 SubjectHandler 实例。
func NewSubjectHandler(subjectService service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectService: subjectService}
}

// ListCatalogs 返回全部目录及其子主题；startInterview 使用子主题 ID。
func (h *SubjectHandler) ListCatalogs(c *gin.Context) {
	catalogs, err := h.subjectService.ListCatalogs()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": catalogs})
}
