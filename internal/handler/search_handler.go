package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"interview-coach-go/internal/service"
	"interview-coach-go/pkg/log"
)

// SearchHandler 结构体定义了搜索相关的处理器。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchAnswers 在当前用户已归档的问答中做全文检索。
func (h *SearchHandler) SearchAnswers(c *gin.Context) {
	query := c.Query("query")
	topK, err := strconv.Atoi(c.DefaultQuery("topK", "10"))
	if err != nil || topK <= 0 {
		topK = 10
	}
	user, ok := mustUser(c)
	if !ok {
		return
	}

	results, err := h.searchService.SearchAnswers(c.Request.Context(), user, query, topK)
	if err != nil {
		log.Warnf("[SearchHandler] 搜索失败, query: '%s', error: %v", query, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": results, "message": "success"})
}
