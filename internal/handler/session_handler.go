package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"interview-coach-go/internal/service"
	"interview-coach-go/pkg/log"
)

// SessionHandler 提供面试历史、对话记录、结果和归档下载。
type SessionHandler struct {
	resultService service.ResultService
}

// NewSessionHandler 创建一个新的 SessionHandler 实例。
func NewSessionHandler(resultService service.ResultService) *SessionHandler {
	return &SessionHandler{resultService: resultService}
}

// ListSessions 分页列出当前用户的面试。
func (h *SessionHandler) ListSessions(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	result, err := h.resultService.ListSessions(c.Request.Context(), user.ID, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": result})
}

// GetTranscript 返回一场面试的完整对话。
func (h *SessionHandler) GetTranscript(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	transcript, err := h.resultService.GetTranscript(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": transcript})
}

// GetResult 返回评分结果；评估缺失时返回标记为 provisional 的估算。
func (h *SessionHandler) GetResult(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	result, err := h.resultService.GetResult(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": result})
}

// DownloadTranscript 返回归档文件的预签名下载链接。
func (h *SessionHandler) DownloadTranscript(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")
	url, err := h.resultService.TranscriptDownloadURL(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		log.Warnf("DownloadTranscript: session %s, error: %v", sessionID, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"downloadUrl": url, "expiresIn": 3600},
	})
}
