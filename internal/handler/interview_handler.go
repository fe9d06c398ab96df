package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"interview-coach-go/internal/interview"
	"interview-coach-go/internal/model"
	"interview-coach-go/internal/service"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/log"
	"interview-coach-go/pkg/token"
)

// 客户端发来的帧类型。
const (
	frameStartInterview  = "startInterview"
	frameResumeInterview = "resumeInterview"
	frameSendAnswer      = "sendAnswer"
	frameEndEarly        = "endInterviewEarly"
)

// 服务端推送的帧类型。
const (
	frameMessage            = "message"
	frameInterviewCompleted = "interviewCompleted"
	frameRedirectToResults  = "redirectToResults"
	frameError              = "error"
)

// internalErrorText 是处理过程中发生意外时推送给客户端的通用提示。
const internalErrorText = "Something went wrong while handling your message. Please try again."

const (
	writeWait      = 10 * time.Second
	maxFrameBytes  = 64 << 10
	frameQueueSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// clientFrame 是客户端发来的一帧，字段按 type 取用。
type clientFrame struct {
	Type      string `json:"type"`
	SubjectID uint   `json:"subjectId"`
	Language  string `json:"language"`
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

// serverFrame 是推送给客户端的一帧。
type serverFrame struct {
	Type       string `json:"type"`
	Speaker    string `json:"speaker,omitempty"`
	Text       string `json:"text,omitempty"`
	Score      *int   `json:"score,omitempty"`
	Evaluation string `json:"evaluation,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	Message    string `json:"message,omitempty"`
}

// wsNotifier 串行化对同一 WebSocket 的写入，实现 interview.Notifier。
type wsNotifier struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (n *wsNotifier) write(f serverFrame) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_ = n.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return n.conn.WriteJSON(f)
}

func (n *wsNotifier) Message(speaker, text string) error {
	return n.write(serverFrame{Type: frameMessage, Speaker: speaker, Text: text})
}

func (n *wsNotifier) InterviewCompleted(score int, evaluation string) error {
	return n.write(serverFrame{Type: frameInterviewCompleted, Score: &score, Evaluation: evaluation})
}

func (n *wsNotifier) RedirectToResults(sessionID string) error {
	return n.write(serverFrame{Type: frameRedirectToResults, SessionID: sessionID})
}

func (n *wsNotifier) Error(message string) error {
	return n.write(serverFrame{Type: frameError, Message: message})
}

// InterviewHandler 负责处理面试的 WebSocket 连接。
type InterviewHandler struct {
	interviewService service.InterviewService
	userService      service.UserService
	jwtManager       *token.JWTManager
	registry         *interview.Registry
}

// NewInterviewHandler 创建一个新的 InterviewHandler。
func NewInterviewHandler(
	interviewService service.InterviewService,
	userService service.UserService,
	jwtManager *token.JWTManager,
	registry *interview.Registry,
) *InterviewHandler {
	return &InterviewHandler{
		interviewService: interviewService,
		userService:      userService,
		jwtManager:       jwtManager,
		registry:         registry,
	}
}

// Handle 处理一个传入的 WebSocket 连接。路径参数 :token 是 access token。
// 读循环只负责解码，所有帧交给单个工作协程按顺序处理，保证同一连接上不会并发推进状态机。
func (h *InterviewHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil || h.userService.IsTokenRevoked(c.Request.Context(), tokenString) {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}
	user, err := h.userService.GetProfile(claims.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "用户不存在", "data": nil})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer ws.Close()
	ws.SetReadLimit(maxFrameBytes)

	notifier := &wsNotifier{conn: ws}
	cc := interview.NewConn(uuid.NewString(), user.ID, notifier)
	h.registry.Add(cc)
	defer h.registry.Remove(cc.ID)
	log.Infof("WebSocket 连接已建立, 用户: %s, conn: %s", user.Username, cc.ID)

	// 工作协程不继承请求上下文：断开后仍要完成进行中的评估并落库
	frames := make(chan clientFrame, frameQueueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for f := range frames {
			h.dispatch(context.Background(), cc, notifier, f)
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("从 WebSocket 读取消息失败, conn: %s: %v", cc.ID, err)
			}
			break
		}
		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil || f.Type == "" {
			_ = notifier.Error("无法解析的消息")
			continue
		}
		frames <- f
	}

	// 先断开会话，使仍在等待 LLM 的处理结果作废，再等待工作协程退出
	h.interviewService.Disconnect(context.Background(), cc)
	close(frames)
	<-done
	log.Infof("WebSocket 连接已关闭, conn: %s", cc.ID)
}

func (h *InterviewHandler) dispatch(ctx context.Context, cc *interview.Conn, notifier *wsNotifier, f clientFrame) {
	if cc.Closed() {
		return
	}
	// 工作协程不在 gin.Recovery 的保护范围内，panic 只影响当前这一帧
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[InterviewHandler] 处理 %s 时发生 panic, conn: %s: %v\n%s", f.Type, cc.ID, r, debug.Stack())
			if werr := notifier.Message(interview.SpeakerSystem, internalErrorText); werr != nil {
				log.Warnf("[InterviewHandler] 推送错误失败, conn: %s: %v", cc.ID, werr)
			}
		}
	}()
	var err error
	switch f.Type {
	case frameStartInterview:
		err = h.interviewService.Start(ctx, cc, f.SubjectID, model.ParseLanguage(f.Language))
	case frameResumeInterview:
		err = h.interviewService.Resume(ctx, cc, f.SessionID)
	case frameSendAnswer:
		err = h.interviewService.HandleAnswer(ctx, cc, f.Text)
	case frameEndEarly:
		err = h.interviewService.EndEarly(ctx, cc)
	default:
		_ = notifier.Error("未知的消息类型: " + f.Type)
		return
	}
	if err != nil {
		log.Warnf("[InterviewHandler] 处理 %s 失败, conn: %s: %v", f.Type, cc.ID, err)
		if werr := notifier.Message(interview.SpeakerSystem, errs.Message(err)); werr != nil {
			log.Warnf("[InterviewHandler] 推送错误失败, conn: %s: %v", cc.ID, werr)
		}
	}
}
