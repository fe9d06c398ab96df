package model

// AnswerDocument 是归档到 Elasticsearch 中的一组问答。
type AnswerDocument struct {
	DocID      string `json:"doc_id"` // sessionID + position
	SessionID  string `json:"session_id"`
	UserID     uint   `json:"user_id"`
	SubtopicID uint   `json:"subtopic_id"`
	Language   string `json:"language"`
	Position   int    `json:"position"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Score      int    `json:"score"` // 整场面试的得分
	CreatedAt  string `json:"created_at"`
}

// AnswerSearchDTO 定义了返回给前端的搜索结果结构。
type AnswerSearchDTO struct {
	SessionID string  `json:"sessionId"`
	Position  int     `json:"position"`
	Question  string  `json:"question"`
	Answer    string  `json:"answer"`
	Score     int     `json:"score"`
	Relevance float64 `json:"relevance"`
}
