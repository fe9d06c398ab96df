package model

import "time"

// Language 是面试使用的语言。
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
)

// ParseLanguage 将客户端传入的语言代码规范化，未知值回退为英文。
func ParseLanguage(v string) Language {
	switch Language(v) {
	case LanguageSpanish:
		return LanguageSpanish
	default:
		return LanguageEnglish
	}
}

// InterviewSession 是一次进行中的模拟面试。候选人资料在创建时快照，之后不可变。
type InterviewSession struct {
	ID                  string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID              uint             `gorm:"index;not null" json:"userId"`
	SubtopicID          uint             `gorm:"index;not null" json:"subtopicId"`
	CandidateName       string           `gorm:"type:varchar(128)" json:"candidateName"`
	CandidateEmail      string           `gorm:"type:varchar(128)" json:"candidateEmail"`
	CandidateEducation  string           `gorm:"type:text" json:"candidateEducation"`
	CandidateExperience string           `gorm:"type:text" json:"candidateExperience"`
	Language            Language         `gorm:"type:varchar(8);not null;default:en" json:"language"`
	StartTime           time.Time        `gorm:"not null" json:"startTime"`
	EndTime             *time.Time       `json:"endTime"`
	QuestionNumber      int              `gorm:"not null;default:0" json:"questionNumber"`
	Completed           bool             `gorm:"not null;default:false;index" json:"completed"`
	Summary             string           `gorm:"type:varchar(255)" json:"summary"`
	Subtopic            *Subtopic        `gorm:"foreignKey:SubtopicID" json:"subtopic,omitempty"`
	Messages            []ChatMessage    `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	Result              *InterviewResult `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"result,omitempty"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}

// ChatMessage 是对话中的一轮发言。会话内按 Timestamp（再按 ID）排序。
type ChatMessage struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID     string    `gorm:"type:varchar(36);index:idx_session_ts,priority:1;not null" json:"sessionId"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	IsUserMessage bool      `gorm:"not null" json:"isUserMessage"`
	Timestamp     time.Time `gorm:"type:datetime(6);index:idx_session_ts,priority:2;not null" json:"timestamp"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// InterviewResult 是一次面试的最终评分，每个会话至多一条，创建后不可变。
type InterviewResult struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"sessionId"`
	Score      int            `gorm:"not null" json:"score"`
	Evaluation string         `gorm:"type:longtext" json:"evaluation"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	Answers    []ResultAnswer `gorm:"foreignKey:ResultID;constraint:OnDelete:CASCADE" json:"answers"`
}

func (InterviewResult) TableName() string {
	return "interview_results"
}

// ResultAnswer 是结果中的一组问答，Score/Feedback 可选。
type ResultAnswer struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ResultID uint   `gorm:"index;not null" json:"resultId"`
	Position int    `gorm:"not null" json:"position"`
	Question string `gorm:"type:text;not null" json:"question"`
	Answer   string `gorm:"type:text;not null" json:"answer"`
	Score    *int   `json:"score,omitempty"`
	Feedback string `gorm:"type:text" json:"feedback,omitempty"`
}

func (ResultAnswer) TableName() string {
	return "interview_result_answers"
}
