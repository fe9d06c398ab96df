package model

import (
	"fmt"
	"time"
)

// LocalTime 将时间格式化为 "YYYY-MM-DD HH:MM:SS"。
type LocalTime time.Time

const timeFormat = "2006-01-02 15:04:05"

// MarshalJSON implements the json.Marshaler interface.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	if time.Time(t).IsZero() {
		return []byte("null"), nil
	}
	formatted := fmt.Sprintf("\"%s\"", time.Time(t).Format(timeFormat))
	return []byte(formatted), nil
}

// SessionSummaryDTO 是会话列表中的一项。
type SessionSummaryDTO struct {
	ID             string    `json:"id"`
	SubtopicID     uint      `json:"subtopicId"`
	Language       Language  `json:"language"`
	QuestionNumber int       `json:"questionNumber"`
	Completed      bool      `json:"completed"`
	Summary        string    `json:"summary"`
	StartTime      LocalTime `json:"startTime"`
	EndTime        LocalTime `json:"endTime"`
}

// NewSessionSummaryDTO 由会话实体构造列表项。
func NewSessionSummaryDTO(s *InterviewSession) SessionSummaryDTO {
	dto := SessionSummaryDTO{
		ID:             s.ID,
		SubtopicID:     s.SubtopicID,
		Language:       s.Language,
		QuestionNumber: s.QuestionNumber,
		Completed:      s.Completed,
		Summary:        s.Summary,
		StartTime:      LocalTime(s.StartTime),
	}
	if s.EndTime != nil {
		dto.EndTime = LocalTime(*s.EndTime)
	}
	return dto
}
