package interview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"interview-coach-go/internal/model"
)

func TestSerializeTranscript(t *testing.T) {
	out := SerializeTranscript([]model.ChatMessage{
		bot("Hello!"),
		user("hi"),
		bot("Question 1: What is a slice?"),
		user("A view."),
		bot("Question 2: What is a map?"),
	})
	assert.Equal(t, "Q1: Question 1: What is a slice?\nA1: A view.\nQ2: Question 2: What is a map?\n", out)
}

func TestEvaluationPromptTruncatesAnswers(t *testing.T) {
	pb := NewPromptBuilder(10, 500)
	long := strings.Repeat("x", 600)
	p := pb.BuildEvaluationPrompt("Subtopic: Go\n", Candidate{Name: "Ana"}, model.LanguageSpanish,
		[]QAPair{{Question: "Pregunta 1: ¿Qué?", Answer: long}})

	assert.Contains(t, p, strings.Repeat("x", 500)+"...")
	assert.NotContains(t, p, strings.Repeat("x", 501))
	assert.Contains(t, p, "Puntuación: NN")
	assert.Contains(t, p, "exactly 0/100")
	assert.Contains(t, p, "Spanish")
}

func TestNextQuestionPrompt(t *testing.T) {
	pb := NewPromptBuilder(10, 500)
	p := pb.BuildNextQuestionPrompt(NextQuestionInput{
		SubjectContext: "Subtopic: Concurrency\n",
		Language:       model.LanguageEnglish,
		QuestionNumber: 3,
		Messages:       []model.ChatMessage{bot("Question 1: a?"), user("b")},
		Available:      []string{"What is a mutex?"},
	})
	assert.Contains(t, p, "question 3 of at most 10")
	assert.Contains(t, p, "Q1: Question 1: a?\nA1: b")
	assert.Contains(t, p, "1. What is a mutex?")
	assert.Contains(t, p, ObjectiveMetSentinel)
	assert.Contains(t, p, "expert technical interviewer")
}
