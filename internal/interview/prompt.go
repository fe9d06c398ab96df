package interview

import (
	"fmt"
	"strings"

	"interview-coach-go/internal/model"
)

// Candidate 是写入提示词的候选人资料。
type Candidate struct {
	Name       string
	Email      string
	Education  string
	Experience string
}

// CandidateFromSession 取出会话创建时快照的候选人资料。
func CandidateFromSession(s *model.InterviewSession) Candidate {
	return Candidate{
		Name:       s.CandidateName,
		Email:      s.CandidateEmail,
		Education:  s.CandidateEducation,
		Experience: s.CandidateExperience,
	}
}

func (c Candidate) render() string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nEducation: %s\nExperience: %s",
		orNotProvided(c.Name), orNotProvided(c.Email), orNotProvided(c.Education), orNotProvided(c.Experience))
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not provided"
	}
	return s
}

func languageInstruction(lang model.Language) string {
	if lang == model.LanguageSpanish {
		return "LANGUAGE: Respond ONLY in Spanish (español). Every word of your output must be in Spanish."
	}
	return "LANGUAGE: Respond ONLY in English. Every word of your output must be in English."
}

// PromptBuilder 构建面试中用到的三类提示词。
type PromptBuilder struct {
	maxQuestions   int
	answerTruncate int
}

func NewPromptBuilder(maxQuestions, answerTruncate int) *PromptBuilder {
	if maxQuestions <= 0 {
		maxQuestions = QuestionBankSize
	}
	if answerTruncate <= 0 {
		answerTruncate = 500
	}
	return &PromptBuilder{maxQuestions: maxQuestions, answerTruncate: answerTruncate}
}

// BuildQuestionBankPrompt 生成一次性题库的提示词。
func (pb *PromptBuilder) BuildQuestionBankPrompt(subjectContext string, c Candidate, lang model.Language) string {
	return fmt.Sprintf(`%s

You are an expert technical interviewer preparing a mock interview.

INTERVIEW SUBJECT:
%s
CANDIDATE:
Education: %s
Experience: %s

Write exactly %d interview questions about this subject for this candidate.
Rules:
1. Number them "1." to "%d.", one question per line.
2. Questions must not overlap; mix practical, theoretical and problem-solving styles.
3. Scale the difficulty to the candidate's stated experience.
4. Output only the numbered list, with no introduction, headings or commentary.`,
		languageInstruction(lang), subjectContext,
		orNotProvided(c.Education), orNotProvided(c.Experience),
		QuestionBankSize, QuestionBankSize)
}

// NextQuestionInput 是构建 "下一题" 提示词所需的全部上下文。
type NextQuestionInput struct {
	SubjectContext string
	Candidate      Candidate
	Language       model.Language
	QuestionNumber int // 即将提出的题号，从 1 开始
	Messages       []model.ChatMessage
	Available      []string // 题库中尚未提问的题目，供模型参考
}

// BuildNextQuestionPrompt 生成请求下一道题（或 OBJECTIVE_MET）的提示词。
func (pb *PromptBuilder) BuildNextQuestionPrompt(in NextQuestionInput) string {
	var bank strings.Builder
	for i, q := range in.Available {
		fmt.Fprintf(&bank, "%d. %s\n", i+1, q)
	}
	if bank.Len() == 0 {
		bank.WriteString("(none left, write a new question)\n")
	}
	transcript := SerializeTranscript(in.Messages)
	if transcript == "" {
		transcript = "(no questions asked yet)\n"
	}

	return fmt.Sprintf(`%s

You are an expert technical interviewer conducting a live mock interview.

INTERVIEW SUBJECT:
%s
CANDIDATE:
%s

You are about to ask question %d of at most %d. Never repeat or rephrase a question that was already asked.

TRANSCRIPT SO FAR:
%s
SUGGESTED QUESTION BANK (not yet asked):
%s
Instructions:
- If the candidate's recent answers are strong, raise the difficulty.
- If they are weak or evasive, lower the difficulty and be more supportive.
- Ask exactly one question. Output only the question text, without numbering or labels.
- If you judge that the interview objective has been satisfied, reply with exactly %s and nothing else.
- You must reply with %s instead of a new question once question %d has been answered.`,
		languageInstruction(in.Language), in.SubjectContext, in.Candidate.render(),
		in.QuestionNumber, pb.maxQuestions,
		transcript, bank.String(),
		ObjectiveMetSentinel, ObjectiveMetSentinel, pb.maxQuestions)
}

// SerializeTranscript 把对话记录序列化为交替的 "Q{n}:"/"A{n}:" 行。
// 只保留像题目的机器人消息；第一题之前的用户消息（问候回应）不输出。
func SerializeTranscript(messages []model.ChatMessage) string {
	var b strings.Builder
	n := 0
	for _, m := range messages {
		if !m.IsUserMessage {
			if LooksLikeQuestion(m.Content) {
				n++
				fmt.Fprintf(&b, "Q%d: %s\n", n, m.Content)
			}
			continue
		}
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "A%d: %s\n", n, m.Content)
	}
	return b.String()
}

// BuildEvaluationPrompt 生成最终评估的提示词。
func (pb *PromptBuilder) BuildEvaluationPrompt(subjectContext string, c Candidate, lang model.Language, pairs []QAPair) string {
	var qa strings.Builder
	for i, p := range pairs {
		fmt.Fprintf(&qa, "Q%d: %s\nA%d: %s\n\n", i+1, p.Question, i+1, pb.truncate(p.Answer))
	}

	scoreFormat := "Score: NN"
	if lang == model.LanguageSpanish {
		scoreFormat = "Puntuación: NN"
	}

	return fmt.Sprintf(`%s

You are an expert technical interviewer writing the final evaluation of a mock interview.

HARD SCORING RULE:
- If an answer is a refusal or expresses ignorance (for example "no", "I don't know", "not sure",
  "n/a", "no experience", "I haven't", "can't say", or any equivalent), that question scores 0.
- If ALL answers are of that type, the total score must be exactly 0/100. Do not give any
  minimum credit for participation.

INTERVIEW SUBJECT:
%s
CANDIDATE:
%s

QUESTIONS AND ANSWERS:
%s
Write the evaluation with these sections:
1. The overall score on its own line, formatted exactly as "%s" where NN is an integer from 0 to 100.
2. Detailed analysis of each answer.
3. Strengths.
4. Areas for improvement.
5. Recommendations for further study.`,
		languageInstruction(lang), subjectContext, c.render(), qa.String(), scoreFormat)
}

func (pb *PromptBuilder) truncate(answer string) string {
	r := []rune(answer)
	if len(r) <= pb.answerTruncate {
		return answer
	}
	return string(r[:pb.answerTruncate]) + "..."
}
