package interview

import (
	"fmt"

	"interview-coach-go/internal/model"
)

// 发送给客户端的发言者标签。
const (
	SpeakerInterviewer = "Interviewer"
	SpeakerSystem      = "System"
)

// DisconnectedSummary 是连接断开时写入未完成会话的摘要。
const DisconnectedSummary = "Disconnected before completion"

// NoAnswerPlaceholder 是没有后续用户回答的问题在配对时使用的占位回答。
const NoAnswerPlaceholder = "No answer provided"

// Texts 是一种语言下的全部固定文案。
// 除 QuestionLabel 外，任何文案都不能包含 "Question"/"Pregunta"，否则会被当成问题参与配对。
// Greeting 和 WelcomeBack 会嵌入主题名和候选人姓名，只推送不落库；对话记录里保存对应的 *Record 文案。
type Texts struct {
	Greeting              func(name, subtopic string, max int) string
	GreetingRecord        string
	LetsBegin             string
	QuestionLabel         func(n int) string
	SwitchTopicNudge      string
	ExitOffer             string
	TransientFailure      string
	ObjectiveMetClosing   string
	LimitReached          string
	WelcomeBack           func(name string, asked int) string
	WelcomeBackRecord     string
	EndedByUser           string
	Evaluating            string
	EvaluationFailed      string
	AlreadyCompleted      string
	AlreadyActive         string
	NoActiveSession       string
	SubjectNotFound       string
	UserNotFound          string
	SessionNotFound       string
	QuestionGenFailed     string
	NoQuestionsAnswered   string
	FallbackHeader        string
	ScoreLabel            string
	LevelExcellent        string
	LevelGood             string
	LevelFair             string
	LevelNeedsImprovement string
}

var english = Texts{
	Greeting: func(name, subtopic string, max int) string {
		if name == "" {
			name = "there"
		}
		return fmt.Sprintf("Hello %s! I'm your interviewer today and we'll talk about %s. "+
			"I'll ask you up to %d questions and adapt them to your answers. Say hello when you're ready.",
			name, subtopic, max)
	},
	GreetingRecord:   "Hello! I'm your interviewer today. Say hello when you're ready.",
	LetsBegin:        "Great, let's begin.",
	QuestionLabel:    func(n int) string { return fmt.Sprintf("Question %d: ", n) },
	SwitchTopicNudge: "It seems this area is difficult for you. Would you like to move on to a different angle? Let's try another one.",
	ExitOffer: "It looks like these topics aren't a good fit right now. Would you like to end the interview? " +
		"Reply \"end\" to finish or \"continue\" to keep going.",
	TransientFailure:    "Sorry, I couldn't prepare the next step. Please try sending your answer again.",
	ObjectiveMetClosing: "Thank you, I have enough information to evaluate your skills on this topic. Let's wrap up.",
	LimitReached:        "We've reached the limit of this interview. Thank you for your answers.",
	WelcomeBack: func(name string, asked int) string {
		if name == "" {
			name = "back"
		}
		return fmt.Sprintf("Welcome back %s! We'll continue where we left off (%d asked so far). Send your answer when you're ready.", name, asked)
	},
	WelcomeBackRecord:     "Welcome back! We'll continue where we left off.",
	EndedByUser:           "The interview was ended at your request.",
	Evaluating:            "Evaluating your interview, this may take a moment...",
	EvaluationFailed:      "We couldn't finish evaluating your interview right now. Please check the results page later.",
	AlreadyCompleted:      "This interview has already been completed.",
	AlreadyActive:         "You already have an interview in progress on this connection.",
	NoActiveSession:       "There is no interview in progress. Start or resume one first.",
	SubjectNotFound:       "The selected topic could not be found.",
	UserNotFound:          "Your profile could not be found.",
	SessionNotFound:       "That interview could not be found or is already finished.",
	QuestionGenFailed:     "We couldn't prepare interview material for this topic. Please try again later.",
	NoQuestionsAnswered:   "No questions were answered during this interview, so there is nothing to evaluate. Score: 0",
	FallbackHeader:        "Provisional evaluation (automatic estimate, the detailed evaluation is not available).",
	ScoreLabel:            "Estimated score:",
	LevelExcellent:        "excellent",
	LevelGood:             "good",
	LevelFair:             "fair",
	LevelNeedsImprovement: "needs improvement",
}

var spanish = Texts{
	Greeting: func(name, subtopic string, max int) string {
		if name == "" {
			name = "candidato"
		}
		return fmt.Sprintf("¡Hola %s! Hoy seré tu entrevistador y hablaremos sobre %s. "+
			"Te haré hasta %d preguntas y las adaptaré a tus respuestas. Salúdame cuando estés listo.",
			name, subtopic, max)
	},
	GreetingRecord:   "¡Hola! Hoy seré tu entrevistador. Salúdame cuando estés listo.",
	LetsBegin:        "Perfecto, comencemos.",
	QuestionLabel:    func(n int) string { return fmt.Sprintf("Pregunta %d: ", n) },
	SwitchTopicNudge: "Parece que este tema te resulta difícil. ¿Te gustaría abordarlo desde otro ángulo? Probemos con otra.",
	ExitOffer: "Parece que estos temas no encajan contigo en este momento. ¿Quieres terminar la entrevista? " +
		"Responde \"end\" para finalizar o \"continue\" para seguir.",
	TransientFailure:    "Lo siento, no pude preparar el siguiente paso. Por favor, envía tu respuesta de nuevo.",
	ObjectiveMetClosing: "Gracias, tengo suficiente información para evaluar tus habilidades en este tema. Vamos a cerrar.",
	LimitReached:        "Hemos llegado al límite de esta entrevista. Gracias por tus respuestas.",
	WelcomeBack: func(name string, asked int) string {
		if name == "" {
			name = "de nuevo"
		}
		return fmt.Sprintf("¡Bienvenido %s! Continuaremos donde lo dejamos (%d realizadas hasta ahora). Envía tu respuesta cuando estés listo.", name, asked)
	},
	WelcomeBackRecord:     "¡Bienvenido de nuevo! Continuaremos donde lo dejamos.",
	EndedByUser:           "La entrevista terminó a petición tuya.",
	Evaluating:            "Evaluando tu entrevista, esto puede tardar un momento...",
	EvaluationFailed:      "No pudimos terminar la evaluación ahora. Por favor, revisa la página de resultados más tarde.",
	AlreadyCompleted:      "Esta entrevista ya ha sido completada.",
	AlreadyActive:         "Ya tienes una entrevista en curso en esta conexión.",
	NoActiveSession:       "No hay ninguna entrevista en curso. Inicia o reanuda una primero.",
	SubjectNotFound:       "No se encontró el tema seleccionado.",
	UserNotFound:          "No se encontró tu perfil.",
	SessionNotFound:       "No se encontró esa entrevista o ya ha finalizado.",
	QuestionGenFailed:     "No pudimos preparar el material de la entrevista para este tema. Inténtalo más tarde.",
	NoQuestionsAnswered:   "No se respondió ninguna pregunta durante esta entrevista, por lo que no hay nada que evaluar. Puntuación: 0",
	FallbackHeader:        "Evaluación provisional (estimación automática, la evaluación detallada no está disponible).",
	ScoreLabel:            "Puntuación estimada:",
	LevelExcellent:        "excelente",
	LevelGood:             "buena",
	LevelFair:             "regular",
	LevelNeedsImprovement: "necesita mejorar",
}

// TextsFor 返回指定语言的文案，未知语言回退为英文。
func TextsFor(lang model.Language) Texts {
	if lang == model.LanguageSpanish {
		return spanish
	}
	return english
}
