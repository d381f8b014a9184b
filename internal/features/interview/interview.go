package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"cvpulse-backend/internal/provider"
	"cvpulse-backend/internal/sessions"
	"cvpulse-backend/internal/shared/telemetry"
)

// maxQuestions ends the interview after this many answered questions.
const maxQuestions = 4

// Turn is one exchange in the conversation.
type Turn struct {
	Role    string `json:"role"` // "assistant" or "candidate"
	Content string `json:"content"`
	Score   int    `json:"score,omitempty"`
}

// Session is the per-interview conversation state.
type Session struct {
	ID            string
	Role          string
	Level         string
	Topics        []string
	History       []Turn
	QuestionCount int
	StartedAt     time.Time
}

// StartReply is the response to a session start.
type StartReply struct {
	SessionID    string `json:"sessionId"`
	Message      string `json:"message"`
	QuestionType string `json:"questionType"`
}

// AnswerReply is the evaluation of one candidate answer plus the next
// question.
type AnswerReply struct {
	Message     string   `json:"message"`
	Feedback    string   `json:"feedback"`
	AnswerScore int      `json:"answerScore"`
	Strengths   []string `json:"strengths,omitempty"`
	Weaknesses  []string `json:"weaknesses,omitempty"`
	IsComplete  bool     `json:"isComplete"`
}

var exampleMarkers = regexp.MustCompile(`(?i)example|project|experience|worked|built|developed`)

var cannedQuestions = []string{
	"Can you tell me about your experience with the main technologies required for this role?",
	"Tell me about a challenging technical problem you solved.",
	"How do you approach debugging an issue you have never seen before?",
	"Describe a time you disagreed with a teammate about a technical decision.",
	"How do you keep your skills current?",
}

// Service runs mock interviews. Conversation state lives in a bounded
// session store, not a package-level map.
type Service struct {
	Backend provider.Backend
	Store   *sessions.Store[Session]

	now   func() time.Time
	newID func() string
}

func NewService(backend provider.Backend, store *sessions.Store[Session]) *Service {
	return &Service{
		Backend: backend,
		Store:   store,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Start opens a session and returns the first question.
func (s *Service) Start(ctx context.Context, role, level string, topics []string) StartReply {
	session := Session{
		ID:        s.newID(),
		Role:      role,
		Level:     level,
		Topics:    topics,
		StartedAt: s.now().UTC(),
	}

	message := fmt.Sprintf(
		"Hello! I'm your interview assistant. I'll be conducting a mock interview for the %s position. Let's start: %s",
		role, cannedQuestions[0])
	questionType := "experience"

	if s.Backend != nil {
		reply, err := s.Backend.Generate(ctx, startPrompt(role, level, topics))
		if err == nil && strings.TrimSpace(reply) != "" {
			message = strings.TrimSpace(reply)
			questionType = "introduction"
		} else if err != nil {
			telemetry.Warn("interview.start_remote_failed", map[string]any{"error": err.Error()})
		}
	}

	session.History = append(session.History, Turn{Role: "assistant", Content: message})
	s.Store.Put(session.ID, session)

	return StartReply{SessionID: session.ID, Message: message, QuestionType: questionType}
}

// Answer evaluates the candidate's response and asks the next question.
func (s *Service) Answer(ctx context.Context, sessionID, response string) (AnswerReply, error) {
	session, err := s.Store.Get(sessionID)
	if err != nil {
		return AnswerReply{}, err
	}

	session.QuestionCount++
	complete := session.QuestionCount >= maxQuestions

	reply := s.evaluate(ctx, &session, response, complete)

	session.History = append(session.History,
		Turn{Role: "candidate", Content: response, Score: reply.AnswerScore},
		Turn{Role: "assistant", Content: reply.Message},
	)
	if complete {
		s.Store.Delete(sessionID)
	} else {
		s.Store.Put(sessionID, session)
	}
	return reply, nil
}

func (s *Service) evaluate(ctx context.Context, session *Session, response string, complete bool) AnswerReply {
	if s.Backend != nil {
		if reply, ok := s.evaluateRemote(ctx, session, response, complete); ok {
			return reply
		}
	}
	return evaluateLocal(session.QuestionCount, response, complete)
}

type remoteEvaluation struct {
	AnswerEvaluation struct {
		Score      int      `json:"score"`
		Strengths  []string `json:"strengths"`
		Weaknesses []string `json:"weaknesses"`
	} `json:"answerEvaluation"`
	Feedback     string `json:"feedback"`
	NextQuestion string `json:"nextQuestion"`
}

func (s *Service) evaluateRemote(ctx context.Context, session *Session, response string, complete bool) (AnswerReply, bool) {
	lastQuestion := ""
	if n := len(session.History); n > 0 {
		lastQuestion = session.History[n-1].Content
	}

	raw, err := s.Backend.Generate(ctx, answerPrompt(lastQuestion, response, session.QuestionCount))
	if err != nil {
		telemetry.Warn("interview.answer_remote_failed", map[string]any{"error": err.Error()})
		return AnswerReply{}, false
	}

	var eval remoteEvaluation
	if err := json.Unmarshal([]byte(provider.StripFences(raw)), &eval); err != nil {
		return AnswerReply{}, false
	}

	message := eval.NextQuestion
	if complete {
		message = "Thank you for the interview! You provided good responses overall."
	}
	score := eval.AnswerEvaluation.Score
	if score <= 0 {
		score = 75
	}
	return AnswerReply{
		Message:     message,
		Feedback:    eval.Feedback,
		AnswerScore: score,
		Strengths:   eval.AnswerEvaluation.Strengths,
		Weaknesses:  eval.AnswerEvaluation.Weaknesses,
		IsComplete:  complete,
	}, true
}

// evaluateLocal scores on answer length and the presence of concrete
// examples.
func evaluateLocal(questionCount int, response string, complete bool) AnswerReply {
	wordCount := len(strings.Fields(response))
	hasExample := exampleMarkers.MatchString(response)

	feedback := "Good response! "
	switch {
	case wordCount < 10:
		feedback += "Try to provide more detailed answers."
	case !hasExample:
		feedback += "Consider adding specific examples."
	default:
		feedback += "Great use of examples!"
	}

	score := 60 + wordCount*2
	if hasExample {
		score += 20
	}
	if score > 100 {
		score = 100
	}

	message := cannedQuestions[questionCount%len(cannedQuestions)]
	if complete {
		message = "Thank you for the interview! You provided good responses overall."
	}

	return AnswerReply{
		Message:     message,
		Feedback:    feedback,
		AnswerScore: score,
		IsComplete:  complete,
	}
}

func startPrompt(role, level string, topics []string) string {
	focus := "general technical skills"
	if len(topics) > 0 {
		focus = strings.Join(topics, ", ")
	}
	return fmt.Sprintf(`You are an expert technical interviewer for %s positions at %s level.
Focus on: %s.

Conduct a professional mock interview: ask one question at a time, provide constructive feedback, and adapt difficulty based on responses.

Start with a short welcoming introduction and your first question.`, role, level, focus)
}

func answerPrompt(lastQuestion, response string, questionNumber int) string {
	return fmt.Sprintf(`You are an expert technical interviewer. Evaluate this candidate's response and provide the next question.

Previous question: %q
Candidate's answer: %q
Question number: %d

Respond with a single JSON object only. Shape:
{
  "answerEvaluation": {"score": 0-100, "strengths": [], "weaknesses": []},
  "feedback": "...",
  "nextQuestion": "..."
}`, lastQuestion, response, questionNumber)
}
