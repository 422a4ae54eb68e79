package api

import (
	"log/slog"
	"net/http"

	"github.com/SFrisendal/overflow/internal/api/shared"
	"github.com/SFrisendal/overflow/internal/service"
)

// QuestionHandler handles question and answer API requests.
type QuestionHandler struct {
	questionService service.QuestionService
	logger          *slog.Logger
}

// NewQuestionHandler creates a new QuestionHandler with the given dependencies.
func NewQuestionHandler(questionService service.QuestionService, logger *slog.Logger) *QuestionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionHandler{
		questionService: questionService,
		logger:          logger.With("component", "question_handler"),
	}
}

// CreateQuestion handles POST /questions.
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var req CreateQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	question, err := h.questionService.CreateQuestion(
		r.Context(), identity, req.Title, req.Content, req.TagSlugs)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, question)
}

// ListQuestions handles GET /questions. An optional ?tag= query parameter
// restricts the result to questions carrying that tag.
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questionService.ListQuestions(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, questions)
}

// GetQuestion handles GET /questions/{id}.
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	question, err := h.questionService.GetQuestion(r.Context(), questionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, question)
}

// UpdateQuestion handles PUT /questions/{id}.
func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	questionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	question, err := h.questionService.UpdateQuestion(
		r.Context(), identity, questionID, req.Title, req.Content, req.TagSlugs)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, question)
}

// DeleteQuestion handles DELETE /questions/{id}.
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	questionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.questionService.DeleteQuestion(r.Context(), identity, questionID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}

// CreateAnswer handles POST /questions/{id}/answers.
func (h *QuestionHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	questionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CreateAnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	answer, err := h.questionService.PostAnswer(r.Context(), identity, questionID, req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, answer)
}

// UpdateAnswer handles PUT /questions/{id}/answers/{answerId}.
func (h *QuestionHandler) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	if _, ok := identityFromRequest(w, r); !ok {
		return
	}
	questionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	answerID, ok := pathUUID(w, r, "answerId")
	if !ok {
		return
	}

	var req UpdateAnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	answer, err := h.questionService.UpdateAnswer(r.Context(), questionID, answerID, req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, answer)
}

// DeleteAnswer handles DELETE /questions/{id}/answers/{answerId}.
func (h *QuestionHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	if _, ok := identityFromRequest(w, r); !ok {
		return
	}
	questionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	answerID, ok := pathUUID(w, r, "answerId")
	if !ok {
		return
	}

	if err := h.questionService.DeleteAnswer(r.Context(), questionID, answerID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}

// AcceptAnswer handles POST /questions/{id}/answers/{answerId}/accept.
func (h *QuestionHandler) AcceptAnswer(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(w, r)
	if !ok {
		return
	}
	questionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	answerID, ok := pathUUID(w, r, "answerId")
	if !ok {
		return
	}

	if err := h.questionService.AcceptAnswer(r.Context(), identity, questionID, answerID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}
