package api

import (
	"net/http"
	"strconv"

	"github.com/phrazzld/answers-api/internal/api/shared"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/service"
)

// QuestionHandler serves questions and the answers posted to them.
type QuestionHandler struct {
	catalog service.CatalogService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(catalog service.CatalogService) *QuestionHandler {
	return &QuestionHandler{catalog: catalog}
}

// CreateQuestion handles POST /api/questions.
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.catalog.CreateQuestion(r.Context(), userID, req.Title, req.Description, req.Tags)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create question")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, questionToResponse(q))
}

// ListQuestions handles GET /api/questions. The optional unanswered query
// parameter accepts any strconv.ParseBool value.
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	unanswered := false
	if raw := r.URL.Query().Get("unanswered"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			HandleAPIError(w, r,
				domain.NewValidationError("unanswered", "must be true or false", domain.ErrValidation), "")
			return
		}
		unanswered = v
	}

	questions, err := h.catalog.ListQuestions(r.Context(), unanswered)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list questions")
		return
	}

	resp := make([]QuestionResponse, 0, len(questions))
	for _, q := range questions {
		resp = append(resp, questionToResponse(q))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetQuestion handles GET /api/questions/{id}.
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.catalog.GetQuestion(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get question")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, questionDetailToResponse(detail))
}

// CreateAnswer handles POST /api/questions/{id}/answers.
func (h *QuestionHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	userID, questionID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CreateAnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	answer, err := h.catalog.CreateAnswer(r.Context(), userID, questionID, req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create answer")
		return
	}

	resp := answerToResponse(answer)
	resp.VoteCount = countsToResponse(domain.VoteCounts{})
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}
