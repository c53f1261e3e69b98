package api

import (
	"net/http"

	"github.com/phrazzld/answers-api/internal/api/shared"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/service"
)

// AnswerHandler serves votes on answers and answer acceptance.
type AnswerHandler struct {
	votes      service.VoteService
	acceptance service.AcceptanceService
}

// NewAnswerHandler creates a new AnswerHandler.
func NewAnswerHandler(votes service.VoteService, acceptance service.AcceptanceService) *AnswerHandler {
	return &AnswerHandler{votes: votes, acceptance: acceptance}
}

// CastVote handles POST /api/answers/{id}/votes and responds with the
// answer's counts after the vote.
func (h *AnswerHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	userID, answerID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CastVoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	kind, err := domain.ParseVoteKind(req.Kind)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	counts, err := h.votes.CastVote(r.Context(), userID, answerID, kind)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record vote")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, countsToResponse(counts))
}

// GetVotes handles GET /api/answers/{id}/votes.
func (h *AnswerHandler) GetVotes(w http.ResponseWriter, r *http.Request) {
	answerID, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	counts, err := h.votes.VoteCounts(r.Context(), answerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get vote counts")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, countsToResponse(counts))
}

// AcceptAnswer handles POST /api/answers/{id}/accept.
func (h *AnswerHandler) AcceptAnswer(w http.ResponseWriter, r *http.Request) {
	userID, answerID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	answer, err := h.acceptance.AcceptAnswer(r.Context(), userID, answerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to accept answer")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, answerToResponse(answer))
}
