package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/service"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}

// CreateQuestionRequest defines the payload for asking a question.
type CreateQuestionRequest struct {
	Title       string   `json:"title"       validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Tags        []string `json:"tags"        validate:"omitempty,max=20,dive,max=50"`
}

// CreateAnswerRequest defines the payload for answering a question.
type CreateAnswerRequest struct {
	Content string `json:"content" validate:"required"`
}

// CastVoteRequest defines the payload for voting on an answer.
type CastVoteRequest struct {
	Kind string `json:"kind" validate:"required,oneof=up down"`
}

// QuestionResponse is a question without its answers.
type QuestionResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	AuthorID    uuid.UUID `json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuestionDetailResponse is a question with its answers.
type QuestionDetailResponse struct {
	QuestionResponse
	Answers []AnswerResponse `json:"answers"`
}

// VoteCountResponse is the tally of votes on an answer.
type VoteCountResponse struct {
	Up    int `json:"up"`
	Down  int `json:"down"`
	Score int `json:"score"`
}

// AnswerResponse is an answer, with vote counts when they were loaded.
type AnswerResponse struct {
	ID         uuid.UUID          `json:"id"`
	QuestionID uuid.UUID          `json:"question_id"`
	Content    string             `json:"content"`
	AuthorID   uuid.UUID          `json:"author_id"`
	Accepted   bool               `json:"accepted"`
	CreatedAt  time.Time          `json:"created_at"`
	VoteCount  *VoteCountResponse `json:"vote_count,omitempty"`
}

// NotificationResponse is a notification as shown to its recipient.
type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

func questionToResponse(q *domain.Question) QuestionResponse {
	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}
	return QuestionResponse{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Tags:        tags,
		AuthorID:    q.AuthorID,
		CreatedAt:   q.CreatedAt,
	}
}

func questionDetailToResponse(d *service.QuestionDetail) QuestionDetailResponse {
	resp := QuestionDetailResponse{
		QuestionResponse: questionToResponse(d.Question),
		Answers:          make([]AnswerResponse, 0, len(d.Answers)),
	}
	for _, a := range d.Answers {
		ar := answerToResponse(a.Answer)
		ar.VoteCount = countsToResponse(a.Votes)
		resp.Answers = append(resp.Answers, ar)
	}
	return resp
}

func answerToResponse(a *domain.Answer) AnswerResponse {
	return AnswerResponse{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		Content:    a.Content,
		AuthorID:   a.AuthorID,
		Accepted:   a.Accepted,
		CreatedAt:  a.CreatedAt,
	}
}

func countsToResponse(c domain.VoteCounts) *VoteCountResponse {
	return &VoteCountResponse{Up: c.Up, Down: c.Down, Score: c.Score()}
}

func notificationToResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
