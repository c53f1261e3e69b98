package service

import "github.com/phrazzld/answers-api/internal/domain"

// Recorder receives counts of business events, typically for metrics.
type Recorder interface {
	VoteCast(kind domain.VoteKind)
	AnswerAccepted()
	NotificationCreated()
}

type nopRecorder struct{}

func (nopRecorder) VoteCast(domain.VoteKind) {}
func (nopRecorder) AnswerAccepted()          {}
func (nopRecorder) NotificationCreated()     {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
