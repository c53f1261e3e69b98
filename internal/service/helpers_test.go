package service_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/service"
	"github.com/phrazzld/answers-api/internal/store"
	"github.com/phrazzld/answers-api/internal/task"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDB is an in-memory stand-in for the Postgres schema. It enforces the
// same uniqueness rules the schema does: one vote per user and answer, one
// accepted answer per question and one notification per answer.
type memDB struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*domain.User
	questions     []*domain.Question
	answers       []*domain.Answer
	votes         map[[2]uuid.UUID]*domain.Vote
	notifications []*domain.Notification
}

func newMemDB() *memDB {
	return &memDB{
		users: make(map[uuid.UUID]*domain.User),
		votes: make(map[[2]uuid.UUID]*domain.Vote),
	}
}

func (db *memDB) question(id uuid.UUID) *domain.Question {
	for _, q := range db.questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

func (db *memDB) answer(id uuid.UUID) *domain.Answer {
	for _, a := range db.answers {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (db *memDB) acceptedAnswers(questionID uuid.UUID) []uuid.UUID {
	db.mu.Lock()
	defer db.mu.Unlock()
	var ids []uuid.UUID
	for _, a := range db.answers {
		if a.QuestionID == questionID && a.Accepted {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func (db *memDB) voteRows(answerID uuid.UUID) []domain.Vote {
	db.mu.Lock()
	defer db.mu.Unlock()
	var rows []domain.Vote
	for key, v := range db.votes {
		if key[1] == answerID {
			rows = append(rows, *v)
		}
	}
	return rows
}

func (db *memDB) notificationsFor(userID uuid.UUID) []domain.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.Notification
	for _, n := range db.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

type memUserStore struct{ db *memDB }

func (s memUserStore) Create(_ context.Context, u *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if existing.Username == u.Username {
			return store.ErrUsernameExists
		}
	}
	cp := *u
	s.db.users[u.ID] = &cp
	return nil
}

func (s memUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s memUserStore) WithTx(*sql.Tx) store.UserStore { return s }

type memQuestionStore struct{ db *memDB }

func (s memQuestionStore) Create(_ context.Context, q *domain.Question) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cp := *q
	s.db.questions = append(s.db.questions, &cp)
	return nil
}

func (s memQuestionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q := s.db.question(id)
	if q == nil {
		return nil, store.ErrQuestionNotFound
	}
	cp := *q
	return &cp, nil
}

func (s memQuestionStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	return s.GetByID(ctx, id)
}

func (s memQuestionStore) List(_ context.Context, filter store.QuestionFilter) ([]*domain.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.Question{}
	for i := len(s.db.questions) - 1; i >= 0; i-- {
		q := s.db.questions[i]
		if filter.Unanswered && s.hasAnswers(q.ID) {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	return out, nil
}

func (s memQuestionStore) hasAnswers(questionID uuid.UUID) bool {
	for _, a := range s.db.answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

func (s memQuestionStore) WithTx(*sql.Tx) store.QuestionStore { return s }

type memAnswerStore struct{ db *memDB }

func (s memAnswerStore) Create(_ context.Context, a *domain.Answer) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.question(a.QuestionID) == nil {
		return store.ErrQuestionNotFound
	}
	cp := *a
	s.db.answers = append(s.db.answers, &cp)
	return nil
}

func (s memAnswerStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Answer, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a := s.db.answer(id)
	if a == nil {
		return nil, store.ErrAnswerNotFound
	}
	cp := *a
	return &cp, nil
}

func (s memAnswerStore) ListByQuestion(_ context.Context, questionID uuid.UUID) ([]*domain.Answer, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.Answer{}
	for _, a := range s.db.answers {
		if a.QuestionID == questionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s memAnswerStore) ClearAccepted(_ context.Context, questionID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.answers {
		if a.QuestionID == questionID {
			a.Accepted = false
		}
	}
	return nil
}

func (s memAnswerStore) SetAccepted(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	target := s.db.answer(id)
	if target == nil {
		return store.ErrAnswerNotFound
	}
	for _, a := range s.db.answers {
		if a.QuestionID == target.QuestionID && a.Accepted && a.ID != id {
			return store.NewStoreError("answer", "accept", "another answer is accepted", store.ErrDuplicate)
		}
	}
	target.Accepted = true
	return nil
}

func (s memAnswerStore) WithTx(*sql.Tx) store.AnswerStore { return s }

type memVoteStore struct{ db *memDB }

func (s memVoteStore) Upsert(_ context.Context, v *domain.Vote) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.answer(v.AnswerID) == nil {
		return store.ErrAnswerNotFound
	}
	key := [2]uuid.UUID{v.UserID, v.AnswerID}
	if existing, ok := s.db.votes[key]; ok {
		existing.Kind = v.Kind
		v.ID = existing.ID
		return nil
	}
	cp := *v
	s.db.votes[key] = &cp
	return nil
}

func (s memVoteStore) Counts(_ context.Context, answerID uuid.UUID) (domain.VoteCounts, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.answer(answerID) == nil {
		return domain.VoteCounts{}, store.ErrAnswerNotFound
	}
	var c domain.VoteCounts
	for key, v := range s.db.votes {
		if key[1] != answerID {
			continue
		}
		switch v.Kind {
		case domain.VoteUp:
			c.Up++
		case domain.VoteDown:
			c.Down++
		}
	}
	return c, nil
}

func (s memVoteStore) WithTx(*sql.Tx) store.VoteStore { return s }

type memNotificationStore struct{ db *memDB }

func (s memNotificationStore) CreateForAnswer(_ context.Context, n *domain.Notification) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.notifications {
		if existing.AnswerID == n.AnswerID {
			return false, nil
		}
	}
	cp := *n
	s.db.notifications = append(s.db.notifications, &cp)
	return true, nil
}

func (s memNotificationStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.Notification{}
	for i := len(s.db.notifications) - 1; i >= 0; i-- {
		if n := s.db.notifications[i]; n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s memNotificationStore) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, n := range s.db.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return store.ErrNotificationNotFound
}

func (s memNotificationStore) WithTx(*sql.Tx) store.NotificationStore { return s }

// fakeTransactor runs the unit of work without a real transaction. err
// fails the transaction before the work runs, commitErr after it ran.
type fakeTransactor struct {
	calls     int
	err       error
	commitErr error
}

func (f *fakeTransactor) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if err := fn(ctx, nil); err != nil {
		return err
	}
	return f.commitErr
}

// syncSubmitter executes saved tasks as soon as they are queued. Like the
// task runner it only runs tasks that were saved first.
type syncSubmitter struct {
	mu         sync.Mutex
	submitted  []task.Task
	queued     int
	saveErr    error
	enqueueErr error
}

func (s *syncSubmitter) Save(_ context.Context, _ *sql.Tx, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.submitted = append(s.submitted, t)
	return nil
}

func (s *syncSubmitter) Enqueue(t task.Task) error {
	s.mu.Lock()
	if s.enqueueErr != nil {
		s.mu.Unlock()
		return s.enqueueErr
	}
	s.queued++
	saved := false
	for _, st := range s.submitted {
		saved = saved || st.ID() == t.ID()
	}
	s.mu.Unlock()

	if !saved {
		return nil
	}
	return t.Execute(context.Background())
}

type countingRecorder struct {
	mu            sync.Mutex
	votes         map[domain.VoteKind]int
	accepted      int
	notifications int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{votes: make(map[domain.VoteKind]int)}
}

func (r *countingRecorder) VoteCast(kind domain.VoteKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.votes[kind]++
}

func (r *countingRecorder) AnswerAccepted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted++
}

func (r *countingRecorder) NotificationCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications++
}

// fixture wires every service against one memDB.
type fixture struct {
	db         *memDB
	tx         *fakeTransactor
	submitter  *syncSubmitter
	recorder   *countingRecorder
	catalog    *service.CatalogServiceImpl
	votes      *service.VoteServiceImpl
	acceptance *service.AcceptanceServiceImpl
	notifier   *service.Notifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:        newMemDB(),
		tx:        &fakeTransactor{},
		submitter: &syncSubmitter{},
		recorder:  newCountingRecorder(),
	}
	logger := discardLogger()

	questions := memQuestionStore{f.db}
	answers := memAnswerStore{f.db}
	votes := memVoteStore{f.db}
	ownership := service.NewOwnership(questions)

	var err error
	f.notifier, err = service.NewNotifier(
		f.submitter, answers, memUserStore{f.db}, memNotificationStore{f.db}, ownership, f.recorder, logger)
	require.NoError(t, err)

	f.catalog, err = service.NewCatalogService(questions, answers, votes, f.tx, f.notifier, logger)
	require.NoError(t, err)

	f.votes, err = service.NewVoteService(votes, f.recorder, logger)
	require.NoError(t, err)

	f.acceptance, err = service.NewAcceptanceService(questions, answers, f.tx, f.catalog, f.recorder, logger)
	require.NoError(t, err)

	return f
}

func (f *fixture) addUser(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Username: username, HashedPassword: "x"}
	require.NoError(t, memUserStore{f.db}.Create(context.Background(), u))
	return u
}

func (f *fixture) ask(t *testing.T, author *domain.User, title string) *domain.Question {
	t.Helper()
	q, err := f.catalog.CreateQuestion(context.Background(), author.ID, title, "details", nil)
	require.NoError(t, err)
	return q
}

func (f *fixture) answer(t *testing.T, author *domain.User, q *domain.Question) *domain.Answer {
	t.Helper()
	a, err := f.catalog.CreateAnswer(context.Background(), author.ID, q.ID, "an answer from "+author.Username)
	require.NoError(t, err)
	return a
}
