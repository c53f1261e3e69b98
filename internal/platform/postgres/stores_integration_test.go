//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/platform/postgres"
	"github.com/phrazzld/answers-api/internal/store"
	"github.com/phrazzld/answers-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixtures struct {
	users     *postgres.PostgresUserStore
	questions *postgres.PostgresQuestionStore
	answers   *postgres.PostgresAnswerStore
	votes     *postgres.PostgresVoteStore
	notes     *postgres.PostgresNotificationStore
}

func newFixtures(db store.DBTX) fixtures {
	return fixtures{
		users:     postgres.NewPostgresUserStore(db, discard),
		questions: postgres.NewPostgresQuestionStore(db, discard),
		answers:   postgres.NewPostgresAnswerStore(db, discard),
		votes:     postgres.NewPostgresVoteStore(db, discard),
		notes:     postgres.NewPostgresNotificationStore(db, discard),
	}
}

func (f fixtures) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Username: name + "-" + uuid.NewString()[:8], HashedPassword: "hash", CreatedAt: time.Now().UTC()}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f fixtures) question(t *testing.T, author *domain.User) *domain.Question {
	t.Helper()
	q, err := domain.NewQuestion(author.ID, "How?", "Details", []string{"go"})
	require.NoError(t, err)
	require.NoError(t, f.questions.Create(context.Background(), q))
	return q
}

func (f fixtures) answer(t *testing.T, q *domain.Question, author *domain.User) *domain.Answer {
	t.Helper()
	a, err := domain.NewAnswer(q.ID, author.ID, "Like this")
	require.NoError(t, err)
	require.NoError(t, f.answers.Create(context.Background(), a))
	return a
}

func TestUserStore_Integration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		f := newFixtures(tx)
		ctx := context.Background()
		alice := f.user(t, "alice")

		got, err := f.users.GetByUsername(ctx, alice.Username)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)

		dup := &domain.User{ID: uuid.New(), Username: alice.Username, HashedPassword: "x", CreatedAt: time.Now()}
		assert.ErrorIs(t, f.users.Create(ctx, dup), store.ErrUsernameExists)
	})
}

func TestQuestionStore_ListNewestFirstAndUnanswered(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		f := newFixtures(tx)
		ctx := context.Background()
		alice, bob := f.user(t, "alice"), f.user(t, "bob")

		older := f.question(t, alice)
		newer, err := domain.NewQuestion(alice.ID, "Newer", "Details", nil)
		require.NoError(t, err)
		newer.CreatedAt = older.CreatedAt.Add(time.Minute)
		require.NoError(t, f.questions.Create(ctx, newer))
		f.answer(t, older, bob)

		all, err := f.questions.List(ctx, store.QuestionFilter{})
		require.NoError(t, err)
		ids := make([]uuid.UUID, 0, len(all))
		for _, q := range all {
			ids = append(ids, q.ID)
		}
		require.Contains(t, ids, newer.ID)
		require.Contains(t, ids, older.ID)
		assert.Less(t, indexOf(ids, newer.ID), indexOf(ids, older.ID))

		unanswered, err := f.questions.List(ctx, store.QuestionFilter{Unanswered: true})
		require.NoError(t, err)
		for _, q := range unanswered {
			assert.NotEqual(t, older.ID, q.ID)
		}

		got, err := f.questions.GetByID(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"go"}, got.Tags)
		assert.Equal(t, []string{}, mustGet(t, f, newer.ID).Tags)
	})
}

func TestAnswerStore_SingleAcceptedAnswer(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		f := newFixtures(tx)
		ctx := context.Background()
		alice, bob, carol := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
		q := f.question(t, alice)
		a1, a2 := f.answer(t, q, bob), f.answer(t, q, carol)

		require.NoError(t, f.answers.ClearAccepted(ctx, q.ID))
		require.NoError(t, f.answers.SetAccepted(ctx, a1.ID))

		// Skipping the clear step violates the partial unique index.
		_, err := tx.ExecContext(ctx, "SAVEPOINT accept_twice")
		require.NoError(t, err)
		err = f.answers.SetAccepted(ctx, a2.ID)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		_, err = tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT accept_twice")
		require.NoError(t, err)

		require.NoError(t, f.answers.ClearAccepted(ctx, q.ID))
		require.NoError(t, f.answers.SetAccepted(ctx, a2.ID))

		answers, err := f.answers.ListByQuestion(ctx, q.ID)
		require.NoError(t, err)
		accepted := 0
		for _, a := range answers {
			if a.Accepted {
				accepted++
				assert.Equal(t, a2.ID, a.ID)
			}
		}
		assert.Equal(t, 1, accepted)
	})
}

func TestVoteStore_ConcurrentUpsertsLeaveOneRow(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	t.Cleanup(func() { testdb.Truncate(t, db, "votes", "notifications", "answers", "questions", "users") })

	f := newFixtures(db)
	ctx := context.Background()
	alice, bob, voter := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "voter")
	q := f.question(t, alice)
	a := f.answer(t, q, bob)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		kind := domain.VoteUp
		if i%2 == 1 {
			kind = domain.VoteDown
		}
		wg.Add(1)
		go func(kind domain.VoteKind) {
			defer wg.Done()
			v, err := domain.NewVote(voter.ID, a.ID, kind)
			if err != nil {
				errs <- err
				return
			}
			errs <- f.votes.Upsert(ctx, v)
		}(kind)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var rows int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM votes WHERE user_id = $1 AND answer_id = $2", voter.ID, a.ID).Scan(&rows))
	assert.Equal(t, 1, rows)

	// A final sequential write always wins.
	last, err := domain.NewVote(voter.ID, a.ID, domain.VoteDown)
	require.NoError(t, err)
	require.NoError(t, f.votes.Upsert(ctx, last))
	var kind string
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT kind FROM votes WHERE user_id = $1 AND answer_id = $2", voter.ID, a.ID).Scan(&kind))
	assert.Equal(t, string(domain.VoteDown), kind)

	counts, err := f.votes.Counts(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteCounts{Up: 0, Down: 1}, counts)
}

func TestVoteStore_CountsAcrossUsers(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		f := newFixtures(tx)
		ctx := context.Background()
		alice, bob := f.user(t, "alice"), f.user(t, "bob")
		q := f.question(t, alice)
		a := f.answer(t, q, bob)

		cast := func(u *domain.User, k domain.VoteKind) {
			v, err := domain.NewVote(u.ID, a.ID, k)
			require.NoError(t, err)
			require.NoError(t, f.votes.Upsert(ctx, v))
		}
		u1, u2, u3 := f.user(t, "u1"), f.user(t, "u2"), f.user(t, "u3")
		cast(u1, domain.VoteUp)
		cast(u2, domain.VoteDown)
		cast(u3, domain.VoteUp)
		cast(u3, domain.VoteDown)

		counts, err := f.votes.Counts(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VoteCounts{Up: 1, Down: 2}, counts)

		_, err = f.votes.Counts(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrAnswerNotFound)

		v, err := domain.NewVote(u1.ID, uuid.New(), domain.VoteUp)
		require.NoError(t, err)
		assert.ErrorIs(t, f.votes.Upsert(ctx, v), store.ErrAnswerNotFound)
	})
}

func TestNotificationStore_Integration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		f := newFixtures(tx)
		ctx := context.Background()
		alice, bob := f.user(t, "alice"), f.user(t, "bob")
		q := f.question(t, alice)
		a1, a2 := f.answer(t, q, bob), f.answer(t, q, bob)

		n1, err := domain.NewAnswerNotification(alice.ID, a1.ID, bob.Username)
		require.NoError(t, err)
		created, err := f.notes.CreateForAnswer(ctx, n1)
		require.NoError(t, err)
		assert.True(t, created)

		retry, err := domain.NewAnswerNotification(alice.ID, a1.ID, bob.Username)
		require.NoError(t, err)
		created, err = f.notes.CreateForAnswer(ctx, retry)
		require.NoError(t, err)
		assert.False(t, created)

		n2, err := domain.NewAnswerNotification(alice.ID, a2.ID, bob.Username)
		require.NoError(t, err)
		n2.CreatedAt = n1.CreatedAt.Add(time.Second)
		_, err = f.notes.CreateForAnswer(ctx, n2)
		require.NoError(t, err)

		list, err := f.notes.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, n2.ID, list[0].ID)
		assert.Equal(t, n1.ID, list[1].ID)

		assert.ErrorIs(t, f.notes.MarkRead(ctx, n1.ID, bob.ID), store.ErrNotificationNotFound)
		require.NoError(t, f.notes.MarkRead(ctx, n1.ID, alice.ID))

		list, err = f.notes.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, list[1].Read)
	})
}

func indexOf(ids []uuid.UUID, id uuid.UUID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func mustGet(t *testing.T, f fixtures, id uuid.UUID) *domain.Question {
	t.Helper()
	q, err := f.questions.GetByID(context.Background(), id)
	require.NoError(t, err)
	return q
}
