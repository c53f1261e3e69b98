package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/answers-api/internal/domain"
	"github.com/phrazzld/answers-api/internal/service"
	"github.com/phrazzld/answers-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_AnswerCreated(t *testing.T) {
	ctx := context.Background()

	t.Run("question owner is notified of another user's answer", func(t *testing.T) {
		f := newFixture(t)
		alice, bob := f.addUser(t, "alice"), f.addUser(t, "bob")
		q := f.ask(t, alice, "q")
		a := f.answer(t, bob, q)

		got := f.db.notificationsFor(alice.ID)
		require.Len(t, got, 1)
		assert.Equal(t, "bob answered your question.", got[0].Message)
		assert.Equal(t, a.ID, got[0].AnswerID)
		assert.False(t, got[0].Read)
		assert.Empty(t, f.db.notificationsFor(bob.ID))
		assert.Equal(t, 1, f.recorder.notifications)

		require.Len(t, f.submitter.submitted, 1)
		assert.Equal(t, task.TaskTypeNotifyAnswer, f.submitter.submitted[0].Type())
	})

	t.Run("self-answer produces no notification", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice")
		f.answer(t, alice, f.ask(t, alice, "q"))

		assert.Empty(t, f.db.notificationsFor(alice.ID))
		assert.Zero(t, f.recorder.notifications)
	})

	t.Run("redelivery does not duplicate", func(t *testing.T) {
		f := newFixture(t)
		alice, bob := f.addUser(t, "alice"), f.addUser(t, "bob")
		a := f.answer(t, bob, f.ask(t, alice, "q"))

		require.NoError(t, f.notifier.DeliverAnswerNotification(ctx, a.ID))
		require.NoError(t, f.notifier.DeliverAnswerNotification(ctx, a.ID))

		assert.Len(t, f.db.notificationsFor(alice.ID), 1)
		assert.Equal(t, 1, f.recorder.notifications)
	})

	t.Run("one notification per answer", func(t *testing.T) {
		f := newFixture(t)
		alice, bob, carol := f.addUser(t, "alice"), f.addUser(t, "bob"), f.addUser(t, "carol")
		q := f.ask(t, alice, "q")
		f.answer(t, bob, q)
		f.answer(t, carol, q)

		got := f.db.notificationsFor(alice.ID)
		require.Len(t, got, 2)
		assert.Equal(t, "bob answered your question.", got[0].Message)
		assert.Equal(t, "carol answered your question.", got[1].Message)
	})

	t.Run("task save failure does not fail answer creation", func(t *testing.T) {
		f := newFixture(t)
		alice, bob := f.addUser(t, "alice"), f.addUser(t, "bob")
		q := f.ask(t, alice, "q")
		f.submitter.saveErr = errors.New("insert failed")

		a, err := f.catalog.CreateAnswer(ctx, bob.ID, q.ID, "still stored")
		require.NoError(t, err)
		require.NotNil(t, a)

		detail, err := f.catalog.GetQuestion(ctx, q.ID)
		require.NoError(t, err)
		require.Len(t, detail.Answers, 1)
		assert.Equal(t, a.ID, detail.Answers[0].ID)
		assert.Empty(t, f.db.notificationsFor(alice.ID))
	})

	t.Run("queue failure leaves the saved task for a later run", func(t *testing.T) {
		f := newFixture(t)
		alice, bob := f.addUser(t, "alice"), f.addUser(t, "bob")
		q := f.ask(t, alice, "q")
		f.submitter.enqueueErr = task.ErrQueueFull

		a, err := f.catalog.CreateAnswer(ctx, bob.ID, q.ID, "queued later")
		require.NoError(t, err)

		require.Len(t, f.submitter.submitted, 1, "task saved with the answer")
		saved := f.submitter.submitted[0]
		assert.Equal(t, task.NotifyAnswerTaskID(a.ID), saved.ID())
		assert.Empty(t, f.db.notificationsFor(alice.ID))

		// What the runner does once it picks the pending task up.
		require.NoError(t, saved.Execute(ctx))
		assert.Len(t, f.db.notificationsFor(alice.ID), 1)
	})

	t.Run("task is saved before the answer commits", func(t *testing.T) {
		f := newFixture(t)
		alice, bob := f.addUser(t, "alice"), f.addUser(t, "bob")
		q := f.ask(t, alice, "q")
		f.tx.commitErr = errors.New("commit failed")

		_, err := f.catalog.CreateAnswer(ctx, bob.ID, q.ID, "rolled back")
		require.Error(t, err)

		assert.Len(t, f.submitter.submitted, 1, "saved inside the transaction")
		assert.Zero(t, f.submitter.queued, "never queued without a commit")
		assert.Empty(t, f.db.notificationsFor(alice.ID))
	})

	t.Run("delivery for a deleted answer", func(t *testing.T) {
		f := newFixture(t)
		err := f.notifier.DeliverAnswerNotification(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("missing author", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice")
		q := f.ask(t, alice, "q")
		ghost := &domain.User{ID: uuid.New(), Username: "ghost"}
		f.submitter.saveErr = errors.New("skip")
		a := f.answer(t, ghost, q)

		err := f.notifier.DeliverAnswerNotification(ctx, a.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
		assert.Empty(t, f.db.notificationsFor(alice.ID))
	})

	t.Run("nil answer is ignored", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.AnswerCreating(ctx, nil, nil)
		f.notifier.OnAnswerCreated(ctx, nil)
		assert.Empty(t, f.submitter.submitted)
		assert.Zero(t, f.submitter.queued)
	})
}

func TestNotifier_ListAndMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice, bob, carol := f.addUser(t, "alice"), f.addUser(t, "bob"), f.addUser(t, "carol")
	q := f.ask(t, alice, "q")
	f.answer(t, bob, q)
	f.answer(t, carol, q)

	list, err := f.notifier.ListNotifications(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "carol answered your question.", list[0].Message, "newest first")

	empty, err := f.notifier.ListNotifications(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.notifier.ListNotifications(ctx, uuid.Nil)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	err = f.notifier.MarkRead(ctx, bob.ID, list[0].ID)
	assert.ErrorIs(t, err, service.ErrNotFound, "other users' notifications are invisible")

	require.NoError(t, f.notifier.MarkRead(ctx, alice.ID, list[0].ID))
	list, err = f.notifier.ListNotifications(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, list[0].Read)
	assert.False(t, list[1].Read)

	assert.ErrorIs(t, f.notifier.MarkRead(ctx, alice.ID, uuid.New()), service.ErrNotFound)
	assert.ErrorIs(t, f.notifier.MarkRead(ctx, uuid.Nil, list[0].ID), service.ErrUnauthorized)
}

func TestNewNotifier_RequiresDependencies(t *testing.T) {
	db := newMemDB()
	ownership := service.NewOwnership(memQuestionStore{db})

	_, err := service.NewNotifier(nil, memAnswerStore{db}, memUserStore{db}, memNotificationStore{db}, ownership, nil, nil)
	assert.True(t, domain.IsValidationError(err))

	_, err = service.NewNotifier(&syncSubmitter{}, memAnswerStore{db}, memUserStore{db}, nil, ownership, nil, nil)
	assert.True(t, domain.IsValidationError(err))
}
