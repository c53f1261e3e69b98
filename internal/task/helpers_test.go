package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// memTaskStore is an in-memory TaskStore.
type memTaskStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
	saveErr error
	txCalls int
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{records: make(map[uuid.UUID]*Record)}
}

func (s *memTaskStore) SaveTask(_ context.Context, t Task) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.records[t.ID()] = &Record{
		ID:        t.ID(),
		Type:      t.Type(),
		Payload:   t.Payload(),
		Status:    t.Status(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *memTaskStore) UpdateTaskStatus(_ context.Context, id uuid.UUID, status TaskStatus, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	rec.Status = status
	rec.ErrorMessage = msg
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *memTaskStore) byStatus(status TaskStatus, olderThan time.Duration) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.Status != status {
			continue
		}
		if olderThan > 0 && time.Since(rec.UpdatedAt) < olderThan {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

func (s *memTaskStore) ClaimTask(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.Status != TaskStatusPending {
		return false, nil
	}
	rec.Status = TaskStatusProcessing
	rec.UpdatedAt = time.Now()
	return true, nil
}

func (s *memTaskStore) GetPendingTasks(_ context.Context, olderThan time.Duration) ([]Record, error) {
	return s.byStatus(TaskStatusPending, olderThan), nil
}

func (s *memTaskStore) GetProcessingTasks(_ context.Context, olderThan time.Duration) ([]Record, error) {
	return s.byStatus(TaskStatusProcessing, olderThan), nil
}

func (s *memTaskStore) WithTx(*sql.Tx) TaskStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCalls++
	return s
}

func (s *memTaskStore) status(id uuid.UUID) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		return rec.Status
	}
	return ""
}

func (s *memTaskStore) put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.UpdatedAt = time.Now().Add(-time.Hour)
	s.records[rec.ID] = &rec
}

// recordingDeliverer counts deliveries per answer.
type recordingDeliverer struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
	err   error
	done  chan uuid.UUID
}

func newRecordingDeliverer() *recordingDeliverer {
	return &recordingDeliverer{calls: make(map[uuid.UUID]int), done: make(chan uuid.UUID, 64)}
}

func (d *recordingDeliverer) DeliverAnswerNotification(_ context.Context, answerID uuid.UUID) error {
	d.mu.Lock()
	d.calls[answerID]++
	d.mu.Unlock()
	d.done <- answerID
	return d.err
}

func (d *recordingDeliverer) count(answerID uuid.UUID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[answerID]
}

// submit saves t outside any transaction and queues it.
func submit(r *TaskRunner, t Task) error {
	if err := r.Save(context.Background(), nil, t); err != nil {
		return err
	}
	return r.Enqueue(t)
}

func notifyRecord(answerID uuid.UUID, status TaskStatus) Record {
	payload, _ := json.Marshal(map[string]string{"answer_id": answerID.String()})
	return Record{ID: uuid.New(), Type: TaskTypeNotifyAnswer, Payload: payload, Status: status}
}

var errDeliver = errors.New("deliver failed")
