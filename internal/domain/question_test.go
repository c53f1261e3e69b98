package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewQuestion(t *testing.T) {
	t.Parallel()
	authorID := uuid.New()

	q, err := NewQuestion(authorID, " How do channels work? ", "Details please", []string{"go", " go", "", "concurrency"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if q.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if q.Title != "How do channels work?" {
		t.Errorf("Expected trimmed title, got %q", q.Title)
	}
	if !reflect.DeepEqual(q.Tags, []string{"go", "concurrency"}) {
		t.Errorf("Expected normalized tags, got %v", q.Tags)
	}
	if !q.IsOwnedBy(authorID) {
		t.Error("Expected question to be owned by its author")
	}
	if q.IsOwnedBy(uuid.New()) {
		t.Error("Expected question not to be owned by another user")
	}
}

func TestNewQuestionValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		authorID uuid.UUID
		title    string
		desc     string
		wantErr  error
	}{
		{"nil author", uuid.Nil, "t", "d", ErrInvalidID},
		{"empty title", uuid.New(), "  ", "d", ErrEmptyContent},
		{"empty description", uuid.New(), "t", "", ErrEmptyContent},
		{"title too long", uuid.New(), strings.Repeat("a", MaxTitleLength+1), "d", ErrValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewQuestion(tc.authorID, tc.title, tc.desc, nil)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected error %v, got %v", tc.wantErr, err)
			}
			if !IsValidationError(err) {
				t.Errorf("Expected a validation error, got %v", err)
			}
		})
	}
}

func TestTitleLengthCountsCharacters(t *testing.T) {
	t.Parallel()

	title := strings.Repeat("é", MaxTitleLength)
	if _, err := NewQuestion(uuid.New(), title, "d", nil); err != nil {
		t.Errorf("Expected %d multibyte characters to be accepted, got %v", MaxTitleLength, err)
	}
}

func TestNormalizeTagsEmpty(t *testing.T) {
	t.Parallel()

	tags := NormalizeTags(nil)
	if tags == nil || len(tags) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", tags)
	}
}
