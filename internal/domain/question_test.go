package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAsker() Identity {
	return Identity{ID: uuid.New(), DisplayName: "alice"}
}

func TestNewQuestion(t *testing.T) {
	asker := testAsker()

	tests := []struct {
		name    string
		asker   Identity
		title   string
		content string
		tags    []string
		wantErr error
	}{
		{
			name:    "valid question",
			asker:   asker,
			title:   "How do I test this?",
			content: "<p>Some content that is long enough</p>",
			tags:    []string{"go", "testing"},
		},
		{
			name:    "empty title",
			asker:   asker,
			title:   "   ",
			content: "Some content that is long enough",
			tags:    []string{"go"},
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "content too short after stripping markup",
			asker:   asker,
			title:   "Title",
			content: "<p><b>short</b></p>",
			tags:    []string{"go"},
			wantErr: ErrContentTooShort,
		},
		{
			name:    "no tags",
			asker:   asker,
			title:   "Title",
			content: "Some content that is long enough",
			tags:    nil,
			wantErr: ErrNoTags,
		},
		{
			name:    "too many tags",
			asker:   asker,
			title:   "Title",
			content: "Some content that is long enough",
			tags:    []string{"a", "b", "c", "d", "e", "f"},
			wantErr: ErrTooManyTags,
		},
		{
			name:    "missing asker identity",
			asker:   Identity{},
			title:   "Title",
			content: "Some content that is long enough",
			tags:    []string{"go"},
			wantErr: ErrEmptyIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			question, err := NewQuestion(tt.asker, tt.title, tt.content, tt.tags)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, question)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, question)
			assert.NotEqual(t, uuid.Nil, question.ID)
			assert.Equal(t, tt.asker.ID, question.AskerID)
			assert.Equal(t, tt.asker.DisplayName, question.AskerDisplayName)
			assert.Zero(t, question.AnswerCount)
			assert.Zero(t, question.ViewCount)
			assert.False(t, question.HasAcceptedAnswer)
			assert.Nil(t, question.UpdatedAt)
		})
	}
}

func TestQuestionApplyUpdate(t *testing.T) {
	asker := testAsker()
	question, err := NewQuestion(asker, "Original title", "Original content here", []string{"go"})
	require.NoError(t, err)

	t.Run("asker replaces fields wholesale", func(t *testing.T) {
		err := question.ApplyUpdate(asker, "New title", "Rewritten content here", []string{"rust", "wasm"})
		require.NoError(t, err)

		assert.Equal(t, "New title", question.Title)
		assert.Equal(t, "Rewritten content here", question.Content)
		assert.Equal(t, []string{"rust", "wasm"}, question.TagSlugs)
		require.NotNil(t, question.UpdatedAt)
	})

	t.Run("non-asker is rejected", func(t *testing.T) {
		other := Identity{ID: uuid.New(), DisplayName: "mallory"}
		err := question.ApplyUpdate(other, "Hijacked", "Hijacked content here", []string{"go"})
		assert.ErrorIs(t, err, ErrNotOwner)
		assert.Equal(t, "New title", question.Title)
	})

	t.Run("invalid update leaves question unchanged", func(t *testing.T) {
		err := question.ApplyUpdate(asker, "", "Rewritten content here", []string{"go"})
		assert.ErrorIs(t, err, ErrEmptyTitle)
		assert.Equal(t, "New title", question.Title)
		assert.Equal(t, []string{"rust", "wasm"}, question.TagSlugs)
	})
}

func TestQuestionGuardAccept(t *testing.T) {
	asker := testAsker()
	responder := Identity{ID: uuid.New(), DisplayName: "bob"}

	question, err := NewQuestion(asker, "Title", "Some content long enough", []string{"go"})
	require.NoError(t, err)

	answer, err := NewAnswer(question.ID, responder, "An answer that is long enough")
	require.NoError(t, err)

	t.Run("accepting is allowed when undecided", func(t *testing.T) {
		assert.NoError(t, question.GuardAccept(answer))
	})

	t.Run("answer from another question is rejected", func(t *testing.T) {
		stray, err := NewAnswer(uuid.New(), responder, "An answer that is long enough")
		require.NoError(t, err)
		assert.ErrorIs(t, question.GuardAccept(stray), ErrAnswerMismatch)
	})

	t.Run("second accept fails once decided", func(t *testing.T) {
		question.HasAcceptedAnswer = true
		answer.Accepted = true

		second, err := NewAnswer(question.ID, responder, "Another answer long enough")
		require.NoError(t, err)
		assert.ErrorIs(t, question.GuardAccept(second), ErrAlreadyAccepted)
		assert.True(t, answer.Accepted)
	})
}

func TestQuestionGuardDeleteAnswer(t *testing.T) {
	asker := testAsker()
	responder := Identity{ID: uuid.New(), DisplayName: "bob"}

	question, err := NewQuestion(asker, "Title", "Some content long enough", []string{"go"})
	require.NoError(t, err)

	answer, err := NewAnswer(question.ID, responder, "An answer that is long enough")
	require.NoError(t, err)

	assert.NoError(t, question.GuardDeleteAnswer(answer))

	answer.Accepted = true
	assert.ErrorIs(t, question.GuardDeleteAnswer(answer), ErrAnswerAccepted)

	stray, err := NewAnswer(uuid.New(), responder, "An answer that is long enough")
	require.NoError(t, err)
	assert.ErrorIs(t, question.GuardDeleteAnswer(stray), ErrAnswerMismatch)
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain text", "hello world", "hello world"},
		{"nested elements", "<p><strong>bold</strong> text</p>", "bold text"},
		{"whitespace trimmed", "  <p> padded </p>  ", "padded"},
		{"only markup", "<p></p><br/>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.content))
		})
	}
}
