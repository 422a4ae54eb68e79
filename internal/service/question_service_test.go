package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SFrisendal/overflow/internal/domain"
	"github.com/SFrisendal/overflow/internal/events"
	"github.com/SFrisendal/overflow/internal/store"
	"github.com/SFrisendal/overflow/internal/tags"
)

type serviceFixture struct {
	svc      *questionServiceImpl
	store    *memoryQuestionStore
	outbox   *recordingOutbox
	tagCache *stubTagValidator
	nudger   *countingNudger
}

func newFixture(t *testing.T, knownTags ...string) *serviceFixture {
	t.Helper()

	known := make(map[string]bool, len(knownTags))
	for _, slug := range knownTags {
		known[slug] = true
	}

	f := &serviceFixture{
		store:    newMemoryQuestionStore(),
		outbox:   &recordingOutbox{},
		tagCache: &stubTagValidator{known: known},
		nudger:   &countingNudger{},
	}
	f.svc = &questionServiceImpl{
		questions:   f.store,
		outbox:      f.outbox,
		tagCache:    f.tagCache,
		nudger:      f.nudger,
		logger:      slog.Default().With("component", "question_service"),
		viewTimeout: time.Second,
		runInTx: func(ctx context.Context, _ *sql.DB, fn store.TxFn) error {
			return fn(ctx, nil)
		},
	}
	return f
}

func testAsker() domain.Identity {
	return domain.Identity{ID: uuid.New(), DisplayName: "ada"}
}

func mustCreateQuestion(t *testing.T, f *serviceFixture, asker domain.Identity) *domain.Question {
	t.Helper()

	question, err := f.svc.CreateQuestion(
		context.Background(),
		asker,
		"How do goroutines get scheduled?",
		"I would like to understand the runtime scheduler in detail.",
		[]string{"go"},
	)
	require.NoError(t, err)
	return question
}

func TestCreateQuestion_StartsUndecidedWithZeroCounters(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	question := mustCreateQuestion(t, f, testAsker())

	assert.Equal(t, 0, question.AnswerCount)
	assert.Equal(t, 0, question.ViewCount)
	assert.False(t, question.HasAcceptedAnswer)
	assert.Nil(t, question.UpdatedAt)

	enqueued := f.outbox.events()
	require.Len(t, enqueued, 1)
	assert.Equal(t, events.TypeQuestionCreated, enqueued[0].Type)
	assert.Equal(t, question.ID, enqueued[0].QuestionID)

	var payload events.QuestionCreatedPayload
	require.NoError(t, enqueued[0].UnmarshalPayload(&payload))
	assert.Equal(t, question.Title, payload.Title)
	assert.Equal(t, question.TagSlugs, payload.TagSlugs)

	assert.Equal(t, int64(1), f.nudger.count.Load())
}

func TestCreateQuestion_RejectsPartiallyUnknownTags(t *testing.T) {
	t.Parallel()

	// Only "go" exists in the catalog; "rust" does not. One unknown slug
	// fails the whole list.
	f := newFixture(t, "go")

	_, err := f.svc.CreateQuestion(
		context.Background(),
		testAsker(),
		"Which language for systems work?",
		"Trying to choose between these two for a new project.",
		[]string{"go", "rust"},
	)
	require.ErrorIs(t, err, domain.ErrUnknownTags)

	assert.Empty(t, f.outbox.events())
	assert.Equal(t, int64(0), f.nudger.count.Load())
}

func TestCreateQuestion_ValidationErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	asker := testAsker()

	tests := []struct {
		name    string
		title   string
		content string
		tags    []string
		wantErr error
	}{
		{
			name:    "empty title",
			title:   "   ",
			content: "long enough content here",
			tags:    []string{"go"},
			wantErr: domain.ErrEmptyTitle,
		},
		{
			name:    "content too short after stripping markup",
			title:   "A title",
			content: "<p><b>short</b></p>",
			tags:    []string{"go"},
			wantErr: domain.ErrContentTooShort,
		},
		{
			name:    "no tags",
			title:   "A title",
			content: "long enough content here",
			tags:    nil,
			wantErr: domain.ErrNoTags,
		},
		{
			name:    "too many tags",
			title:   "A title",
			content: "long enough content here",
			tags:    []string{"a", "b", "c", "d", "e", "f"},
			wantErr: domain.ErrTooManyTags,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateQuestion(context.Background(), asker, tc.title, tc.content, tc.tags)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	assert.Empty(t, f.outbox.events())
}

func TestCreateQuestion_TagCatalogUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	f.tagCache.err = tags.ErrCacheUnavailable

	_, err := f.svc.CreateQuestion(
		context.Background(),
		testAsker(),
		"A title",
		"long enough content here",
		[]string{"go"},
	)
	assert.ErrorIs(t, err, tags.ErrCacheUnavailable)
}

func TestCreateQuestion_StoreFailureSurfacesWrapped(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	f.store.failCreate = errors.New("connection reset")

	_, err := f.svc.CreateQuestion(
		context.Background(),
		testAsker(),
		"A title",
		"long enough content here",
		[]string{"go"},
	)
	require.Error(t, err)

	var svcErr *QuestionServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "create_question", svcErr.Operation)

	assert.Empty(t, f.outbox.events())
	assert.Equal(t, int64(0), f.nudger.count.Load())
}

func TestGetQuestion_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")

	_, err := f.svc.GetQuestion(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestGetQuestion_RegistersViewsInBackground(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	question := mustCreateQuestion(t, f, testAsker())

	const reads = 5
	var wg sync.WaitGroup
	for i := 0; i < reads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.GetQuestion(context.Background(), question.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// The increments run on goroutines the reads do not wait for; each
	// read must land exactly one increment.
	require.Eventually(t, func() bool {
		got, err := f.store.GetByID(context.Background(), question.ID)
		return err == nil && got.ViewCount == reads
	}, time.Second, 10*time.Millisecond)
}

func TestListQuestions_FiltersByTag(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go", "databases")
	asker := testAsker()

	_, err := f.svc.CreateQuestion(context.Background(), asker,
		"Goroutine question", "long enough content here", []string{"go"})
	require.NoError(t, err)
	_, err = f.svc.CreateQuestion(context.Background(), asker,
		"Index question", "long enough content here", []string{"databases"})
	require.NoError(t, err)

	all, err := f.svc.ListQuestions(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := f.svc.ListQuestions(context.Background(), "databases")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Index question", filtered[0].Title)
}

func TestUpdateQuestion_ReplacesContentAndEmitsEvent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go", "concurrency")
	asker := testAsker()
	question := mustCreateQuestion(t, f, asker)

	updated, err := f.svc.UpdateQuestion(
		context.Background(),
		asker,
		question.ID,
		"How does the scheduler preempt goroutines?",
		"Clarified the question after reading the runtime source.",
		[]string{"go", "concurrency"},
	)
	require.NoError(t, err)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, []string{"go", "concurrency"}, updated.TagSlugs)

	enqueued := f.outbox.events()
	require.Len(t, enqueued, 2)
	assert.Equal(t, events.TypeQuestionUpdated, enqueued[1].Type)

	var payload events.QuestionUpdatedPayload
	require.NoError(t, enqueued[1].UnmarshalPayload(&payload))
	assert.Equal(t, updated.Title, payload.Title)
	assert.Equal(t, updated.TagSlugs, payload.TagSlugs)
}

func TestUpdateQuestion_NotAskerRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	question := mustCreateQuestion(t, f, testAsker())
	stranger := domain.Identity{ID: uuid.New(), DisplayName: "mallory"}

	_, err := f.svc.UpdateQuestion(
		context.Background(),
		stranger,
		question.ID,
		"Hijacked title",
		"long enough content here",
		[]string{"go"},
	)
	require.ErrorIs(t, err, domain.ErrNotOwner)

	// The stored question is untouched and no event was enqueued.
	stored, err := f.store.GetByID(context.Background(), question.ID)
	require.NoError(t, err)
	assert.Equal(t, question.Title, stored.Title)
	assert.Len(t, f.outbox.events(), 1)
}

func TestDeleteQuestion_RemovesAnswersWithIt(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	asker := testAsker()
	question := mustCreateQuestion(t, f, asker)

	answer, err := f.svc.PostAnswer(context.Background(),
		domain.Identity{ID: uuid.New(), DisplayName: "grace"},
		question.ID, "Use GOMAXPROCS and read the scheduler docs.")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteQuestion(context.Background(), asker, question.ID))

	_, err = f.svc.GetQuestion(context.Background(), question.ID)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	_, err = f.store.GetAnswerByID(context.Background(), answer.ID)
	assert.ErrorIs(t, err, store.ErrAnswerNotFound)

	enqueued := f.outbox.events()
	require.NotEmpty(t, enqueued)
	assert.Equal(t, events.TypeQuestionDeleted, enqueued[len(enqueued)-1].Type)
}

func TestDeleteQuestion_NotAskerRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	question := mustCreateQuestion(t, f, testAsker())
	stranger := domain.Identity{ID: uuid.New(), DisplayName: "mallory"}

	err := f.svc.DeleteQuestion(context.Background(), stranger, question.ID)
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestAnswerLifecycle_CountTracksPostsAndDeletes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	question := mustCreateQuestion(t, f, testAsker())
	responder := domain.Identity{ID: uuid.New(), DisplayName: "grace"}

	var answers []*domain.Answer
	for i := 0; i < 3; i++ {
		answer, err := f.svc.PostAnswer(context.Background(), responder,
			question.ID, "A sufficiently long answer to the question.")
		require.NoError(t, err)
		answers = append(answers, answer)
	}

	require.NoError(t, f.svc.DeleteAnswer(context.Background(), question.ID, answers[0].ID))
	require.NoError(t, f.svc.DeleteAnswer(context.Background(), question.ID, answers[1].ID))

	got, err := f.store.GetByID(context.Background(), question.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AnswerCount)
	assert.Len(t, got.Answers, 1)

	// Each post and delete emitted the running total.
	var counts []int
	for _, e := range f.outbox.events() {
		if e.Type != events.TypeAnswerCountUpdated {
			continue
		}
		var payload events.AnswerCountUpdatedPayload
		require.NoError(t, e.UnmarshalPayload(&payload))
		counts = append(counts, payload.AnswerCount)
	}
	assert.Equal(t, []int{1, 2, 3, 2, 1}, counts)
}

func TestPostAnswer_QuestionMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	responder := domain.Identity{ID: uuid.New(), DisplayName: "grace"}

	_, err := f.svc.PostAnswer(context.Background(), responder,
		uuid.New(), "A sufficiently long answer to the question.")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestUpdateAnswer_ReplacesContentOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	question := mustCreateQuestion(t, f, testAsker())
	responder := domain.Identity{ID: uuid.New(), DisplayName: "grace"}

	answer, err := f.svc.PostAnswer(context.Background(), responder,
		question.ID, "A sufficiently long answer to the question.")
	require.NoError(t, err)

	updated, err := f.svc.UpdateAnswer(context.Background(),
		question.ID, answer.ID, "A revised answer with more detail in it.")
	require.NoError(t, err)
	assert.Equal(t, answer.ResponderID, updated.ResponderID)
	require.NotNil(t, updated.UpdatedAt)
}

func TestUpdateAnswer_WrongQuestion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	question := mustCreateQuestion(t, f, testAsker())
	other := mustCreateQuestion(t, f, testAsker())
	responder := domain.Identity{ID: uuid.New(), DisplayName: "grace"}

	answer, err := f.svc.PostAnswer(context.Background(), responder,
		question.ID, "A sufficiently long answer to the question.")
	require.NoError(t, err)

	_, err = f.svc.UpdateAnswer(context.Background(),
		other.ID, answer.ID, "A revised answer with more detail in it.")
	assert.ErrorIs(t, err, domain.ErrAnswerMismatch)
}

func TestAcceptAnswer_FirstAcceptWins(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	asker := testAsker()
	question := mustCreateQuestion(t, f, asker)
	responder := domain.Identity{ID: uuid.New(), DisplayName: "grace"}

	first, err := f.svc.PostAnswer(context.Background(), responder,
		question.ID, "A sufficiently long answer to the question.")
	require.NoError(t, err)
	second, err := f.svc.PostAnswer(context.Background(), responder,
		question.ID, "Another sufficiently long answer to the question.")
	require.NoError(t, err)

	require.NoError(t, f.svc.AcceptAnswer(context.Background(), asker, question.ID, first.ID))

	got, err := f.store.GetByID(context.Background(), question.ID)
	require.NoError(t, err)
	assert.True(t, got.HasAcceptedAnswer)

	// Accepting the other answer afterwards must fail; acceptance is
	// permanent and exclusive.
	err = f.svc.AcceptAnswer(context.Background(), asker, question.ID, second.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyAccepted)

	enqueued := f.outbox.events()
	accepted := 0
	for _, e := range enqueued {
		if e.Type == events.TypeAnswerAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestAcceptAnswer_ConcurrentAcceptLosesWithConflict(t *testing.T) {
	t.Parallel()

	// The loaded snapshot looks acceptable but the conditional update
	// reports the question was decided in between.
	f := newFixture(t, "go")
	asker := testAsker()
	question := mustCreateQuestion(t, f, asker)
	responder := domain.Identity{ID: uuid.New(), DisplayName: "grace"}

	answer, err := f.svc.PostAnswer(context.Background(), responder,
		question.ID, "A sufficiently long answer to the question.")
	require.NoError(t, err)

	f.store.failAccept = store.ErrQuestionDecided
	err = f.svc.AcceptAnswer(context.Background(), asker, question.ID, answer.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyAccepted)
}

func TestAcceptAnswer_WrongQuestion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	question := mustCreateQuestion(t, f, testAsker())
	otherAsker := testAsker()
	other := mustCreateQuestion(t, f, otherAsker)
	responder := domain.Identity{ID: uuid.New(), DisplayName: "grace"}

	answer, err := f.svc.PostAnswer(context.Background(), responder,
		question.ID, "A sufficiently long answer to the question.")
	require.NoError(t, err)

	err = f.svc.AcceptAnswer(context.Background(), otherAsker, other.ID, answer.ID)
	assert.ErrorIs(t, err, domain.ErrAnswerMismatch)
}

func TestAcceptAnswer_NotAskerRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	question := mustCreateQuestion(t, f, testAsker())
	responder := domain.Identity{ID: uuid.New(), DisplayName: "grace"}

	answer, err := f.svc.PostAnswer(context.Background(), responder,
		question.ID, "A sufficiently long answer to the question.")
	require.NoError(t, err)

	// The responder liking their own answer is not enough.
	err = f.svc.AcceptAnswer(context.Background(), responder, question.ID, answer.ID)
	require.ErrorIs(t, err, domain.ErrNotOwner)

	got, err := f.store.GetByID(context.Background(), question.ID)
	require.NoError(t, err)
	assert.False(t, got.HasAcceptedAnswer)
}

func TestDeleteAnswer_AcceptedAnswerProtected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	asker := testAsker()
	question := mustCreateQuestion(t, f, asker)
	responder := domain.Identity{ID: uuid.New(), DisplayName: "grace"}

	answer, err := f.svc.PostAnswer(context.Background(), responder,
		question.ID, "A sufficiently long answer to the question.")
	require.NoError(t, err)
	require.NoError(t, f.svc.AcceptAnswer(context.Background(), asker, question.ID, answer.ID))

	err = f.svc.DeleteAnswer(context.Background(), question.ID, answer.ID)
	require.ErrorIs(t, err, domain.ErrAnswerAccepted)

	// The answer is still there and the counter did not move.
	got, err := f.store.GetByID(context.Background(), question.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AnswerCount)
	assert.Len(t, got.Answers, 1)
}

func TestDeleteAnswer_WrongQuestion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "go")
	question := mustCreateQuestion(t, f, testAsker())
	other := mustCreateQuestion(t, f, testAsker())
	responder := domain.Identity{ID: uuid.New(), DisplayName: "grace"}

	answer, err := f.svc.PostAnswer(context.Background(), responder,
		question.ID, "A sufficiently long answer to the question.")
	require.NoError(t, err)

	err = f.svc.DeleteAnswer(context.Background(), other.ID, answer.ID)
	assert.ErrorIs(t, err, domain.ErrAnswerMismatch)
}

func TestNewQuestionService_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewQuestionService(nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}
