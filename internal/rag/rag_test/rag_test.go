package rag_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/data/objectstore"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/internal/rag"
	"github.com/huddleapp/huddle/internal/rag/ingest"
	"github.com/huddleapp/huddle/internal/rag/retrieve"
	"github.com/huddleapp/huddle/internal/rag/vectorDB/memoryDB"
)

func newTestService(t *testing.T, embedder *MockEmbedder, index *MockIndex, provider *MockLLM) (rag.Service, *fakeMessages, *fakeDocuments) {
	t.Helper()
	messages := newFakeMessages()
	docs := newFakeDocuments()
	objects, err := objectstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	retriever := retrieve.NewService(embedder, index)
	pipeline := ingest.NewPipeline(embedder, index, messages, docs, objects)
	return rag.NewService(embedder, index, provider, retriever, pipeline), messages, docs
}

func docHit(score float32, text string) ragModel.Hit {
	return ragModel.Hit{
		ID:    "hit",
		Score: score,
		Meta: ragModel.PDFChunkMeta{
			DocumentID: "d1",
			OwnerID:    "u1",
			Filename:   "handbook.pdf",
			PageNumber: 3,
			Text:       text,
		},
	}
}

func TestProcessChatJob_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, idx *MockIndex, l *MockLLM)
		expectedStatus jobModel.JobStatus
		expectedAnswer string
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				idx.OnQuery = func(_ context.Context, _ string, _ []float32, _ ragModel.Filter, _ int) ([]ragModel.Hit, error) {
					return []ragModel.Hit{{ID: "h1", Score: 0.9, Meta: ragModel.MessageMeta{ChannelID: "eng", Text: "deploy friday"}}}, nil
				}
				l.OnComplete = func(context.Context, []chatModel.ConversationMessage) (string, error) {
					return "final answer", nil
				}
			},
			expectedStatus: jobModel.JobStatusComplete,
			expectedAnswer: "final answer",
		},
		{
			name: "Success_Cache_Hit",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				idx.OnGetCachedAnswer = func(context.Context, string, []float32) (string, bool, error) {
					return "cached answer", true, nil
				}
				l.OnComplete = func(context.Context, []chatModel.ConversationMessage) (string, error) {
					t.Fatal("cache hit must not reach the completion provider")
					return "", nil
				}
			},
			expectedStatus: jobModel.JobStatusComplete,
			expectedAnswer: "cached answer",
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				e.OnEmbedQuery = func(context.Context, string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Failure_Vector_Search",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				idx.OnQuery = func(context.Context, string, []float32, ragModel.Filter, int) ([]ragModel.Hit, error) {
					return nil, errors.New("db timeout")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Failure_Generation",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				l.OnComplete = func(context.Context, []chatModel.ConversationMessage) (string, error) {
					return "", ragModel.ErrEmptyCompletion
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mIndex := &MockIndex{}
			mLLM := &MockLLM{}
			tt.setupMocks(mEmbed, mIndex, mLLM)

			s, _, _ := newTestService(t, mEmbed, mIndex, mLLM)

			job := jobModel.Job{
				Id:      "job-1",
				TraceId: "trace-1",
				JobType: jobModel.JobTypeChat,
				JobPayload: jobModel.JobPayload{
					Question:  "when is the deploy?",
					ChannelID: "eng",
				},
			}

			result := s.ProcessChatJob(context.Background(), job, nil)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %q, want %q", result.JobPayload.Answer, tt.expectedAnswer)
			}
			if tt.expectedStatus == jobModel.JobStatusError && result.Error.Code != http.StatusInternalServerError {
				t.Errorf("Error code got %d, want %d", result.Error.Code, http.StatusInternalServerError)
			}
		})
	}
}

func TestProcessChatJob_EmbedsQueryOnce(t *testing.T) {
	mEmbed := &MockEmbedder{}
	s, _, _ := newTestService(t, mEmbed, &MockIndex{}, &MockLLM{})

	job := jobModel.Job{
		Id:         "job-1",
		JobType:    jobModel.JobTypeChat,
		JobPayload: jobModel.JobPayload{Question: "q", ChannelID: "eng"},
	}
	result := s.ProcessChatJob(context.Background(), job, nil)
	if result.Status != jobModel.JobStatusComplete {
		t.Fatalf("unexpected status %v", result.Status)
	}
	if mEmbed.QueryCalls != 1 {
		t.Fatalf("query embedded %d times, want 1", mEmbed.QueryCalls)
	}
}

func TestProcessChatJob_HistoryPrecedesQuestion(t *testing.T) {
	mLLM := &MockLLM{}
	s, _, _ := newTestService(t, &MockEmbedder{}, &MockIndex{}, mLLM)

	history := []chatModel.ConversationMessage{
		{Role: chatModel.RoleUser, Content: "earlier question"},
		{Role: chatModel.RoleAssistant, Content: "earlier answer"},
	}
	job := jobModel.Job{
		Id:         "job-1",
		JobType:    jobModel.JobTypeChat,
		JobPayload: jobModel.JobPayload{Question: "follow-up", ChannelID: "eng"},
	}
	if result := s.ProcessChatJob(context.Background(), job, history); result.Status != jobModel.JobStatusComplete {
		t.Fatalf("unexpected status %v", result.Status)
	}

	got := mLLM.LastInput
	if len(got) != 4 {
		t.Fatalf("expected system + 2 history + question, got %d messages", len(got))
	}
	if got[0].Role != chatModel.RoleSystem {
		t.Fatalf("first message should be the system prompt, got role %q", got[0].Role)
	}
	if got[1].Content != "earlier question" || got[2].Content != "earlier answer" {
		t.Fatal("history order not preserved")
	}
	if got[3].Content != "follow-up" {
		t.Fatalf("question must come last, got %q", got[3].Content)
	}
}

func TestAnswerPersonal_ScopesToOwner(t *testing.T) {
	var seenFilter ragModel.Filter
	mIndex := &MockIndex{
		OnQuery: func(_ context.Context, _ string, _ []float32, filter ragModel.Filter, _ int) ([]ragModel.Hit, error) {
			seenFilter = filter
			return []ragModel.Hit{docHit(0.9, "vacation policy text")}, nil
		},
	}
	s, _, _ := newTestService(t, &MockEmbedder{}, mIndex, &MockLLM{})

	answer, err := s.AnswerPersonal(context.Background(), "u1", "vacation policy?", nil)
	if err != nil {
		t.Fatalf("AnswerPersonal: %v", err)
	}
	if seenFilter.OwnerID != "u1" || seenFilter.Type != ragModel.TypePDFChunk {
		t.Fatalf("wrong retrieval filter: %+v", seenFilter)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].Filename != "handbook.pdf" || answer.Sources[0].PageNumber != 3 {
		t.Fatalf("unexpected sources: %+v", answer.Sources)
	}
	if len(answer.UsedContext) != 1 {
		t.Fatalf("expected the passage in the prompt context, got %d", len(answer.UsedContext))
	}
}

func TestAnswerPersonal_SourcesSurviveTruncation(t *testing.T) {
	// A passage far beyond the token budget is dropped from the prompt but
	// must still be cited.
	huge := strings.Repeat("a", 140_000)
	mIndex := &MockIndex{
		OnQuery: func(context.Context, string, []float32, ragModel.Filter, int) ([]ragModel.Hit, error) {
			return []ragModel.Hit{docHit(0.95, huge)}, nil
		},
	}
	s, _, _ := newTestService(t, &MockEmbedder{}, mIndex, &MockLLM{})

	answer, err := s.AnswerPersonal(context.Background(), "u1", "q", nil)
	if err != nil {
		t.Fatalf("AnswerPersonal: %v", err)
	}
	if len(answer.UsedContext) != 0 {
		t.Fatalf("oversized passage should have been budgeted out, got %d kept", len(answer.UsedContext))
	}
	if len(answer.Sources) != 1 || answer.Sources[0].DocumentID != "d1" {
		t.Fatalf("sources must be independent of truncation: %+v", answer.Sources)
	}
}

func TestAnswerCache_ScopedPerUser(t *testing.T) {
	// A cached answer derived from one user's personal documents must never
	// satisfy a similar question from another user.
	index := memoryDB.NewStore(config.CacheSimilarityCutoff)
	embedder := &MockEmbedder{}

	answers := []string{"your notice period is 30 days", "no contract on file for you"}
	calls := 0
	mLLM := &MockLLM{
		OnComplete: func(context.Context, []chatModel.ConversationMessage) (string, error) {
			answer := answers[calls]
			calls++
			return answer, nil
		},
	}

	objects, err := objectstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	retriever := retrieve.NewService(embedder, index)
	pipeline := ingest.NewPipeline(embedder, index, newFakeMessages(), newFakeDocuments(), objects)
	s := rag.NewService(embedder, index, mLLM, retriever, pipeline)

	ctx := context.Background()
	question := "what is my notice period?"

	first, err := s.AnswerPersonal(ctx, "u1", question, nil)
	if err != nil {
		t.Fatalf("AnswerPersonal u1: %v", err)
	}
	waitForCachedAnswer(t, index, "owner:u1")

	second, err := s.AnswerPersonal(ctx, "u2", question, nil)
	if err != nil {
		t.Fatalf("AnswerPersonal u2: %v", err)
	}
	if second.Content == first.Content {
		t.Fatalf("u2 received u1's cached answer: %q", second.Content)
	}
	if calls != 2 {
		t.Fatalf("u2's question must miss the cache, got %d completions", calls)
	}

	// The cache still works within the scope that wrote it.
	repeat, err := s.AnswerPersonal(ctx, "u1", question, nil)
	if err != nil {
		t.Fatalf("AnswerPersonal u1 repeat: %v", err)
	}
	if repeat.Content != first.Content || calls != 2 {
		t.Fatalf("same-user repeat should be served from the cache, got %q after %d completions", repeat.Content, calls)
	}
}

// waitForCachedAnswer blocks until the background cache write for the given
// scope lands.
func waitForCachedAnswer(t *testing.T, index *memoryDB.Store, scope string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, found, _ := index.GetCachedAnswer(context.Background(), scope, []float32{0.1, 0.2, 0.3}); found {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("cached answer never appeared")
}

func TestProcessIngestJob_Message(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, idx *MockIndex)
		expectedStatus jobModel.JobStatus
		wantFlag       bool
	}{
		{
			name:           "Ingestion_Success",
			setupMocks:     func(*MockEmbedder, *MockIndex) {},
			expectedStatus: jobModel.JobStatusComplete,
			wantFlag:       true,
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, _ *MockIndex) {
				e.OnEmbedBatch = func(context.Context, []string) ([][]float32, error) {
					return nil, errors.New("provider down")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Failure_Upsert",
			setupMocks: func(_ *MockEmbedder, idx *MockIndex) {
				idx.OnUpsert = func(context.Context, string, []ragModel.Record) error {
					return errors.New("disk full")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mIndex := &MockIndex{}
			tt.setupMocks(mEmbed, mIndex)

			s, messages, _ := newTestService(t, mEmbed, mIndex, &MockLLM{})
			ctx := context.Background()
			_ = messages.SaveChannel(ctx, chatModel.Channel{ID: "eng"})
			_ = messages.SaveMessage(ctx, chatModel.Message{ID: "m1", ChannelID: "eng", Body: "standup moved to 10am"})

			job := jobModel.Job{
				Id:         "ingest-1",
				JobType:    jobModel.JobTypeIngestMessage,
				JobPayload: jobModel.JobPayload{MessageID: "m1"},
			}
			result := s.ProcessIngestJob(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			m, _ := messages.GetMessage(ctx, "m1")
			if m.HasEmbedding != tt.wantFlag {
				t.Errorf("HasEmbedding got %v, want %v", m.HasEmbedding, tt.wantFlag)
			}
		})
	}
}
