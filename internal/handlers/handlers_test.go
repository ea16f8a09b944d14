package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/huddleapp/huddle/internal/api"
	"github.com/huddleapp/huddle/internal/data/objectstore"
	"github.com/huddleapp/huddle/internal/data/store"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
	"github.com/huddleapp/huddle/internal/job"
	"github.com/huddleapp/huddle/internal/rag/ingest"
	"github.com/huddleapp/huddle/internal/rag/retrieve"
)

type stubRagService struct {
	answer    ragModel.Answer
	answerErr error
}

func (s *stubRagService) ProcessChatJob(_ context.Context, j jobModel.Job, _ []chatModel.ConversationMessage) jobModel.Job {
	return j
}

func (s *stubRagService) ProcessIngestJob(_ context.Context, j jobModel.Job) jobModel.Job {
	return j
}

func (s *stubRagService) AnswerPersonal(_ context.Context, _ string, _ string, _ []chatModel.ConversationMessage) (ragModel.Answer, error) {
	return s.answer, s.answerErr
}

func (s *stubRagService) RawRetrieve(_ context.Context, _ string, _ retrieve.Options) ([]ragModel.RetrievalResult, error) {
	return nil, nil
}

func (s *stubRagService) Sweep(_ context.Context, kind ingest.SweepKind, _ int) ingest.SweepReport {
	return ingest.SweepReport{Kind: kind}
}

func (s *stubRagService) ResetIndex(_ context.Context) error {
	return nil
}

type testEnv struct {
	handler  *Handler
	router   *chi.Mux
	jobStore *store.InMemoryJobStore
	chats    *store.InMemoryChatStore
	rag      *stubRagService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	jobStore := store.NewInMemoryJobStore()
	chats := store.NewInMemoryChatStore()
	docs := store.NewInMemoryDocumentStore()
	objects, err := objectstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}

	ragService := &stubRagService{answer: ragModel.Answer{Content: "the deploy is at 5pm"}}
	h := New(job.InitJobService(jobStore), jobStore, chats, docs, objects, ragService)

	r := chi.NewRouter()
	r.Post("/channels", h.CreateChannelHandler)
	r.Post("/channels/{channelId}/messages", h.PostMessageHandler)
	r.Post("/channels/{channelId}/chat", h.ChannelChatHandler)
	r.Post("/docs/chat", h.DocsChatHandler)
	r.Post("/ingest", h.PostIngestHandler)
	r.Get("/status/{id}", h.GetStatusHandler)

	return &testEnv{handler: h, router: r, jobStore: jobStore, chats: chats, rag: ragService}
}

func (env *testEnv) postJSON(t *testing.T, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createChannel(t *testing.T, name string) string {
	t.Helper()
	rec := env.postJSON(t, "/channels", `{"name":"`+name+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create channel: got %d", rec.Code)
	}
	var resp api.ChannelResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding channel response: %v", err)
	}
	return resp.Id
}

func TestPostMessage(t *testing.T) {
	env := newTestEnv(t)
	channelID := env.createChannel(t, "engineering")

	t.Run("unknown channel returns 404", func(t *testing.T) {
		rec := env.postJSON(t, "/channels/nope/messages", `{"sender_id":"u1","body":"hi"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("got %d, want 404", rec.Code)
		}
	})

	t.Run("missing body returns 400", func(t *testing.T) {
		rec := env.postJSON(t, "/channels/"+channelID+"/messages", `{"sender_id":"u1"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("got %d, want 400", rec.Code)
		}
	})

	t.Run("accepted message enqueues an ingest job", func(t *testing.T) {
		rec := env.postJSON(t, "/channels/"+channelID+"/messages", `{"sender_id":"u1","body":"deploy at 5pm"}`)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("got %d, want 202", rec.Code)
		}

		var resp api.MessageResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}

		queued, found := env.jobStore.GetJob(context.Background(), resp.JobId)
		if !found {
			t.Fatal("job was not saved")
		}
		if queued.JobType != jobModel.JobTypeIngestMessage {
			t.Errorf("job type = %s, want %s", queued.JobType, jobModel.JobTypeIngestMessage)
		}
		if queued.Status != jobModel.JobStatusQueued {
			t.Errorf("job status = %s, want %s", queued.Status, jobModel.JobStatusQueued)
		}
		if queued.JobPayload.MessageID != resp.Id {
			t.Errorf("payload message id = %s, want %s", queued.JobPayload.MessageID, resp.Id)
		}
	})
}

func TestChannelChat(t *testing.T) {
	env := newTestEnv(t)
	channelID := env.createChannel(t, "sales")

	t.Run("starts a job and mints a chat id", func(t *testing.T) {
		rec := env.postJSON(t, "/channels/"+channelID+"/chat", `{"message":"when is the deploy?"}`)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("got %d, want 202", rec.Code)
		}

		var resp api.InitJobResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}

		queued, found := env.jobStore.GetJob(context.Background(), resp.Id)
		if !found {
			t.Fatal("job was not saved")
		}
		if queued.JobType != jobModel.JobTypeChat {
			t.Errorf("job type = %s, want %s", queued.JobType, jobModel.JobTypeChat)
		}
		if queued.JobPayload.ChannelID != channelID {
			t.Errorf("payload channel = %s, want %s", queued.JobPayload.ChannelID, channelID)
		}
		if queued.ChatId == "" {
			t.Error("chat id was not minted")
		}
		if !env.chats.HasConversation(context.Background(), queued.ChatId) {
			t.Error("conversation was not initialized")
		}
	})

	t.Run("rejects an unknown chat id", func(t *testing.T) {
		rec := env.postJSON(t, "/channels/"+channelID+"/chat", `{"message":"follow up","chatID":"never-seen"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("got %d, want 400", rec.Code)
		}
	})
}

func TestDocsChat(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/docs/chat", `{"user_id":"u1","message":"what does my contract say?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}

	var resp api.DocsChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Answer != "the deploy is at 5pm" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.ChatId == "" {
		t.Fatal("chat id missing")
	}

	turns, err := env.chats.GetConversation(context.Background(), resp.ChatId, 0)
	if err != nil {
		t.Fatalf("loading conversation: %v", err)
	}
	if len(turns) != 2 || turns[0].Role != chatModel.RoleUser || turns[1].Role != chatModel.RoleAssistant {
		t.Fatalf("conversation turns = %+v", turns)
	}
}

func TestPostIngest_ScopeValidation(t *testing.T) {
	env := newTestEnv(t)
	channelID := env.createChannel(t, "legal")

	cases := []struct {
		name     string
		fields   map[string]string
		wantCode int
	}{
		{"both scopes rejected", map[string]string{"owner_id": "u1", "channel_id": channelID}, http.StatusBadRequest},
		{"no scope rejected", map[string]string{}, http.StatusBadRequest},
		{"unknown channel rejected", map[string]string{"channel_id": "nope"}, http.StatusNotFound},
		{"personal scope accepted", map[string]string{"owner_id": "u1"}, http.StatusAccepted},
		{"channel scope accepted", map[string]string{"channel_id": channelID, "sender_id": "u1"}, http.StatusAccepted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			form := multipart.NewWriter(&buf)
			for k, v := range tc.fields {
				form.WriteField(k, v)
			}
			part, err := form.CreateFormFile("document", "contract.txt")
			if err != nil {
				t.Fatalf("creating form file: %v", err)
			}
			part.Write([]byte("the notice period is 30 days"))
			form.Close()

			req := httptest.NewRequest(http.MethodPost, "/ingest", &buf)
			req.Header.Set("Content-Type", form.FormDataContentType())
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("got %d, want %d: %s", rec.Code, tc.wantCode, rec.Body.String())
			}
		})
	}
}

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unknown job returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/status/missing", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("got %d, want 404", rec.Code)
		}
	})

	t.Run("saved job is returned", func(t *testing.T) {
		saved := jobModel.Job{Id: "j1", Status: jobModel.JobStatusComplete, JobPayload: jobModel.JobPayload{Answer: "done"}}
		if err := env.jobStore.SaveJob(context.Background(), saved); err != nil {
			t.Fatalf("saving job: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/status/j1", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("got %d, want 200", rec.Code)
		}

		var resp api.JobResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Id != "j1" || resp.Result.Status != string(jobModel.JobStatusComplete) {
			t.Fatalf("response = %+v", resp)
		}
	})
}
