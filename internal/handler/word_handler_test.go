package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/middleware"
	"github.com/lexiflow/lexiflow/internal/model"
	"github.com/lexiflow/lexiflow/internal/word"
)

// --- モック定義 ---

type mockWordService struct {
	listWordsFn  func(ctx context.Context, userID uuid.UUID) ([]*model.Word, error)
	getWordFn    func(ctx context.Context, userID, id uuid.UUID) (*model.Word, error)
	createWordFn func(ctx context.Context, userID uuid.UUID, input word.CreateWordInput) (*model.Word, error)
	updateWordFn func(ctx context.Context, userID, id uuid.UUID, patch *model.WordPatch) (*model.Word, error)
	deleteWordFn func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockWordService) ListWords(ctx context.Context, userID uuid.UUID) ([]*model.Word, error) {
	return m.listWordsFn(ctx, userID)
}

func (m *mockWordService) GetWord(ctx context.Context, userID, id uuid.UUID) (*model.Word, error) {
	return m.getWordFn(ctx, userID, id)
}

func (m *mockWordService) CreateWord(ctx context.Context, userID uuid.UUID, input word.CreateWordInput) (*model.Word, error) {
	return m.createWordFn(ctx, userID, input)
}

func (m *mockWordService) UpdateWord(ctx context.Context, userID, id uuid.UUID, patch *model.WordPatch) (*model.Word, error) {
	return m.updateWordFn(ctx, userID, id, patch)
}

func (m *mockWordService) DeleteWord(ctx context.Context, userID, id uuid.UUID) error {
	return m.deleteWordFn(ctx, userID, id)
}

var _ WordServiceInterface = (*mockWordService)(nil)

// newAuthedRequest は認証済みコンテキスト付きのテストリクエストを組み立てる。
func newAuthedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

// withIDParam はchiのURLパラメータ{id}を設定する。
func withIDParam(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// --- テスト ---

func TestListWords_Success(t *testing.T) {
	userID := uuid.New()
	svc := &mockWordService{
		listWordsFn: func(ctx context.Context, gotID uuid.UUID) ([]*model.Word, error) {
			if gotID != userID {
				t.Errorf("userID = %v, want %v", gotID, userID)
			}
			return []*model.Word{
				{ID: uuid.New(), UserID: userID, Word: "ephemeral", Meaning: "short-lived", PartOfSpeech: []string{"adjective"}},
			}, nil
		},
	}
	h := NewWordHandler(svc)

	req := newAuthedRequest(http.MethodGet, "/api/words", "", userID)
	w := httptest.NewRecorder()

	h.ListWords(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []wordResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Word != "ephemeral" {
		t.Errorf("response = %+v", resp)
	}
}

func TestCreateWord_Returns201(t *testing.T) {
	userID := uuid.New()
	svc := &mockWordService{
		createWordFn: func(ctx context.Context, gotID uuid.UUID, input word.CreateWordInput) (*model.Word, error) {
			if input.Word != "ephemeral" || input.Meaning != "short-lived" {
				t.Errorf("input = %+v", input)
			}
			return &model.Word{ID: uuid.New(), UserID: gotID, Word: input.Word, Meaning: input.Meaning}, nil
		},
	}
	h := NewWordHandler(svc)

	req := newAuthedRequest(http.MethodPost, "/api/words",
		`{"word":"ephemeral","meaning":"short-lived"}`, userID)
	w := httptest.NewRecorder()

	h.CreateWord(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestCreateWord_ValidationError(t *testing.T) {
	svc := &mockWordService{
		createWordFn: func(ctx context.Context, userID uuid.UUID, input word.CreateWordInput) (*model.Word, error) {
			return nil, model.NewValidationError("word は必須です")
		},
	}
	h := NewWordHandler(svc)

	req := newAuthedRequest(http.MethodPost, "/api/words", `{"meaning":"short-lived"}`, uuid.New())
	w := httptest.NewRecorder()

	h.CreateWord(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body := decodeErrorResponse(t, w); body.Code != model.ErrCodeValidationFailed {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeValidationFailed)
	}
}

func TestGetWord_NotFound(t *testing.T) {
	wordID := uuid.New()
	svc := &mockWordService{
		getWordFn: func(ctx context.Context, userID, id uuid.UUID) (*model.Word, error) {
			return nil, model.NewWordNotFoundError(id.String())
		},
	}
	h := NewWordHandler(svc)

	req := withIDParam(newAuthedRequest(http.MethodGet, "/api/words/"+wordID.String(), "", uuid.New()), wordID.String())
	w := httptest.NewRecorder()

	h.GetWord(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetWord_InvalidID(t *testing.T) {
	h := NewWordHandler(&mockWordService{})

	req := withIDParam(newAuthedRequest(http.MethodGet, "/api/words/not-a-uuid", "", uuid.New()), "not-a-uuid")
	w := httptest.NewRecorder()

	h.GetWord(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUpdateWord_PartialBody(t *testing.T) {
	wordID := uuid.New()
	svc := &mockWordService{
		updateWordFn: func(ctx context.Context, userID, id uuid.UUID, patch *model.WordPatch) (*model.Word, error) {
			if patch.Meaning == nil || *patch.Meaning != "updated" {
				t.Errorf("patch.Meaning = %v, want pointer to updated", patch.Meaning)
			}
			if patch.Word != nil {
				t.Error("patch.Word should remain nil for absent field")
			}
			return &model.Word{ID: id, UserID: userID, Word: "word", Meaning: "updated"}, nil
		},
	}
	h := NewWordHandler(svc)

	req := withIDParam(newAuthedRequest(http.MethodPut, "/api/words/"+wordID.String(),
		`{"meaning":"updated"}`, uuid.New()), wordID.String())
	w := httptest.NewRecorder()

	h.UpdateWord(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestDeleteWord_Returns204(t *testing.T) {
	wordID := uuid.New()
	svc := &mockWordService{
		deleteWordFn: func(ctx context.Context, userID, id uuid.UUID) error {
			return nil
		},
	}
	h := NewWordHandler(svc)

	req := withIDParam(newAuthedRequest(http.MethodDelete, "/api/words/"+wordID.String(), "", uuid.New()), wordID.String())
	w := httptest.NewRecorder()

	h.DeleteWord(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestListWords_Unauthenticated(t *testing.T) {
	h := NewWordHandler(&mockWordService{})

	req := httptest.NewRequest(http.MethodGet, "/api/words", nil)
	w := httptest.NewRecorder()

	h.ListWords(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
