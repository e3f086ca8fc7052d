package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detail-library/internal/app"
	"detail-library/internal/model"
	"detail-library/internal/platform/rabbitmq"
	"detail-library/internal/repository"
	"detail-library/internal/transport/http/response"
)

type stubStore struct {
	details []model.Detail
}

func (s *stubStore) ListAll(context.Context) ([]model.Detail, error) { return s.details, nil }

func (s *stubStore) FindByID(_ context.Context, id uint) (*model.Detail, error) {
	for _, d := range s.details {
		if d.ID == id {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

func (s *stubStore) SearchText(context.Context, string) ([]model.Detail, error) { return s.details, nil }

func (s *stubStore) FindByRule(context.Context, string, string, string) (*model.Detail, error) {
	return nil, nil
}

func (s *stubStore) CreateWithRules(context.Context, *model.Detail, []model.DetailUsageRule) (bool, error) {
	return false, nil
}

func (s *stubStore) SearchBySimilarity(context.Context, []float32, int) ([]model.ScoredDetail, error) {
	var out []model.ScoredDetail
	for _, d := range s.details {
		out = append(out, model.ScoredDetail{Detail: d, Similarity: 0.5})
	}
	return out, nil
}

func (s *stubStore) WithinTransaction(ctx context.Context, fn func(tx repository.EmbeddingTx) error) error {
	return fn(s)
}

func (s *stubStore) ListUnembedded(context.Context) ([]model.Detail, error) {
	var out []model.Detail
	for _, d := range s.details {
		if !d.HasEmbedding() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateEmbedding(_ context.Context, id uint, vec []float32) (bool, error) {
	for i := range s.details {
		if s.details[i].ID == id {
			v := pgvector.NewVector(vec)
			s.details[i].Embedding = &v
			return true, nil
		}
	}
	return false, nil
}

type fixedEmbedder struct{ err error }

func (e fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, e.err
}

type lengthReranker struct{}

func (lengthReranker) Score(_ context.Context, _ string, candidate string) (float32, error) {
	return float32(len(candidate)), nil
}

type recordingEnqueuer struct {
	jobs []rabbitmq.BackfillJob
	err  error
}

func (e *recordingEnqueuer) Publish(_ context.Context, job rabbitmq.BackfillJob) error {
	e.jobs = append(e.jobs, job)
	return e.err
}

func newStore() *stubStore {
	return &stubStore{details: []model.Detail{
		{ID: 1, Title: "Short", Category: "A", Description: "x"},
		{ID: 2, Title: "Much Longer Title", Category: "B", Description: "longer description"},
	}}
}

func doJSON(t *testing.T, h gin.HandlerFunc, method, path string, body interface{}) (*httptest.ResponseRecorder, response.APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Handle(method, "/test/*rest", h)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/test"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

var wallSlabRequest = SuggestDetailRequest{HostElement: "External Wall", AdjacentElement: "Slab", Exposure: "External"}

func TestSuggestHandler_OK(t *testing.T) {
	store := newStore()
	svc := app.NewSuggestService(fixedEmbedder{}, app.NewRetriever(store, 3), lengthReranker{}, nil, app.DefaultSuggestOptions(), nil)

	w, resp := doJSON(t, NewSuggestHandler(svc).Suggest, http.MethodPost, "/", wallSlabRequest)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeOK, resp.Code)

	data := resp.Data.(map[string]interface{})
	suggestions := data["suggestions"].([]interface{})
	require.Len(t, suggestions, 2)
	first := suggestions[0].(map[string]interface{})
	assert.Equal(t, "Much Longer Title", first["title"])
	assert.EqualValues(t, 1, first["rank"])
	assert.Contains(t, data["summary"], "Found 2 relevant details")
}

func TestSuggestHandler_Unavailable(t *testing.T) {
	svc := app.NewSuggestService(nil, app.NewRetriever(newStore(), 3), nil, nil, app.DefaultSuggestOptions(), nil)

	w, resp := doJSON(t, NewSuggestHandler(svc).Suggest, http.MethodPost, "/", wallSlabRequest)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, response.CodeServiceUnavailable, resp.Code)
}

func TestSuggestHandler_BadPayload(t *testing.T) {
	svc := app.NewSuggestService(fixedEmbedder{}, app.NewRetriever(newStore(), 3), lengthReranker{}, nil, app.DefaultSuggestOptions(), nil)

	w, resp := doJSON(t, NewSuggestHandler(svc).Suggest, http.MethodPost, "/", map[string]string{"host_element": "Wall"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeBadRequest, resp.Code)
}

func TestSuggestHandler_ProviderFailure(t *testing.T) {
	svc := app.NewSuggestService(fixedEmbedder{err: errors.New("down")}, app.NewRetriever(newStore(), 3), lengthReranker{}, nil, app.DefaultSuggestOptions(), nil)

	w, resp := doJSON(t, NewSuggestHandler(svc).Suggest, http.MethodPost, "/", wallSlabRequest)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, response.CodeInternalServer, resp.Code)
}

func TestDetailHandler_GetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/details/:id", NewDetailHandler(app.NewDetailService(newStore())).Get)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/details/42", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/details/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/details/2", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDetailHandler_SearchRequiresQuery(t *testing.T) {
	w, resp := doJSON(t, NewDetailHandler(app.NewDetailService(newStore())).Search, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeBadRequest, resp.Code)
}

func TestDetailHandler_RuleMiss(t *testing.T) {
	w, resp := doJSON(t, NewDetailHandler(app.NewDetailService(newStore())).SuggestByRule, http.MethodPost, "/", wallSlabRequest)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Nil(t, data["detail"])
	assert.Contains(t, data["explanation"], "No matching detail found")
}

func TestAdminHandler_Backfill(t *testing.T) {
	store := newStore()
	svc := app.NewBackfillService(store, fixedEmbedder{}, 3, nil)

	w, resp := doJSON(t, NewAdminHandler(svc, nil).Backfill, http.MethodPost, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, resp.Data.(map[string]interface{})["updated"])
}

func TestAdminHandler_BackfillWithoutEmbedder(t *testing.T) {
	svc := app.NewBackfillService(newStore(), nil, 3, nil)

	w, _ := doJSON(t, NewAdminHandler(svc, nil).Backfill, http.MethodPost, "/", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminHandler_BackfillAsync(t *testing.T) {
	svc := app.NewBackfillService(newStore(), fixedEmbedder{}, 3, nil)

	w, _ := doJSON(t, NewAdminHandler(svc, nil).BackfillAsync, http.MethodPost, "/", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	enqueuer := &recordingEnqueuer{}
	w, _ = doJSON(t, NewAdminHandler(svc, enqueuer).BackfillAsync, http.MethodPost, "/", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, enqueuer.jobs, 1)

	w, _ = doJSON(t, NewAdminHandler(svc, &recordingEnqueuer{err: errors.New("closed")}).BackfillAsync, http.MethodPost, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
