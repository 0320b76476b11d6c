package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swyang-dev/opskb/internal/search"
)

type fakeSearcher struct {
	result *search.Result
	err    error
	query  string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (*search.Result, error) {
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(query) == "" {
		return nil, search.ErrEmptyQuery
	}
	return f.result, nil
}

func doSearch(t *testing.T, svc Searcher, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewSearchHandler(svc, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	return rec
}

func TestSearchReturnsResult(t *testing.T) {
	svc := &fakeSearcher{result: &search.Result{
		Found:   true,
		Answer:  "restart the consumer group",
		Sources: []search.Source{{Title: "kafka lag", Score: 12}},
	}}

	rec := doSearch(t, svc, `{"query":"kafka lag fix"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "kafka lag fix", svc.query)

	var result search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Found)
	assert.Equal(t, "restart the consumer group", result.Answer)
	require.Len(t, result.Sources, 1)
}

func TestSearchNoResults(t *testing.T) {
	svc := &fakeSearcher{result: &search.Result{Found: false, Keywords: []string{"quantum"}}}

	rec := doSearch(t, svc, `{"query":"quantum teleportation"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Found)
	assert.Empty(t, result.Answer)
}

func TestSearchEmptyQuery(t *testing.T) {
	rec := doSearch(t, &fakeSearcher{}, `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchInvalidBody(t *testing.T) {
	rec := doSearch(t, &fakeSearcher{}, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchServiceError(t *testing.T) {
	rec := doSearch(t, &fakeSearcher{err: errors.New("notion unavailable")}, `{"query":"redis"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "search failed")
}

func TestHealthz(t *testing.T) {
	h := NewSearchHandler(&fakeSearcher{}, nil, nil)
	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
