package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appcfg "github.com/councildigest/core/internal/config"
	"github.com/councildigest/core/internal/models"
	"github.com/councildigest/core/internal/pkg/pagination"
	"github.com/councildigest/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLister records the filter and query the handler passed through.
type fakeLister struct {
	rows     []models.SummaryModel
	total    int64
	gotKind  string
	gotStyle string
	gotQuery pagination.Query
}

func (f *fakeLister) List(_ context.Context, kind, style string, q pagination.Query) ([]models.SummaryModel, response.Pagination, error) {
	f.gotKind, f.gotStyle, f.gotQuery = kind, style, q
	totalPage := int((f.total + int64(q.Size) - 1) / int64(q.Size))
	return f.rows, response.Pagination{
		Total:       f.total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}, nil
}

func testRouter(t *testing.T) (*gin.Engine, *Service, *memPersistent, *fakeLister) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gen := &fakeGenerator{}
	volatile := newMemVolatile()
	persistent := newMemPersistent()
	cfg := appcfg.SummaryConfig{
		VolatileTTL:       time.Hour,
		ClaimTTL:          time.Second,
		GenerationTimeout: time.Second,
		WaitPollInterval:  10 * time.Millisecond,
	}
	svc := NewService(volatile, persistent, gen, cfg, zap.NewNop())
	lister := &fakeLister{}

	router := gin.New()
	api := router.Group("/api/v1")
	NewHandler(svc, nil, lister, zap.NewNop()).Register(api)
	return router, svc, persistent, lister
}

func seedSummary(t *testing.T, svc *Service, parent ParentRef) Fingerprint {
	t.Helper()
	req := GenerationRequest{
		Parent:   parent,
		Title:    "CB 100: An ordinance",
		Subtype:  SubtypePlainItem,
		FullText: "ordinance text",
	}
	_, err := svc.Summarize(context.Background(), req, StyleConcise)
	require.NoError(t, err)
	return svc.FingerprintFor(req, StyleConcise)
}

func TestHandlerGetSummary(t *testing.T) {
	router, svc, _, _ := testRouter(t)
	parent := ParentRef{Kind: KindLegislation, ID: "leg-100"}
	seedSummary(t, svc, parent)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/summaries/legislation/leg-100?style=concise", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var artifact SummaryArtifact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artifact))
	assert.NotEmpty(t, artifact.Body)
	assert.Equal(t, StyleConcise, artifact.Style)
}

func TestHandlerGetSummaryNotFound(t *testing.T) {
	router, _, _, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/summaries/legislation/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerGetSummaryBadKind(t *testing.T) {
	router, _, _, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/summaries/podcast/x", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerGetSummaryBadStyle(t *testing.T) {
	router, _, _, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/summaries/legislation/leg-100?style=florid", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "concise")
}

func TestHandlerListSummaries(t *testing.T) {
	router, _, _, lister := testRouter(t)
	lister.total = 12
	lister.rows = []models.SummaryModel{
		{ParentKind: "legislation", ParentID: "leg-1", Style: "concise", Headline: "First", Body: "b1"},
		{ParentKind: "legislation", ParentID: "leg-2", Style: "concise", Headline: "Second", Body: "b2"},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/summaries?kind=legislation&style=concise&page=2&size=5", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// Query params flow through unchanged.
	assert.Equal(t, "legislation", lister.gotKind)
	assert.Equal(t, "concise", lister.gotStyle)
	assert.Equal(t, pagination.Query{Page: 2, Size: 5}, lister.gotQuery)

	var envelope struct {
		Data       []models.SummaryModel `json:"data"`
		Pagination response.Pagination   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "First", envelope.Data[0].Headline)
	assert.Equal(t, int64(12), envelope.Pagination.Total)
	assert.Equal(t, 2, envelope.Pagination.CurrentPage)
	assert.Equal(t, 3, envelope.Pagination.TotalPage)
	assert.Equal(t, 5, envelope.Pagination.Size)
	assert.True(t, envelope.Pagination.HasNextPage)
}

func TestHandlerInvalidate(t *testing.T) {
	router, svc, persistent, _ := testRouter(t)
	fp := seedSummary(t, svc, ParentRef{Kind: KindLegislation, ID: "leg-100"})
	require.Equal(t, 1, persistent.count())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete,
		"/api/v1/summaries/by-hash/"+fp.ContentHash+"?style=concise&model=test-model", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":1`)
	assert.Equal(t, 0, persistent.count())
}
