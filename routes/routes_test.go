package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedmatch_server/controllers"
	"wedmatch_server/logger"
	"wedmatch_server/models"
	"wedmatch_server/services"
	"wedmatch_server/storage/memstore"
)

func newRouter(t *testing.T) (*mux.Router, *memstore.Store) {
	t.Helper()
	log := logger.Nop()
	store := memstore.New()
	notifier := services.NewNotifier(nil, log)
	profiles := services.StoreProfileStates{Profiles: store.Profiles()}
	cfg := models.DefaultEngineConfig()
	matches := services.NewMatchService(store, notifier, log)
	base := controllers.Base{Log: log, Timeout: time.Second}

	r := mux.NewRouter()
	RegisterRoutes(r, Controllers{
		Interactions: &controllers.InteractionController{Base: base, InteractionService: services.NewInteractionService(store, profiles, notifier, cfg, log)},
		Matches:      &controllers.MatchController{Base: base, MatchService: matches},
		Openings:     &controllers.OpeningController{Base: base, OpeningService: services.NewOpeningService(store, profiles, notifier, cfg, log)},
		Cohorts: &controllers.CohortController{
			Base:      base,
			Generator: services.NewMatchGenerator(services.StoreCohortSource{Profiles: store.Profiles()}, matches, nil, notifier, log),
		},
	})
	for _, id := range []int64{10, 20} {
		store.PutProfile(models.UserProfile{UserID: id, Photos: []string{"p.jpg"}, BasicProfileCompleted: true})
	}
	return r, store
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInteractionRoutes(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodPost, "/api/interactions/like", map[string]int64{"actorId": 10, "targetId": 20})
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.InteractionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Mutual)
	assert.False(t, *res.Mutual)

	rec = do(t, r, http.MethodPost, "/api/interactions/like", map[string]int64{"actorId": 20, "targetId": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, *res.Mutual)

	rec = do(t, r, http.MethodGet, "/api/interactions/users/10/mutual", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mutual []int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mutual))
	assert.Equal(t, []int64{20}, mutual)

	rec = do(t, r, http.MethodPost, "/api/interactions/block", map[string]int64{"actorId": 10, "targetId": 20})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/interactions/like", map[string]int64{"actorId": 20, "targetId": 10})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"conflict"`)
}

func TestInteractionRouteErrors(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodPost, "/api/interactions/poke", map[string]int64{"actorId": 10, "targetId": 20})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/interactions/like", map[string]int64{"actorId": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/interactions/like", map[string]int64{"actorId": 10, "targetId": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/interactions/like", map[string]int64{"actorId": 30, "targetId": 10})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/interactions/users/10/everything", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatchRoutes(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodPost, "/api/matches", map[string]interface{}{"userA": 20, "userB": 10, "score": 75})
	require.Equal(t, http.StatusCreated, rec.Code)
	var m models.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, int64(10), m.UserLowID)

	rec = do(t, r, http.MethodPost, "/api/matches", map[string]interface{}{"userA": 10, "userB": 20})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, user := range []int64{10, 20} {
		rec = do(t, r, http.MethodPost, "/api/matches/"+m.ID+"/approve", map[string]int64{"userId": user})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.True(t, m.MutualApproved)
	assert.True(t, m.ChatOpened)

	rec = do(t, r, http.MethodGet, "/api/matches/pair?userA=20&userB=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/matches/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/matches/"+m.ID+"/explode", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpeningRoutes(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodPost, "/api/openings", map[string]interface{}{"senderId": 10, "recipientId": 20, "content": "hi"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var msg models.OpeningMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))

	rec = do(t, r, http.MethodGet, "/api/openings/pending/20", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/openings/"+msg.ID+"/approve", map[string]int64{"recipientId": 20})
	require.Equal(t, http.StatusOK, rec.Code)
	var m models.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, models.MatchSourceOpening, m.Source)
	assert.True(t, m.MutualApproved)
}

func TestRunReportWithoutArchive(t *testing.T) {
	r, _ := newRouter(t)
	rec := do(t, r, http.MethodGet, "/api/cohorts/w1/runs/r1/report", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/cohorts/w1/generate", map[string]float64{"minScore": 60})
	require.Equal(t, http.StatusOK, rec.Code)
	var run models.GenerationRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "w1", run.CohortID)
}

func TestRateLimiter(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 5))

	l := NewRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	codes := []int{}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	var disabled *RateLimiter
	rec := httptest.NewRecorder()
	disabled.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
