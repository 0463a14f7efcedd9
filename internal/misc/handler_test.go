package misc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

type dbPingerMock struct {
	err error
}

func (m *dbPingerMock) Ping(_ context.Context) error {
	return m.err
}

func doHealth(t *testing.T, h *Handler) (int, healthResponse) {
	t.Helper()
	r := mux.NewRouter()
	h.SetupRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr.Code, resp
}

func TestHandleHealth_OK(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	redisMock.ExpectPing().SetVal("PONG")

	code, resp := doHealth(t, NewHandler(&dbPingerMock{}, rdb))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthResponse{Status: "ok"}, resp)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandleHealth_DatabaseDown(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	redisMock.ExpectPing().SetVal("PONG")

	code, resp := doHealth(t, NewHandler(&dbPingerMock{err: errors.New("connection refused")}, rdb))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "database", resp.Component)
}

func TestHandleHealth_RedisDown(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	redisMock.ExpectPing().SetErr(errors.New("i/o timeout"))

	code, resp := doHealth(t, NewHandler(&dbPingerMock{}, rdb))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "redis", resp.Component)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
