package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ethmon/pkg/models"
	"ethmon/pkg/rpc"
	"ethmon/pkg/status"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockRigs is a mock implementation of RigInspector for testing
type MockRigs struct {
	mock.Mock
}

func (m *MockRigs) Stats(index int) (models.RigStats, bool) {
	args := m.Called(index)
	return args.Get(0).(models.RigStats), args.Bool(1)
}

func (m *MockRigs) StateName(index int) (string, bool) {
	args := m.Called(index)
	return args.String(0), args.Bool(1)
}

// ServerTestSuite tests the HTTP surface over a populated table
type ServerTestSuite struct {
	suite.Suite
	table  *status.Table
	rigs   *MockRigs
	server *Server
	now    time.Time
}

func (s *ServerTestSuite) SetupTest() {
	target := 100.0
	configs := []models.RigConfig{
		{Name: "rig1", Host: "10.0.0.5", Port: 3333, TargetPrimary: &target, Comment: "garage"},
		{Name: "rig2", Host: "10.0.0.6", Port: 3333, Hostname: "shed"},
		{Name: "rig3", Host: "10.0.0.7", Port: 3333, Offline: true},
	}
	s.table = status.NewTable(configs)

	stats := &rpc.Stats{
		Version:       "10.2 - ETH",
		UptimeMinutes: 1505,
		Primary:       models.ParseTotals("120000;50;1"),
		Climate:       models.ParseClimate("65;40"),
		Pools:         models.ParsePools("eth.pool:4444"),
	}
	s.Require().NoError(s.table.Set(0, status.Success(configs[0], stats, "2026-10-16 09:00:00")))
	s.Require().NoError(s.table.Set(1, status.Failure(configs[1], "no response", models.Never)))
	s.Require().NoError(s.table.Set(2, status.Offline(configs[2])))

	s.rigs = new(MockRigs)

	s.now = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	clock := s.now
	meta := status.Meta{
		Title:       "farm",
		Refresh:     10,
		Tolerance:   5,
		Temperature: map[string]interface{}{"warning": 80},
	}
	s.server = New(s.table, meta, Options{
		Version: "test",
		Rigs:    s.rigs,
		Now:     func() time.Time { return clock },
	})
}

func (s *ServerTestSuite) TearDownTest() {
	s.rigs.AssertExpectations(s.T())
}

func (s *ServerTestSuite) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) decode(rec *httptest.ResponseRecorder, out interface{}) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out))
}

func (s *ServerTestSuite) TestDashboard() {
	rec := s.get("/")
	s.Equal(http.StatusOK, rec.Code)

	var body map[string]interface{}
	s.decode(rec, &body)
	s.Equal("farm", body["title"])
	s.Equal("farm", body["header"])
	s.Equal(float64(10), body["refresh"])
	s.Equal(float64(5), body["tolerance"])
	s.Equal(map[string]interface{}{"warning": float64(80)}, body["temperature"])
	s.NotContains(body, "hashrates")
	s.Equal(s.now.Format(models.DisplayTimeLayout), body["updated"])

	miners, ok := body["miners"].([]interface{})
	s.Require().True(ok)
	s.Len(miners, 3)
	first := miners[0].(map[string]interface{})
	s.Equal("rig1", first["name"])
	s.Equal("10.2 - ETH", first["ver"])
	s.Equal("1 days, 01:05", first["uptime"])
}

func (s *ServerTestSuite) TestListMinersKeepsSlotOrder() {
	rec := s.get("/miners")
	s.Equal(http.StatusOK, rec.Code)

	var body []map[string]interface{}
	s.decode(rec, &body)
	s.Require().Len(body, 3)
	s.Equal("rig1", body[0]["name"])
	s.Equal("shed", body[1]["host"])
	s.Equal("no response", body[1]["error"])
	s.Equal("never", body[1]["last_seen"])
	s.Equal(true, body[2]["offline"])
}

func (s *ServerTestSuite) TestGetMiner() {
	rec := s.get("/miners/0")
	s.Equal(http.StatusOK, rec.Code)

	var body map[string]interface{}
	s.decode(rec, &body)
	s.Equal("rig1", body["name"])
	s.Equal("10.0.0.5:3333", body["host"])
	s.Equal("garage", body["comments"])
	s.Equal(float64(100), body["target_eth"])
	s.Equal("eth.pool:4444", body["pools"])
}

func (s *ServerTestSuite) TestGetMinerBadIndex() {
	for _, path := range []string{"/miners/abc", "/miners/-1", "/miners/1.5"} {
		rec := s.get(path)
		s.Equal(http.StatusBadRequest, rec.Code, path)
	}
}

func (s *ServerTestSuite) TestGetMinerOutOfRange() {
	rec := s.get("/miners/3")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestMinerStats() {
	lastSeen := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	s.rigs.On("Stats", 0).Return(models.RigStats{Requests: 10, Responses: 9, LastSeen: &lastSeen}, true)
	s.rigs.On("StateName", 0).Return("idle", true)

	rec := s.get("/miners/0/stats")
	s.Equal(http.StatusOK, rec.Code)

	var body MinerStats
	s.decode(rec, &body)
	s.Equal(0, body.Index)
	s.Equal("rig1", body.Name)
	s.Equal("idle", body.State)
	s.Equal(uint64(10), body.Requests)
	s.Equal(uint64(9), body.Responses)
	s.Require().NotNil(body.LastSeen)
	s.Equal("2026-10-16T09:00:00Z", *body.LastSeen)
	s.Nil(body.LastGood)

	rec = s.get("/miners/7/stats")
	s.Equal(http.StatusNotFound, rec.Code)
	s.rigs.AssertNotCalled(s.T(), "Stats", 7)
}

func (s *ServerTestSuite) TestMinerStatsUnknownToInspector() {
	s.rigs.On("Stats", 1).Return(models.RigStats{}, false)

	rec := s.get("/miners/1/stats")
	s.Equal(http.StatusNotFound, rec.Code)
	s.rigs.AssertNotCalled(s.T(), "StateName", 1)
}

func (s *ServerTestSuite) TestMinerStatsWithoutInspector() {
	s.server = New(s.table, status.Meta{Title: "farm"}, Options{})
	rec := s.get("/miners/0/stats")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestHealth() {
	s.rigs.On("StateName", 0).Return("idle", true)
	s.rigs.On("StateName", 1).Return("awaiting_response", true)
	s.rigs.On("StateName", 2).Return("offline", true)

	rec := s.get("/health")
	s.Equal(http.StatusOK, rec.Code)

	var body Health
	s.decode(rec, &body)
	s.Equal("ok", body.Status)
	s.Equal("test", body.Version)
	s.Equal(3, body.Rigs)
	s.Equal(1, body.Online)
	s.Equal("0s", body.Uptime)
	s.False(body.Sentry)
	s.Equal(map[string]int{"idle": 1, "awaiting_response": 1, "offline": 1}, body.States)
}

func (s *ServerTestSuite) TestHealthWithoutInspector() {
	s.server = New(s.table, status.Meta{Title: "farm"}, Options{})

	rec := s.get("/health")
	s.Equal(http.StatusOK, rec.Code)

	var body map[string]interface{}
	s.decode(rec, &body)
	s.Equal(float64(3), body["rigs"])
	s.NotContains(body, "states")
}

func (s *ServerTestSuite) TestUnknownRoute() {
	rec := s.get("/config")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestStartAndShutdown() {
	s.rigs.On("StateName", mock.Anything).Return("idle", true).Maybe()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	addr := listener.Addr().String()
	s.Require().NoError(listener.Close())

	done := make(chan error, 1)
	go func() {
		done <- s.server.Start(addr)
	}()

	s.Eventually(func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	s.Require().NoError(s.server.Shutdown(context.Background()))
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(3 * time.Second):
		s.Fail("server did not stop")
	}
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
