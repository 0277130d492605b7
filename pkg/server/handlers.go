package server

import (
	"net/http"
	"strconv"
	"time"

	"ethmon/pkg/observability"

	"github.com/labstack/echo/v4"
)

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Rigs    int    `json:"rigs"`
	Online  int    `json:"online"`
	Uptime  string `json:"uptime"`
	Sentry  bool   `json:"sentry"`
	// Number of rigs per connector state; absent without a rig inspector.
	States map[string]int `json:"states,omitempty"`
}

// MinerStats is the body of GET /miners/:index/stats.
type MinerStats struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	State     string  `json:"state"`
	Requests  uint64  `json:"requests"`
	Responses uint64  `json:"responses"`
	LastSeen  *string `json:"last_seen,omitempty"`
	LastGood  *string `json:"last_good,omitempty"`
}

func (srv *Server) getDashboard(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, srv.table.Dashboard(srv.meta, srv.now()))
}

func (srv *Server) getHealth(ctx echo.Context) error {
	records := srv.table.All()
	online := 0
	for _, record := range records {
		if record.HasData() {
			online++
		}
	}
	health := Health{
		Status:  "ok",
		Version: srv.version,
		Rigs:    len(records),
		Online:  online,
		Uptime:  srv.now().Sub(srv.started).Truncate(time.Second).String(),
		Sentry:  observability.Enabled(),
	}
	if srv.rigs != nil {
		health.States = make(map[string]int)
		for i := range records {
			if state, ok := srv.rigs.StateName(i); ok {
				health.States[state]++
			}
		}
	}
	return ctx.JSON(http.StatusOK, health)
}

func (srv *Server) listMiners(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, srv.table.All())
}

func (srv *Server) getMiner(ctx echo.Context) error {
	index, err := parseIndex(ctx)
	if err != nil {
		return err
	}

	record, ok := srv.table.Get(index)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Miner not found")
	}
	return ctx.JSON(http.StatusOK, record)
}

func (srv *Server) getMinerStats(ctx echo.Context) error {
	index, err := parseIndex(ctx)
	if err != nil {
		return err
	}

	record, ok := srv.table.Get(index)
	if !ok || srv.rigs == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Miner not found")
	}
	stats, ok := srv.rigs.Stats(index)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Miner not found")
	}
	state, _ := srv.rigs.StateName(index)

	body := MinerStats{
		Index:     index,
		Name:      record.Name,
		State:     state,
		Requests:  stats.Requests,
		Responses: stats.Responses,
	}
	if stats.LastSeen != nil {
		formatted := stats.LastSeen.UTC().Format(time.RFC3339)
		body.LastSeen = &formatted
	}
	if stats.LastGood != nil {
		formatted := stats.LastGood.UTC().Format(time.RFC3339)
		body.LastGood = &formatted
	}
	return ctx.JSON(http.StatusOK, body)
}

func parseIndex(ctx echo.Context) (int, error) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil || index < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid miner index")
	}
	return index, nil
}
