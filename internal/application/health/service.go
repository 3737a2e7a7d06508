package health

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"satfolio-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// CollectResult is the health snapshot served by /health/json.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	HeapMB        uint64 `json:"heapMB"`
	Goroutines    int    `json:"goroutines"`
	GoVersion     string `json:"goVersion"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	FailedCount     int         `json:"failedCount"`
	AvgResponseTime string      `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

var processStart = time.Now()

// CollectHealth gathers dependency status and the request stats the health
// marker middleware accumulates in Redis.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger) CollectResult {
	deps := map[string]DepStatus{}
	healthy := true

	if db != nil {
		start := time.Now()
		if err := db.Ping(); err == nil {
			deps["database"] = DepStatus{Status: "connected", PingMs: time.Since(start).Milliseconds()}
		} else {
			deps["database"] = DepStatus{Status: "disconnected", PingMs: nil}
			healthy = false
		}
	} else {
		deps["database"] = DepStatus{Status: "disconnected", PingMs: nil}
		healthy = false
	}

	if rdb != nil {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err == nil {
			deps["redis"] = DepStatus{Status: "connected", PingMs: time.Since(start).Milliseconds()}
		} else {
			deps["redis"] = DepStatus{Status: "disconnected", PingMs: nil}
			healthy = false
		}
	}

	traffic := TrafficInfo{AvgResponseTime: "0"}
	if rdb != nil {
		total, _ := rdb.Get(ctx, middleware.KeyReqTotal).Int()
		failed, _ := rdb.Get(ctx, middleware.KeyReqErrors).Int()
		resTime, _ := rdb.Get(ctx, middleware.KeyResTime).Float64()
		resCount, _ := rdb.Get(ctx, middleware.KeyResCount).Int()
		traffic.TotalRequests = total
		traffic.FailedCount = failed
		if resCount > 0 {
			traffic.AvgResponseTime = strconv.FormatFloat(resTime/float64(resCount), 'f', 1, 64)
		}
		if raw, err := rdb.Get(ctx, middleware.KeyLastReq).Bytes(); err == nil {
			var last map[string]interface{}
			if json.Unmarshal(raw, &last) == nil {
				traffic.LastRequest = last
			}
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := "ok"
	if !healthy {
		status = "degraded"
	}
	return CollectResult{
		Status: status,
		Runtime: RuntimeInfo{
			UptimeSeconds: int64(time.Since(processStart).Seconds()),
			HeapMB:        mem.HeapAlloc / (1 << 20),
			Goroutines:    runtime.NumGoroutine(),
			GoVersion:     runtime.Version(),
		},
		Traffic:      traffic,
		Dependencies: deps,
	}
}

// ResetStats clears accumulated request stats.
func ResetStats(ctx context.Context, rdb *redis.Client) error {
	keys := []string{
		middleware.KeyReqTotal, middleware.KeyReqErrors,
		middleware.KeyResTime, middleware.KeyResCount, middleware.KeyLastReq,
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, middleware.KeyStartTime, fmt.Sprint(time.Now().UnixMilli()), 0).Err()
}
