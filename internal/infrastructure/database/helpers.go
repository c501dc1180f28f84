package database

import (
	"context"
	"fmt"
	"log"
	"time"
)

// PoolStats is a snapshot of the connection pool, used for monitoring.
type PoolStats struct {
	AcquiredConns   int32
	IdleConns       int32
	TotalConns      int32
	MaxConns        int32
	AcquireCount    int64
	AcquireDuration time.Duration
	CanceledCount   int64
}

// Stats returns the current pool statistics.
func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		AcquiredConns:   raw.AcquiredConns(),
		IdleConns:       raw.IdleConns(),
		TotalConns:      raw.TotalConns(),
		MaxConns:        raw.MaxConns(),
		AcquireCount:    raw.AcquireCount(),
		AcquireDuration: raw.AcquireDuration(),
		CanceledCount:   raw.CanceledAcquireCount(),
	}, nil
}

// MonitorPoolHealth periodically samples pool statistics and logs
// warnings on exhaustion or slow acquisition. Run in its own goroutine;
// returns when ctx is cancelled.
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := db.Stats()
			if err != nil {
				log.Printf("[MONITOR] Failed to get stats: %v", err)
				continue
			}

			utilization := float64(stats.AcquiredConns) / float64(stats.MaxConns) * 100
			if utilization > 80 {
				log.Printf("[MONITOR] HIGH POOL UTILIZATION: %.1f%% (%d/%d)",
					utilization, stats.AcquiredConns, stats.MaxConns)
			}

			if stats.AcquireCount > 0 {
				avg := stats.AcquireDuration / time.Duration(stats.AcquireCount)
				if avg > 100*time.Millisecond {
					log.Printf("[MONITOR] HIGH ACQUIRE LATENCY: %v", avg)
				}
			}

		case <-ctx.Done():
			log.Println("[MONITOR] Stopping pool health monitoring")
			return
		}
	}
}
