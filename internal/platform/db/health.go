package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	Driver       string `json:"driver"`
	OpenConns    int    `json:"open_conns"`
	InUse        int    `json:"in_use"`
	Idle         int    `json:"idle"`
	MaxOpenConns int    `json:"max_open_conns"`
	WaitCount    int64  `json:"wait_count"`
	WaitDuration string `json:"wait_duration"`
	Healthy      bool   `json:"healthy"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(db *sqlx.DB) *PoolStats {
	stat := db.Stats()
	return &PoolStats{
		Driver:       db.DriverName(),
		OpenConns:    stat.OpenConnections,
		InUse:        stat.InUse,
		Idle:         stat.Idle,
		MaxOpenConns: stat.MaxOpenConnections,
		WaitCount:    stat.WaitCount,
		WaitDuration: stat.WaitDuration.String(),
		Healthy:      stat.OpenConnections > 0,
	}
}

// HealthHandler returns a handler for the database health check endpoint.
// Ping failures are logged; the response only reports that the store is
// unhealthy.
func HealthHandler(db *sqlx.DB, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		err := db.PingContext(ctx)
		stats := GetPoolStats(db)

		if err != nil {
			logger.Error().Err(err).Msg("database health check failed")
			stats.Healthy = false
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"pool":   stats,
			})
		}

		stats.Healthy = true
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"pool":   stats,
		})
	}
}
