package api

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"comedyuo/showsync/internal/models/dtos/responses"
)

// HealthCheckHandler handles GET /healthCheck
func HealthCheckHandler(db *sqlx.DB, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		services := make(map[string]responses.ServiceStatus)

		dbStatus := "ok"
		dbDetails := "Database Connected"
		if db == nil {
			dbStatus = "down"
			dbDetails = "database not initialized"
		} else if err := db.PingContext(r.Context()); err != nil {
			dbStatus = "down"
			dbDetails = err.Error()
		}
		services["database"] = responses.ServiceStatus{
			Status:  dbStatus,
			Details: dbDetails,
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		statusCode := http.StatusOK
		if overallStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		resp := responses.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince.UTC(),
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		}
		writeJSON(w, statusCode, resp)
	}
}
