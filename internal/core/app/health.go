package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	// Check provider catalog reachability
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	years, err := s.app.AvailableYears(checkCtx)
	if err != nil {
		status.Status = "degraded"
		status.Components["provider"] = fmt.Sprintf("catalog unreachable: %v", err)
	} else {
		status.Components["provider"] = fmt.Sprintf("ok (%d years published)", len(years))
	}

	// Check cache
	if s.app.cache != nil {
		status.Components["cache"] = "ok"
	} else {
		status.Components["cache"] = "disabled"
	}

	return status
}
