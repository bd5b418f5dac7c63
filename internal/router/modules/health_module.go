package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-service/pkg/response"
)

// HealthCheck probes one dependency. A failing Critical check turns the
// endpoint into 503, any other failure only marks the service degraded.
type HealthCheck struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

type HealthModule struct {
	Checks  []HealthCheck
	Timeout time.Duration
}

func NewHealthModule(timeout time.Duration, checks ...HealthCheck) *HealthModule {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthModule{Checks: checks, Timeout: timeout}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", m.handle)
}

func (m *HealthModule) handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), m.Timeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(m.Checks))
	for _, chk := range m.Checks {
		if err := chk.Probe(ctx); err != nil {
			results[chk.Name] = err.Error()
			if chk.Critical {
				status, code = "down", http.StatusServiceUnavailable
			} else if status == "ok" {
				status = "degraded"
			}
			continue
		}
		results[chk.Name] = "ok"
	}

	data := gin.H{"status": status, "checks": results}
	if code != http.StatusOK {
		response.Error[any](c, code, "service unavailable", data)
		return
	}
	response.Success[any](c, code, data, status, nil)
}
