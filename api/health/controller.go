package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"marketplace/config"
	"marketplace/infrastructure/persistence/mysql"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const checkTimeout = 2 * time.Second

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// Controller Health check controller
type Controller struct {
	config    *config.Config
	checks    map[string]CheckFunc
	startTime time.Time
}

// NewController Create health check controller. db may be nil.
func NewController(cfg *config.Config, db *gorm.DB) *Controller {
	c := &Controller{
		config:    cfg,
		checks:    make(map[string]CheckFunc),
		startTime: time.Now(),
	}
	if db != nil {
		c.checks["database"] = func(ctx context.Context) error { return mysql.Ping(ctx, db) }
	}
	return c
}

// WithCheck adds a dependency probe, e.g. redis.
func (c *Controller) WithCheck(name string, fn CheckFunc) *Controller {
	c.checks[name] = fn
	return c
}

// RegisterRoutes Register health check routes
func (c *Controller) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", c.Health)
	router.GET("/health/live", c.Liveness)
	router.GET("/health/ready", c.Readiness)
}

// HealthResponse Health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check Check item
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo System information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
}

// Health Complete health check
func (c *Controller) Health(ctx *gin.Context) {
	checks, healthy := c.runChecks(ctx.Request.Context())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	response := HealthResponse{
		Status:    status,
		Version:   c.config.App.Version,
		Uptime:    time.Since(c.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	// Only expose system info in development mode
	if c.config.IsDevelopment() {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		response.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     memStats.Alloc,
		}
	}

	statusCode := http.StatusOK
	if !healthy {
		statusCode = http.StatusServiceUnavailable
	}
	ctx.JSON(statusCode, response)
}

// Liveness Liveness check (Kubernetes liveness probe)
func (c *Controller) Liveness(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readiness Readiness check (Kubernetes readiness probe)
func (c *Controller) Readiness(ctx *gin.Context) {
	checks, healthy := c.runChecks(ctx.Request.Context())
	if !healthy {
		var failing []string
		for name, check := range checks {
			if check.Status != "healthy" {
				failing = append(failing, name)
			}
		}
		sort.Strings(failing)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not_ready",
			"failing": failing,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (c *Controller) runChecks(parent context.Context) (map[string]Check, bool) {
	results := make(map[string]Check, len(c.checks))
	healthy := true
	for name, fn := range c.checks {
		ctx, cancel := context.WithTimeout(parent, checkTimeout)
		start := time.Now()
		err := fn(ctx)
		cancel()

		check := Check{Status: "healthy", Latency: time.Since(start).String()}
		if err != nil {
			check.Status = "unhealthy"
			check.Message = err.Error()
			healthy = false
		}
		results[name] = check
	}
	return results, healthy
}
