package controllers

import (
	"net/http"

	"github.com/dropDatabas3/consentd/internal/cache"
	"github.com/dropDatabas3/consentd/internal/http/helpers"
)

// HealthController maneja GET /healthz.
type HealthController struct {
	cache cache.Client
}

// NewHealthController crea el controller.
func NewHealthController(cc cache.Client) *HealthController {
	return &HealthController{cache: cc}
}

// Healthz reporta vivacidad del proceso y del cache.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if c.cache != nil {
		if err := c.cache.Ping(r.Context()); err != nil {
			status = "degraded"
			// El cache es acelerador: degradado, no caído.
		}
	}
	helpers.WriteJSON(w, code, map[string]string{"status": status})
}
