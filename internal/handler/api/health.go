package api

import (
	xhttp "AssetBrief/pkg/http"
	applogger "AssetBrief/pkg/logger"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status string `json:"status"`
}

type depsResponse struct {
	Status      string   `json:"status"`
	Store       string   `json:"store"`
	MissingKeys []string `json:"missing_keys"`
}

// Health is the liveness probe.
func (h *AssetHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, healthResponse{Status: "ok"})
}

// HealthDeps reports dependency readiness: history store reachability and
// which provider credentials are absent. Missing keys degrade the status
// without failing the probe; the affected endpoints return errors at call
// time.
func (h *AssetHandler) HealthDeps(c echo.Context) error {
	res := depsResponse{Status: "ok", Store: "ok", MissingKeys: h.cfg.MissingKeys()}
	if res.MissingKeys == nil {
		res.MissingKeys = []string{}
	}

	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			h.logger.Warn("history store health check failed", applogger.Error(err))
			res.Store = "unavailable"
		}
	} else {
		res.Store = "disabled"
	}

	if res.Store == "unavailable" || len(res.MissingKeys) > 0 {
		res.Status = "degraded"
	}
	return xhttp.SuccessResponse(c, res)
}
