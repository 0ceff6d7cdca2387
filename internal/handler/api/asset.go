package api

import (
	"strings"

	"AssetBrief/internal/domain/models"
	"AssetBrief/internal/domain/repository"
	"AssetBrief/internal/service/ratelimit"
	"AssetBrief/internal/usecase"
	"AssetBrief/pkg/config"
	xhttp "AssetBrief/pkg/http"
	applogger "AssetBrief/pkg/logger"
	"AssetBrief/pkg/util"

	"github.com/labstack/echo/v4"
)

// AssetHandler exposes the asset query pipelines over Echo.
type AssetHandler struct {
	logger *applogger.Logger
	wf     *usecase.Workflows
	cfg    *config.Config
	assets map[string]config.Asset
	store  repository.HistoryStore
	rl     *ratelimit.Limiter
}

func NewAssetHandler(logger *applogger.Logger, wf *usecase.Workflows, cfg *config.Config, store repository.HistoryStore) *AssetHandler {
	return &AssetHandler{
		logger: logger,
		wf:     wf,
		cfg:    cfg,
		assets: cfg.Assets,
		store:  store,
		rl:     ratelimit.New(),
	}
}

func (h *AssetHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/health/deps", h.HealthDeps)

	g := e.Group("/api")
	g.GET("/queries", h.Queries)

	a := g.Group("/asset/:symbol")
	a.POST("/summary", h.Summary)
	a.POST("/market", h.Market)
	a.POST("/summary_text", h.SummaryText)
	a.POST("/news", h.News)
	a.POST("/qa", h.QA)
	a.POST("/history", h.History)
	a.GET("/overview/stream", h.OverviewStream)
}

type dateRangeRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type qaRequest struct {
	dateRangeRequest
	Question string `json:"question" validate:"required,min=3"`
}

// resolveRequest turns validated wire input into the canonical request form.
// Symbol membership and date-range ordering are checked here so no provider
// call happens on a bad request.
func (h *AssetHandler) resolveRequest(c echo.Context, body dateRangeRequest, typ models.RequestType, question string) (models.Request, error) {
	symbol := strings.ToUpper(c.Param("symbol"))
	if _, ok := h.assets[symbol]; !ok {
		return models.Request{}, models.NewValidationError("symbol", "unsupported asset symbol")
	}

	start, ok := util.ParseDate(body.StartDate)
	if !ok {
		return models.Request{}, models.NewValidationError("start_date", "must be a date in 2006-01-02 format")
	}
	end, ok := util.ParseDate(body.EndDate)
	if !ok {
		return models.Request{}, models.NewValidationError("end_date", "must be a date in 2006-01-02 format")
	}
	if end.Before(start) {
		return models.Request{}, models.NewValidationError("end_date", "must not be before start_date")
	}
	if end.After(util.Today()) {
		return models.Request{}, models.NewValidationError("end_date", "must not be in the future")
	}

	return models.Request{
		Symbol:    symbol,
		StartDate: start,
		EndDate:   end,
		Type:      typ,
		Question:  question,
	}, nil
}

func (h *AssetHandler) allow(c echo.Context, op string, capacity, refillPerSec float64) bool {
	return h.rl.Allow(c.RealIP()+":"+op, capacity, refillPerSec)
}

// Summary is the legacy combined endpoint: chart, indicators, news, and
// generated summary in one payload.
func (h *AssetHandler) Summary(c echo.Context) error {
	body := &dateRangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, body); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req, err := h.resolveRequest(c, *body, models.RequestTypeOverview, "")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !h.allow(c, "summary", 5, 1) {
		return rateLimitedResponse(c)
	}

	res, err := h.wf.Overview(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("overview usecase error",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
		return respondError(c, h.logger, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AssetHandler) Market(c echo.Context) error {
	body := &dateRangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, body); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req, err := h.resolveRequest(c, *body, models.RequestTypeOverview, "")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	res, err := h.wf.Market(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("market usecase error",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
		return respondError(c, h.logger, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AssetHandler) SummaryText(c echo.Context) error {
	body := &dateRangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, body); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req, err := h.resolveRequest(c, *body, models.RequestTypeOverview, "")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !h.allow(c, "summary_text", 5, 1) {
		return rateLimitedResponse(c)
	}

	res, err := h.wf.SummaryText(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("summary usecase error",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
		return respondError(c, h.logger, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AssetHandler) News(c echo.Context) error {
	body := &dateRangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, body); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req, err := h.resolveRequest(c, *body, models.RequestTypeOverview, "")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	res, err := h.wf.News(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("news usecase error",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
		return respondError(c, h.logger, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AssetHandler) QA(c echo.Context) error {
	body := &qaRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, body); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req, err := h.resolveRequest(c, body.dateRangeRequest, models.RequestTypeQA, body.Question)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !h.allow(c, "qa", 3, 0.5) {
		return rateLimitedResponse(c)
	}

	res, err := h.wf.QA(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("qa usecase error",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
		return respondError(c, h.logger, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AssetHandler) History(c echo.Context) error {
	body := &dateRangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, body); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req, err := h.resolveRequest(c, *body, models.RequestTypeHistory, "")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !h.allow(c, "history", 3, 0.5) {
		return rateLimitedResponse(c)
	}

	res, err := h.wf.History(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("history usecase error",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
		return respondError(c, h.logger, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Queries lists recently completed requests from the history store.
func (h *AssetHandler) Queries(c echo.Context) error {
	symbol := strings.ToUpper(c.QueryParam("symbol"))
	limit := util.ParseIntDefault(c.QueryParam("limit"), 50)

	rows, err := h.wf.Queries(c.Request().Context(), symbol, limit)
	if err != nil {
		h.logger.Error("queries list error", applogger.Error(err))
		return respondError(c, h.logger, err)
	}
	if rows == nil {
		rows = []*models.HistoryRecord{}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
