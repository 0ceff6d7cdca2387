package api

import (
	"net/http"

	"AssetBrief/internal/domain/models"
	applogger "AssetBrief/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// OverviewStream delivers the overview pipeline over a WebSocket, one frame
// per stage. Dates come from query parameters since WebSocket upgrades are
// GET requests. A client disconnect aborts the remaining stages.
func (h *AssetHandler) OverviewStream(c echo.Context) error {
	body := dateRangeRequest{
		StartDate: c.QueryParam("start_date"),
		EndDate:   c.QueryParam("end_date"),
	}
	req, err := h.resolveRequest(c, body, models.RequestTypeOverview, "")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !h.allow(c, "stream", 5, 1) {
		return rateLimitedResponse(c)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", applogger.Error(err))
		return err
	}
	defer conn.Close()

	emit := func(frame models.StageFrame) error {
		return conn.WriteJSON(frame)
	}
	if err := h.wf.OverviewStream(c.Request().Context(), req, emit); err != nil {
		h.logger.Warn("overview stream aborted",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	return nil
}
