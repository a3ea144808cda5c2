package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
)

// ReplayPath is where observers open their websocket
const ReplayPath = "/api/replay/ws"

// Register registers the replay gateway and health routes
func Register(e *core.ServeEvent, gateway *Gateway) {
	e.Router.GET(ReplayPath, func(re *core.RequestEvent) error {
		gateway.ServeWS(re.Response, re.Request)
		return nil
	})

	// Health check endpoint
	e.Router.GET("/health", func(re *core.RequestEvent) error {
		health := map[string]any{
			"status": "ok",
			"database": map[string]any{
				"connected": re.App.IsBootstrapped(),
			},
			"replay": map[string]any{
				"sessions": gateway.SessionCount(),
			},
			"memory": readMemStats(),
		}

		return re.JSON(http.StatusOK, health)
	})
}
