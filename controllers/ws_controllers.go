package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/jobconnect-app/middlewares"
	"github.com/yeremiapane/jobconnect-app/realtime"
	"github.com/yeremiapane/jobconnect-app/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dibatasi lagi lewat reverse proxy di production
	},
}

// ChatWSHandler -> endpoint WebSocket. Principal sudah diresolve middleware;
// satu principal boleh buka berapa pun koneksi (multi-tab/device).
func ChatWSHandler(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := middlewares.PrincipalFrom(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			utils.ErrorLogger.Printf("ws: upgrade failed: %v", err)
			return
		}

		client := realtime.NewClient(hub, ws, p)
		hub.Register(client)

		// Serve block sampai koneksi putus; deregister jalan di read pump
		client.Serve()
	}
}
