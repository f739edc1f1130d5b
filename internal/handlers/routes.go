package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/kstonekuan/among-humans/internal/config"
	"github.com/kstonekuan/among-humans/internal/game"
	"github.com/kstonekuan/among-humans/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The game has no auth; the browser client may be served from anywhere.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewRouter wires the HTTP surface: the websocket gateway, a health check,
// and a QR code for sharing a room's join link.
func NewRouter(svc *game.Service, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": svc.Rooms().Count()})
	})

	router.GET("/ws", func(ctx *gin.Context) {
		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
			return
		}
		client := ws.NewClient(conn, svc)
		go client.Run()
	})

	router.GET("/qr/:code", func(ctx *gin.Context) {
		code := ctx.Param("code")
		if !svc.Rooms().Exists(code) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		png, err := qrcode.Encode(cfg.PublicURL+"/?join="+code, qrcode.Medium, 256)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
			return
		}
		ctx.Data(http.StatusOK, "image/png", png)
	})

	return router
}
