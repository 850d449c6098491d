package handler

import (
	"net/http"
	"strings"

	"github.com/damoang/angple-cms/internal/service"
	"github.com/damoang/angple-cms/internal/ws"
	"github.com/damoang/angple-cms/pkg/i18n"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WatchHandler streams new revisions of one subject over a websocket
type WatchHandler struct {
	hub            *ws.Hub
	content        *service.ContentService
	bundle         *i18n.Bundle
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewWatchHandler creates a new WatchHandler. allowedOrigins is the
// comma separated CORS origin list; empty allows any origin.
func NewWatchHandler(hub *ws.Hub, content *service.ContentService, bundle *i18n.Bundle, allowedOrigins string) *WatchHandler {
	h := &WatchHandler{
		hub:            hub,
		content:        content,
		bundle:         bundle,
		allowedOrigins: parseOrigins(allowedOrigins),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func parseOrigins(origins string) []string {
	var result []string
	for _, p := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (h *WatchHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed || allowed == "*" {
			return true
		}
	}
	return false
}

// Watch godoc
// @Summary      리비전 실시간 구독 WebSocket
// @Description  대상에 새 리비전이 기록될 때마다 revision.created 이벤트를 전송합니다
// @Tags         revisions
// @Param        type  path  string  true  "대상 타입"
// @Param        id    path  int     true  "대상 ID"
// @Failure      404  {object}  common.APIResponse
// @Router       /revisions/{type}/{id}/watch [get]
func (h *WatchHandler) Watch(c *gin.Context) {
	subject, err := subjectParam(c, h.content.Registry())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	if _, err := h.content.Get(c.Request.Context(), subject); err != nil {
		respondError(c, h.bundle, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, subject.String())
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
