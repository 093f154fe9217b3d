package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/hpp-app/notify"
	"github.com/yeremiapane/hpp-app/services"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin sudah dibatasi oleh CORS, token diperiksa oleh middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

type NotificationController struct {
	DB      *gorm.DB
	service *services.NotificationService
	hub     *notify.Hub
}

func NewNotificationController(db *gorm.DB, hub *notify.Hub) *NotificationController {
	return &NotificationController{DB: db, service: services.NewNotificationService(db, hub), hub: hub}
}

// Notifier is shared with the services that emit notifications.
func (nc *NotificationController) Notifier() services.Notifier {
	return nc.service
}

// GetNotifications -> ?unread=true&limit=50
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	notifs, err := nc.service.List(currentOrgID(c), currentUserID(c), c.Query("unread") == "true", limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of notifications", notifs)
}

func (nc *NotificationController) GetUnreadCount(c *gin.Context) {
	n, err := nc.service.UnreadCount(currentOrgID(c), currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unread notifications", gin.H{"count": n})
}

func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	notif, err := nc.service.MarkRead(currentOrgID(c), currentUserID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", notif)
}

func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := nc.service.Delete(currentOrgID(c), currentUserID(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification deleted", nil)
}

// WebSocketHandler -> endpoint WebSocket untuk notifikasi realtime
func (nc *NotificationController) WebSocketHandler(c *gin.Context) {
	orgID, userID := currentOrgID(c), currentUserID(c)
	if orgID == 0 || userID == 0 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}
	nc.hub.Register(ws, orgID, userID)
	utils.InfoLogger.Printf("websocket connected: org=%d user=%d", orgID, userID)

	// Client tidak mengirim apa-apa, loop ini hanya mendeteksi disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	nc.hub.Unregister(ws)
}
