package api

import (
	"net/http"
	"strconv"
	"sync"

	"tapquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClaimNotification is pushed to a connected client when its pending social
// quest claim settles or is reverted.
type ClaimNotification struct {
	QuestID uuid.UUID `json:"quest_id"`
	Settled bool      `json:"settled"`
	Reward  int       `json:"reward"`
}

// NotifyHub tracks one websocket connection per account. A second connection
// for the same account replaces the first.
type NotifyHub struct {
	mu    sync.RWMutex
	conns map[int64]*websocket.Conn
}

func NewNotifyHub() *NotifyHub {
	return &NotifyHub{
		conns: make(map[int64]*websocket.Conn),
	}
}

func NewNotifyRoutes(handler *gin.RouterGroup, hub *NotifyHub) {
	handler.GET("/ws/:telegram_id", hub.handleConnection)
}

func (h *NotifyHub) handleConnection(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade websocket connection", zap.Error(err))
		return
	}

	h.register(id, conn)
	log.Info("claim notification client connected", zap.Int64("telegram_id", id))

	go h.readLoop(id, conn)
}

func (h *NotifyHub) register(telegramID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.conns[telegramID]; ok {
		old.Close()
	}
	h.conns[telegramID] = conn
}

// readLoop drains the connection so pings are handled and closure is
// detected; clients never send application messages.
func (h *NotifyHub) readLoop(telegramID int64, conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.unregister(telegramID, conn)
			conn.Close()
			return
		}
	}
}

func (h *NotifyHub) unregister(telegramID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[telegramID] == conn {
		delete(h.conns, telegramID)
	}
}

// NotifyClaim implements service.ClaimNotifier. Accounts without a live
// connection simply miss the push; the quest list reflects the final state.
func (h *NotifyHub) NotifyClaim(telegramID int64, questID uuid.UUID, settled bool, reward int) {
	h.mu.RLock()
	conn, ok := h.conns[telegramID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload, err := json.Marshal(ClaimNotification{
		QuestID: questID,
		Settled: settled,
		Reward:  reward,
	})
	if err != nil {
		logger.Logger().Error("failed to marshal claim notification", zap.Error(err))
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		logger.Logger().Info("failed to push claim notification, dropping connection",
			zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.unregister(telegramID, conn)
		conn.Close()
	}
}
