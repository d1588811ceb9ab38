package emotionHandler

import (
	"JoyverseEmotion/internal/api/emotion"
	contextPkg "JoyverseEmotion/pkg/context"
	"JoyverseEmotion/pkg/handlerUtil"
	"JoyverseEmotion/pkg/log"
	"JoyverseEmotion/pkg/response"
	"fmt"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
	"time"
)

const wsReadTimeout = 60 * time.Second

// handleWebSocket answers every text frame {"landmarks":[...]} with a
// prediction or a {"detail": ...} error, keeping the connection open.
func (h *EmotionHandler) handleWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals(contextPkg.RequestIDHeader).(string)
	connCtx := contextPkg.WithRequestID(context.Background(), requestID)
	entry := log.WithRequestID(h.log, connCtx)

	entry.Info("Emotion WebSocket client connected")
	defer entry.Info("Emotion WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			entry.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			entry.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				entry.Errorf("Emotion WebSocket error: %v", err)
			}
			break
		}

		if messageType != websocket.TextMessage {
			entry.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			entry.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(h.detectFrame(connCtx, message)); err != nil {
			entry.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}

// detectFrame runs one prediction under connCtx, which carries the request ID
// of the upgrade request.
func (h *EmotionHandler) detectFrame(connCtx context.Context, message []byte) interface{} {
	var req emotion.DetectEmotionRequest
	if err := jsoniter.Unmarshal(message, &req); err != nil {
		_, detail := handlerUtil.Status(fmt.Errorf("%w: %v", emotion.ErrInvalidBody, err))
		return response.Detail{Detail: detail}
	}

	ctx, cancel := context.WithTimeout(connCtx, requestTimeout)
	defer cancel()

	prediction, err := h.emotionService.DetectEmotion(ctx, req.Landmarks)
	if err != nil {
		_, detail := handlerUtil.Status(err)
		return response.Detail{Detail: detail}
	}

	return toDetectResponse(prediction, false)
}
