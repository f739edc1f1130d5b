package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/kstonekuan/among-humans/internal/game"
	"github.com/kstonekuan/among-humans/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client is one websocket connection. It binds to at most one player in one
// room; all inbound messages are dispatched from the read pump, so room and
// player need no extra synchronization.
type Client struct {
	conn    *websocket.Conn
	svc     *game.Service
	send    chan outbound
	limiter *rate.Limiter

	room   *models.Room
	player *models.Player

	closeOnce sync.Once
}

// NewClient wraps an upgraded connection
func NewClient(conn *websocket.Conn, svc *game.Service) *Client {
	return &Client{
		conn: conn,
		svc:  svc,
		send: make(chan outbound, sendBufferSize),
		// Generous for humans, tight enough to stop floods.
		limiter: rate.NewLimiter(5, 10),
	}
}

// Send implements models.Sender. It never blocks: a client that cannot
// drain its buffer loses events and will resync on reconnect.
func (c *Client) Send(event string, payload any) {
	select {
	case c.send <- outbound{Type: event, Payload: payload}:
	default:
		log.Warn().Str("event", event).Msg("client send buffer full, dropping event")
	}
}

// Run starts the pumps and blocks until the connection dies
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		if !c.limiter.Allow() {
			continue
		}

		var msg Envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Msg("bad message envelope")
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close tears the connection down once, marking the player inactive so a
// rejoin under the same display name can resurrect them.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.room != nil && c.player != nil {
			c.svc.Disconnect(c.room, c.player.ID)
		}
		close(c.send)
		c.conn.Close()
	})
}

func (c *Client) dispatch(msg Envelope) {
	switch msg.Type {
	case MsgCreateRoom:
		if c.room != nil {
			return
		}
		c.room, c.player = c.svc.CreateRoom(c)

	case MsgJoinRoom:
		if c.room != nil {
			return
		}
		var p joinPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return
		}
		room, player, err := c.svc.JoinRoom(c, p.Code, p.Name)
		if err != nil {
			c.Send(game.EventRoomError, map[string]any{"reason": err.Error()})
			return
		}
		c.room, c.player = room, player

	case MsgLeaveRoom:
		if c.room == nil {
			return
		}
		c.svc.LeaveRoom(c.room, c.player.ID)
		c.room, c.player = nil, nil

	case MsgSetRounds:
		var p roundsPayload
		if c.room == nil || json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		c.svc.SetRounds(c.room, c.player.ID, p.Rounds)

	case MsgStyleInstruction:
		var p textPayload
		if c.room == nil || json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		c.svc.SubmitStyleInstruction(c.room, c.player.ID, p.Text)

	case MsgTopicSuggestion:
		var p textPayload
		if c.room == nil || json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		c.svc.SubmitTopicSuggestion(c.room, c.player.ID, p.Text)

	case MsgReady:
		var p readyPayload
		if c.room == nil || json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		c.svc.SetReady(c.room, c.player.ID, p.Ready)

	case MsgStartRound:
		if c.room == nil {
			return
		}
		c.svc.RequestStartRound(c.room, c.player.ID)

	case MsgSubmitAnswer:
		var p textPayload
		if c.room == nil || json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		c.svc.SubmitAnswer(c.room, c.player.ID, p.Text)

	case MsgCastVote:
		var p votePayload
		if c.room == nil || json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		c.svc.CastVote(c.room, c.player.ID, p.TargetID)

	default:
		log.Debug().Str("type", msg.Type).Msg("unknown message type")
	}
}
