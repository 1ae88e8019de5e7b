package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"

	"quizroom-service/internal/domain"
	"quizroom-service/internal/protocol"
	"quizroom-service/internal/room"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades connections and wires the event channel into the room
// coordination core. Each connection gets an identity, a writer goroutine,
// and a read loop that dispatches typed events; a rejection goes back to the
// caller alone and never tears anything else down.
type WSHandler struct {
	registry *room.Registry
	upgrader websocket.Upgrader
}

func NewWSHandler(registry *room.Registry) *WSHandler {
	return &WSHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// wsClient is the per-connection sender. Send never blocks: when the buffer
// is full the oldest pending event is dropped so slow readers cannot stall a
// room broadcast.
type wsClient struct {
	id string
	ip string

	mu     sync.Mutex
	closed bool
	send   chan protocol.Event
}

func newWSClient(ip string) *wsClient {
	return &wsClient{
		id:   uuid.NewString(),
		ip:   ip,
		send: make(chan protocol.Event, 32),
	}
}

func (c *wsClient) Send(event protocol.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- event:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- event:
		default:
		}
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// ServeWS handles the lifetime of one connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ip := room.NormalizeIP(clientIP(r))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// A banned IP is refused before any room-mutating event is processed.
	if h.registry.Moderation().IsIPBanned(ip) {
		payload := protocol.BannedPayload{
			Message: "Your IP address has been banned from this server.",
			Reason:  "Prohibited conduct",
			IP:      ip,
		}
		if info := h.registry.Moderation().IPBanInfo(ip); info != nil {
			payload.Reason = info.Reason
			payload.UnbanDate = info.UnbanDate
		}
		_ = conn.WriteJSON(protocol.Event{Type: protocol.Banned, Payload: payload})
		log.Printf("blocked connection from banned IP %s", ip)
		return
	}

	client := newWSClient(ip)
	log.Printf("client %s connected from %s", client.id, ip)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for event := range client.send {
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound protocol.Inbound
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if !h.dispatch(r.Context(), client, inbound) {
			break
		}
	}

	h.registry.DisconnectClient(client.id)
	client.close()
	<-writerDone
	log.Printf("client %s disconnected", client.id)
}

// dispatch decodes and applies one inbound event. It returns false when the
// connection must be dropped (banned identity detected at join).
func (h *WSHandler) dispatch(ctx context.Context, client *wsClient, inbound protocol.Inbound) bool {
	err := h.handle(ctx, client, inbound)
	if err == nil {
		return true
	}
	client.Send(protocol.ErrorEvent(err))
	return !errors.Is(err, domain.ErrBanned)
}

func (h *WSHandler) handle(ctx context.Context, client *wsClient, inbound protocol.Inbound) error {
	roomClient := room.Client{ID: client.id, IP: client.ip, Sender: client}

	switch inbound.Type {
	case protocol.HostCreateRoom:
		h.registry.CreateRoom(ctx, roomClient)
		return nil

	case protocol.HostSetSubject:
		var payload protocol.SetSubjectPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		target, err := h.room(payload.RoomCode)
		if err != nil {
			return err
		}
		questions, err := h.registry.Questions().GetQuestions(ctx, payload.Subject)
		if err != nil {
			return domain.Reject(domain.KindValidation, "invalid subject")
		}
		return target.SetSubject(client.id, payload.Subject, questions)

	case protocol.HostSetCustomQuestions:
		var payload protocol.SetCustomQuestionsPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		target, err := h.room(payload.RoomCode)
		if err != nil {
			return err
		}
		result, err := domain.ValidateCustomSet(payload.Questions)
		if err != nil {
			return err
		}
		return target.SetCustomQuestions(client.id, result.Questions)

	case protocol.HostStartGame:
		return h.roomOp(inbound.Payload, func(target *room.Room) error {
			return target.StartGame(client.id)
		})
	case protocol.HostNextQuestion:
		return h.roomOp(inbound.Payload, func(target *room.Room) error {
			return target.NextQuestion(client.id)
		})
	case protocol.HostEndGame:
		return h.roomOp(inbound.Payload, func(target *room.Room) error {
			return target.EndGame(client.id)
		})
	case protocol.HostRevealAnswer:
		return h.roomOp(inbound.Payload, func(target *room.Room) error {
			return target.RevealAnswer(client.id)
		})

	case protocol.HostEndRoom:
		var payload protocol.RoomPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		return h.registry.EndRoom(payload.RoomCode, client.id)

	case protocol.HostKickPlayer:
		var payload protocol.KickPlayerPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		target, err := h.room(payload.RoomCode)
		if err != nil {
			return err
		}
		return target.KickPlayer(client.id, payload.ClientID)

	case protocol.HostRequestBan:
		var payload protocol.RequestBanPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		target, err := h.room(payload.RoomCode)
		if err != nil {
			return err
		}
		return target.RequestBan(client.id, payload.ClientID, payload.PlayerName, payload.Reason)

	case protocol.HostBroadcastMessage:
		var payload protocol.BroadcastPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		target, err := h.room(payload.RoomCode)
		if err != nil {
			return err
		}
		return target.BroadcastMessage(client.id, payload.Message)

	case protocol.HostBroadcastTargeted:
		var payload protocol.BroadcastTargetedPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		target, err := h.room(payload.RoomCode)
		if err != nil {
			return err
		}
		return target.BroadcastTargeted(client.id, payload.Message, payload.ClientIDs)

	case protocol.HostBroadcastPresenter:
		var payload protocol.BroadcastPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		target, err := h.room(payload.RoomCode)
		if err != nil {
			return err
		}
		return target.BroadcastPresenter(client.id, payload.Message)

	case protocol.PlayerJoinRoom:
		var payload protocol.JoinRoomPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		target, err := h.room(payload.RoomCode)
		if err != nil {
			return err
		}
		return target.JoinPlayer(roomClient, payload.PlayerName, payload.ExternalID)

	case protocol.PlayerSubmitAnswer:
		var payload protocol.SubmitAnswerPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		target, err := h.room(payload.RoomCode)
		if err != nil {
			return err
		}
		return target.SubmitAnswer(client.id, payload.Answer)

	case protocol.PlayerClap:
		return h.roomOp(inbound.Payload, func(target *room.Room) error {
			target.Clap()
			return nil
		})

	case protocol.PlayerLeave:
		return h.roomOp(inbound.Payload, func(target *room.Room) error {
			target.RemovePlayer(client.id)
			return nil
		})

	case protocol.PresenterJoinRoom:
		var payload protocol.RoomPayload
		if err := decode(inbound.Payload, &payload); err != nil {
			return err
		}
		target, err := h.room(payload.RoomCode)
		if err != nil {
			return err
		}
		target.JoinPresenter(roomClient)
		return nil
	}

	return domain.Reject(domain.KindValidation, "unsupported message type")
}

func (h *WSHandler) room(code string) (*room.Room, error) {
	target, ok := h.registry.Get(code)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return target, nil
}

// roomOp handles commands whose payload only names the room.
func (h *WSHandler) roomOp(raw json.RawMessage, op func(*room.Room) error) error {
	var payload protocol.RoomPayload
	if err := decode(raw, &payload); err != nil {
		return err
	}
	target, err := h.room(payload.RoomCode)
	if err != nil {
		return err
	}
	return op(target)
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.Reject(domain.KindValidation, "invalid payload")
	}
	return nil
}

// clientIP prefers the forwarded address so the gate works behind a proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			forwarded = forwarded[:i]
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
