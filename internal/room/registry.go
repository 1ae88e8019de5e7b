package room

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"quizroom-service/internal/domain"
	"quizroom-service/internal/protocol"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultSubject is the question set a fresh room starts with.
	DefaultSubject = "general"
	// CustomSubject is the sentinel for host-uploaded sets.
	CustomSubject = "custom"
)

// Registry owns the mapping from room code to live room. It is an injected
// dependency of the gateway, never a process-wide singleton, so independent
// registries can coexist in tests.
type Registry struct {
	questions  QuestionSource
	moderation ModerationGate
	names      NameValidator
	now        func() time.Time

	mu    sync.RWMutex
	rooms map[string]*Room
	rnd   *rand.Rand
}

func NewRegistry(questions QuestionSource, moderation ModerationGate, names NameValidator) *Registry {
	return NewRegistryWithClock(questions, moderation, names, time.Now)
}

// NewRegistryWithClock allows deterministic timestamps in tests.
func NewRegistryWithClock(questions QuestionSource, moderation ModerationGate, names NameValidator, now func() time.Time) *Registry {
	return &Registry{
		questions:  questions,
		moderation: moderation,
		names:      names,
		now:        now,
		rooms:      make(map[string]*Room),
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Questions exposes the question source for boundary handlers (subject
// listing, subject resolution).
func (r *Registry) Questions() QuestionSource { return r.questions }

// Moderation exposes the gate for pre-join ban checks at the transport.
func (r *Registry) Moderation() ModerationGate { return r.moderation }

// CreateRoom generates a unique code, initializes room state with the default
// subject, and binds the creating connection as host atomically: there is no
// window where the room exists without its host.
func (r *Registry) CreateRoom(ctx context.Context, host Client) *Room {
	questions, err := r.questions.GetQuestions(ctx, DefaultSubject)
	if err != nil {
		// A room without a loadable default set is still usable; the host
		// picks a subject or uploads questions before starting.
		log.Printf("room create: default subject unavailable: %v", err)
		questions = nil
	}

	r.mu.Lock()
	code := r.generateCodeLocked()
	room := newRoom(code, host, DefaultSubject, questions, r.moderation, r.names, r.now)
	r.rooms[code] = room
	r.mu.Unlock()

	host.send(protocol.Event{
		Type:    protocol.RoomCreated,
		Payload: protocol.RoomCreatedPayload{RoomCode: code},
	})
	log.Printf("room %s created by host %s", code, host.ID)
	return room
}

func (r *Registry) generateCodeLocked() string {
	for {
		code := make([]byte, codeLength)
		for i := range code {
			code[i] = codeAlphabet[r.rnd.Intn(len(codeAlphabet))]
		}
		if _, exists := r.rooms[string(code)]; !exists {
			return string(code)
		}
	}
}

// Get resolves a live room by code.
func (r *Registry) Get(code string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	return room, ok
}

// Count reports the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// EndRoom closes a room on host command: members are notified with
// room-closed, then the code stops resolving. Later events against the code
// fail with a room-not-found rejection.
func (r *Registry) EndRoom(code, callerID string) error {
	room, ok := r.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if err := room.closeByHost(callerID); err != nil {
		return err
	}
	r.remove(code)
	log.Printf("room %s closed by host", code)
	return nil
}

func (r *Registry) remove(code string) {
	r.mu.Lock()
	delete(r.rooms, code)
	r.mu.Unlock()
}

// DisconnectClient sweeps a vanished connection out of every room. A host
// disconnect is terminal for its room: all remaining members are notified and
// the room is destroyed, with no host transfer.
func (r *Registry) DisconnectClient(clientID string) {
	r.mu.Lock()
	var closed []string
	var orphaned []*Room
	for code, room := range r.rooms {
		if room.HostID() == clientID {
			closed = append(closed, code)
			orphaned = append(orphaned, room)
		}
	}
	for _, code := range closed {
		delete(r.rooms, code)
	}
	remaining := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		remaining = append(remaining, room)
	}
	r.mu.Unlock()

	for i, room := range orphaned {
		room.closeHostDisconnected()
		log.Printf("room %s destroyed (host disconnected)", closed[i])
	}
	for _, room := range remaining {
		room.RemovePlayer(clientID)
		room.RemovePresenter(clientID)
	}
}
