// Package protocol defines the event channel contract between clients and the
// room coordination core: a small envelope with a type tag plus one typed
// payload record per event, validated at the boundary before dispatch.
package protocol

import (
	"encoding/json"
	"time"

	"quizroom-service/internal/domain"
)

// Inbound event names.
const (
	HostCreateRoom         = "host-create-room"
	HostSetSubject         = "host-set-subject"
	HostSetCustomQuestions = "host-set-custom-questions"
	HostStartGame          = "host-start-game"
	HostNextQuestion       = "host-next-question"
	HostEndGame            = "host-end-game"
	HostEndRoom            = "host-end-room"
	HostRevealAnswer       = "host-reveal-answer"
	HostKickPlayer         = "host-kick-player"
	HostRequestBan         = "host-request-ban"
	HostBroadcastMessage   = "host-broadcast-message"
	HostBroadcastTargeted  = "host-broadcast-targeted"
	HostBroadcastPresenter = "host-broadcast-presenter"
	PlayerJoinRoom         = "player-join-room"
	PlayerSubmitAnswer     = "player-submit-answer"
	PlayerClap             = "player-clap"
	PlayerLeave            = "player-leave"
	PresenterJoinRoom      = "presenter-join-room"
)

// Outbound event names.
const (
	RoomCreated         = "room-created"
	RoomJoined          = "room-joined"
	SubjectChanged      = "subject-changed"
	SubjectInfo         = "subject-info"
	GameStarted         = "game-started"
	PlayerListUpdated   = "player-list-updated"
	NewQuestion         = "new-question"
	AnswerSubmitted     = "answer-submitted"
	PlayerAnswered      = "player-answered"
	AnswerStats         = "answer-stats"
	AnswerResult        = "answer-result"
	RevealAnswer        = "reveal-answer"
	RevealAnswerPlayers = "reveal-answer-players"
	GameEnded           = "game-ended"
	RoomClosed          = "room-closed"
	Kicked              = "kicked"
	HostDisconnected    = "host-disconnected"
	HostMessage         = "host-message"
	PresenterMessage    = "presenter-message"
	ClapUpdate          = "clap-update"
	Banned              = "banned"
	IdentityBanned      = "uuid-banned"
	Error               = "error"
)

// Inbound is the raw envelope read off the wire; the payload is decoded into
// its typed record once the event name is known.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event is an outbound envelope.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Inbound payloads.

type SetSubjectPayload struct {
	RoomCode string `json:"roomCode"`
	Subject  string `json:"subject"`
}

type SetCustomQuestionsPayload struct {
	RoomCode  string          `json:"roomCode"`
	Questions json.RawMessage `json:"questions"`
}

// RoomPayload covers host commands that only name the room.
type RoomPayload struct {
	RoomCode string `json:"roomCode"`
}

type KickPlayerPayload struct {
	RoomCode string `json:"roomCode"`
	ClientID string `json:"clientId"`
}

type RequestBanPayload struct {
	RoomCode   string `json:"roomCode"`
	ClientID   string `json:"clientId"`
	PlayerName string `json:"playerName"`
	Reason     string `json:"reason"`
}

type BroadcastPayload struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
}

type BroadcastTargetedPayload struct {
	RoomCode  string   `json:"roomCode"`
	Message   string   `json:"message"`
	ClientIDs []string `json:"clientIds"`
}

type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	ExternalID string `json:"externalId,omitempty"`
}

type SubmitAnswerPayload struct {
	RoomCode string             `json:"roomCode"`
	Answer   domain.AnswerValue `json:"answer"`
}

// Outbound payloads.

type RoomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
}

type SubjectChangedPayload struct {
	Subject       string `json:"subject"`
	QuestionCount int    `json:"questionCount"`
}

type SubjectInfoPayload struct {
	Subject       string `json:"subject"`
	QuestionCount int    `json:"questionCount"`
}

type RoomJoinedPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

type PlayerListPayload struct {
	Players []domain.Player `json:"players"`
}

type NewQuestionPayload struct {
	Question       domain.Question `json:"question"`
	QuestionNumber int             `json:"questionNumber"`
	TotalQuestions int             `json:"totalQuestions"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type PlayerAnsweredPayload struct {
	PlayerName string             `json:"playerName"`
	Answer     domain.AnswerValue `json:"answer"`
	Correct    *bool              `json:"correct"`
	Score      int                `json:"score"`
}

type AnswerStatsPayload struct {
	Answered int             `json:"answered"`
	Total    int             `json:"total"`
	Answers  []domain.Answer `json:"answers"`
}

type AnswerResultPayload struct {
	Correct       *bool             `json:"correct"`
	CorrectAnswer *domain.AnswerKey `json:"correctAnswer"`
	Explanation   string            `json:"explanation,omitempty"`
	Score         int               `json:"score"`
}

type RevealPayload struct {
	CorrectAnswer *domain.AnswerKey `json:"correctAnswer"`
	Explanation   string            `json:"explanation,omitempty"`
}

type GameEndedPayload struct {
	Message     string          `json:"message"`
	FinalScores []domain.Player `json:"finalScores"`
}

type ClapUpdatePayload struct {
	TotalClaps int `json:"totalClaps"`
}

type BannedPayload struct {
	Message    string     `json:"message"`
	Reason     string     `json:"reason"`
	IP         string     `json:"ip,omitempty"`
	ExternalID string     `json:"uuid,omitempty"`
	PlayerName string     `json:"playerName,omitempty"`
	BannedAt   *time.Time `json:"bannedAt,omitempty"`
	UnbanDate  *time.Time `json:"unbanDate,omitempty"`
}

type ErrorPayload struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// ErrorEvent wraps a rejection for the originating caller.
func ErrorEvent(err error) Event {
	payload := ErrorPayload{Message: err.Error()}
	if kind := domain.KindOf(err); kind != "" {
		payload.Kind = string(kind)
	}
	return Event{Type: Error, Payload: payload}
}
