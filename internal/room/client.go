package room

import (
	"context"
	"strings"

	"quizroom-service/internal/domain"
	"quizroom-service/internal/protocol"
)

// Sender delivers events to one connection. Implementations must not block:
// room operations fan out while holding the room lock.
type Sender interface {
	Send(event protocol.Event)
}

// Client binds a transport connection to a logical participant.
type Client struct {
	ID     string
	IP     string
	Sender Sender
}

func (c Client) send(event protocol.Event) {
	if c.Sender != nil {
		c.Sender.Send(event)
	}
}

// QuestionSource resolves question sets by subject key.
type QuestionSource interface {
	ListSubjects(ctx context.Context) ([]domain.SubjectInfo, error)
	GetQuestions(ctx context.Context, subjectID string) ([]domain.Question, error)
}

// ModerationGate answers ban-status queries and records host ban requests.
// The core only consumes it; review and persistence live elsewhere.
type ModerationGate interface {
	IsIPBanned(ip string) bool
	IPBanInfo(ip string) *domain.BanRecord
	IsIDBanned(externalID string) bool
	IDBanInfo(externalID string) *domain.BanRecord
	SubmitBanRequest(request domain.BanRequest) error
}

// NameValidator screens player display names before they are accepted.
type NameValidator interface {
	Allow(name string) bool
}

// NormalizeIP collapses localhost variations so ban lookups behave the same
// over IPv4 and IPv6.
func NormalizeIP(ip string) string {
	normalized := strings.TrimPrefix(ip, "::ffff:")
	if normalized == "::1" {
		return "127.0.0.1"
	}
	return normalized
}
