package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"quizroom-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	ipBanPrefix    = "quizroom:ban:ip:"
	idBanPrefix    = "quizroom:ban:uuid:"
	banRequestList = "quizroom:ban:requests"
)

// ModerationGate stores ban records in Redis. Timed bans carry a TTL until
// their unban date, so expiry needs no sweeper. Ban requests queue on a list
// for the review tooling to drain.
type ModerationGate struct {
	client *redis.Client
	clock  func() time.Time
}

func NewModerationGate(client *redis.Client) *ModerationGate {
	return &ModerationGate{client: client, clock: time.Now}
}

func (g *ModerationGate) IsIPBanned(ip string) bool {
	return g.IPBanInfo(ip) != nil
}

func (g *ModerationGate) IPBanInfo(ip string) *domain.BanRecord {
	return g.banInfo(ipBanPrefix + ip)
}

func (g *ModerationGate) IsIDBanned(externalID string) bool {
	return g.IDBanInfo(externalID) != nil
}

func (g *ModerationGate) IDBanInfo(externalID string) *domain.BanRecord {
	return g.banInfo(idBanPrefix + externalID)
}

func (g *ModerationGate) banInfo(key string) *domain.BanRecord {
	ctx := context.Background()
	data, err := g.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var record domain.BanRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.Printf("moderation: corrupt ban record %s: %v", key, err)
		return nil
	}
	if record.Expired(g.clock()) {
		_ = g.client.Del(ctx, key).Err()
		return nil
	}
	return &record
}

func (g *ModerationGate) SubmitBanRequest(request domain.BanRequest) error {
	data, err := json.Marshal(request)
	if err != nil {
		return err
	}
	return g.client.RPush(context.Background(), banRequestList, data).Err()
}

// BanIP and BanID are used by review tooling and tests.
func (g *ModerationGate) BanIP(ip string, record domain.BanRecord) error {
	return g.setBan(ipBanPrefix+ip, record)
}

func (g *ModerationGate) BanID(externalID string, record domain.BanRecord) error {
	return g.setBan(idBanPrefix+externalID, record)
}

func (g *ModerationGate) setBan(key string, record domain.BanRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if record.UnbanDate != nil {
		ttl = record.UnbanDate.Sub(g.clock())
		if ttl <= 0 {
			return nil
		}
	}
	return g.client.Set(context.Background(), key, data, ttl).Err()
}
