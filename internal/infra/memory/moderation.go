package memory

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"quizroom-service/internal/domain"
)

const (
	bannedIPsFile   = "banned-ips.json"
	bannedIDsFile   = "banned-uuids.json"
	banRequestsFile = "ban-requests.json"
)

type ipBan struct {
	IP string `json:"ip"`
	domain.BanRecord
}

type idBan struct {
	ExternalID string `json:"uuid"`
	domain.BanRecord
}

// ModerationGate keeps ban lists in memory, backed by JSON files in a data
// directory. Expired bans are pruned lazily on lookup. File writes are
// best-effort: a failed save is logged, never fatal.
type ModerationGate struct {
	dir   string
	clock func() time.Time

	mu       sync.Mutex
	ips      []ipBan
	ids      []idBan
	requests []domain.BanRequest
}

func NewModerationGate(dir string) *ModerationGate {
	gate := &ModerationGate{dir: dir, clock: time.Now}
	loadJSON(filepath.Join(dir, bannedIPsFile), &gate.ips)
	loadJSON(filepath.Join(dir, bannedIDsFile), &gate.ids)
	loadJSON(filepath.Join(dir, banRequestsFile), &gate.requests)
	return gate
}

func (g *ModerationGate) IsIPBanned(ip string) bool {
	return g.IPBanInfo(ip) != nil
}

func (g *ModerationGate) IPBanInfo(ip string) *domain.BanRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.clock()
	for i, ban := range g.ips {
		if ban.IP != ip {
			continue
		}
		if ban.Expired(now) {
			g.ips = append(g.ips[:i], g.ips[i+1:]...)
			g.saveLocked(bannedIPsFile, g.ips)
			return nil
		}
		record := ban.BanRecord
		return &record
	}
	return nil
}

func (g *ModerationGate) IsIDBanned(externalID string) bool {
	return g.IDBanInfo(externalID) != nil
}

func (g *ModerationGate) IDBanInfo(externalID string) *domain.BanRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.clock()
	for i, ban := range g.ids {
		if ban.ExternalID != externalID {
			continue
		}
		if ban.Expired(now) {
			g.ids = append(g.ids[:i], g.ids[i+1:]...)
			g.saveLocked(bannedIDsFile, g.ids)
			return nil
		}
		record := ban.BanRecord
		return &record
	}
	return nil
}

func (g *ModerationGate) SubmitBanRequest(request domain.BanRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, request)
	g.saveLocked(banRequestsFile, g.requests)
	return nil
}

// BanIP and BanID exist for the review tooling and tests; the coordination
// core only reads.
func (g *ModerationGate) BanIP(ip string, record domain.BanRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ips = append(g.ips, ipBan{IP: ip, BanRecord: record})
	g.saveLocked(bannedIPsFile, g.ips)
}

func (g *ModerationGate) BanID(externalID string, record domain.BanRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ids = append(g.ids, idBan{ExternalID: externalID, BanRecord: record})
	g.saveLocked(bannedIDsFile, g.ids)
}

// PendingRequests returns a snapshot of recorded ban requests.
func (g *ModerationGate) PendingRequests() []domain.BanRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.BanRequest(nil), g.requests...)
}

func (g *ModerationGate) saveLocked(name string, v any) {
	if g.dir == "" {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("moderation: marshal %s: %v", name, err)
		return
	}
	if err := os.WriteFile(filepath.Join(g.dir, name), data, 0o644); err != nil {
		log.Printf("moderation: save %s: %v", name, err)
	}
}

func loadJSON(path string, v any) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("moderation: load %s: %v", path, err)
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("moderation: parse %s: %v", path, err)
	}
}
