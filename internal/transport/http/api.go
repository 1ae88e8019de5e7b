package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"quizroom-service/internal/domain"
	"quizroom-service/internal/room"
)

const maxUploadBytes = 5 << 20

// API serves the REST surface around the event channel: subject listing,
// custom question validation, and ban-status lookups.
type API struct {
	questions  room.QuestionSource
	moderation room.ModerationGate
}

func NewAPI(questions room.QuestionSource, moderation room.ModerationGate) *API {
	return &API{questions: questions, moderation: moderation}
}

// Register mounts the API routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/subjects", a.Subjects)
	mux.HandleFunc("/api/validate-questions", a.ValidateQuestions)
	mux.HandleFunc("/api/check-ban", a.CheckBan)
	mux.HandleFunc("/api/check-ip-ban", a.CheckIPBan)
}

// Subjects lists available question sets. A storage failure degrades to an
// empty list; the event loop must not care.
func (a *API) Subjects(w http.ResponseWriter, r *http.Request) {
	infos, err := a.questions.ListSubjects(r.Context())
	if err != nil {
		log.Printf("subjects: %v", err)
		infos = nil
	}
	if infos == nil {
		infos = []domain.SubjectInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

type validateRequest struct {
	Questions json.RawMessage `json:"questions"`
}

type validateResponse struct {
	Valid         bool              `json:"valid"`
	QuestionCount int               `json:"questionCount,omitempty"`
	Questions     []domain.Question `json:"questions,omitempty"`
	Warnings      []string          `json:"warnings,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// ValidateQuestions checks an uploaded custom set. Partially valid sets are
// accepted with per-entry warnings.
func (a *API) ValidateQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var request validateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, validateResponse{Valid: false, Error: "invalid JSON body"})
		return
	}

	result, err := domain.ValidateCustomSet(request.Questions)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, validateResponse{Valid: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:         true,
		QuestionCount: len(result.Questions),
		Questions:     result.Questions,
		Warnings:      result.Warnings,
	})
}

type banStatus struct {
	Banned     bool       `json:"banned"`
	Type       string     `json:"type,omitempty"`
	IP         string     `json:"ip,omitempty"`
	ExternalID string     `json:"uuid,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	BannedAt   *time.Time `json:"bannedAt,omitempty"`
	UnbanDate  *time.Time `json:"unbanDate,omitempty"`
}

// CheckBan reports the ban status of a client-persisted identifier. The
// requester's IP is deliberately not consulted here.
func (a *API) CheckBan(w http.ResponseWriter, r *http.Request) {
	externalID := r.URL.Query().Get("uuid")
	if externalID != "" {
		if info := a.moderation.IDBanInfo(externalID); info != nil {
			writeJSON(w, http.StatusOK, banStatus{
				Banned:     true,
				Type:       "uuid",
				ExternalID: externalID,
				Reason:     info.Reason,
				BannedAt:   &info.BannedAt,
				UnbanDate:  info.UnbanDate,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, banStatus{Banned: false})
}

// CheckIPBan reports whether the requester's own IP is banned.
func (a *API) CheckIPBan(w http.ResponseWriter, r *http.Request) {
	ip := room.NormalizeIP(clientIP(r))
	if info := a.moderation.IPBanInfo(ip); info != nil {
		writeJSON(w, http.StatusOK, banStatus{
			Banned:    true,
			Type:      "ip",
			IP:        ip,
			Reason:    info.Reason,
			BannedAt:  &info.BannedAt,
			UnbanDate: info.UnbanDate,
		})
		return
	}
	writeJSON(w, http.StatusOK, banStatus{Banned: false})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
