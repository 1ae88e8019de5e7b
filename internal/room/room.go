package room

import (
	"fmt"
	"log"
	"sync"
	"time"

	"quizroom-service/internal/domain"
	"quizroom-service/internal/protocol"
)

// Room is one isolated quiz session. Every operation runs under the room
// mutex, so state transitions are atomic with respect to each other while
// rooms never block one another. Senders are non-blocking, which keeps
// fan-out safe under the lock.
type Room struct {
	code       string
	moderation ModerationGate
	names      NameValidator
	now        func() time.Time

	mu          sync.Mutex
	host        Client
	presenters  map[string]Client
	players     map[string]*domain.Player
	clients     map[string]Client
	playerOrder []string
	subject     string
	questions   []domain.Question
	// questionIndex is -1 before the first question and advances
	// monotonically while a game runs.
	questionIndex int
	answers       map[string]*domain.Answer
	answerOrder   []string
	gameStarted   bool
	gameEnded     bool
	clapCount     int
}

func newRoom(code string, host Client, subject string, questions []domain.Question,
	moderation ModerationGate, names NameValidator, now func() time.Time) *Room {
	return &Room{
		code:          code,
		moderation:    moderation,
		names:         names,
		now:           now,
		host:          host,
		presenters:    make(map[string]Client),
		players:       make(map[string]*domain.Player),
		clients:       make(map[string]Client),
		subject:       subject,
		questions:     questions,
		questionIndex: -1,
		answers:       make(map[string]*domain.Answer),
	}
}

// Code returns the room's 6-character identifier.
func (r *Room) Code() string { return r.code }

func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host.ID
}

// JoinPlayer admits a connection as a player. A banned external identifier is
// refused before any room state changes; the gateway drops the connection on
// a banned rejection. Mid-round joiners immediately receive the active
// question.
func (r *Room) JoinPlayer(client Client, name, externalID string) error {
	if externalID != "" && r.moderation.IsIDBanned(externalID) {
		info := r.moderation.IDBanInfo(externalID)
		payload := protocol.BannedPayload{
			Message:    "You have been banned from this server.",
			Reason:     "Prohibited conduct",
			ExternalID: externalID,
			PlayerName: name,
		}
		if info != nil {
			payload.Reason = info.Reason
			payload.PlayerName = info.PlayerName
			payload.BannedAt = &info.BannedAt
			payload.UnbanDate = info.UnbanDate
		}
		client.send(protocol.Event{Type: protocol.IdentityBanned, Payload: payload})
		return domain.ErrBanned
	}

	if !r.names.Allow(name) {
		return domain.Reject(domain.KindValidation,
			"username contains inappropriate content, please choose a different name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.players[client.ID]; ok {
		existing.Name = name
	} else {
		r.players[client.ID] = &domain.Player{
			Name:       name,
			ClientID:   client.ID,
			ExternalID: externalID,
		}
		r.playerOrder = append(r.playerOrder, client.ID)
	}
	r.clients[client.ID] = client

	client.send(protocol.Event{Type: protocol.RoomJoined, Payload: protocol.RoomJoinedPayload{
		RoomCode:   r.code,
		PlayerName: name,
		Score:      r.players[client.ID].Score,
	}})
	r.broadcastPlayerListLocked()

	if r.gameStarted {
		if question := r.currentQuestionLocked(); question != nil {
			client.send(r.newQuestionEventLocked(*question))
		}
	}
	log.Printf("player %s (%s) joined room %s", name, client.ID, r.code)
	return nil
}

// JoinPresenter admits a read-only broadcast recipient and brings it up to
// date with the room, including the running round if one is in flight.
func (r *Room) JoinPresenter(client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.presenters[client.ID] = client

	client.send(protocol.Event{Type: protocol.PlayerListUpdated, Payload: protocol.PlayerListPayload{
		Players: r.playerListLocked(),
	}})
	client.send(protocol.Event{Type: protocol.SubjectInfo, Payload: protocol.SubjectInfoPayload{
		Subject:       r.subject,
		QuestionCount: len(r.questions),
	}})

	if r.gameStarted {
		if question := r.currentQuestionLocked(); question != nil {
			client.send(r.newQuestionEventLocked(*question))
			client.send(r.answerStatsEventLocked())
			if r.allAnsweredLocked() {
				client.send(protocol.Event{Type: protocol.RevealAnswer, Payload: r.revealPayloadLocked(*question)})
			}
		}
	}
	log.Printf("presenter %s joined room %s", client.ID, r.code)
}

// SetSubject swaps the room's question set. Rejected mid-round; resolving the
// subject key to questions happens at the boundary so the room never does IO
// under its lock.
func (r *Room) SetSubject(callerID, subject string, questions []domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(callerID); err != nil {
		return err
	}
	if r.gameStarted && !r.gameEnded {
		return domain.Reject(domain.KindInvalidState, "cannot change subject while game is running")
	}

	r.subject = subject
	r.questions = questions
	r.questionIndex = -1

	r.host.send(protocol.Event{Type: protocol.SubjectChanged, Payload: protocol.SubjectChangedPayload{
		Subject:       subject,
		QuestionCount: len(questions),
	}})
	r.broadcastPresentersLocked(protocol.Event{Type: protocol.SubjectInfo, Payload: protocol.SubjectInfoPayload{
		Subject:       subject,
		QuestionCount: len(questions),
	}})
	log.Printf("room %s subject changed to %s (%d questions)", r.code, subject, len(questions))
	return nil
}

// SetCustomQuestions installs a validated ad-hoc set under the custom
// subject sentinel.
func (r *Room) SetCustomQuestions(callerID string, questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.Reject(domain.KindValidation, "invalid questions array")
	}
	return r.SetSubject(callerID, CustomSubject, questions)
}

// StartGame begins a round: scores reset, the first question loads
// immediately. Starting is showing question one; there is no armed state.
func (r *Room) StartGame(callerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(callerID); err != nil {
		return err
	}
	if len(r.questions) == 0 {
		return domain.Reject(domain.KindInvalidState, "no questions loaded for this room")
	}

	r.gameStarted = true
	r.gameEnded = false
	r.clapCount = 0
	for _, player := range r.players {
		player.Score = 0
	}
	r.questionIndex = 0
	r.clearAnswersLocked()

	r.broadcastLocked(protocol.Event{Type: protocol.GameStarted})
	r.broadcastPlayerListLocked()
	r.broadcastLocked(r.newQuestionEventLocked(r.questions[0]))
	log.Printf("game started in room %s", r.code)
	return nil
}

// NextQuestion advances the round, ending the game when the set is
// exhausted.
func (r *Room) NextQuestion(callerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(callerID); err != nil {
		return err
	}
	if r.gameEnded {
		return domain.Reject(domain.KindInvalidState, "game has ended, cannot load more questions")
	}

	r.questionIndex++
	if r.questionIndex >= len(r.questions) {
		r.endGameLocked("No more questions!")
		return nil
	}

	r.clearAnswersLocked()
	r.broadcastLocked(r.newQuestionEventLocked(r.questions[r.questionIndex]))
	log.Printf("room %s: question %d sent", r.code, r.questionIndex+1)
	return nil
}

// RevealAnswer discloses the correct answer to presenters and players and
// sends each already-answered player their individual result. Safe to call
// repeatedly: awarded scores were fixed at submission time.
func (r *Room) RevealAnswer(callerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(callerID); err != nil {
		return err
	}
	question := r.currentQuestionLocked()
	if question == nil {
		return domain.ErrNoActiveQuestion
	}
	r.revealLocked(*question)
	log.Printf("host revealed answer in room %s", r.code)
	return nil
}

// SubmitAnswer records a player's response to the active question. At most
// one submission per player per question: later submissions are rejected so
// a score can never be applied twice. When the last active player answers,
// the reveal happens automatically.
func (r *Room) SubmitAnswer(callerID string, value domain.AnswerValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[callerID]
	if !ok {
		return domain.Reject(domain.KindUnauthorized, "not a player in this room")
	}
	question := r.currentQuestionLocked()
	if question == nil {
		return domain.ErrNoActiveQuestion
	}
	if _, answered := r.answers[callerID]; answered {
		return domain.Reject(domain.KindInvalidState, "answer already submitted for this question")
	}

	answer := &domain.Answer{
		Value:       value,
		Correct:     domain.CheckAnswer(*question, value),
		PlayerName:  player.Name,
		SubmittedAt: r.now(),
	}
	r.answers[callerID] = answer
	r.answerOrder = append(r.answerOrder, callerID)

	if answer.Correct != nil && *answer.Correct {
		answer.Awarded = scoreForTimestamp(r.orderedAnswersLocked(), answer.SubmittedAt)
		player.Score += answer.Awarded
	}

	// Acknowledge privately without revealing correctness.
	if client, ok := r.clients[callerID]; ok {
		client.send(protocol.Event{Type: protocol.AnswerSubmitted, Payload: protocol.MessagePayload{
			Message: "Answer submitted! Waiting for results...",
		}})
	}
	r.host.send(protocol.Event{Type: protocol.PlayerAnswered, Payload: protocol.PlayerAnsweredPayload{
		PlayerName: player.Name,
		Answer:     value,
		Correct:    answer.Correct,
		Score:      answer.Awarded,
	}})
	r.broadcastLocked(r.answerStatsEventLocked())
	r.broadcastPlayerListLocked()

	if r.allAnsweredLocked() {
		r.revealLocked(*question)
	}
	return nil
}

// EndGame closes the round but keeps the room and its players for a
// subsequent game.
func (r *Room) EndGame(callerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(callerID); err != nil {
		return err
	}
	r.endGameLocked("Game ended by host. Waiting for next game...")
	log.Printf("game ended in room %s (room still active)", r.code)
	return nil
}

// KickPlayer removes the target from the room; their pending answer stops
// counting toward answer stats. The removed connection is told apart from a
// normal leave.
func (r *Room) KickPlayer(callerID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(callerID); err != nil {
		return err
	}
	player, ok := r.players[targetID]
	if !ok {
		return nil
	}
	if client, ok := r.clients[targetID]; ok {
		client.send(protocol.Event{Type: protocol.Kicked, Payload: protocol.MessagePayload{
			Message: "You have been removed from the game by the host",
		}})
	}
	r.removePlayerLocked(targetID)
	r.broadcastPlayerListLocked()
	log.Printf("host kicked player %s (%s) from room %s", player.Name, targetID, r.code)
	return nil
}

// RequestBan records a moderation review request for the target player.
func (r *Room) RequestBan(callerID, targetID, playerName, reason string) error {
	r.mu.Lock()
	if err := r.requireHostLocked(callerID); err != nil {
		r.mu.Unlock()
		return err
	}
	player, ok := r.players[targetID]
	if !ok {
		r.mu.Unlock()
		return domain.Reject(domain.KindValidation, "player not found")
	}
	if playerName == "" {
		playerName = player.Name
	}
	request := domain.BanRequest{
		PlayerName:  playerName,
		ExternalID:  player.ExternalID,
		PlayerIP:    r.clients[targetID].IP,
		Reason:      reason,
		RequestedBy: fmt.Sprintf("Host of room %s", r.code),
		RoomCode:    r.code,
		Timestamp:   r.now(),
	}
	r.mu.Unlock()

	// Gate persistence may touch files or the network; never under the lock.
	if err := r.moderation.SubmitBanRequest(request); err != nil {
		log.Printf("room %s: ban request for %s failed: %v", r.code, playerName, err)
		return domain.Reject(domain.KindValidation, "could not record ban request")
	}
	log.Printf("ban request submitted for %s in room %s", playerName, r.code)
	return nil
}

// BroadcastMessage sends a host announcement to the whole room.
func (r *Room) BroadcastMessage(callerID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHostLocked(callerID); err != nil {
		return err
	}
	r.broadcastLocked(protocol.Event{Type: protocol.HostMessage, Payload: protocol.MessagePayload{Message: message}})
	return nil
}

// BroadcastTargeted sends a host announcement to a subset of players.
func (r *Room) BroadcastTargeted(callerID, message string, targetIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHostLocked(callerID); err != nil {
		return err
	}
	for _, id := range targetIDs {
		if client, ok := r.clients[id]; ok {
			client.send(protocol.Event{Type: protocol.HostMessage, Payload: protocol.MessagePayload{Message: message}})
		}
	}
	return nil
}

// BroadcastPresenter sends a host announcement to presenters only.
func (r *Room) BroadcastPresenter(callerID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHostLocked(callerID); err != nil {
		return err
	}
	r.broadcastPresentersLocked(protocol.Event{Type: protocol.PresenterMessage, Payload: protocol.MessagePayload{Message: message}})
	return nil
}

// Clap bumps the room's applause counter and tells everyone. Cosmetic only,
// no gating, no effect on scores.
func (r *Room) Clap() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clapCount++
	r.broadcastLocked(protocol.Event{Type: protocol.ClapUpdate, Payload: protocol.ClapUpdatePayload{
		TotalClaps: r.clapCount,
	}})
}

// RemovePlayer handles an explicit leave or a dropped connection; the room
// continues without the player.
func (r *Room) RemovePlayer(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[clientID]
	if !ok {
		return false
	}
	r.removePlayerLocked(clientID)
	r.broadcastPlayerListLocked()
	log.Printf("player %s (%s) left room %s", player.Name, clientID, r.code)
	return true
}

// RemovePresenter drops a presenter registration.
func (r *Room) RemovePresenter(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.presenters, clientID)
}

func (r *Room) closeByHost(callerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHostLocked(callerID); err != nil {
		return err
	}
	r.broadcastLocked(protocol.Event{Type: protocol.RoomClosed, Payload: protocol.MessagePayload{
		Message: "Room has been closed by the host",
	}})
	return nil
}

func (r *Room) closeHostDisconnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, client := range r.clients {
		client.send(protocol.Event{Type: protocol.HostDisconnected})
	}
	for _, presenter := range r.presenters {
		presenter.send(protocol.Event{Type: protocol.HostDisconnected})
	}
}

// Internal helpers; all require the room lock.

func (r *Room) requireHostLocked(callerID string) error {
	if callerID != r.host.ID {
		return domain.Reject(domain.KindUnauthorized, "only the room host may do this")
	}
	return nil
}

func (r *Room) currentQuestionLocked() *domain.Question {
	if r.questionIndex < 0 || r.questionIndex >= len(r.questions) {
		return nil
	}
	return &r.questions[r.questionIndex]
}

func (r *Room) clearAnswersLocked() {
	r.answers = make(map[string]*domain.Answer)
	r.answerOrder = nil
}

func (r *Room) removePlayerLocked(clientID string) {
	delete(r.players, clientID)
	delete(r.clients, clientID)
	delete(r.answers, clientID)
	for i, id := range r.playerOrder {
		if id == clientID {
			r.playerOrder = append(r.playerOrder[:i], r.playerOrder[i+1:]...)
			break
		}
	}
	for i, id := range r.answerOrder {
		if id == clientID {
			r.answerOrder = append(r.answerOrder[:i], r.answerOrder[i+1:]...)
			break
		}
	}
}

func (r *Room) playerListLocked() []domain.Player {
	players := make([]domain.Player, 0, len(r.playerOrder))
	for _, id := range r.playerOrder {
		if player, ok := r.players[id]; ok {
			players = append(players, *player)
		}
	}
	return players
}

// orderedAnswersLocked returns answers in first-seen submission order, the
// stable order the scoring engine uses for timestamp ties.
func (r *Room) orderedAnswersLocked() []*domain.Answer {
	answers := make([]*domain.Answer, 0, len(r.answerOrder))
	for _, id := range r.answerOrder {
		if answer, ok := r.answers[id]; ok {
			answers = append(answers, answer)
		}
	}
	return answers
}

func (r *Room) allAnsweredLocked() bool {
	return len(r.players) > 0 && len(r.answers) == len(r.players)
}

func (r *Room) newQuestionEventLocked(question domain.Question) protocol.Event {
	return protocol.Event{Type: protocol.NewQuestion, Payload: protocol.NewQuestionPayload{
		Question:       question.Sanitized(),
		QuestionNumber: r.questionIndex + 1,
		TotalQuestions: len(r.questions),
	}}
}

func (r *Room) answerStatsEventLocked() protocol.Event {
	ordered := r.orderedAnswersLocked()
	answers := make([]domain.Answer, 0, len(ordered))
	for _, answer := range ordered {
		answers = append(answers, *answer)
	}
	return protocol.Event{Type: protocol.AnswerStats, Payload: protocol.AnswerStatsPayload{
		Answered: len(r.answers),
		Total:    len(r.players),
		Answers:  answers,
	}}
}

func (r *Room) revealPayloadLocked(question domain.Question) protocol.RevealPayload {
	return protocol.RevealPayload{
		CorrectAnswer: question.Answer,
		Explanation:   question.Explanation,
	}
}

func (r *Room) revealLocked(question domain.Question) {
	payload := r.revealPayloadLocked(question)
	r.broadcastPresentersLocked(protocol.Event{Type: protocol.RevealAnswer, Payload: payload})
	r.broadcastLocked(protocol.Event{Type: protocol.RevealAnswerPlayers, Payload: payload})

	for id, answer := range r.answers {
		client, ok := r.clients[id]
		if !ok {
			continue
		}
		client.send(protocol.Event{Type: protocol.AnswerResult, Payload: protocol.AnswerResultPayload{
			Correct:       answer.Correct,
			CorrectAnswer: question.Answer,
			Explanation:   question.Explanation,
			Score:         answer.Awarded,
		}})
	}
}

func (r *Room) endGameLocked(message string) {
	r.gameEnded = true
	r.gameStarted = false
	r.clapCount = 0
	r.broadcastLocked(protocol.Event{Type: protocol.GameEnded, Payload: protocol.GameEndedPayload{
		Message:     message,
		FinalScores: r.playerListLocked(),
	}})
}

func (r *Room) broadcastPlayerListLocked() {
	r.broadcastLocked(protocol.Event{Type: protocol.PlayerListUpdated, Payload: protocol.PlayerListPayload{
		Players: r.playerListLocked(),
	}})
}

func (r *Room) broadcastLocked(event protocol.Event) {
	r.host.send(event)
	for _, client := range r.clients {
		client.send(event)
	}
	r.broadcastPresentersLocked(event)
}

func (r *Room) broadcastPresentersLocked(event protocol.Event) {
	for _, presenter := range r.presenters {
		presenter.send(event)
	}
}
