package room

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quizroom-service/internal/domain"
	"quizroom-service/internal/protocol"
	"github.com/stretchr/testify/require"
)

// fakeSender records every event delivered to one connection.
type fakeSender struct {
	mu     sync.Mutex
	events []protocol.Event
}

func (s *fakeSender) Send(event protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeSender) byType(eventType string) []protocol.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []protocol.Event
	for _, event := range s.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func (s *fakeSender) last(eventType string) (protocol.Event, bool) {
	matched := s.byType(eventType)
	if len(matched) == 0 {
		return protocol.Event{}, false
	}
	return matched[len(matched)-1], true
}

func (s *fakeSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

type stubSource struct {
	subjects map[string][]domain.Question
}

func (s *stubSource) ListSubjects(context.Context) ([]domain.SubjectInfo, error) {
	var infos []domain.SubjectInfo
	for id, questions := range s.subjects {
		infos = append(infos, domain.SubjectInfo{ID: id, DisplayName: id, QuestionCount: len(questions)})
	}
	return infos, nil
}

func (s *stubSource) GetQuestions(_ context.Context, subjectID string) ([]domain.Question, error) {
	questions, ok := s.subjects[subjectID]
	if !ok {
		return nil, fmt.Errorf("subject %q not found", subjectID)
	}
	return questions, nil
}

type stubGate struct {
	mu        sync.Mutex
	bannedIDs map[string]*domain.BanRecord
	bannedIPs map[string]*domain.BanRecord
	requests  []domain.BanRequest
}

func newStubGate() *stubGate {
	return &stubGate{
		bannedIDs: make(map[string]*domain.BanRecord),
		bannedIPs: make(map[string]*domain.BanRecord),
	}
}

func (g *stubGate) IsIPBanned(ip string) bool                  { return g.bannedIPs[ip] != nil }
func (g *stubGate) IPBanInfo(ip string) *domain.BanRecord      { return g.bannedIPs[ip] }
func (g *stubGate) IsIDBanned(id string) bool                  { return g.bannedIDs[id] != nil }
func (g *stubGate) IDBanInfo(id string) *domain.BanRecord      { return g.bannedIDs[id] }
func (g *stubGate) SubmitBanRequest(r domain.BanRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, r)
	return nil
}

type blockList struct{ blocked string }

func (b blockList) Allow(name string) bool {
	return b.blocked == "" || !strings.Contains(strings.ToLower(name), b.blocked)
}

// fakeClock advances on every call so submission order maps to strictly
// increasing timestamps.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(10 * time.Millisecond)
	return c.t
}

func testQuestions() []domain.Question {
	return []domain.Question{
		{
			Kind:        domain.KindMultipleChoice,
			Prompt:      "What is 2 + 2?",
			Options:     []string{"3", "4", "5"},
			Answer:      domain.SingleKey(1),
			Explanation: "Basic arithmetic.",
		},
		{
			Kind:    domain.KindMultiSelect,
			Prompt:  "Which of these are prime?",
			Options: []string{"1", "2", "3", "4"},
			Answer:  domain.MultiKey(1, 2),
		},
		{
			Kind:   domain.KindOpenText,
			Prompt: "What did you learn today?",
		},
	}
}

type fixture struct {
	registry *Registry
	gate     *stubGate
	host     *fakeSender
	room     *Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gate := newStubGate()
	source := &stubSource{subjects: map[string][]domain.Question{
		DefaultSubject: testQuestions(),
		"science":      {{Kind: domain.KindTrueFalse, Prompt: "Water boils at 100C at sea level.", Options: []string{"True", "False"}, Answer: domain.SingleKey(0)}},
	}}
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	registry := NewRegistryWithClock(source, gate, blockList{blocked: "jerk"}, clock.Now)

	host := &fakeSender{}
	created := registry.CreateRoom(context.Background(), Client{ID: "host-1", IP: "10.0.0.1", Sender: host})
	return &fixture{registry: registry, gate: gate, host: host, room: created}
}

func (f *fixture) joinPlayer(t *testing.T, id, name string) *fakeSender {
	t.Helper()
	sender := &fakeSender{}
	err := f.room.JoinPlayer(Client{ID: id, IP: "10.0.0." + id, Sender: sender}, name, "ext-"+id)
	require.NoError(t, err)
	return sender
}

func (f *fixture) joinPresenter(t *testing.T, id string) *fakeSender {
	t.Helper()
	sender := &fakeSender{}
	f.room.JoinPresenter(Client{ID: id, Sender: sender})
	return sender
}

func TestCreateRoomBindsHostAndEmitsCode(t *testing.T) {
	f := newFixture(t)

	event, ok := f.host.last(protocol.RoomCreated)
	require.True(t, ok, "host should receive room-created")
	payload := event.Payload.(protocol.RoomCreatedPayload)
	require.Len(t, payload.RoomCode, 6)
	for _, c := range payload.RoomCode {
		require.Contains(t, codeAlphabet, string(c))
	}
	require.Equal(t, f.room.Code(), payload.RoomCode)
	require.Equal(t, "host-1", f.room.HostID())

	resolved, ok := f.registry.Get(payload.RoomCode)
	require.True(t, ok)
	require.Same(t, f.room, resolved)
}

func TestJoinStartSubmitAutoReveal(t *testing.T) {
	f := newFixture(t)
	player := f.joinPlayer(t, "p1", "Al")

	joined, ok := player.last(protocol.RoomJoined)
	require.True(t, ok)
	require.Equal(t, f.room.Code(), joined.Payload.(protocol.RoomJoinedPayload).RoomCode)

	require.NoError(t, f.room.StartGame("host-1"))

	question, ok := player.last(protocol.NewQuestion)
	require.True(t, ok)
	qp := question.Payload.(protocol.NewQuestionPayload)
	require.Equal(t, 1, qp.QuestionNumber)
	require.Equal(t, 3, qp.TotalQuestions)
	require.Nil(t, qp.Question.Answer, "graded question must reach players without the answer")

	require.NoError(t, f.room.SubmitAnswer("p1", domain.IndexValue(1)))

	// Single player answered: auto-reveal fires.
	result, ok := player.last(protocol.AnswerResult)
	require.True(t, ok, "all players answered, expected individual result")
	rp := result.Payload.(protocol.AnswerResultPayload)
	require.NotNil(t, rp.Correct)
	require.True(t, *rp.Correct)
	require.Equal(t, 1000, rp.Score)
	require.NotNil(t, rp.CorrectAnswer)
	require.Equal(t, 1, rp.CorrectAnswer.Index)

	_, ok = player.last(protocol.RevealAnswerPlayers)
	require.True(t, ok)
}

func TestScoringRewardsSpeed(t *testing.T) {
	f := newFixture(t)
	p1 := f.joinPlayer(t, "p1", "Alice")
	p2 := f.joinPlayer(t, "p2", "Bob")
	p3 := f.joinPlayer(t, "p3", "Cara")

	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.SubmitAnswer("p1", domain.IndexValue(1)))
	require.NoError(t, f.room.SubmitAnswer("p2", domain.IndexValue(1)))
	require.NoError(t, f.room.SubmitAnswer("p3", domain.IndexValue(1)))

	for i, sender := range []*fakeSender{p1, p2, p3} {
		result, ok := sender.last(protocol.AnswerResult)
		require.True(t, ok)
		require.Equal(t, 1000-100*i, result.Payload.(protocol.AnswerResultPayload).Score)
	}
}

func TestIncorrectAnswerScoresZero(t *testing.T) {
	f := newFixture(t)
	player := f.joinPlayer(t, "p1", "Al")

	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.SubmitAnswer("p1", domain.IndexValue(0)))

	result, ok := player.last(protocol.AnswerResult)
	require.True(t, ok)
	rp := result.Payload.(protocol.AnswerResultPayload)
	require.NotNil(t, rp.Correct)
	require.False(t, *rp.Correct)
	require.Equal(t, 0, rp.Score)
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	f := newFixture(t)
	f.joinPlayer(t, "p1", "Al")
	f.joinPlayer(t, "p2", "Bea")

	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.SubmitAnswer("p1", domain.IndexValue(1)))

	err := f.room.SubmitAnswer("p1", domain.IndexValue(1))
	require.ErrorIs(t, err, domain.ErrInvalidState)

	f.room.mu.Lock()
	score := f.room.players["p1"].Score
	f.room.mu.Unlock()
	require.Equal(t, 1000, score, "second submission must not change the score")
}

func TestRevealIsIdempotent(t *testing.T) {
	f := newFixture(t)
	player := f.joinPlayer(t, "p1", "Al")

	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.SubmitAnswer("p1", domain.IndexValue(1)))

	require.NoError(t, f.room.RevealAnswer("host-1"))
	require.NoError(t, f.room.RevealAnswer("host-1"))

	f.room.mu.Lock()
	score := f.room.players["p1"].Score
	f.room.mu.Unlock()
	require.Equal(t, 1000, score, "repeated reveals must not re-apply the score")

	results := player.byType(protocol.AnswerResult)
	require.GreaterOrEqual(t, len(results), 3) // auto-reveal plus two manual
	for _, result := range results {
		require.Equal(t, 1000, result.Payload.(protocol.AnswerResultPayload).Score)
	}
}

func TestNextQuestionClearsAnswersAndAdvances(t *testing.T) {
	f := newFixture(t)
	f.joinPlayer(t, "p1", "Al")
	f.joinPlayer(t, "p2", "Bea")

	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.SubmitAnswer("p1", domain.IndexValue(1)))

	require.NoError(t, f.room.NextQuestion("host-1"))

	f.room.mu.Lock()
	index := f.room.questionIndex
	pending := len(f.room.answers)
	f.room.mu.Unlock()
	require.Equal(t, 1, index)
	require.Zero(t, pending)
}

func TestMultiSelectComparedAsSet(t *testing.T) {
	f := newFixture(t)
	player := f.joinPlayer(t, "p1", "Al")

	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.NextQuestion("host-1")) // multi-select question

	require.NoError(t, f.room.SubmitAnswer("p1", domain.IndexSetValue(2, 1)))

	result, ok := player.last(protocol.AnswerResult)
	require.True(t, ok)
	rp := result.Payload.(protocol.AnswerResultPayload)
	require.NotNil(t, rp.Correct)
	require.True(t, *rp.Correct, "index sets compare order-independently")
}

func TestOpenTextAnswerHasNoCorrectness(t *testing.T) {
	f := newFixture(t)
	player := f.joinPlayer(t, "p1", "Al")

	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.NextQuestion("host-1"))
	require.NoError(t, f.room.NextQuestion("host-1")) // open text

	require.NoError(t, f.room.SubmitAnswer("p1", domain.TextValue("go interfaces")))

	result, ok := player.last(protocol.AnswerResult)
	require.True(t, ok)
	rp := result.Payload.(protocol.AnswerResultPayload)
	require.Nil(t, rp.Correct)
	require.Zero(t, rp.Score)
}

func TestHostGatedOperationsRejectOthers(t *testing.T) {
	f := newFixture(t)
	f.joinPlayer(t, "p1", "Al")

	require.ErrorIs(t, f.room.StartGame("p1"), domain.ErrUnauthorized)
	require.ErrorIs(t, f.room.NextQuestion("p1"), domain.ErrUnauthorized)
	require.ErrorIs(t, f.room.EndGame("p1"), domain.ErrUnauthorized)
	require.ErrorIs(t, f.room.RevealAnswer("p1"), domain.ErrUnauthorized)
	require.ErrorIs(t, f.room.KickPlayer("p1", "p1"), domain.ErrUnauthorized)
	require.ErrorIs(t, f.room.SetSubject("p1", "science", nil), domain.ErrUnauthorized)
	require.ErrorIs(t, f.registry.EndRoom(f.room.Code(), "p1"), domain.ErrUnauthorized)

	f.room.mu.Lock()
	started := f.room.gameStarted
	f.room.mu.Unlock()
	require.False(t, started, "rejections must not mutate room state")
}

func TestSubjectChangeRejectedMidRound(t *testing.T) {
	f := newFixture(t)
	f.joinPlayer(t, "p1", "Al")
	require.NoError(t, f.room.StartGame("host-1"))

	err := f.room.SetSubject("host-1", "science", testQuestions())
	require.ErrorIs(t, err, domain.ErrInvalidState)

	// After the game ends the subject may change again.
	require.NoError(t, f.room.EndGame("host-1"))
	require.NoError(t, f.room.SetSubject("host-1", "science", testQuestions()))

	f.room.mu.Lock()
	index := f.room.questionIndex
	f.room.mu.Unlock()
	require.Equal(t, -1, index, "subject change resets question progression")
}

func TestSubmitWithoutActiveQuestion(t *testing.T) {
	f := newFixture(t)
	f.joinPlayer(t, "p1", "Al")

	require.ErrorIs(t, f.room.SubmitAnswer("p1", domain.IndexValue(1)), domain.ErrNoActiveQuestion)
	require.ErrorIs(t, f.room.RevealAnswer("host-1"), domain.ErrNoActiveQuestion)
}

func TestKickedPlayerDroppedFromStats(t *testing.T) {
	f := newFixture(t)
	f.joinPlayer(t, "p1", "Al")
	p2 := f.joinPlayer(t, "p2", "Bea")
	kicked := f.joinPlayer(t, "p3", "Cam")

	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.SubmitAnswer("p3", domain.IndexValue(1)))

	p2.reset()
	require.NoError(t, f.room.KickPlayer("host-1", "p3"))

	_, ok := kicked.last(protocol.Kicked)
	require.True(t, ok, "kicked player gets a distinct notice")
	_, ok = p2.last(protocol.PlayerListUpdated)
	require.True(t, ok, "remaining players see the updated list")

	require.NoError(t, f.room.SubmitAnswer("p1", domain.IndexValue(1)))
	stats, ok := p2.last(protocol.AnswerStats)
	require.True(t, ok)
	sp := stats.Payload.(protocol.AnswerStatsPayload)
	require.Equal(t, 1, sp.Answered, "the kicked player's pending answer no longer counts")
	require.Equal(t, 2, sp.Total)
}

func TestPlayerLeaveKeepsRoomRunning(t *testing.T) {
	f := newFixture(t)
	f.joinPlayer(t, "p1", "Al")
	p2 := f.joinPlayer(t, "p2", "Bea")

	require.NoError(t, f.room.StartGame("host-1"))
	require.True(t, f.room.RemovePlayer("p1"))

	list, ok := p2.last(protocol.PlayerListUpdated)
	require.True(t, ok)
	require.Len(t, list.Payload.(protocol.PlayerListPayload).Players, 1)

	_, ok = f.registry.Get(f.room.Code())
	require.True(t, ok, "room persists after a player leaves")
}

func TestHostDisconnectDestroysRoom(t *testing.T) {
	f := newFixture(t)
	p1 := f.joinPlayer(t, "p1", "Al")
	p2 := f.joinPlayer(t, "p2", "Bea")
	presenter := f.joinPresenter(t, "pres-1")

	f.registry.DisconnectClient("host-1")

	for _, sender := range []*fakeSender{p1, p2, presenter} {
		_, ok := sender.last(protocol.HostDisconnected)
		require.True(t, ok, "every member learns the host vanished")
	}
	_, ok := f.registry.Get(f.room.Code())
	require.False(t, ok, "room code must stop resolving")
}

func TestEndRoomNotifiesThenDestroys(t *testing.T) {
	f := newFixture(t)
	player := f.joinPlayer(t, "p1", "Al")
	presenter := f.joinPresenter(t, "pres-1")

	require.NoError(t, f.registry.EndRoom(f.room.Code(), "host-1"))

	for _, sender := range []*fakeSender{player, presenter, f.host} {
		_, ok := sender.last(protocol.RoomClosed)
		require.True(t, ok)
	}
	_, ok := f.registry.Get(f.room.Code())
	require.False(t, ok)
	require.ErrorIs(t, f.registry.EndRoom(f.room.Code(), "host-1"), domain.ErrRoomNotFound)
}

func TestEndGameKeepsPlayersAndAllowsRestart(t *testing.T) {
	f := newFixture(t)
	player := f.joinPlayer(t, "p1", "Al")

	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.SubmitAnswer("p1", domain.IndexValue(1)))
	require.NoError(t, f.room.EndGame("host-1"))

	ended, ok := player.last(protocol.GameEnded)
	require.True(t, ok)
	scores := ended.Payload.(protocol.GameEndedPayload).FinalScores
	require.Len(t, scores, 1)
	require.Equal(t, 1000, scores[0].Score)

	// Restart resets scores to zero and reloads question one.
	require.NoError(t, f.room.StartGame("host-1"))
	list, ok := player.last(protocol.PlayerListUpdated)
	require.True(t, ok)
	require.Zero(t, list.Payload.(protocol.PlayerListPayload).Players[0].Score)
}

func TestGameEndsWhenQuestionsExhausted(t *testing.T) {
	f := newFixture(t)
	player := f.joinPlayer(t, "p1", "Al")

	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.NextQuestion("host-1"))
	require.NoError(t, f.room.NextQuestion("host-1"))
	require.NoError(t, f.room.NextQuestion("host-1")) // past the last question

	_, ok := player.last(protocol.GameEnded)
	require.True(t, ok)
	require.ErrorIs(t, f.room.NextQuestion("host-1"), domain.ErrInvalidState)
	require.ErrorIs(t, f.room.SubmitAnswer("p1", domain.IndexValue(0)), domain.ErrNoActiveQuestion)
}

func TestLateJoinerReceivesActiveQuestion(t *testing.T) {
	f := newFixture(t)
	f.joinPlayer(t, "p1", "Al")
	require.NoError(t, f.room.StartGame("host-1"))

	late := f.joinPlayer(t, "p2", "Zoe")
	question, ok := late.last(protocol.NewQuestion)
	require.True(t, ok, "mid-round joiner receives the active question")
	qp := question.Payload.(protocol.NewQuestionPayload)
	require.Equal(t, 1, qp.QuestionNumber)
	require.Nil(t, qp.Question.Answer)
}

func TestPresenterLateJoinIsStateConsistent(t *testing.T) {
	f := newFixture(t)
	f.joinPlayer(t, "p1", "Al")
	require.NoError(t, f.room.StartGame("host-1"))
	require.NoError(t, f.room.SubmitAnswer("p1", domain.IndexValue(1)))

	presenter := f.joinPresenter(t, "pres-1")

	_, ok := presenter.last(protocol.PlayerListUpdated)
	require.True(t, ok)
	info, ok := presenter.last(protocol.SubjectInfo)
	require.True(t, ok)
	require.Equal(t, DefaultSubject, info.Payload.(protocol.SubjectInfoPayload).Subject)
	_, ok = presenter.last(protocol.NewQuestion)
	require.True(t, ok)
	stats, ok := presenter.last(protocol.AnswerStats)
	require.True(t, ok)
	require.Equal(t, 1, stats.Payload.(protocol.AnswerStatsPayload).Answered)

	// Everyone already answered, so the presenter also gets the reveal.
	reveal, ok := presenter.last(protocol.RevealAnswer)
	require.True(t, ok)
	require.Equal(t, 1, reveal.Payload.(protocol.RevealPayload).CorrectAnswer.Index)
}

func TestBannedIdentityRefusedBeforeJoin(t *testing.T) {
	f := newFixture(t)
	f.gate.bannedIDs["ext-p9"] = &domain.BanRecord{Reason: "spam", BannedAt: time.Now()}

	sender := &fakeSender{}
	err := f.room.JoinPlayer(Client{ID: "p9", Sender: sender}, "Mallory", "ext-p9")
	require.ErrorIs(t, err, domain.ErrBanned)

	banned, ok := sender.last(protocol.IdentityBanned)
	require.True(t, ok)
	require.Equal(t, "spam", banned.Payload.(protocol.BannedPayload).Reason)

	f.room.mu.Lock()
	_, present := f.room.players["p9"]
	f.room.mu.Unlock()
	require.False(t, present, "banned identity must not mutate room state")
}

func TestInappropriateNameRejected(t *testing.T) {
	f := newFixture(t)
	err := f.room.JoinPlayer(Client{ID: "p1", Sender: &fakeSender{}}, "BigJerk99", "")
	require.Error(t, err)
	require.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestClapCountsAndResets(t *testing.T) {
	f := newFixture(t)
	player := f.joinPlayer(t, "p1", "Al")

	f.room.Clap()
	f.room.Clap()
	update, ok := player.last(protocol.ClapUpdate)
	require.True(t, ok)
	require.Equal(t, 2, update.Payload.(protocol.ClapUpdatePayload).TotalClaps)

	require.NoError(t, f.room.StartGame("host-1"))
	f.room.Clap()
	update, _ = player.last(protocol.ClapUpdate)
	require.Equal(t, 1, update.Payload.(protocol.ClapUpdatePayload).TotalClaps, "clap counter resets with each new game")
}

func TestRequestBanRecordsModerationRequest(t *testing.T) {
	f := newFixture(t)
	f.joinPlayer(t, "p1", "Al")

	require.NoError(t, f.room.RequestBan("host-1", "p1", "", "abusive chat"))

	require.Len(t, f.gate.requests, 1)
	request := f.gate.requests[0]
	require.Equal(t, "Al", request.PlayerName)
	require.Equal(t, "ext-p1", request.ExternalID)
	require.Equal(t, "10.0.0.p1", request.PlayerIP)
	require.Equal(t, f.room.Code(), request.RoomCode)
	require.Equal(t, "Host of room "+f.room.Code(), request.RequestedBy)

	err := f.room.RequestBan("host-1", "ghost", "", "n/a")
	require.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestTargetedBroadcastReachesSubsetOnly(t *testing.T) {
	f := newFixture(t)
	p1 := f.joinPlayer(t, "p1", "Al")
	p2 := f.joinPlayer(t, "p2", "Bea")
	presenter := f.joinPresenter(t, "pres-1")

	require.NoError(t, f.room.BroadcastTargeted("host-1", "you are up next", []string{"p1"}))
	_, ok := p1.last(protocol.HostMessage)
	require.True(t, ok)
	_, ok = p2.last(protocol.HostMessage)
	require.False(t, ok)

	require.NoError(t, f.room.BroadcastPresenter("host-1", "scores on screen"))
	_, ok = presenter.last(protocol.PresenterMessage)
	require.True(t, ok)
	_, ok = p1.last(protocol.PresenterMessage)
	require.False(t, ok)

	require.NoError(t, f.room.BroadcastMessage("host-1", "welcome all"))
	for _, sender := range []*fakeSender{p1, p2, presenter} {
		_, ok = sender.last(protocol.HostMessage)
		require.True(t, ok)
	}
}

func TestStartGameWithoutQuestions(t *testing.T) {
	gate := newStubGate()
	source := &stubSource{subjects: map[string][]domain.Question{}}
	registry := NewRegistry(source, gate, blockList{})
	created := registry.CreateRoom(context.Background(), Client{ID: "host-1", Sender: &fakeSender{}})

	require.ErrorIs(t, created.StartGame("host-1"), domain.ErrInvalidState)
}

func TestSetCustomQuestionsSwitchesSubject(t *testing.T) {
	f := newFixture(t)
	presenter := f.joinPresenter(t, "pres-1")

	custom := []domain.Question{{
		Kind:    domain.KindMultipleChoice,
		Prompt:  "Custom?",
		Options: []string{"yes", "no"},
		Answer:  domain.SingleKey(0),
	}}
	require.NoError(t, f.room.SetCustomQuestions("host-1", custom))

	changed, ok := f.host.last(protocol.SubjectChanged)
	require.True(t, ok)
	require.Equal(t, CustomSubject, changed.Payload.(protocol.SubjectChangedPayload).Subject)
	require.Equal(t, 1, changed.Payload.(protocol.SubjectChangedPayload).QuestionCount)

	info, ok := presenter.last(protocol.SubjectInfo)
	require.True(t, ok)
	require.Equal(t, CustomSubject, info.Payload.(protocol.SubjectInfoPayload).Subject)

	require.Error(t, f.room.SetCustomQuestions("host-1", nil))
}
