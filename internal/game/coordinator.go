package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-live/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// QuestionSource supplies question batches. It may return fewer than count.
type QuestionSource interface {
	Fetch(ctx context.Context, topic, difficulty string, count int) ([]Question, error)
}

type Options struct {
	RevealDelay          time.Duration
	QuestionDeadline     time.Duration
	DefaultQuestionCount int
	MaxQuestionCount     int
	Retention            time.Duration
	Now                  func() time.Time
}

func (o Options) withDefaults() Options {
	if o.RevealDelay < 0 {
		o.RevealDelay = 0
	}
	if o.QuestionDeadline < 0 {
		o.QuestionDeadline = 0
	}
	if o.DefaultQuestionCount <= 0 {
		o.DefaultQuestionCount = 10
	}
	if o.MaxQuestionCount < o.DefaultQuestionCount {
		o.MaxQuestionCount = o.DefaultQuestionCount
	}
	if o.Retention < 0 {
		o.Retention = 0
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Coordinator owns session lifecycle: creation, joins, question delivery, the
// answer barrier, scoring and the reveal-then-advance schedule.
type Coordinator struct {
	store   *Store
	source  QuestionSource
	sync    *Synchronizer
	events  Broadcaster
	opts    Options
	newCode func() (string, error)
	logger  zerolog.Logger
}

func NewCoordinator(store *Store, source QuestionSource, sync *Synchronizer, events Broadcaster, opts Options) *Coordinator {
	if store == nil {
		store = NewStore()
	}
	if sync == nil {
		sync = NewSynchronizer(nil, SyncOptions{})
	}
	if events == nil {
		events = nopBroadcaster{}
	}
	return &Coordinator{
		store:   store,
		source:  source,
		sync:    sync,
		events:  events,
		opts:    opts.withDefaults(),
		newCode: newSessionCode,
		logger:  log.With().Str("component", "coordinator").Logger(),
	}
}

func (c *Coordinator) Store() *Store {
	return c.store
}

// CreateSession allocates a code and registers a waiting session with the host
// as its only player.
func (c *Coordinator) CreateSession(hostID, displayName string, isPublic bool) (GameSession, error) {
	hostID = strings.TrimSpace(hostID)
	if hostID == "" {
		return GameSession{}, ErrUnknownPlayer
	}
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := c.newCode()
		if err != nil {
			return GameSession{}, fmt.Errorf("generate game code: %w", err)
		}
		now := c.opts.Now()
		session := &GameSession{
			Code:      code,
			HostID:    hostID,
			IsPublic:  isPublic,
			Status:    StatusWaiting,
			Players:   []Player{{ID: hostID, DisplayName: strings.TrimSpace(displayName)}},
			Questions: []Question{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		var created GameSession
		err = c.store.insert(session, func(e *entry) {
			created = e.session.Clone()
			c.sync.put(e.session.Clone())
			c.events.Broadcast(code, Event{
				Type: EventGameCreated,
				Data: GameCreatedPayload{Code: code, Session: e.session.View()},
			})
		})
		if errors.Is(err, errCodeTaken) {
			continue
		}
		if err != nil {
			return GameSession{}, err
		}
		metrics.SessionsCreated.Inc()
		c.logger.Info().Str("code", code).Str("host_id", hostID).Bool("is_public", isPublic).Msg("game created")
		return created, nil
	}
	return GameSession{}, fmt.Errorf("allocate game code after %d attempts: %w", maxCodeAttempts, errCodeTaken)
}

// JoinSession adds a player to a waiting session. Joining twice is a no-op.
func (c *Coordinator) JoinSession(code, playerID, displayName string) ([]Player, error) {
	var players []Player
	err := c.store.update(code, func(e *entry) error {
		s := e.session
		if s.Status != StatusWaiting {
			return ErrAlreadyStarted
		}
		if s.HasPlayer(playerID) {
			players = clonePlayers(s.Players)
			return nil
		}
		player := Player{ID: playerID, DisplayName: strings.TrimSpace(displayName)}
		now := c.opts.Now()
		s.Players = append(s.Players, player)
		s.UpdatedAt = now
		players = clonePlayers(s.Players)
		c.sync.update(code, map[string]any{
			FieldPlayers:   clonePlayers(s.Players),
			FieldUpdatedAt: now,
		})
		c.events.Broadcast(code, Event{
			Type: EventPlayerJoined,
			Data: PlayerJoinedPayload{Code: code, Player: player, Players: clonePlayers(s.Players)},
		})
		c.logger.Info().Str("code", code).Str("player_id", playerID).Int("players", len(s.Players)).Msg("player joined")
		return nil
	})
	if err != nil {
		c.recordError("join", err)
		return nil, err
	}
	return players, nil
}

// StartSession fetches questions, freezes them onto the session and delivers
// the first one. It returns the number of questions attached.
func (c *Coordinator) StartSession(ctx context.Context, code, requesterID, topic, difficulty string, count int) (int, error) {
	count, err := c.questionCount(count)
	if err != nil {
		c.recordError("start", err)
		return 0, err
	}
	if err := c.store.update(code, func(e *entry) error {
		return checkStartable(e.session, requesterID)
	}); err != nil {
		c.recordError("start", err)
		return 0, err
	}
	if c.source == nil {
		return 0, ErrInsufficientQuestions
	}

	start := time.Now()
	batch, err := c.source.Fetch(ctx, topic, difficulty, count)
	metrics.RecordQuestionFetch(sourceName(c.source), time.Since(start), err)
	if err != nil {
		c.recordError("start", err)
		return 0, fmt.Errorf("fetch questions: %w", err)
	}
	questions, err := selectQuestions(batch, count)
	if err != nil {
		c.logger.Warn().Str("code", code).Str("topic", topic).Str("difficulty", difficulty).Int("requested", count).Int("received", len(batch)).Msg("question supply too small")
		c.recordError("start", err)
		return 0, err
	}

	err = c.store.update(code, func(e *entry) error {
		s := e.session
		if err := checkStartable(s, requesterID); err != nil {
			return err
		}
		now := c.opts.Now()
		if err := advanceStatus(s, StatusInProgress, now); err != nil {
			return fmt.Errorf("%w: %v", ErrAlreadyStarted, err)
		}
		s.Questions = questions
		s.CurrentQuestionIndex = 0
		c.sync.update(code, map[string]any{
			FieldQuestions:            append([]Question(nil), questions...),
			FieldStatus:               StatusInProgress,
			FieldCurrentQuestionIndex: 0,
			FieldUpdatedAt:            now,
		})
		c.events.Broadcast(code, Event{
			Type: EventGameStarted,
			Data: GameStartedPayload{Code: code, QuestionsCount: len(questions), Topic: topic, Difficulty: difficulty},
		})
		c.logger.Info().Str("code", code).Str("topic", topic).Str("difficulty", difficulty).Int("questions", len(questions)).Msg("game started")
		c.deliverLocked(e, 0)
		return nil
	})
	if err != nil {
		c.recordError("start", err)
		return 0, err
	}
	return len(questions), nil
}

// SubmitAnswer records a player's answer for the current question. A nil
// selection is an explicit abstain and satisfies the barrier.
func (c *Coordinator) SubmitAnswer(code, playerID string, selected *int) error {
	if selected != nil {
		value := *selected
		selected = &value
	}
	err := c.store.update(code, func(e *entry) error {
		s := e.session
		index := s.CurrentQuestionIndex
		if s.Status != StatusInProgress || index >= len(s.Questions) || e.revealed[index] {
			c.events.Notify(code, playerID, Event{
				Type: EventNotice,
				Data: NoticePayload{Code: code, Message: ErrNoCurrentQuestion.Error()},
			})
			return ErrNoCurrentQuestion
		}
		if !s.HasPlayer(playerID) {
			return ErrUnknownPlayer
		}
		if selected != nil && (*selected < 0 || *selected >= len(s.Questions[index].Options)) {
			return ErrInvalidOption
		}
		record := AnswerRecord{
			Code:                code,
			QuestionIndex:       index,
			PlayerID:            playerID,
			SelectedOptionIndex: selected,
			SubmittedAt:         c.opts.Now(),
		}
		replaced := e.ledger.Record(record)
		switch {
		case replaced:
			metrics.AnswersRecorded.WithLabelValues("overwrite").Inc()
			c.logger.Debug().Str("code", code).Str("player_id", playerID).Int("question_index", index).Msg("answer overwritten")
		case record.Abstained():
			metrics.AnswersRecorded.WithLabelValues("abstain").Inc()
		default:
			metrics.AnswersRecorded.WithLabelValues("answer").Inc()
		}
		c.sync.saveAnswer(record)
		c.events.Broadcast(code, Event{
			Type: EventAnswerAccepted,
			Data: AnswerAcceptedPayload{
				Code:          code,
				QuestionIndex: index,
				PlayerID:      playerID,
				Answered:      e.ledger.Answered(index),
				Total:         len(s.Players),
			},
		})
		c.evaluateBarrierLocked(e)
		return nil
	})
	if err != nil {
		c.recordError("submit", err)
	}
	return err
}

// evaluateBarrierLocked scores and reveals the current question once every
// player has a record for it. It fires at most once per index.
func (c *Coordinator) evaluateBarrierLocked(e *entry) {
	s := e.session
	index := s.CurrentQuestionIndex
	if s.Status != StatusInProgress || index >= len(s.Questions) || e.revealed[index] {
		return
	}
	if !e.ledger.Complete(index, s.Players) {
		return
	}
	e.revealed[index] = true
	e.timers.stopDeadline()

	question := s.Questions[index]
	records := e.ledger.ForQuestion(index)
	now := c.opts.Now()
	s.Players = ScoreRound(question, records, s.Players)
	s.UpdatedAt = now
	c.sync.update(s.Code, map[string]any{
		FieldPlayers:   clonePlayers(s.Players),
		FieldUpdatedAt: now,
	})
	c.events.Broadcast(s.Code, Event{
		Type: EventAnswerResult,
		Data: AnswerResultPayload{
			Code:               s.Code,
			QuestionIndex:      index,
			CorrectAnswerIndex: question.CorrectOptionIndex,
			Explanation:        question.Explanation,
			CorrectPlayerIDs:   CorrectPlayers(question, records, s.Players),
			Players:            clonePlayers(s.Players),
		},
	})
	c.logger.Info().Str("code", s.Code).Int("question_index", index).Msg("answers revealed")

	code, next := s.Code, index+1
	e.timers.armReveal(c.opts.RevealDelay, func() {
		c.advance(code, next)
	})
}

// advance runs from the reveal timer. It delivers index only if it directly
// follows a revealed question, so a stale or repeated timer is a no-op.
func (c *Coordinator) advance(code string, index int) {
	err := c.store.update(code, func(e *entry) error {
		s := e.session
		if s.Status != StatusInProgress || index != s.CurrentQuestionIndex+1 || !e.revealed[s.CurrentQuestionIndex] {
			return nil
		}
		c.deliverLocked(e, index)
		return nil
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("code", code).Int("question_index", index).Msg("advance skipped")
	}
}

func (c *Coordinator) deliverLocked(e *entry, index int) {
	s := e.session
	now := c.opts.Now()
	if index >= len(s.Questions) {
		c.finishLocked(e, index, now)
		return
	}
	s.CurrentQuestionIndex = index
	s.UpdatedAt = now
	c.sync.update(s.Code, map[string]any{
		FieldCurrentQuestionIndex: index,
		FieldUpdatedAt:            now,
	})
	c.events.Broadcast(s.Code, Event{
		Type: EventNewQuestion,
		Data: NewQuestionPayload{
			Code:            s.Code,
			Index:           index,
			QuestionsCount:  len(s.Questions),
			Question:        s.Questions[index].Public(),
			DeadlineSeconds: int(c.opts.QuestionDeadline / time.Second),
		},
	})
	code := s.Code
	e.timers.armDeadline(c.opts.QuestionDeadline, func() {
		c.expireQuestion(code, index)
	})
}

func (c *Coordinator) finishLocked(e *entry, index int, now time.Time) {
	s := e.session
	if err := advanceStatus(s, StatusFinished, now); err != nil {
		c.logger.Error().Err(err).Str("code", s.Code).Msg("finish refused")
		return
	}
	s.CurrentQuestionIndex = index
	e.timers.stopAll()
	c.sync.update(s.Code, map[string]any{
		FieldStatus:               StatusFinished,
		FieldCurrentQuestionIndex: index,
		FieldFinishedAt:           now,
		FieldUpdatedAt:            now,
	})
	c.events.Broadcast(s.Code, Event{
		Type: EventGameFinished,
		Data: GameFinishedPayload{Code: s.Code, Players: clonePlayers(s.Players)},
	})
	c.logger.Info().Str("code", s.Code).Int("players", len(s.Players)).Msg("game finished")
}

// expireQuestion records an abstain for every player still missing when the
// question deadline passes, then evaluates the barrier.
func (c *Coordinator) expireQuestion(code string, index int) {
	_ = c.store.update(code, func(e *entry) error {
		s := e.session
		if s.Status != StatusInProgress || s.CurrentQuestionIndex != index || e.revealed[index] {
			return nil
		}
		now := c.opts.Now()
		missing := e.ledger.Missing(index, s.Players)
		for _, playerID := range missing {
			record := AnswerRecord{Code: code, QuestionIndex: index, PlayerID: playerID, SubmittedAt: now}
			e.ledger.Record(record)
			c.sync.saveAnswer(record)
			metrics.AnswersRecorded.WithLabelValues("deadline").Inc()
		}
		c.logger.Info().Str("code", code).Int("question_index", index).Int("abstained", len(missing)).Msg("question deadline expired")
		c.evaluateBarrierLocked(e)
		return nil
	})
}

// Observe runs fn under the session lock with a copy of the session. No event
// for the session can be emitted while fn runs, so a subscriber registered in
// fn receives every event after the state it was handed.
func (c *Coordinator) Observe(code string, fn func(session GameSession)) error {
	return c.store.update(code, func(e *entry) error {
		fn(e.session.Clone())
		return nil
	})
}

// Session returns the in-memory session only.
func (c *Coordinator) Session(code string) (GameSession, bool) {
	return c.store.Get(code)
}

// Lookup prefers the in-memory session and falls back to the durable store
// for codes this process does not hold. Store results are never re-inserted.
func (c *Coordinator) Lookup(ctx context.Context, code string) (GameSession, bool) {
	if session, ok := c.store.Get(code); ok {
		return session, true
	}
	if !c.sync.Enabled() {
		return GameSession{}, false
	}
	session, found, err := c.sync.get(ctx, code)
	if err != nil {
		c.logger.Warn().Err(err).Str("code", code).Msg("archived game lookup failed")
		return GameSession{}, false
	}
	return session, found
}

func (c *Coordinator) ListPublicWaiting() []GameSession {
	return c.store.ListPublicWaiting()
}

// Sweep drops finished sessions past the retention window.
func (c *Coordinator) Sweep(now time.Time) []string {
	removed := c.store.Sweep(now, c.opts.Retention)
	if len(removed) > 0 {
		metrics.SessionsSwept.Add(float64(len(removed)))
		c.logger.Info().Strs("codes", removed).Msg("finished games swept")
	}
	for _, status := range []Status{StatusWaiting, StatusInProgress, StatusFinished} {
		metrics.SessionsActive.WithLabelValues(string(status)).Set(0)
	}
	for status, n := range c.store.countByStatus() {
		metrics.SessionsActive.WithLabelValues(string(status)).Set(float64(n))
	}
	return removed
}

// questionCount applies the default to non-positive counts. Counts above the
// maximum are refused rather than silently lowered.
func (c *Coordinator) questionCount(count int) (int, error) {
	if count <= 0 {
		return c.opts.DefaultQuestionCount, nil
	}
	if count > c.opts.MaxQuestionCount {
		return 0, fmt.Errorf("%w: requested %d, maximum %d", ErrInvalidCount, count, c.opts.MaxQuestionCount)
	}
	return count, nil
}

func (c *Coordinator) recordError(operation string, err error) {
	label := "internal"
	for _, known := range []error{ErrNotFound, ErrAlreadyStarted, ErrInsufficientQuestions, ErrNoCurrentQuestion, ErrInvalidOption, ErrInvalidCount, ErrNotHost, ErrUnknownPlayer} {
		if errors.Is(err, known) {
			label = known.Error()
			break
		}
	}
	metrics.OperationErrors.WithLabelValues(operation, label).Inc()
}

func checkStartable(s *GameSession, requesterID string) error {
	if s.Status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if s.HostID != requesterID {
		return ErrNotHost
	}
	return nil
}

// selectQuestions keeps the first count valid questions, unique by prompt
// text ignoring case and surrounding space.
func selectQuestions(batch []Question, count int) ([]Question, error) {
	seen := make(map[string]struct{}, len(batch))
	out := make([]Question, 0, count)
	for _, q := range batch {
		if len(out) == count {
			break
		}
		if !q.Valid() {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(q.Prompt))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		q.Prompt = strings.TrimSpace(q.Prompt)
		q.Options = append([]string(nil), q.Options...)
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		out = append(out, q)
	}
	if len(out) < count {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientQuestions, count, len(out))
	}
	return out, nil
}

func sourceName(source QuestionSource) string {
	if named, ok := source.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "custom"
}
