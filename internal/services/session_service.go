package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jaysj0226/justspeak-backend/internal/models"
	mongorepo "github.com/jaysj0226/justspeak-backend/internal/repositories/mongo"
	"github.com/jaysj0226/justspeak-backend/internal/scenario"
	"github.com/jaysj0226/justspeak-backend/internal/session"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

// turnWait caps how long a synchronous turn request waits for the agent
// reply; generous enough to cover the executor's full retry budget.
const turnWait = 100 * time.Second

// Event is what live sessions fan out to websocket clients and waiting
// turn requests.
type Event struct {
	Type string `json:"type"` // utterance|feedback|notice|state|lesson_complete|ended

	Utterance *session.Utterance `json:"utterance,omitempty"`

	Turn int    `json:"turn,omitempty"`
	Text string `json:"text,omitempty"`

	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	Completed int `json:"completed,omitempty"`
	Total     int `json:"total,omitempty"`
}

type StartSessionInput struct {
	ScenarioID   string `json:"scenario_id"`
	Level        string `json:"level"`
	FeedbackMode string `json:"feedback_mode"`
}

type StartSessionOutput struct {
	Session  *models.Session   `json:"session"`
	Greeting session.Utterance `json:"greeting"`
	Offline  bool              `json:"offline"`
}

type TurnOutput struct {
	Reply session.Utterance `json:"reply"`
	State string            `json:"state"`
}

// SessionService runs the live lesson sessions. One active session per
// user; the controller state machine lives in memory and its durable
// shadow in the document store.
type SessionService interface {
	Start(ctx context.Context, userID string, in StartSessionInput) (*StartSessionOutput, error)
	Get(ctx context.Context, userID, sessionID string) (*models.Session, error)
	Turn(ctx context.Context, userID, sessionID, text string) (*TurnOutput, error)
	PostUtterance(userID, sessionID, text string) error
	Continue(ctx context.Context, userID, sessionID string) error
	Stop(ctx context.Context, userID, sessionID string) (*models.Session, error)
	Transcript(ctx context.Context, userID, sessionID string) ([]session.Utterance, error)
	Subscribe(userID, sessionID string) (<-chan Event, func(), error)
	ListActive(ctx context.Context, limit int) ([]models.Session, error)
	Shutdown(ctx context.Context)
}

// ExecutorFactory builds a fresh turn executor per session; nil backends
// (offline deployments, tests) are the factory's concern.
type ExecutorFactory func() session.TurnExecutor

type sessionService struct {
	sessions mongorepo.SessionRepository
	userData UserDataService
	feedback FeedbackService
	archive  ArchiveService
	executor ExecutorFactory
	log      *logrus.Entry

	mu   sync.Mutex
	live map[string]*liveSession // by session id
}

func NewSessionService(
	sessions mongorepo.SessionRepository,
	userData UserDataService,
	feedback FeedbackService,
	archive ArchiveService,
	executor ExecutorFactory,
	log *logrus.Entry,
) SessionService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &sessionService{
		sessions: sessions,
		userData: userData,
		feedback: feedback,
		archive:  archive,
		executor: executor,
		log:      log,
		live:     map[string]*liveSession{},
	}
}

func (s *sessionService) Start(ctx context.Context, userID string, in StartSessionInput) (*StartSessionOutput, error) {
	const op = "SessionService.Start"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if !scenario.Known(in.ScenarioID) {
		s.log.WithField("scenario_id", in.ScenarioID).Info("unknown scenario, using free talk")
	}
	info := scenario.Lookup(in.ScenarioID)

	if existing := s.liveByUser(userID); existing != nil {
		return nil, utils.E(utils.CodeConflict, op, "an active session already exists", nil)
	}

	level := in.Level
	if level == "" {
		if rec, err := s.userData.Get(ctx, userID); err == nil && rec.Level != "" {
			level = rec.Level
		}
	}

	doc := &models.Session{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		ScenarioID:   info.ID,
		Level:        level,
		FeedbackMode: in.FeedbackMode,
		Status:       "active",
		CreatedAt:    time.Now().UTC(),
	}

	ls := newLiveSession(doc.SessionID, userID)
	ctrl := session.NewController(session.Config{
		SessionID:    doc.SessionID,
		UserID:       userID,
		ScenarioID:   info.ID,
		Level:        level,
		FeedbackMode: in.FeedbackMode,
		Executor:     s.executor(),
		Recorder:     &lessonRecorder{svc: s, sessionID: doc.SessionID},
		Feedback:     s.feedback,
		Listener:     ls,
		Logger:       s.log,
	})
	ls.ctrl = ctrl

	// The session outlives the originating request; its lifetime is the
	// controller's own, bounded by Stop or process shutdown.
	sessCtx, cancel := context.WithCancel(context.Background())
	ls.cancel = cancel

	ctrl.Start(sessCtx)

	doc.Offline = ctrl.Offline()
	if err := s.sessions.Create(ctx, doc); err != nil {
		ctrl.Stop()
		cancel()
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}

	s.mu.Lock()
	s.live[doc.SessionID] = ls
	s.mu.Unlock()

	go s.reap(ls, doc)

	all := ctrl.Transcript().All()
	greeting := session.Utterance{}
	if len(all) > 0 {
		greeting = all[0]
	}
	return &StartSessionOutput{Session: doc, Greeting: greeting, Offline: doc.Offline}, nil
}

// reap archives and closes out the durable record once the controller ends.
func (s *sessionService) reap(ls *liveSession, doc *models.Session) {
	<-ls.ctrl.Done()

	s.mu.Lock()
	delete(s.live, ls.id)
	s.mu.Unlock()
	ls.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	endedAt := time.Now().UTC()
	duration := int64(endedAt.Sub(doc.CreatedAt) / time.Second)
	if err := s.sessions.End(ctx, ls.id, endedAt, duration); err != nil {
		s.log.WithError(err).WithField("session_id", ls.id).Error("failed to close session record")
	}
	if turns := ls.ctrl.UserTurns(); turns > 0 {
		if err := s.sessions.IncrementCounters(ctx, ls.id, 0, turns); err != nil {
			s.log.WithError(err).WithField("session_id", ls.id).Warn("failed to record turn count")
		}
	}

	if s.archive != nil {
		if err := s.archive.ArchiveSession(ctx, doc, ls.ctrl.Transcript().All()); err != nil {
			s.log.WithError(err).WithField("session_id", ls.id).Error("failed to archive session")
		}
	}
}

func (s *sessionService) liveByUser(userID string) *liveSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ls := range s.live {
		if ls.userID != userID {
			continue
		}
		select {
		case <-ls.ctrl.Done():
			// ended, reaper just hasn't swept it yet
		default:
			return ls
		}
	}
	return nil
}

func (s *sessionService) liveFor(userID, sessionID string) (*liveSession, error) {
	s.mu.Lock()
	ls, ok := s.live[sessionID]
	s.mu.Unlock()
	if !ok || ls.userID != userID {
		return nil, utils.ErrNotFound
	}
	return ls, nil
}

func (s *sessionService) Get(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	const op = "SessionService.Get"

	doc, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	if doc.UserID != userID {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", nil)
	}
	return doc, nil
}

func (s *sessionService) Turn(ctx context.Context, userID, sessionID, text string) (*TurnOutput, error) {
	const op = "SessionService.Turn"

	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}
	ls, err := s.liveFor(userID, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "no live session", err)
	}

	events, cancel, err := ls.subscribe()
	if err != nil {
		return nil, utils.E(utils.CodeConflict, op, "session is closing", err)
	}
	defer cancel()

	if !ls.ctrl.HandleUserUtterance(text) {
		return nil, utils.E(utils.CodeConflict, op, "a turn is already in progress", nil)
	}

	timer := time.NewTimer(turnWait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, utils.E(utils.CodeTimeout, op, "request cancelled", ctx.Err())
		case <-timer.C:
			return nil, utils.E(utils.CodeTimeout, op, "timed out waiting for reply", nil)
		case ev, ok := <-events:
			if !ok {
				return nil, utils.E(utils.CodeUnavailable, op, "session ended", nil)
			}
			if ev.Type == "utterance" && ev.Utterance != nil && ev.Utterance.Speaker == session.SpeakerAgent {
				return &TurnOutput{Reply: *ev.Utterance, State: ls.ctrl.State().String()}, nil
			}
		}
	}
}

// PostUtterance feeds a recognized utterance into the session without
// waiting for the reply; subscribers see the exchange as events. Used by
// the speech worker and the websocket path.
func (s *sessionService) PostUtterance(userID, sessionID, text string) error {
	const op = "SessionService.PostUtterance"

	if text == "" {
		return utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}
	ls, err := s.liveFor(userID, sessionID)
	if err != nil {
		return utils.E(utils.CodeNotFound, op, "no live session", err)
	}
	if !ls.ctrl.HandleUserUtterance(text) {
		return utils.E(utils.CodeConflict, op, "a turn is already in progress", nil)
	}
	return nil
}

func (s *sessionService) Continue(ctx context.Context, userID, sessionID string) error {
	const op = "SessionService.Continue"

	ls, err := s.liveFor(userID, sessionID)
	if err != nil {
		return utils.E(utils.CodeNotFound, op, "no live session", err)
	}
	ls.ctrl.ContinueLesson()
	return nil
}

func (s *sessionService) Stop(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	const op = "SessionService.Stop"

	ls, err := s.liveFor(userID, sessionID)
	if err != nil {
		// already ended is fine, return the durable record
		return s.Get(ctx, userID, sessionID)
	}

	ls.ctrl.Stop()
	select {
	case <-ls.ctrl.Done():
	case <-time.After(2 * session.DefaultCallTimeout):
		s.log.WithField("session_id", sessionID).Warn("session slow to stop")
	case <-ctx.Done():
	}
	return s.Get(ctx, userID, sessionID)
}

func (s *sessionService) Transcript(ctx context.Context, userID, sessionID string) ([]session.Utterance, error) {
	const op = "SessionService.Transcript"

	ls, err := s.liveFor(userID, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "no live session", err)
	}
	return ls.ctrl.Transcript().All(), nil
}

func (s *sessionService) Subscribe(userID, sessionID string) (<-chan Event, func(), error) {
	const op = "SessionService.Subscribe"

	ls, err := s.liveFor(userID, sessionID)
	if err != nil {
		return nil, nil, utils.E(utils.CodeNotFound, op, "no live session", err)
	}
	events, cancel, err := ls.subscribe()
	if err != nil {
		return nil, nil, utils.E(utils.CodeUnavailable, op, "session is closing", err)
	}
	return events, cancel, nil
}

func (s *sessionService) ListActive(ctx context.Context, limit int) ([]models.Session, error) {
	const op = "SessionService.ListActive"

	rows, err := s.sessions.ListActive(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return rows, nil
}

// Shutdown stops every live session and waits for their reapers.
func (s *sessionService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	all := make([]*liveSession, 0, len(s.live))
	for _, ls := range s.live {
		all = append(all, ls)
	}
	s.mu.Unlock()

	for _, ls := range all {
		ls.ctrl.Stop()
	}
	for _, ls := range all {
		select {
		case <-ls.ctrl.Done():
		case <-ctx.Done():
			return
		}
	}
}

// lessonRecorder bridges the controller's completion hook to user progress
// and the durable session counters.
type lessonRecorder struct {
	svc       *sessionService
	sessionID string
}

func (r *lessonRecorder) RecordLessonCompletion(ctx context.Context, userID, scenarioID string) (int, int, error) {
	completed, total, err := r.svc.userData.RecordLessonCompletion(ctx, userID, scenarioID)
	if err != nil {
		return 0, 0, err
	}
	if ierr := r.svc.sessions.IncrementCounters(ctx, r.sessionID, 1, 0); ierr != nil {
		r.svc.log.WithError(ierr).WithField("session_id", r.sessionID).
			Warn("failed to bump session lesson counter")
	}
	return completed, total, nil
}

// liveSession fans controller callbacks out to subscribers. Slow consumers
// lose events rather than stalling the event loop.
type liveSession struct {
	id     string
	userID string
	ctrl   *session.Controller
	cancel context.CancelFunc

	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

func newLiveSession(id, userID string) *liveSession {
	return &liveSession{
		id:     id,
		userID: userID,
		subs:   map[chan Event]struct{}{},
	}
}

var errSessionClosed = errors.New("session closed")

func (ls *liveSession) subscribe() (chan Event, func(), error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.closed {
		return nil, nil, errSessionClosed
	}
	ch := make(chan Event, 32)
	ls.subs[ch] = struct{}{}
	cancel := func() {
		ls.mu.Lock()
		if _, ok := ls.subs[ch]; ok {
			delete(ls.subs, ch)
			close(ch)
		}
		ls.mu.Unlock()
	}
	return ch, cancel, nil
}

func (ls *liveSession) publish(ev Event) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for ch := range ls.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (ls *liveSession) OnUtterance(u session.Utterance) {
	ls.publish(Event{Type: "utterance", Utterance: &u})
}

func (ls *liveSession) OnTurnFeedback(turn int, text string) {
	ls.publish(Event{Type: "feedback", Turn: turn, Text: text})
}

func (ls *liveSession) OnLessonComplete(completed, total int) {
	ls.publish(Event{Type: "lesson_complete", Completed: completed, Total: total})
}

func (ls *liveSession) OnNotice(text string) {
	ls.publish(Event{Type: "notice", Text: text})
}

func (ls *liveSession) OnStateChange(from, to session.State) {
	ls.publish(Event{Type: "state", From: from.String(), To: to.String()})
}

func (ls *liveSession) OnEnded() {
	ls.publish(Event{Type: "ended"})
	ls.mu.Lock()
	ls.closed = true
	for ch := range ls.subs {
		delete(ls.subs, ch)
		close(ch)
	}
	ls.mu.Unlock()
}
