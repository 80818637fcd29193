package app

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mini-quiz/internal/domain"
)

const (
	DefaultCorrectDelay = 600 * time.Millisecond
	DefaultWrongDelay   = 800 * time.Millisecond

	FeedbackCorrect   = "correct!"
	FeedbackWrong     = "wrong!"
	LoadErrorMessage  = "failed to load questions, try again."
	WrongAnswerNotice = "wrong answer! back to the start..."
)

// QuestionSource fetches one question set per quiz attempt.
type QuestionSource interface {
	FetchQuestions(ctx context.Context) ([]domain.Question, error)
}

// Session is the quiz state machine for a single player.
//
// All state changes happen under mu. The fetch goroutine and the feedback
// timers capture the generation they were issued under; every Start and
// Restart bumps it, so late results and timers from an earlier attempt are
// dropped without touching state.
type Session struct {
	id           string
	source       QuestionSource
	scheduler    Scheduler
	logger       *zap.Logger
	correctDelay time.Duration
	wrongDelay   time.Duration

	mu          sync.Mutex
	stage       domain.Stage
	questions   []domain.Question
	current     int
	feedback    string
	errMsg      string
	notice      string
	generation  uint64
	cancelFetch context.CancelFunc
	pending     Timer
	closed      bool
	subscribers map[chan domain.Snapshot]struct{}
}

type Option func(*Session)

func WithScheduler(s Scheduler) Option {
	return func(sess *Session) { sess.scheduler = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(sess *Session) { sess.logger = l }
}

// WithDelays overrides the feedback windows after a correct and a wrong answer.
func WithDelays(correct, wrong time.Duration) Option {
	return func(sess *Session) {
		sess.correctDelay = correct
		sess.wrongDelay = wrong
	}
}

func WithSessionID(id string) Option {
	return func(sess *Session) { sess.id = id }
}

func NewSession(source QuestionSource, opts ...Option) *Session {
	s := &Session{
		id:           uuid.NewString(),
		source:       source,
		scheduler:    clockScheduler{},
		logger:       zap.NewNop(),
		correctDelay: DefaultCorrectDelay,
		wrongDelay:   DefaultWrongDelay,
		stage:        domain.StageIntro,
		subscribers:  make(map[chan domain.Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session_id", s.id))
	return s
}

// ID identifies the session in logs and snapshots.
func (s *Session) ID() string {
	return s.id
}

// Start leaves Intro and issues the single question fetch for this attempt.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.stage != domain.StageIntro {
		return domain.ErrInvalidAction
	}

	gen := s.resetLocked()
	s.stage = domain.StageLoading

	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancelFetch = cancel
	go s.fetch(fetchCtx, gen)

	s.logger.Info("quiz started", zap.Uint64("generation", gen))
	s.broadcastLocked()
	return nil
}

// Answer evaluates the selected option of the current question. The outcome
// is applied after the feedback window; answers are refused until then.
func (s *Session) Answer(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.stage != domain.StageQuiz {
		return domain.ErrInvalidAction
	}
	if s.pending != nil {
		return domain.ErrAnswerPending
	}

	question := s.questions[s.current]
	if index < 0 || index >= len(question.Options) {
		return domain.ErrOptionNotFound
	}

	gen := s.generation
	if index == question.CorrectIndex {
		s.feedback = FeedbackCorrect
		s.pending = s.scheduler.AfterFunc(s.correctDelay, func() { s.afterCorrect(gen) })
	} else {
		s.feedback = FeedbackWrong
		s.pending = s.scheduler.AfterFunc(s.wrongDelay, func() { s.afterWrong(gen) })
	}

	s.logger.Debug("answer submitted",
		zap.Int("question", s.current),
		zap.Int("selected", index),
		zap.Bool("correct", index == question.CorrectIndex),
	)
	s.broadcastLocked()
	return nil
}

// Restart returns to Intro from any stage, discarding the attempt in progress.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	from := s.stage
	gen := s.resetLocked()
	s.stage = domain.StageIntro

	s.logger.Info("quiz restarted", zap.Stringer("from", from), zap.Uint64("generation", gen))
	s.broadcastLocked()
	return nil
}

// Close cancels outstanding work and closes all subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.resetLocked()
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Progress is the completion percentage shown to the player.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

// Snapshot returns the current read-only view of the session.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives a snapshot after every state change,
// starting with the current one. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) fetch(ctx context.Context, gen uint64) {
	questions, err := s.source.FetchQuestions(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		s.logger.Debug("dropping stale fetch result",
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", s.generation),
		)
		return
	}
	s.cancelFetch()
	s.cancelFetch = nil

	if err == nil && len(questions) == 0 {
		err = domain.ErrEmptyResult
	}
	if err != nil {
		s.logger.Warn("failed to load questions", zap.Error(err))
		s.stage = domain.StageError
		s.errMsg = LoadErrorMessage
		s.broadcastLocked()
		return
	}

	s.questions = questions
	s.current = 0
	s.stage = domain.StageQuiz
	s.logger.Info("questions loaded", zap.Int("count", len(questions)))
	s.broadcastLocked()
}

func (s *Session) afterCorrect(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation || s.stage != domain.StageQuiz {
		return
	}
	s.pending = nil
	s.feedback = ""
	if s.current < len(s.questions)-1 {
		s.current++
	} else {
		s.stage = domain.StageEnd
		s.logger.Info("quiz completed", zap.Int("questions", len(s.questions)))
	}
	s.broadcastLocked()
}

// afterWrong forfeits the whole attempt: a single mistake sends the player back to Intro.
func (s *Session) afterWrong(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation || s.stage != domain.StageQuiz {
		return
	}
	s.logger.Info("wrong answer, progress discarded", zap.Int("question", s.current))
	s.pending = nil
	s.feedback = ""
	s.current = 0
	s.questions = nil
	s.stage = domain.StageIntro
	s.notice = WrongAnswerNotice
	s.broadcastLocked()
}

// resetLocked invalidates in-flight work and clears attempt state.
func (s *Session) resetLocked() uint64 {
	s.generation++
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.questions = nil
	s.current = 0
	s.feedback = ""
	s.errMsg = ""
	s.notice = ""
	return s.generation
}

func (s *Session) progressLocked() float64 {
	if len(s.questions) == 0 {
		return 0
	}
	done := s.current
	if s.stage == domain.StageEnd {
		done++
	}
	return float64(done) / float64(len(s.questions)) * 100
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		SessionID:        s.id,
		Stage:            s.stage,
		CurrentIndex:     s.current,
		Total:            len(s.questions),
		Progress:         s.progressLocked(),
		Feedback:         s.feedback,
		Error:            s.errMsg,
		Notice:           s.notice,
		AwaitingFeedback: s.pending != nil,
	}
	if s.stage == domain.StageQuiz && s.current < len(s.questions) {
		q := s.questions[s.current]
		q.Options = slices.Clone(q.Options)
		snap.Current = &q
	}
	return snap
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest queued snapshot so the latest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
