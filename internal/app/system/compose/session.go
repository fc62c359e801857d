// internal/app/system/compose/session.go

// Package compose holds the client-side composition session: a draft that
// is annotated for jargon as the user types, can be rewritten on request,
// and is finally sent to a channel.
//
// Annotation is debounced. Every SetText bumps a generation counter and
// restarts the timer; a result is applied only if its generation is still
// current when it returns. Rewrites run independently of annotation and are
// matched to the draft text they were requested for.
package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/linguashift/internal/app/system/jargon"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"go.uber.org/zap"
)

const (
	DefaultDebounce        = 500 * time.Millisecond
	DefaultAnnotateTimeout = 10 * time.Second
	DefaultRewriteTimeout  = 20 * time.Second
)

// Annotator is satisfied by *jargon.Annotator and by the API client.
type Annotator interface {
	Annotate(ctx context.Context, text string, glossary []models.GlossaryEntry) (jargon.Result, error)
}

// Rewriter is satisfied by *rewrite.Composer and by the API client.
type Rewriter interface {
	Rewrite(ctx context.Context, text, audience, tone string, glossary []models.GlossaryEntry) (string, error)
}

// Sender persists a finished draft.
type Sender interface {
	SendMessage(ctx context.Context, out Outgoing) error
}

// Outgoing is what Send hands to the Sender.
type Outgoing struct {
	models.MessageContent
	Audience string
	Tone     string
}

// Timer is the subset of *time.Timer the session needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. Tests substitute a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type AnnotationState int

const (
	AnnotationIdle AnnotationState = iota
	AnnotationDetecting
	AnnotationAnnotated
)

type RewriteState int

const (
	RewriteIdle RewriteState = iota
	RewriteRunning
	RewriteOffered
)

// Config carries the per-session settings. Audience and Tone normally come
// from the user's presets.
type Config struct {
	Audience        string
	Tone            string
	Glossary        []models.GlossaryEntry
	Debounce        time.Duration
	AnnotateTimeout time.Duration
	RewriteTimeout  time.Duration
	AfterFunc       AfterFunc
	Logger          *zap.Logger
}

// State is a copy of the session as seen by a listener.
type State struct {
	Text       string
	Generation uint64

	Annotation AnnotationState
	Spans      []jargon.Span
	Score      float64
	Severity   Severity
	Banner     string

	Rewrite    RewriteState
	Offer      string
	Accepted   bool
	RewriteErr error

	Audience string
	Tone     string
}

// Session is safe for concurrent use. Listeners run outside the lock, on
// whichever goroutine caused the change.
type Session struct {
	ann Annotator
	rw  Rewriter
	cfg Config
	log *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	text      string
	gen       uint64
	timer     Timer
	closed    bool
	listeners []func(State)

	annState AnnotationState
	spans    []jargon.Span
	score    float64
	spansFor string

	rwState    RewriteState
	rwSeq      uint64
	offer      string
	offerFor   string
	accepted   bool
	rewriteErr error
}

// NewSession returns an idle session with an empty draft.
func NewSession(ann Annotator, rw Rewriter, cfg Config) *Session {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.AnnotateTimeout <= 0 {
		cfg.AnnotateTimeout = DefaultAnnotateTimeout
	}
	if cfg.RewriteTimeout <= 0 {
		cfg.RewriteTimeout = DefaultRewriteTimeout
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		cfg.Audience = models.DefaultAudience
	}
	if strings.TrimSpace(cfg.Tone) == "" {
		cfg.Tone = models.DefaultTone
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = realAfterFunc
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{ann: ann, rw: rw, cfg: cfg, log: log, ctx: ctx, cancel: cancel}
}

// OnChange registers fn to receive a State after every change.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// SetText replaces the draft and restarts the debounce timer.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.text = text
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.annState = AnnotationIdle
	if strings.TrimSpace(text) == "" {
		s.spans, s.score, s.spansFor = nil, 0, ""
	} else {
		gen := s.gen
		s.timer = s.cfg.AfterFunc(s.cfg.Debounce, func() { s.fire(gen) })
	}
	st, ls := s.stateLocked()
	s.mu.Unlock()
	notify(ls, st)
}

// fire runs when a debounce timer elapses.
func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.annState = AnnotationDetecting
	text := s.text
	glossary := s.cfg.Glossary
	s.wg.Add(1)
	st, ls := s.stateLocked()
	s.mu.Unlock()
	notify(ls, st)

	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.AnnotateTimeout)
	res, err := s.ann.Annotate(ctx, text, glossary)
	cancel()

	s.mu.Lock()
	if s.closed || gen != s.gen || text != s.text {
		s.mu.Unlock()
		s.log.Debug("dropping stale annotation", zap.Uint64("generation", gen))
		return
	}
	if err != nil {
		// No annotation is a valid outcome; the draft stays sendable.
		s.log.Debug("annotation unavailable", zap.Error(err))
		s.annState = AnnotationIdle
		s.spans, s.score, s.spansFor = nil, 0, ""
	} else {
		s.annState = AnnotationAnnotated
		s.spans, s.score, s.spansFor = res.Spans, res.Score, text
	}
	st, ls = s.stateLocked()
	s.mu.Unlock()
	notify(ls, st)
}

// RequestRewrite starts a rewrite of the current draft in the background.
// A newer request supersedes an older one still in flight. The outcome
// arrives through OnChange: RewriteOffered with Offer set, or RewriteIdle
// with RewriteErr wrapping errs.ErrRewriteFailed.
func (s *Session) RequestRewrite() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("session closed")
	}
	if strings.TrimSpace(s.text) == "" {
		s.mu.Unlock()
		return fmt.Errorf("%w: nothing to rewrite", errs.ErrValidation)
	}
	s.rwSeq++
	seq := s.rwSeq
	text, audience, tone, glossary := s.text, s.cfg.Audience, s.cfg.Tone, s.cfg.Glossary
	s.rwState = RewriteRunning
	s.rewriteErr = nil
	s.wg.Add(1)
	st, ls := s.stateLocked()
	s.mu.Unlock()
	notify(ls, st)

	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RewriteTimeout)
		out, err := s.rw.Rewrite(ctx, text, audience, tone, glossary)
		cancel()

		s.mu.Lock()
		if s.closed || seq != s.rwSeq {
			s.mu.Unlock()
			return
		}
		switch {
		case err != nil:
			if !errors.Is(err, errs.ErrRewriteFailed) {
				err = fmt.Errorf("%w: %v", errs.ErrRewriteFailed, err)
			}
			s.rwState = RewriteIdle
			s.rewriteErr = err
		case text != s.text:
			s.log.Debug("dropping rewrite for an older draft")
			s.rwState = RewriteIdle
		default:
			s.rwState = RewriteOffered
			s.offer, s.offerFor, s.accepted = out, text, false
		}
		st, ls := s.stateLocked()
		s.mu.Unlock()
		notify(ls, st)
	}()
	return nil
}

// AcceptRewrite marks the offered rewrite as the simplified text to send.
// The draft itself is unchanged.
func (s *Session) AcceptRewrite() error {
	return s.settleOffer(true)
}

// DiscardRewrite drops the offered rewrite.
func (s *Session) DiscardRewrite() error {
	return s.settleOffer(false)
}

func (s *Session) settleOffer(accept bool) error {
	s.mu.Lock()
	if s.rwState != RewriteOffered {
		s.mu.Unlock()
		return fmt.Errorf("%w: no rewrite offered", errs.ErrValidation)
	}
	s.rwState = RewriteIdle
	if accept {
		s.accepted = true
	} else {
		s.offer, s.offerFor, s.accepted = "", "", false
	}
	st, ls := s.stateLocked()
	s.mu.Unlock()
	notify(ls, st)
	return nil
}

// SetPresets changes audience and tone for later rewrites. Blank values
// keep the current setting.
func (s *Session) SetPresets(audience, tone string) {
	s.mu.Lock()
	if a := strings.TrimSpace(audience); a != "" {
		s.cfg.Audience = a
	}
	if t := strings.TrimSpace(tone); t != "" {
		s.cfg.Tone = t
	}
	st, ls := s.stateLocked()
	s.mu.Unlock()
	notify(ls, st)
}

// Snapshot builds the content that Send would persist. Spans computed for
// a different text are left out and the score is recomputed over the spans
// that remain.
func (s *Session) Snapshot() (Outgoing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() (Outgoing, error) {
	if strings.TrimSpace(s.text) == "" {
		return Outgoing{}, fmt.Errorf("%w: message text is required", errs.ErrValidation)
	}
	spans := s.currentSpansLocked()
	out := Outgoing{
		MessageContent: models.MessageContent{
			TextOriginal: s.text,
			JargonScore:  jargon.MeanConfidence(spans),
			JargonSpans:  make([]models.JargonSpan, 0, len(spans)),
		},
		Audience: s.cfg.Audience,
		Tone:     s.cfg.Tone,
	}
	for _, sp := range spans {
		out.JargonSpans = append(out.JargonSpans, sp.Model())
	}
	if s.accepted && s.offerFor == s.text {
		simplified := s.offer
		out.TextSimplified = &simplified
		out.UsedSimplified = true
	}
	return out, nil
}

// Send persists the snapshot through sender. On success the draft is
// cleared unless it changed while the send was in flight, in which case the
// newer draft is kept. On failure the draft is kept as is.
func (s *Session) Send(ctx context.Context, sender Sender) error {
	s.mu.Lock()
	out, err := s.snapshotLocked()
	gen := s.gen
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := sender.SendMessage(ctx, out); err != nil {
		return err
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil
	}
	s.text = ""
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.annState = AnnotationIdle
	s.spans, s.score, s.spansFor = nil, 0, ""
	s.rwSeq++
	s.rwState = RewriteIdle
	s.offer, s.offerFor, s.accepted, s.rewriteErr = "", "", false, nil
	st, ls := s.stateLocked()
	s.mu.Unlock()
	notify(ls, st)
	return nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, _ := s.stateLocked()
	return st
}

// Wait blocks until in-flight annotate and rewrite calls have returned.
func (s *Session) Wait() { s.wg.Wait() }

// Close stops the debounce timer, cancels in-flight calls and waits for
// them. Later changes are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

func (s *Session) currentSpansLocked() []jargon.Span {
	if s.spansFor != s.text {
		return nil
	}
	return s.spans
}

func (s *Session) stateLocked() (State, []func(State)) {
	spans := s.currentSpansLocked()
	score := 0.0
	if s.spansFor == s.text {
		score = s.score
	}
	sev := SeverityFor(score, len(spans))
	st := State{
		Text:       s.text,
		Generation: s.gen,
		Annotation: s.annState,
		Spans:      append([]jargon.Span(nil), spans...),
		Score:      score,
		Severity:   sev,
		Banner:     Banner(sev, score, s.cfg.Audience),
		Rewrite:    s.rwState,
		Offer:      s.offer,
		Accepted:   s.accepted && s.offerFor == s.text,
		RewriteErr: s.rewriteErr,
		Audience:   s.cfg.Audience,
		Tone:       s.cfg.Tone,
	}
	ls := append([]func(State){}, s.listeners...)
	return st, ls
}

func notify(ls []func(State), st State) {
	for _, fn := range ls {
		fn(st)
	}
}
