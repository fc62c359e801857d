package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalemusser/linguashift/internal/app/system/compose"
	"github.com/dalemusser/linguashift/internal/app/system/jargon"
	"github.com/dalemusser/linguashift/internal/client"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/dalemusser/linguashift/internal/tui/messages"
)

type stubAnnotator struct {
	res jargon.Result
}

func (a stubAnnotator) Annotate(context.Context, string, []models.GlossaryEntry) (jargon.Result, error) {
	return a.res, nil
}

type stubRewriter struct {
	out string
	err error
}

func (r stubRewriter) Rewrite(context.Context, string, string, string, []models.GlossaryEntry) (string, error) {
	return r.out, r.err
}

type fakeChannel struct {
	mu      sync.Mutex
	sent    []compose.Outgoing
	sendErr error
	feed    []client.Message
	during  func()
}

func (f *fakeChannel) SendMessage(_ context.Context, out compose.Outgoing) error {
	if f.during != nil {
		f.during()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, out)
	return nil
}

func (f *fakeChannel) Messages(context.Context) ([]client.Message, error) {
	return f.feed, nil
}

// manualTimers captures debounce callbacks so tests decide when they fire.
type manualTimers struct {
	mu    sync.Mutex
	funcs []func()
}

type manualTimer struct{}

func (manualTimer) Stop() bool { return true }

func (m *manualTimers) AfterFunc(_ time.Duration, f func()) compose.Timer {
	m.mu.Lock()
	m.funcs = append(m.funcs, f)
	m.mu.Unlock()
	return manualTimer{}
}

func (m *manualTimers) fireLast() {
	m.mu.Lock()
	f := m.funcs[len(m.funcs)-1]
	m.mu.Unlock()
	f()
}

type fixture struct {
	session *compose.Session
	channel *fakeChannel
	timers  *manualTimers
	c       *Composer
}

func newFixture(t *testing.T, ann stubAnnotator, rw stubRewriter) *fixture {
	t.Helper()
	timers := &manualTimers{}
	s := compose.NewSession(ann, rw, compose.Config{
		Audience:  "PMs",
		Tone:      "Friendly",
		AfterFunc: timers.AfterFunc,
	})
	ch := &fakeChannel{}
	c := NewComposer(s, ch, Options{Title: "#launch", Self: "u1"})
	t.Cleanup(s.Close)
	return &fixture{session: s, channel: ch, timers: timers, c: c}
}

func typeText(c *Composer, text string) {
	for _, r := range text {
		c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (f *fixture) syncState() {
	f.session.Wait()
	f.c.Update(messages.StateChanged{State: f.session.State()})
}

func TestComposer_TypingUpdatesSession(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{})

	typeText(f.c, "hi")

	assert.Equal(t, "hi", f.session.State().Text)
	assert.Equal(t, "hi", f.c.input.Value())
}

func TestComposer_ShowsBannerAfterAnnotation(t *testing.T) {
	ann := stubAnnotator{res: jargon.Result{
		Spans: []jargon.Span{{Start: 0, End: 4, Confidence: 0.9}},
		Score: 0.9,
	}}
	f := newFixture(t, ann, stubRewriter{})

	typeText(f.c, "Zorp is down")
	f.timers.fireLast()
	f.syncState()

	assert.Equal(t, compose.SeverityHeavy, f.c.state.Severity)
	view := f.c.View()
	assert.Contains(t, view, "Heavy jargon detected (90%)")
	assert.Contains(t, view, "Zorp")
}

func TestComposer_SendClearsDraft(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{})
	typeText(f.c, "ship it")

	_, cmd := f.c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, f.c.sending)

	msg := cmd()
	sent, ok := msg.(messages.Sent)
	require.True(t, ok)
	require.NoError(t, sent.Err)
	require.Len(t, f.channel.sent, 1)
	assert.Equal(t, "ship it", f.channel.sent[0].TextOriginal)
	assert.Equal(t, "PMs", f.channel.sent[0].Audience)

	_, cmd = f.c.Update(sent)
	assert.NotNil(t, cmd, "a sent message triggers a feed refresh")
	assert.False(t, f.c.sending)
	assert.Empty(t, f.c.input.Value())
	assert.Empty(t, f.session.State().Text)
}

func TestComposer_TypingDuringSendIsKept(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{})
	typeText(f.c, "ship it")
	f.channel.during = func() { typeText(f.c, "!") }

	_, cmd := f.c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	f.c.Update(cmd())

	require.Len(t, f.channel.sent, 1)
	assert.Equal(t, "ship it", f.channel.sent[0].TextOriginal)
	assert.Equal(t, "ship it!", f.c.input.Value())
	assert.Equal(t, "ship it!", f.session.State().Text)
}

func TestComposer_SendFailureKeepsDraft(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{})
	f.channel.sendErr = errors.New("offline")
	typeText(f.c, "ship it")

	_, cmd := f.c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	f.c.Update(cmd())

	assert.Equal(t, "ship it", f.c.input.Value())
	assert.Equal(t, "ship it", f.session.State().Text)
	require.Error(t, f.c.err)
	assert.Contains(t, f.c.View(), "send failed")
}

func TestComposer_SendBlankIsIgnored(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{})
	typeText(f.c, "   ")

	_, cmd := f.c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "nothing to send", f.c.status)
	assert.Empty(t, f.channel.sent)
}

func TestComposer_RewriteAcceptAndSend(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{out: "Billing is slow."})
	typeText(f.c, "Zorp p99 spiked")

	f.c.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	f.syncState()
	require.Equal(t, compose.RewriteOffered, f.c.state.Rewrite)
	assert.Contains(t, f.c.View(), "Billing is slow.")
	assert.Contains(t, f.c.View(), "Suggested for PMs (Friendly)")

	f.c.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	f.syncState()
	assert.True(t, f.c.state.Accepted)
	assert.Equal(t, "Zorp p99 spiked", f.c.input.Value(), "accepting does not touch the draft")

	_, cmd := f.c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	f.c.Update(cmd())
	require.Len(t, f.channel.sent, 1)
	out := f.channel.sent[0]
	assert.True(t, out.UsedSimplified)
	require.NotNil(t, out.TextSimplified)
	assert.Equal(t, "Billing is slow.", *out.TextSimplified)
}

func TestComposer_DiscardRewrite(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{out: "Plain."})
	typeText(f.c, "jargon")

	f.c.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	f.syncState()
	f.c.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	f.syncState()

	assert.Equal(t, compose.RewriteIdle, f.c.state.Rewrite)
	assert.Empty(t, f.c.state.Offer)
	assert.Equal(t, "rewrite discarded", f.c.status)
}

func TestComposer_AcceptWithoutOffer(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{})
	f.c.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.Error(t, f.c.err)
}

func TestComposer_RewriteFailureShown(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{err: errors.New("model down")})
	typeText(f.c, "jargon")

	f.c.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	f.syncState()

	require.Error(t, f.c.err)
	assert.Contains(t, f.c.View(), "rewrite failed")
}

func TestComposer_FeedLoaded(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{})
	simple := "Billing is slow."
	feed := []client.Message{
		{ID: "m1", SenderID: "u1", TextOriginal: "Zorp p99 spiked", TextSimplified: &simple, UsedSimplified: true},
		{ID: "m2", SenderID: "u2", TextOriginal: "thanks"},
		{ID: "m3", SenderID: "u2", Redacted: true},
	}
	f.c.opts.Names = map[string]string{"u2": "Grace"}

	_, cmd := f.c.Update(messages.FeedLoaded{Messages: feed, Scheduled: true})
	assert.NotNil(t, cmd, "scheduled loads re-arm the poll")

	view := f.c.View()
	assert.Contains(t, view, "you")
	assert.Contains(t, view, "Billing is slow.")
	assert.Contains(t, view, "(simplified)")
	assert.Contains(t, view, "Grace")
	assert.Contains(t, view, "message deleted")

	_, cmd = f.c.Update(messages.FeedLoaded{Messages: feed})
	assert.Nil(t, cmd, "manual loads do not start a second poll loop")
}

func TestComposer_PollDueFetches(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{})
	f.channel.feed = []client.Message{{ID: "m1", TextOriginal: "hello"}}

	_, cmd := f.c.Update(messages.PollDue{At: time.Now()})
	require.NotNil(t, cmd)
	loaded, ok := cmd().(messages.FeedLoaded)
	require.True(t, ok)
	assert.True(t, loaded.Scheduled)
	assert.Len(t, loaded.Messages, 1)
}

func TestComposer_Quit(t *testing.T) {
	f := newFixture(t, stubAnnotator{}, stubRewriter{})

	_, cmd := f.c.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	// A second quit must not panic on the closed channel.
	_, cmd = f.c.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)

	// After quitting, the state watcher returns instead of blocking.
	assert.Nil(t, f.c.waitForState()())
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		spans []jargon.Span
		want  []segment
	}{
		{
			name: "no spans",
			text: "all clear",
			want: []segment{{text: "all clear"}},
		},
		{
			name:  "leading span",
			text:  "Zorp is down",
			spans: []jargon.Span{{Start: 0, End: 4}},
			want:  []segment{{text: "Zorp", jargon: true}, {text: " is down"}},
		},
		{
			name:  "unsorted spans",
			text:  "the KPI and SLA",
			spans: []jargon.Span{{Start: 12, End: 15}, {Start: 4, End: 7}},
			want: []segment{
				{text: "the "}, {text: "KPI", jargon: true}, {text: " and "}, {text: "SLA", jargon: true},
			},
		},
		{
			name:  "rune offsets",
			text:  "café KPI",
			spans: []jargon.Span{{Start: 5, End: 8}},
			want:  []segment{{text: "café "}, {text: "KPI", jargon: true}},
		},
		{
			name:  "bad and overlapping spans ignored",
			text:  "abcdef",
			spans: []jargon.Span{{Start: 0, End: 3}, {Start: 2, End: 4}, {Start: 4, End: 99}},
			want:  []segment{{text: "abc", jargon: true}, {text: "def"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, segments(tt.text, tt.spans))
		})
	}
}
