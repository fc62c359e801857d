// Package tui is the terminal composer: a bubbletea program that hosts a
// composition session against one channel, shows the channel feed and
// flags jargon in the draft as it is typed.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dalemusser/linguashift/internal/app/system/compose"
	"github.com/dalemusser/linguashift/internal/app/system/jargon"
	"github.com/dalemusser/linguashift/internal/client"
	"github.com/dalemusser/linguashift/internal/tui/keymap"
	"github.com/dalemusser/linguashift/internal/tui/messages"
	"github.com/dalemusser/linguashift/internal/tui/styles"
)

const (
	// DefaultPollInterval is how often the channel feed is refreshed.
	DefaultPollInterval = 3 * time.Second

	sendTimeout  = 15 * time.Second
	fetchTimeout = 10 * time.Second
	draftLimit   = 10000
)

// Channel is the remote channel the composer posts to and reads from.
// client.Channel satisfies it.
type Channel interface {
	compose.Sender
	Messages(ctx context.Context) ([]client.Message, error)
}

// Options tunes a Composer. Zero values are usable.
type Options struct {
	Title        string
	Self         string            // own user id, shown as "you"
	Names        map[string]string // sender id to display name
	PollInterval time.Duration
	Styles       *styles.Styles
	KeyMap       *keymap.KeyMap
}

// Composer is the root bubbletea model.
type Composer struct {
	session *compose.Session
	channel Channel
	opts    Options
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	input   textinput.Model

	ctx     context.Context
	changed chan struct{}
	done    chan struct{}

	state   compose.State
	feed    []client.Message
	status  string
	err     error
	sending bool
	quit    bool
	width   int
	height  int
}

// NewComposer wires session to ch. The composer owns the session from here
// on and closes it on quit.
func NewComposer(session *compose.Session, ch Channel, opts Options) *Composer {
	if opts.Styles == nil {
		opts.Styles = styles.DefaultStyles()
	}
	if opts.KeyMap == nil {
		opts.KeyMap = keymap.DefaultKeyMap()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	ti := textinput.New()
	ti.Placeholder = "Write a message"
	ti.CharLimit = draftLimit
	ti.Prompt = "> "
	ti.Focus()

	c := &Composer{
		session: session,
		channel: ch,
		opts:    opts,
		styles:  opts.Styles,
		keymap:  opts.KeyMap,
		input:   ti,
		ctx:     context.Background(),
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
		state:   session.State(),
		width:   80,
		height:  24,
	}
	session.OnChange(func(compose.State) {
		select {
		case c.changed <- struct{}{}:
		default:
		}
	})
	return c
}

// WithContext sets the context used for network calls.
func (c *Composer) WithContext(ctx context.Context) *Composer {
	c.ctx = ctx
	return c
}

func (c *Composer) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, c.waitForState(), c.fetchFeed(true))
}

// waitForState turns session notifications into StateChanged messages.
// Bursts collapse into one message carrying the latest state.
func (c *Composer) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-c.changed:
			return messages.StateChanged{State: c.session.State()}
		case <-c.done:
			return nil
		}
	}
}

// fetchFeed loads the channel feed. Only scheduled fetches re-arm the poll
// timer so there is a single polling loop.
func (c *Composer) fetchFeed(scheduled bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(c.ctx, fetchTimeout)
		defer cancel()
		msgs, err := c.channel.Messages(ctx)
		return messages.FeedLoaded{Messages: msgs, Err: err, Scheduled: scheduled}
	}
}

func (c *Composer) schedulePoll() tea.Cmd {
	return tea.Tick(c.opts.PollInterval, func(t time.Time) tea.Msg {
		return messages.PollDue{At: t}
	})
}

func (c *Composer) send() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(c.ctx, sendTimeout)
		defer cancel()
		return messages.Sent{Err: c.session.Send(ctx, c.channel)}
	}
}

func (c *Composer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width, c.height = msg.Width, msg.Height
		c.input.Width = max(10, msg.Width-8)
		return c, nil

	case tea.KeyMsg:
		return c.handleKey(msg)

	case messages.StateChanged:
		c.state = msg.State
		if msg.State.RewriteErr != nil {
			c.setError(msg.State.RewriteErr)
		}
		return c, c.waitForState()

	case messages.Sent:
		c.sending = false
		if msg.Err != nil {
			c.setError(fmt.Errorf("send failed: %w", msg.Err))
			return c, nil
		}
		// Keep anything typed while the send was in flight.
		if c.session.State().Text == "" {
			c.input.Reset()
		}
		c.setStatus("sent")
		return c, c.fetchFeed(false)

	case messages.PollDue:
		return c, c.fetchFeed(true)

	case messages.FeedLoaded:
		if msg.Err != nil {
			c.setError(fmt.Errorf("refresh failed: %w", msg.Err))
		} else {
			c.feed = msg.Messages
		}
		if msg.Scheduled {
			return c, c.schedulePoll()
		}
		return c, nil
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

func (c *Composer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, c.keymap.Quit):
		if !c.quit {
			c.quit = true
			close(c.done)
			c.session.Close()
		}
		return c, tea.Quit

	case key.Matches(msg, c.keymap.Send):
		if c.sending {
			return c, nil
		}
		if strings.TrimSpace(c.input.Value()) == "" {
			c.setStatus("nothing to send")
			return c, nil
		}
		c.sending = true
		c.setStatus("sending...")
		return c, c.send()

	case key.Matches(msg, c.keymap.Rewrite):
		if err := c.session.RequestRewrite(); err != nil {
			c.setError(err)
		} else {
			c.setStatus("rewriting for " + c.state.Audience + "...")
		}
		return c, nil

	case key.Matches(msg, c.keymap.Accept):
		if err := c.session.AcceptRewrite(); err != nil {
			c.setError(err)
		} else {
			c.setStatus("rewrite will be sent")
		}
		return c, nil

	case key.Matches(msg, c.keymap.Discard):
		if err := c.session.DiscardRewrite(); err != nil {
			c.setError(err)
		} else {
			c.setStatus("rewrite discarded")
		}
		return c, nil

	case key.Matches(msg, c.keymap.Refresh):
		return c, c.fetchFeed(false)
	}

	before := c.input.Value()
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	if after := c.input.Value(); after != before {
		c.session.SetText(after)
	}
	return c, cmd
}

func (c *Composer) setStatus(s string) {
	c.status, c.err = s, nil
}

func (c *Composer) setError(err error) {
	c.status, c.err = "", err
}

func (c *Composer) View() string {
	var b strings.Builder

	title := c.opts.Title
	if title == "" {
		title = "Linguashift"
	}
	b.WriteString(c.styles.Title.Render(title))
	b.WriteString("\n\n")

	b.WriteString(c.renderFeed())
	b.WriteString("\n")

	if c.state.Banner != "" {
		b.WriteString(c.styles.ForSeverity(c.state.Severity).Render(c.state.Banner))
		b.WriteString("\n")
		b.WriteString(c.renderDraft(c.state.Text, c.state.Spans))
		b.WriteString("\n")
	}
	if offer := c.renderOffer(); offer != "" {
		b.WriteString(offer)
		b.WriteString("\n")
	}

	b.WriteString(c.styles.Input.Render(c.input.View()))
	b.WriteString("\n")
	b.WriteString(c.renderStatus())
	return b.String()
}

func (c *Composer) renderFeed() string {
	if len(c.feed) == 0 {
		return c.styles.Muted.Render("No messages yet.") + "\n"
	}
	limit := max(3, c.height-12)
	start := max(0, len(c.feed)-limit)

	var b strings.Builder
	for _, m := range c.feed[start:] {
		b.WriteString(c.styles.Sender.Render(c.senderName(m.SenderID)))
		b.WriteString(": ")
		switch {
		case m.Redacted:
			b.WriteString(c.styles.Muted.Render("message deleted"))
		default:
			b.WriteString(c.styles.Normal.Render(m.Display()))
			if m.UsedSimplified && m.TextSimplified != nil {
				b.WriteString(c.styles.Muted.Render(" (simplified)"))
			}
			if m.EditedAt != nil {
				b.WriteString(c.styles.Muted.Render(" (edited)"))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (c *Composer) senderName(id string) string {
	if id != "" && id == c.opts.Self {
		return "you"
	}
	if n, ok := c.opts.Names[id]; ok && n != "" {
		return n
	}
	if len(id) > 6 {
		return id[len(id)-6:]
	}
	return id
}

func (c *Composer) renderDraft(text string, spans []jargon.Span) string {
	var b strings.Builder
	for _, seg := range segments(text, spans) {
		if seg.jargon {
			b.WriteString(c.styles.Jargon.Render(seg.text))
		} else {
			b.WriteString(c.styles.Normal.Render(seg.text))
		}
	}
	return b.String()
}

func (c *Composer) renderOffer() string {
	st := c.state
	switch {
	case st.Rewrite == compose.RewriteRunning:
		return c.styles.Muted.Render("Rewriting...")
	case st.Rewrite == compose.RewriteOffered:
		head := c.styles.Success.Render(fmt.Sprintf("Suggested for %s (%s):", st.Audience, st.Tone))
		return c.styles.Offer.Render(head + "\n" + st.Offer)
	case st.Accepted:
		head := c.styles.Success.Render("Sending simplified version:")
		return c.styles.Offer.Render(head + "\n" + st.Offer)
	}
	return ""
}

func (c *Composer) renderStatus() string {
	var left string
	switch {
	case c.err != nil:
		left = c.styles.Error.Render(c.err.Error())
	case c.state.Annotation == compose.AnnotationDetecting:
		left = "checking for jargon..."
	default:
		left = c.status
	}

	help := make([]string, 0, 5)
	for _, b := range c.keymap.ShortHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	right := c.styles.Help.Render(strings.Join(help, " • "))
	return c.styles.StatusBar.Render(lipgloss.JoinVertical(lipgloss.Left, left, right))
}

type segment struct {
	text   string
	jargon bool
}

// segments splits text at span boundaries. Spans are rune offsets; spans
// that are out of range or overlap an earlier span are ignored.
func segments(text string, spans []jargon.Span) []segment {
	runes := []rune(text)
	sorted := append([]jargon.Span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out []segment
	pos := 0
	for _, sp := range sorted {
		if sp.Start < pos || sp.End <= sp.Start || sp.End > len(runes) {
			continue
		}
		if sp.Start > pos {
			out = append(out, segment{text: string(runes[pos:sp.Start])})
		}
		out = append(out, segment{text: string(runes[sp.Start:sp.End]), jargon: true})
		pos = sp.End
	}
	if pos < len(runes) {
		out = append(out, segment{text: string(runes[pos:])})
	}
	return out
}
