// internal/client/api.go
package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/linguashift/internal/app/system/compose"
	"github.com/dalemusser/linguashift/internal/app/system/jargon"
	"github.com/dalemusser/linguashift/internal/domain/models"
)

// Account is the signed-in user as the server reports it.
type Account struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organizationId"`
	AudiencePreset string `json:"audiencePreset"`
	TonePreset     string `json:"tonePreset"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt"`
	User      Account    `json:"user"`
}

// Organization is the caller's organization with its glossary.
type Organization struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Glossary []models.GlossaryEntry `json:"glossary"`
}

// Message is one ledger entry. Redacted messages were deleted by their
// sender and carry no text.
type Message struct {
	ID             string              `json:"id"`
	ChannelID      string              `json:"channelId"`
	SenderID       string              `json:"senderId"`
	TextOriginal   string              `json:"textOriginal"`
	TextSimplified *string             `json:"textSimplified"`
	UsedSimplified bool                `json:"usedSimplified"`
	JargonScore    float64             `json:"jargonScore"`
	JargonSpans    []models.JargonSpan `json:"jargonSpans"`
	CreatedAt      time.Time           `json:"createdAt"`
	EditedAt       *time.Time          `json:"editedAt"`
	Redacted       bool                `json:"redacted"`
}

// Display is the text readers see: the simplified version when the sender
// chose it.
func (m Message) Display() string {
	if m.UsedSimplified && m.TextSimplified != nil {
		return *m.TextSimplified
	}
	return m.TextOriginal
}

// Login signs in and keeps the returned token for later calls. The server
// must have token issuing enabled.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &s)
	if err != nil {
		return Session{}, err
	}
	c.token = s.Token
	return s, nil
}

func (c *Client) Me(ctx context.Context) (Account, error) {
	var a Account
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &a)
	return a, err
}

func (c *Client) MyOrganization(ctx context.Context) (Organization, error) {
	var o Organization
	err := c.do(ctx, http.MethodGet, "/api/organizations/me", nil, &o)
	return o, err
}

func (c *Client) AddGlossaryEntry(ctx context.Context, orgID string, e models.GlossaryEntry) error {
	return c.do(ctx, http.MethodPost, "/api/organizations/"+url.PathEscape(orgID)+"/glossary", e, nil)
}

func (c *Client) UpdateGlossaryEntry(ctx context.Context, orgID string, e models.GlossaryEntry) error {
	path := "/api/organizations/" + url.PathEscape(orgID) + "/glossary/" + url.PathEscape(e.Term)
	return c.do(ctx, http.MethodPut, path, e, nil)
}

// Annotate asks the server to annotate text. The server applies the
// caller's organization glossary, so glossary is not sent.
func (c *Client) Annotate(ctx context.Context, text string, _ []models.GlossaryEntry) (jargon.Result, error) {
	var res jargon.Result
	if err := c.do(ctx, http.MethodPost, "/api/ml/detect-jargon", map[string]string{"text": text}, &res); err != nil {
		return jargon.Result{}, err
	}
	if res.Spans == nil {
		res.Spans = []jargon.Span{}
	}
	return res, nil
}

// Rewrite asks the server for a rewrite. As with Annotate the glossary is
// resolved server side.
func (c *Client) Rewrite(ctx context.Context, text, audience, tone string, _ []models.GlossaryEntry) (string, error) {
	var out struct {
		RewrittenText string `json:"rewrittenText"`
	}
	err := c.do(ctx, http.MethodPost, "/api/ml/rewrite", map[string]string{
		"text":     text,
		"audience": audience,
		"tone":     tone,
	}, &out)
	return out.RewrittenText, err
}

func (c *Client) ListMessages(ctx context.Context, channelID string) ([]Message, error) {
	var msgs []Message
	err := c.do(ctx, http.MethodGet, "/api/channels/"+url.PathEscape(channelID)+"/messages", nil, &msgs)
	return msgs, err
}

func (c *Client) SendMessage(ctx context.Context, channelID string, out compose.Outgoing) (Message, error) {
	body := struct {
		models.MessageContent
		Audience string `json:"audience,omitempty"`
		Tone     string `json:"tone,omitempty"`
	}{out.MessageContent, out.Audience, out.Tone}
	var m Message
	err := c.do(ctx, http.MethodPost, "/api/channels/"+url.PathEscape(channelID)+"/messages", body, &m)
	return m, err
}

// Channel binds a client to one channel. It serves as the compose.Sender
// and message feed for a terminal composer.
type Channel struct {
	Client *Client
	ID     string
}

func (ch Channel) SendMessage(ctx context.Context, out compose.Outgoing) error {
	_, err := ch.Client.SendMessage(ctx, ch.ID, out)
	return err
}

func (ch Channel) Messages(ctx context.Context) ([]Message, error) {
	return ch.Client.ListMessages(ctx, ch.ID)
}

var (
	_ compose.Annotator = (*Client)(nil)
	_ compose.Rewriter  = (*Client)(nil)
	_ compose.Sender    = Channel{}
)
