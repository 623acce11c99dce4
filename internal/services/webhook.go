package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// Alert describes a budget event worth forwarding outside the app.
type Alert struct {
	Kind      AlertKind
	Project   string
	Subtitle  string
	Spent     decimal.Decimal
	Allocated decimal.Decimal
	EndDate   *time.Time
	Message   string
}

type AlertKind string

const (
	AlertNearingLimit AlertKind = "nearing_limit"
	AlertExceeded     AlertKind = "exceeded"
	AlertDeadline     AlertKind = "deadline"
)

// Alerter forwards alerts to an external channel.
type Alerter interface {
	SendAlert(ctx context.Context, alert Alert) error
}

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed    = 16711680 // #FF0000
	ColorOrange = 16753920 // #FFA500
	ColorBlue   = 3447003  // #3498DB

	webhookUsername = "Fundtrack"
	webhookTimeout  = 10 * time.Second
)

// WebhookAlerter posts alerts to a Discord and/or a Slack incoming webhook.
// Either URL may be empty.
type WebhookAlerter struct {
	discordURL string
	slackURL   string
	client     *http.Client
	clock      clock.Clock
}

// NewWebhookAlerter returns nil when neither URL is set, so callers can
// skip forwarding altogether.
func NewWebhookAlerter(discordURL, slackURL string, clk clock.Clock) *WebhookAlerter {
	if discordURL == "" && slackURL == "" {
		return nil
	}

	if clk == nil {
		clk = clock.WallClock
	}

	return &WebhookAlerter{
		discordURL: discordURL,
		slackURL:   slackURL,
		client:     &http.Client{Timeout: webhookTimeout},
		clock:      clk,
	}
}

func (w *WebhookAlerter) SendAlert(ctx context.Context, alert Alert) error {
	if w.discordURL != "" {
		if err := w.post(ctx, w.discordURL, w.discordPayload(alert)); err != nil {
			return errors.Annotate(err, "discord")
		}
	}

	if w.slackURL != "" {
		if err := w.post(ctx, w.slackURL, w.slackPayload(alert)); err != nil {
			return errors.Annotate(err, "slack")
		}
	}

	return nil
}

func alertHeadline(kind AlertKind) (string, int, string) {
	switch kind {
	case AlertExceeded:
		return "BUDGET EXCEEDED", ColorRed, "danger"
	case AlertNearingLimit:
		return "BUDGET NEARING LIMIT", ColorOrange, "warning"
	default:
		return "DEADLINE APPROACHING", ColorBlue, "#3498DB"
	}
}

func alertFields(alert Alert) [][2]string {
	fields := [][2]string{{"Project", alert.Project}}

	if alert.Subtitle != "" {
		fields = append(fields,
			[2]string{"Line item", alert.Subtitle},
			[2]string{"Spent", alert.Spent.StringFixed(2)},
			[2]string{"Allocated", alert.Allocated.StringFixed(2)},
		)
	}

	if alert.EndDate != nil {
		fields = append(fields, [2]string{"End date", alert.EndDate.Format("2006-01-02")})
	}

	return fields
}

func (w *WebhookAlerter) discordPayload(alert Alert) DiscordWebhookRequest {
	headline, color, _ := alertHeadline(alert.Kind)

	embed := DiscordEmbed{
		Title:       fmt.Sprintf("**%s**", headline),
		Description: alert.Message,
		Color:       color,
		Footer:      &DiscordFooter{Text: fmt.Sprintf("Project: %s | Fundtrack", alert.Project)},
		Timestamp:   w.clock.Now().UTC().Format(time.RFC3339),
	}

	for _, field := range alertFields(alert) {
		embed.Fields = append(embed.Fields, DiscordWebhookField{Name: field[0], Value: field[1], Inline: true})
	}

	return DiscordWebhookRequest{Username: webhookUsername, Embeds: []DiscordEmbed{embed}}
}

func (w *WebhookAlerter) slackPayload(alert Alert) SlackWebhookRequest {
	headline, _, color := alertHeadline(alert.Kind)

	attachment := SlackAttachment{
		Color:     color,
		Title:     alert.Project,
		Text:      alert.Message,
		Footer:    fmt.Sprintf("Project: %s", alert.Project),
		Timestamp: w.clock.Now().Unix(),
	}

	for _, field := range alertFields(alert) {
		attachment.Fields = append(attachment.Fields, SlackField{Title: field[0], Value: field[1], Short: true})
	}

	return SlackWebhookRequest{
		Username:    webhookUsername,
		Text:        fmt.Sprintf("*%s*", headline),
		Attachments: []SlackAttachment{attachment},
	}
}

func (w *WebhookAlerter) post(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Annotate(err, "marshalling webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Annotate(err, "building webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Annotate(err, "sending webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
