package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fundtrack/fundtrack/db/dbtest"
	"github.com/fundtrack/fundtrack/internal/auth"
	"github.com/fundtrack/fundtrack/internal/metrics"
	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/fundtrack/fundtrack/internal/realtime"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const defaultCompanyName = "Default Company"

type fixture struct {
	ctx           context.Context
	db            *gorm.DB
	clock         *testclock.Clock
	tokens        *auth.JWT
	metrics       *metrics.Metrics
	publisher     *recordingPublisher
	notifications *NotificationService
	identity      *IdentityService
	companies     *CompanyService
	projects      *ProjectService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := dbtest.New(t)
	clk := testclock.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	tokens, err := auth.NewJWT("test-secret", 7*24*time.Hour, clk)
	require.NoError(t, err)

	m := metrics.New()
	publisher := &recordingPublisher{}
	notifications := NewNotificationService(conn, publisher)

	return &fixture{
		ctx:           context.Background(),
		db:            conn,
		clock:         clk,
		tokens:        tokens,
		metrics:       m,
		publisher:     publisher,
		notifications: notifications,
		identity:      NewIdentityService(conn, tokens, notifications, defaultCompanyName, m),
		companies:     NewCompanyService(conn),
		projects:      NewProjectService(conn, notifications, clk, m),
	}
}

// register signs up a password user and returns it with its company.
func (f *fixture) register(t *testing.T, email, username, company string) models.User {
	t.Helper()

	result, err := f.identity.Register(f.ctx, email, username, "password123", company)
	require.NoError(t, err)

	user, err := f.identity.GetUser(f.ctx, result.User.ID)
	require.NoError(t, err)

	return *user
}

func (f *fixture) notificationTitles(t *testing.T, userID uint) []string {
	t.Helper()

	notifications, err := f.notifications.GetUserNotifications(f.ctx, userID)
	require.NoError(t, err)

	titles := make([]string, 0, len(notifications))
	for _, n := range notifications {
		titles = append(titles, n.Title)
	}
	return titles
}

// counter reads a counter from the fixture registry. labels are name/value
// pairs; a series that was never touched reads as zero.
func (f *fixture) counter(t *testing.T, name string, labels ...string) float64 {
	t.Helper()

	families, err := f.metrics.Registry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	series:
		for _, metric := range family.GetMetric() {
			values := map[string]string{}
			for _, pair := range metric.GetLabel() {
				values[pair.GetName()] = pair.GetValue()
			}
			for i := 0; i+1 < len(labels); i += 2 {
				if values[labels[i]] != labels[i+1] {
					continue series
				}
			}
			return metric.GetCounter().GetValue()
		}
	}

	return 0
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	userID uint
	event  realtime.Event
}

func (p *recordingPublisher) Publish(userID uint, event realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID: userID, event: event})
}

func (p *recordingPublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type failingNotifier struct{}

func (failingNotifier) CreateNotification(context.Context, uint, string, string) (*models.Notification, error) {
	return nil, errors.New("notification store unavailable")
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func assertKind(t *testing.T, kind errors.ConstError, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "want %v, got %v", kind, err)
}

func googleProfile(username string) auth.GoogleProfile {
	return auth.GoogleProfile{
		ProviderID: "google-" + username,
		Email:      username + "@example.com",
		Username:   username,
	}
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []Alert
	err    error
}

func (a *recordingAlerter) SendAlert(_ context.Context, alert Alert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
	return a.err
}

func (a *recordingAlerter) kinds() []AlertKind {
	a.mu.Lock()
	defer a.mu.Unlock()

	kinds := make([]AlertKind, 0, len(a.alerts))
	for _, alert := range a.alerts {
		kinds = append(kinds, alert.Kind)
	}
	return kinds
}
