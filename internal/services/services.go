// Package services holds the business operations behind the HTTP routes.
// Each service owns a GORM handle and reports failures as juju/errors kinds:
// NotValid for bad input, NotFound, Forbidden, AlreadyExists, and
// ErrInvalidCredentials for failed logins.
package services

import (
	"context"

	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/fundtrack/fundtrack/internal/realtime"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("fundtrack.services")

// ErrInvalidCredentials is returned by Login for an unknown user, an
// account without a password, or a wrong password alike.
const ErrInvalidCredentials = errors.ConstError("invalid credentials")

// Notifier stores a notification for a user.
type Notifier interface {
	CreateNotification(ctx context.Context, userID uint, title, message string) (*models.Notification, error)
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	GenerateJWT(userID uint, email, username string) (string, error)
}

// Publisher delivers live events to connected clients.
type Publisher interface {
	Publish(userID uint, event realtime.Event)
}

func stringPtr(s string) *string {
	return &s
}
