package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/juju/errors"
	"gorm.io/datatypes"
)

const day = 24 * time.Hour

// SendDeadlineReminders notifies the creator of every project ending
// within the window, counting today. Each end date is reminded once;
// changing the end date re-arms the reminder. It returns the number of
// reminders sent.
func (s *ProjectService) SendDeadlineReminders(ctx context.Context, within time.Duration) (int, error) {
	now := s.clock.Now().UTC()
	today := now.Truncate(day)
	last := today.Add(within).Truncate(day)

	var candidates []models.Project

	err := s.db.WithContext(ctx).
		Where("end_date BETWEEN ? AND ? AND deadline_reminded_at IS NULL", datatypes.Date(today), datatypes.Date(last)).
		Order("id").
		Find(&candidates).Error

	if err != nil {
		return 0, errors.Annotate(err, "listing projects with a deadline")
	}

	sent := 0

	for _, project := range candidates {
		end := time.Time(*project.EndDate).UTC().Truncate(day)

		// The IS NULL guard keeps two schedulers from reminding twice.
		result := s.db.WithContext(ctx).
			Model(&models.Project{}).
			Where("id = ? AND deadline_reminded_at IS NULL", project.ID).
			Update("deadline_reminded_at", now)

		if result.Error != nil {
			return sent, errors.Annotatef(result.Error, "marking deadline reminder of project %d", project.ID)
		}

		if result.RowsAffected == 0 {
			continue
		}

		days := int(end.Sub(today) / day)
		message := fmt.Sprintf("Project %q ends on %s (%s).", project.Name, end.Format("2006-01-02"), daysLeft(days))

		if _, err := s.notifier.CreateNotification(ctx, project.UserID, "Project deadline approaching", message); err != nil {
			logger.Warningf("sending deadline reminder for project %d: %v", project.ID, err)
		}

		s.forward(ctx, Alert{
			Kind:    AlertDeadline,
			Project: project.Name,
			EndDate: &end,
			Message: message,
		})

		s.metrics.DeadlineReminded()
		sent++
	}

	if sent > 0 {
		logger.Infof("sent %d deadline reminders", sent)
	}

	return sent, nil
}

func daysLeft(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "in 1 day"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
