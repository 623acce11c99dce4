package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubtitleInput struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type BudgetCategoryInput struct {
	Title     string          `json:"title"`
	Subtitles []SubtitleInput `json:"subtitles"`
}

// Money columns are decimal(14,2).
var maxAmount = decimal.New(1, 12)

// checkAmount rejects values the money columns cannot hold exactly.
func checkAmount(what string, amount decimal.Decimal) error {
	switch {
	case amount.IsNegative():
		return errors.NotValidf("negative %s", what)
	case !amount.Equal(amount.Round(2)):
		return errors.NotValidf("%s %s with more than two decimal places", what, amount)
	case amount.GreaterThanOrEqual(maxAmount):
		return errors.NotValidf("%s %s not below %s", what, amount, maxAmount)
	}
	return nil
}

// nearingLimit is the share of a subtitle allocation past which its
// creator is warned.
var nearingLimit = decimal.RequireFromString("0.8")

func buildBudgetTree(input []BudgetCategoryInput) ([]models.BudgetCategory, error) {
	categories := make([]models.BudgetCategory, 0, len(input))

	for _, category := range input {
		title := strings.TrimSpace(category.Title)
		if title == "" {
			return nil, errors.NotValidf("budget category without title")
		}

		subtitles := make([]models.BudgetSubtitle, 0, len(category.Subtitles))

		for _, subtitle := range category.Subtitles {
			name := strings.TrimSpace(subtitle.Name)
			if name == "" {
				return nil, errors.NotValidf("budget subtitle without name in %q", title)
			}
			if err := checkAmount(fmt.Sprintf("amount for budget subtitle %q", name), subtitle.Amount); err != nil {
				return nil, errors.Trace(err)
			}
			subtitles = append(subtitles, models.BudgetSubtitle{Name: name, Amount: subtitle.Amount})
		}

		categories = append(categories, models.BudgetCategory{Title: title, Subtitles: subtitles})
	}

	return categories, nil
}

// replaceBudgetTree drops the project's spending records, subtitles and
// categories, in that order, and creates tree in their place. It must run
// inside a transaction.
func replaceBudgetTree(tx *gorm.DB, projectID uint, tree []models.BudgetCategory) error {
	categoryIDs := tx.Model(&models.BudgetCategory{}).Select("id").Where("project_id = ?", projectID)
	subtitleIDs := tx.Model(&models.BudgetSubtitle{}).Select("id").Where("budget_category_id IN (?)", categoryIDs)

	if err := tx.Where("budget_subtitle_id IN (?)", subtitleIDs).Delete(&models.SpendingRecord{}).Error; err != nil {
		return errors.Annotatef(err, "deleting spending records of project %d", projectID)
	}

	if err := tx.Where("budget_category_id IN (?)", categoryIDs).Delete(&models.BudgetSubtitle{}).Error; err != nil {
		return errors.Annotatef(err, "deleting budget subtitles of project %d", projectID)
	}

	if err := tx.Where("project_id = ?", projectID).Delete(&models.BudgetCategory{}).Error; err != nil {
		return errors.Annotatef(err, "deleting budget categories of project %d", projectID)
	}

	if len(tree) == 0 {
		return nil
	}

	for i := range tree {
		tree[i].ProjectID = projectID
	}

	if err := tx.Create(&tree).Error; err != nil {
		return errors.Annotatef(err, "creating budget tree of project %d", projectID)
	}

	return nil
}

// UpdateSpending overwrites the reported spend of a subtitle. With a
// non-empty reason the amount is also appended to the subtitle history.
func (s *ProjectService) UpdateSpending(ctx context.Context, userID, projectID, subtitleID uint, amount decimal.Decimal, reason *string) (*models.BudgetSubtitle, error) {
	if err := checkAmount("spending amount", amount); err != nil {
		return nil, errors.Trace(err)
	}

	project, err := s.ownedProject(ctx, userID, projectID)

	if err != nil {
		return nil, errors.Trace(err)
	}

	subtitle, err := s.projectSubtitle(ctx, projectID, subtitleID)

	if err != nil {
		return nil, errors.Trace(err)
	}

	previous := subtitle.Spent
	now := s.clock.Now().UTC()
	recorded := reason != nil && strings.TrimSpace(*reason) != ""

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if recorded {
			record := models.SpendingRecord{
				BudgetSubtitleID: subtitleID,
				Amount:           amount,
				Reason:           reason,
				SpentDate:        now,
			}
			if err := tx.Create(&record).Error; err != nil {
				return errors.Annotatef(err, "recording spending of subtitle %d", subtitleID)
			}
		}

		err := tx.Model(&models.BudgetSubtitle{}).
			Where("id = ?", subtitleID).
			Updates(map[string]interface{}{"spent": amount, "spent_date": now}).Error

		return errors.Annotatef(err, "updating spending of subtitle %d", subtitleID)
	})

	if err != nil {
		return nil, errors.Trace(err)
	}

	s.metrics.SpendingUpdated(recorded)

	subtitle.Spent = amount
	subtitle.SpentDate = &now

	s.warnOnThreshold(ctx, project, subtitle, previous)

	return subtitle, nil
}

// warnOnThreshold notifies the creator when the latest spend crosses 80%
// of the allocation or goes over it. Only the crossing itself notifies.
func (s *ProjectService) warnOnThreshold(ctx context.Context, project *models.Project, subtitle *models.BudgetSubtitle, previous decimal.Decimal) {
	allocation := subtitle.Amount

	if !allocation.IsPositive() {
		return
	}

	warning := allocation.Mul(nearingLimit)

	var title, message string
	var kind AlertKind

	switch {
	case subtitle.Spent.GreaterThan(allocation) && !previous.GreaterThan(allocation):
		kind = AlertExceeded
		title = "Budget exceeded"
		message = fmt.Sprintf("Spending on %q is %s, over its allocation of %s.",
			subtitle.Name, subtitle.Spent.StringFixed(2), allocation.StringFixed(2))
	case subtitle.Spent.GreaterThanOrEqual(warning) && !subtitle.Spent.GreaterThan(allocation) && previous.LessThan(warning):
		kind = AlertNearingLimit
		title = "Budget nearing limit"
		message = fmt.Sprintf("Spending on %q is %s, at least 80%% of its allocation of %s.",
			subtitle.Name, subtitle.Spent.StringFixed(2), allocation.StringFixed(2))
	default:
		return
	}

	if _, err := s.notifier.CreateNotification(ctx, project.UserID, title, message); err != nil {
		logger.Warningf("sending %q for subtitle %d: %v", title, subtitle.ID, err)
	}

	s.forward(ctx, Alert{
		Kind:      kind,
		Project:   project.Name,
		Subtitle:  subtitle.Name,
		Spent:     subtitle.Spent,
		Allocated: allocation,
		Message:   message,
	})
}

func (s *ProjectService) forward(ctx context.Context, alert Alert) {
	if s.alerts == nil {
		return
	}

	if err := s.alerts.SendAlert(ctx, alert); err != nil {
		logger.Warningf("forwarding %s alert for project %q: %v", alert.Kind, alert.Project, err)
	}
}

// GetSpendingHistory lists a subtitle's spending records, newest first.
func (s *ProjectService) GetSpendingHistory(ctx context.Context, userID, projectID, subtitleID uint) ([]models.SpendingRecord, error) {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, errors.Trace(err)
	}

	if _, err := s.projectSubtitle(ctx, projectID, subtitleID); err != nil {
		return nil, errors.Trace(err)
	}

	records := []models.SpendingRecord{}

	err := s.db.WithContext(ctx).
		Where("budget_subtitle_id = ?", subtitleID).
		Order("spent_date DESC, id DESC").
		Find(&records).Error

	if err != nil {
		return nil, errors.Annotatef(err, "listing spending of subtitle %d", subtitleID)
	}

	return records, nil
}

func (s *ProjectService) projectSubtitle(ctx context.Context, projectID, subtitleID uint) (*models.BudgetSubtitle, error) {
	var subtitle models.BudgetSubtitle

	err := s.db.WithContext(ctx).
		Joins("JOIN budget_categories ON budget_categories.id = budget_subtitles.budget_category_id").
		Where("budget_subtitles.id = ? AND budget_categories.project_id = ?", subtitleID, projectID).
		First(&subtitle).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("budget subtitle %d in project %d", subtitleID, projectID)
	}

	if err != nil {
		return nil, errors.Annotatef(err, "loading budget subtitle %d", subtitleID)
	}

	return &subtitle, nil
}
