package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fundtrack/fundtrack/internal/metrics"
	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/fundtrack/fundtrack/internal/types"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateProjectInput is the body of a project creation. Pointer fields are
// required; they are pointers so a missing field can be told apart from a
// zero value. A blank date counts as missing.
type CreateProjectInput struct {
	Name             string                `json:"name"`
	Description      *string               `json:"description"`
	Budget           *decimal.Decimal      `json:"budget"`
	StartDate        *types.Date           `json:"startDate"`
	EndDate          *types.Date           `json:"endDate"`
	Status           string                `json:"status"`
	BudgetCategories []BudgetCategoryInput `json:"budgetCategories"`
}

// ProjectPatch changes only the fields that are set. Description and
// EndDate may be cleared with an explicit null, and EndDate also with "";
// a null BudgetCategories empties the tree.
type ProjectPatch struct {
	Name             types.Optional[string]                `json:"name"`
	Description      types.Optional[string]                `json:"description"`
	Budget           types.Optional[decimal.Decimal]       `json:"budget"`
	StartDate        types.Optional[types.Date]            `json:"startDate"`
	EndDate          types.Optional[types.Date]            `json:"endDate"`
	Status           types.Optional[string]                `json:"status"`
	BudgetCategories types.Optional[[]BudgetCategoryInput] `json:"budgetCategories"`
}

type ProjectService struct {
	db       *gorm.DB
	notifier Notifier
	clock    clock.Clock
	metrics  *metrics.Metrics
	alerts   Alerter
}

func NewProjectService(db *gorm.DB, notifier Notifier, clk clock.Clock, m *metrics.Metrics) *ProjectService {
	if clk == nil {
		clk = clock.WallClock
	}

	return &ProjectService{
		db:       db,
		notifier: notifier,
		clock:    clk,
		metrics:  m,
	}
}

// WithAlerter makes the service forward budget and deadline alerts to a,
// on top of the in-app notifications.
func (s *ProjectService) WithAlerter(a Alerter) *ProjectService {
	s.alerts = a
	return s
}

// GetUserProjects returns every project of the user's company, newest
// first. A user without a company sees nothing.
func (s *ProjectService) GetUserProjects(ctx context.Context, userID uint) ([]models.Project, error) {
	projects := []models.Project{}

	companyID, err := s.companyOf(ctx, userID)

	if errors.Is(err, errors.NotFound) || (err == nil && companyID == nil) {
		return projects, nil
	}

	if err != nil {
		return nil, errors.Trace(err)
	}

	err = s.projects(ctx).
		Preload("User").
		Where("company_id = ?", *companyID).
		Order("created_at DESC, id DESC").
		Find(&projects).Error

	if err != nil {
		return nil, errors.Annotatef(err, "listing projects of company %d", *companyID)
	}

	return projects, nil
}

func (s *ProjectService) GetUserProjectCount(ctx context.Context, userID uint) (int64, error) {
	companyID, err := s.companyOf(ctx, userID)

	if errors.Is(err, errors.NotFound) || (err == nil && companyID == nil) {
		return 0, nil
	}

	if err != nil {
		return 0, errors.Trace(err)
	}

	var count int64

	err = s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("company_id = ?", *companyID).
		Count(&count).Error

	if err != nil {
		return 0, errors.Annotatef(err, "counting projects of company %d", *companyID)
	}

	return count, nil
}

func (s *ProjectService) CreateProject(ctx context.Context, userID uint, input CreateProjectInput) (*models.Project, error) {
	companyID, err := s.companyOf(ctx, userID)

	if err != nil {
		return nil, errors.Trace(err)
	}

	if companyID == nil {
		return nil, errors.NotValidf("user %d without a company creating a project", userID)
	}

	name := strings.TrimSpace(input.Name)
	status := strings.TrimSpace(input.Status)

	if input.EndDate != nil && input.EndDate.Blank() {
		input.EndDate = nil
	}

	if name == "" || input.Budget == nil || input.StartDate == nil || input.StartDate.Blank() || status == "" {
		return nil, errors.NotValidf("project without name, budget, startDate or status")
	}

	if err := checkAmount("project budget", *input.Budget); err != nil {
		return nil, errors.Trace(err)
	}

	if input.EndDate != nil && input.EndDate.Before(input.StartDate.Time) {
		return nil, errors.NotValidf("project ending before it starts")
	}

	categories, err := buildBudgetTree(input.BudgetCategories)

	if err != nil {
		return nil, errors.Trace(err)
	}

	project := models.Project{
		UserID:           userID,
		CompanyID:        *companyID,
		Name:             name,
		Description:      input.Description,
		Budget:           *input.Budget,
		StartDate:        input.StartDate.Datatype(),
		Status:           status,
		BudgetCategories: categories,
	}

	if input.EndDate != nil {
		end := input.EndDate.Datatype()
		project.EndDate = &end
	}

	// Categories and subtitles are created with the project in one
	// transaction.
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, errors.Annotate(err, "creating project")
	}

	logger.Infof("user %d created project %d in company %d", userID, project.ID, project.CompanyID)
	s.metrics.ProjectCreated()

	message := fmt.Sprintf("Project %q has been created.", project.Name)

	if _, err := s.notifier.CreateNotification(ctx, userID, "Project created", message); err != nil {
		logger.Warningf("notifying user %d about project %d: %v", userID, project.ID, err)
	}

	return s.loadProject(ctx, project.ID)
}

// GetProject returns a project of the user's company. Projects of other
// companies are reported as missing.
func (s *ProjectService) GetProject(ctx context.Context, userID, projectID uint) (*models.Project, error) {
	companyID, err := s.companyOf(ctx, userID)

	if err != nil {
		return nil, errors.Trace(err)
	}

	if companyID == nil {
		return nil, errors.NotFoundf("project %d", projectID)
	}

	var project models.Project

	err = s.projects(ctx).
		Preload("User").
		Preload("Company").
		Where("id = ? AND company_id = ?", projectID, *companyID).
		First(&project).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("project %d", projectID)
	}

	if err != nil {
		return nil, errors.Annotatef(err, "loading project %d", projectID)
	}

	return &project, nil
}

// UpdateProject applies patch to a project the user created. Scalar
// changes and a budget tree replacement commit together.
func (s *ProjectService) UpdateProject(ctx context.Context, userID, projectID uint, patch ProjectPatch) (*models.Project, error) {
	project, err := s.ownedProject(ctx, userID, projectID)

	if err != nil {
		return nil, errors.Trace(err)
	}

	updates, err := projectUpdates(*project, patch)

	if err != nil {
		return nil, errors.Trace(err)
	}

	var tree []models.BudgetCategory

	if patch.BudgetCategories.Set {
		if tree, err = buildBudgetTree(patch.BudgetCategories.Value); err != nil {
			return nil, errors.Trace(err)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			err := tx.Model(&models.Project{}).Where("id = ?", projectID).Updates(updates).Error
			if err != nil {
				return errors.Annotatef(err, "updating project %d", projectID)
			}
		}

		if patch.BudgetCategories.Set {
			return replaceBudgetTree(tx, projectID, tree)
		}

		return nil
	})

	if err != nil {
		return nil, errors.Trace(err)
	}

	if patch.BudgetCategories.Set {
		logger.Infof("replaced budget tree of project %d with %d categories", projectID, len(tree))
		s.metrics.BudgetTreeReplaced()
	}

	return s.loadProject(ctx, projectID)
}

func projectUpdates(current models.Project, patch ProjectPatch) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if patch.Name.Set {
		name := strings.TrimSpace(patch.Name.Value)
		if patch.Name.Null || name == "" {
			return nil, errors.NotValidf("empty project name")
		}
		updates["name"] = name
	}

	if patch.Description.Set {
		updates["description"] = patch.Description.Ptr()
	}

	if patch.Budget.Set {
		if patch.Budget.Null {
			return nil, errors.NotValidf("empty project budget")
		}
		if err := checkAmount("project budget", patch.Budget.Value); err != nil {
			return nil, errors.Trace(err)
		}
		updates["budget"] = patch.Budget.Value
	}

	start := current.StartDate

	if patch.StartDate.Set {
		if patch.StartDate.Null || patch.StartDate.Value.Blank() {
			return nil, errors.NotValidf("empty project startDate")
		}
		start = patch.StartDate.Value.Datatype()
		updates["start_date"] = start
	}

	if patch.EndDate.Set {
		if patch.EndDate.Null || patch.EndDate.Value.Blank() {
			updates["end_date"] = nil
		} else {
			end := patch.EndDate.Value.Datatype()
			if patch.EndDate.Value.Before(time.Time(start)) {
				return nil, errors.NotValidf("project ending before it starts")
			}
			updates["end_date"] = end
		}
		updates["deadline_reminded_at"] = nil
	}

	if patch.Status.Set {
		status := strings.TrimSpace(patch.Status.Value)
		if patch.Status.Null || status == "" {
			return nil, errors.NotValidf("empty project status")
		}
		updates["status"] = status
	}

	return updates, nil
}

// ownedProject loads a project for a write. Only its creator may change it.
func (s *ProjectService) ownedProject(ctx context.Context, userID, projectID uint) (*models.Project, error) {
	var project models.Project

	err := s.db.WithContext(ctx).First(&project, projectID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("project %d", projectID)
	}

	if err != nil {
		return nil, errors.Annotatef(err, "loading project %d", projectID)
	}

	if project.UserID != userID {
		return nil, errors.Forbiddenf("changing project %d of another user", projectID)
	}

	return &project, nil
}

func (s *ProjectService) loadProject(ctx context.Context, projectID uint) (*models.Project, error) {
	var project models.Project

	err := s.projects(ctx).Preload("User").First(&project, projectID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("project %d", projectID)
	}

	if err != nil {
		return nil, errors.Annotatef(err, "loading project %d", projectID)
	}

	return &project, nil
}

// projects is a query with the budget tree preloaded in insertion order.
func (s *ProjectService) projects(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("BudgetCategories", orderByID).
		Preload("BudgetCategories.Subtitles", orderByID)
}

func (s *ProjectService) companyOf(ctx context.Context, userID uint) (*uint, error) {
	var user models.User

	err := s.db.WithContext(ctx).Select("id", "company_id").First(&user, userID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("user %d", userID)
	}

	if err != nil {
		return nil, errors.Annotatef(err, "loading user %d", userID)
	}

	return user.CompanyID, nil
}

func orderByID(tx *gorm.DB) *gorm.DB {
	return tx.Order("id")
}
