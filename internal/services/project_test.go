package services

import (
	"testing"
	"time"

	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/fundtrack/fundtrack/internal/types"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func projectInput(name string) CreateProjectInput {
	budget := dec("1000")
	start := types.NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	return CreateProjectInput{
		Name:      name,
		Budget:    &budget,
		StartDate: &start,
		Status:    "active",
		BudgetCategories: []BudgetCategoryInput{
			{Title: "Staff", Subtitles: []SubtitleInput{
				{Name: "Salaries", Amount: dec("600")},
				{Name: "Training", Amount: dec("100")},
			}},
			{Title: "Equipment", Subtitles: []SubtitleInput{
				{Name: "Laptops", Amount: dec("300")},
			}},
		},
	}
}

func (f *fixture) createProject(t *testing.T, userID uint, name string) *models.Project {
	t.Helper()

	project, err := f.projects.CreateProject(f.ctx, userID, projectInput(name))
	require.NoError(t, err)
	return project
}

func subtitleNamed(t *testing.T, project *models.Project, name string) models.BudgetSubtitle {
	t.Helper()

	for _, category := range project.BudgetCategories {
		for _, subtitle := range category.Subtitles {
			if subtitle.Name == name {
				return subtitle
			}
		}
	}
	t.Fatalf("project %d has no subtitle %q", project.ID, name)
	return models.BudgetSubtitle{}
}

func TestCreateProjectBuildsBudgetTree(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")

	description := "Community outreach"
	input := projectInput("Outreach")
	input.Description = &description

	project, err := f.projects.CreateProject(f.ctx, alice.ID, input)
	require.NoError(t, err)

	assert.Equal(t, alice.ID, project.UserID)
	assert.Equal(t, *alice.CompanyID, project.CompanyID)
	assert.Equal(t, "Outreach", project.Name)
	require.NotNil(t, project.Description)
	assert.Equal(t, description, *project.Description)
	assertDecimal(t, "1000", project.Budget)
	assert.Equal(t, "2024-01-01", time.Time(project.StartDate).Format("2006-01-02"))
	assert.Nil(t, project.EndDate)

	require.NotNil(t, project.User)
	assert.Equal(t, "alice", project.User.Username)

	require.Len(t, project.BudgetCategories, 2)
	assert.Equal(t, "Staff", project.BudgetCategories[0].Title)
	require.Len(t, project.BudgetCategories[0].Subtitles, 2)
	assert.Equal(t, "Salaries", project.BudgetCategories[0].Subtitles[0].Name)
	assertDecimal(t, "600", project.BudgetCategories[0].Subtitles[0].Amount)
	assertDecimal(t, "0", project.BudgetCategories[0].Subtitles[0].Spent)
	assert.Nil(t, project.BudgetCategories[0].Subtitles[0].SpentDate)

	assert.Equal(t, []string{"Project created", "Welcome!"}, f.notificationTitles(t, alice.ID))
	assert.Equal(t, 1.0, f.counter(t, "fundtrack_projects_created_total"))
}

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")

	missingName := projectInput(" ")
	missingBudget := projectInput("p")
	missingBudget.Budget = nil
	missingStart := projectInput("p")
	missingStart.StartDate = nil
	missingStatus := projectInput("p")
	missingStatus.Status = ""
	negative := projectInput("p")
	negativeBudget := dec("-1")
	negative.Budget = &negativeBudget
	fractional := projectInput("p")
	fractionalBudget := dec("1000.005")
	fractional.Budget = &fractionalBudget
	oversized := projectInput("p")
	oversizedBudget := dec("1000000000000")
	oversized.Budget = &oversizedBudget
	fractionalLine := projectInput("p")
	fractionalLine.BudgetCategories[0].Subtitles[0].Amount = dec("600.001")
	oversizedLine := projectInput("p")
	oversizedLine.BudgetCategories[1].Subtitles[0].Amount = dec("1e13")
	blankStart := projectInput("p")
	blankStart.StartDate = &types.Date{}
	untitled := projectInput("p")
	untitled.BudgetCategories[1].Title = ""
	backwards := projectInput("p")
	end := types.NewDate(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
	backwards.EndDate = &end

	for name, input := range map[string]CreateProjectInput{
		"missing name":      missingName,
		"missing budget":    missingBudget,
		"missing startDate": missingStart,
		"missing status":    missingStatus,
		"negative budget":   negative,
		"sub-cent budget":   fractional,
		"budget too large":  oversized,
		"sub-cent amount":   fractionalLine,
		"amount too large":  oversizedLine,
		"blank startDate":   blankStart,
		"untitled category": untitled,
		"end before start":  backwards,
	} {
		_, err := f.projects.CreateProject(f.ctx, alice.ID, input)
		assert.True(t, errors.Is(err, errors.NotValid), "%s: got %v", name, err)
	}

	var projects int64
	require.NoError(t, f.db.Model(&models.Project{}).Count(&projects).Error)
	assert.Zero(t, projects)
}

func TestCreateProjectAcceptsZeroBudgetAndEmptyTree(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")

	input := projectInput("Seed")
	zero := decimal.Zero
	input.Budget = &zero
	input.BudgetCategories = nil

	project, err := f.projects.CreateProject(f.ctx, alice.ID, input)
	require.NoError(t, err)
	assertDecimal(t, "0", project.Budget)
	assert.Empty(t, project.BudgetCategories)
}

func TestCreateProjectRequiresCompany(t *testing.T) {
	f := newFixture(t)

	result, err := f.identity.ValidateGoogleUser(f.ctx, googleProfile("solo"))
	require.NoError(t, err)
	require.Nil(t, result.User.CompanyID)

	_, err = f.projects.CreateProject(f.ctx, result.User.ID, projectInput("p"))
	assertKind(t, errors.NotValid, err)

	projects, err := f.projects.GetUserProjects(f.ctx, result.User.ID)
	require.NoError(t, err)
	assert.Empty(t, projects)

	count, err := f.projects.GetUserProjectCount(f.ctx, result.User.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateProjectSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")
	projects := NewProjectService(f.db, failingNotifier{}, f.clock, nil)

	project, err := projects.CreateProject(f.ctx, alice.ID, projectInput("p"))
	require.NoError(t, err)
	assert.NotZero(t, project.ID)
}

func TestProjectsAreSharedWithinCompany(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")
	bob := f.register(t, "bob@example.com", "bob", "Acme")
	carol := f.register(t, "carol@example.com", "carol", "Globex")

	first := f.createProject(t, alice.ID, "First")
	second := f.createProject(t, bob.ID, "Second")
	f.createProject(t, carol.ID, "Elsewhere")

	projects, err := f.projects.GetUserProjects(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, second.ID, projects[0].ID)
	assert.Equal(t, first.ID, projects[1].ID)
	require.NotNil(t, projects[0].User)
	assert.Equal(t, "bob", projects[0].User.Username)
	assert.Len(t, projects[1].BudgetCategories, 2)

	count, err := f.projects.GetUserProjectCount(f.ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	project, err := f.projects.GetProject(f.ctx, bob.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", project.Name)
	require.NotNil(t, project.Company)
	assert.Equal(t, "Acme", project.Company.Name)

	_, err = f.projects.GetProject(f.ctx, carol.ID, first.ID)
	assertKind(t, errors.NotFound, err)

	_, err = f.projects.GetProject(f.ctx, alice.ID, 999)
	assertKind(t, errors.NotFound, err)
}

func TestUpdateProjectAccess(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")
	bob := f.register(t, "bob@example.com", "bob", "Acme")
	carol := f.register(t, "carol@example.com", "carol", "Globex")
	project := f.createProject(t, alice.ID, "Mine")

	patch := ProjectPatch{Name: types.Some("Stolen")}

	_, err := f.projects.UpdateProject(f.ctx, bob.ID, project.ID, patch)
	assertKind(t, errors.Forbidden, err)

	_, err = f.projects.UpdateProject(f.ctx, carol.ID, project.ID, patch)
	assertKind(t, errors.Forbidden, err)

	_, err = f.projects.UpdateProject(f.ctx, alice.ID, 999, patch)
	assertKind(t, errors.NotFound, err)

	reloaded, err := f.projects.GetProject(f.ctx, alice.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", reloaded.Name)
}

func TestUpdateProjectScalarFields(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")

	description := "to be cleared"
	end := types.NewDate(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	input := projectInput("Scalars")
	input.Description = &description
	input.EndDate = &end
	project, err := f.projects.CreateProject(f.ctx, alice.ID, input)
	require.NoError(t, err)
	require.NotNil(t, project.EndDate)

	updated, err := f.projects.UpdateProject(f.ctx, alice.ID, project.ID, ProjectPatch{
		Description: types.Null[string](),
		EndDate:     types.Null[types.Date](),
		Budget:      types.Some(dec("2500.50")),
		Status:      types.Some("closed"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Scalars", updated.Name)
	assert.Nil(t, updated.Description)
	assert.Nil(t, updated.EndDate)
	assertDecimal(t, "2500.5", updated.Budget)
	assert.Equal(t, "closed", updated.Status)
	assert.Equal(t, "2024-01-01", time.Time(updated.StartDate).Format("2006-01-02"))

	// Without budgetCategories the tree is untouched.
	require.Len(t, updated.BudgetCategories, 2)
	assert.Equal(t, project.BudgetCategories[0].ID, updated.BudgetCategories[0].ID)
	assert.Zero(t, f.counter(t, "fundtrack_budget_tree_replacements_total"))

	_, err = f.projects.UpdateProject(f.ctx, alice.ID, project.ID, ProjectPatch{Status: types.Null[string]()})
	assertKind(t, errors.NotValid, err)

	for _, budget := range []string{"-1", "10.125", "1000000000000"} {
		_, err = f.projects.UpdateProject(f.ctx, alice.ID, project.ID, ProjectPatch{Budget: types.Some(dec(budget))})
		assertKind(t, errors.NotValid, err)
	}

	// Trailing zeros are not extra precision.
	updated, err = f.projects.UpdateProject(f.ctx, alice.ID, project.ID, ProjectPatch{Budget: types.Some(dec("123456.780"))})
	require.NoError(t, err)
	assertDecimal(t, "123456.78", updated.Budget)

	_, err = f.projects.UpdateProject(f.ctx, alice.ID, project.ID, ProjectPatch{
		EndDate: types.Some(types.NewDate(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))),
	})
	assertKind(t, errors.NotValid, err)
}

func TestUpdateProjectReplacesBudgetTree(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")
	project := f.createProject(t, alice.ID, "Tree")
	salaries := subtitleNamed(t, project, "Salaries")

	_, err := f.projects.UpdateSpending(f.ctx, alice.ID, project.ID, salaries.ID, dec("100"), stringPtr("January payroll"))
	require.NoError(t, err)

	updated, err := f.projects.UpdateProject(f.ctx, alice.ID, project.ID, ProjectPatch{
		BudgetCategories: types.Some([]BudgetCategoryInput{
			{Title: "Travel", Subtitles: []SubtitleInput{{Name: "Flights", Amount: dec("400")}}},
		}),
	})
	require.NoError(t, err)

	require.Len(t, updated.BudgetCategories, 1)
	assert.Equal(t, "Travel", updated.BudgetCategories[0].Title)
	flights := subtitleNamed(t, updated, "Flights")
	assert.NotEqual(t, salaries.ID, flights.ID)
	assertDecimal(t, "0", flights.Spent)

	var records, subtitles, categories int64
	require.NoError(t, f.db.Model(&models.SpendingRecord{}).Count(&records).Error)
	require.NoError(t, f.db.Model(&models.BudgetSubtitle{}).Count(&subtitles).Error)
	require.NoError(t, f.db.Model(&models.BudgetCategory{}).Count(&categories).Error)
	assert.Zero(t, records)
	assert.Equal(t, int64(1), subtitles)
	assert.Equal(t, int64(1), categories)

	_, err = f.projects.GetSpendingHistory(f.ctx, alice.ID, project.ID, salaries.ID)
	assertKind(t, errors.NotFound, err)

	assert.Equal(t, 1.0, f.counter(t, "fundtrack_budget_tree_replacements_total"))
}

func TestUpdateProjectNullTreeEmptiesIt(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")
	project := f.createProject(t, alice.ID, "Tree")

	updated, err := f.projects.UpdateProject(f.ctx, alice.ID, project.ID, ProjectPatch{
		BudgetCategories: types.Null[[]BudgetCategoryInput](),
	})
	require.NoError(t, err)
	assert.Empty(t, updated.BudgetCategories)
}

func TestUpdateProjectLeavesOtherProjectsAlone(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")
	first := f.createProject(t, alice.ID, "First")
	second := f.createProject(t, alice.ID, "Second")

	_, err := f.projects.UpdateProject(f.ctx, alice.ID, first.ID, ProjectPatch{
		BudgetCategories: types.Some([]BudgetCategoryInput{}),
	})
	require.NoError(t, err)

	reloaded, err := f.projects.GetProject(f.ctx, alice.ID, second.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.BudgetCategories, 2)
	assert.Len(t, reloaded.BudgetCategories[0].Subtitles, 2)
}

func TestUpdateProjectRollsBackOnTreeFailure(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "alice", "Acme")
	project := f.createProject(t, alice.ID, "Atomic")

	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_categories", func(tx *gorm.DB) {
		if tx.Statement.Table == "budget_categories" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = f.projects.UpdateProject(f.ctx, alice.ID, project.ID, ProjectPatch{
		Name: types.Some("Renamed"),
		BudgetCategories: types.Some([]BudgetCategoryInput{
			{Title: "Travel", Subtitles: []SubtitleInput{{Name: "Flights", Amount: dec("400")}}},
		}),
	})
	require.Error(t, err)

	reloaded, err := f.projects.GetProject(f.ctx, alice.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Atomic", reloaded.Name)
	require.Len(t, reloaded.BudgetCategories, 2)
	assert.Equal(t, project.BudgetCategories[0].ID, reloaded.BudgetCategories[0].ID)
}
