package types

import (
	"time"

	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go out as JSON numbers, which is what clients send in.
	decimal.MarshalJSONWithoutQuotes = true
}

type UserResponse struct {
	ID       uint    `json:"id"`
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Title    *string `json:"title"`
}

type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type CompanyResponse struct {
	ID     uint           `json:"id"`
	Name   string         `json:"name"`
	Sector string         `json:"sector"`
	Logo   *string        `json:"logo"`
	Users  []UserResponse `json:"users,omitempty"`
}

type AuthResponse struct {
	ID       uint             `json:"id"`
	Email    string           `json:"email"`
	Username string           `json:"username"`
	Company  *CompanyResponse `json:"company,omitempty"`
	Token    string           `json:"token"`
}

type MeResponse struct {
	ID       uint             `json:"id"`
	Email    string           `json:"email"`
	Username string           `json:"username"`
	Title    *string          `json:"title"`
	Company  *CompanyResponse `json:"company"`
}

type NotificationResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type ProjectResponse struct {
	ID               uint                     `json:"id"`
	UserID           uint                     `json:"userId"`
	CompanyID        uint                     `json:"companyId"`
	Name             string                   `json:"name"`
	Description      *string                  `json:"description"`
	Budget           decimal.Decimal          `json:"budget"`
	StartDate        Date                     `json:"startDate"`
	EndDate          *Date                    `json:"endDate"`
	Status           string                   `json:"status"`
	CreatedAt        time.Time                `json:"createdAt"`
	BudgetCategories []BudgetCategoryResponse `json:"budgetCategories"`
	User             *UserSummary             `json:"user,omitempty"`
	Company          *CompanyResponse         `json:"company,omitempty"`
}

type BudgetCategoryResponse struct {
	ID        uint                     `json:"id"`
	ProjectID uint                     `json:"projectId"`
	Title     string                   `json:"title"`
	Subtitles []BudgetSubtitleResponse `json:"subtitles"`
}

type BudgetSubtitleResponse struct {
	ID               uint            `json:"id"`
	BudgetCategoryID uint            `json:"budgetCategoryId"`
	Name             string          `json:"name"`
	Amount           decimal.Decimal `json:"amount"`
	Spent            decimal.Decimal `json:"spent"`
	SpentDate        *time.Time      `json:"spentDate"`
}

type SpendingRecordResponse struct {
	ID               uint            `json:"id"`
	BudgetSubtitleID uint            `json:"budgetSubtitleId"`
	Amount           decimal.Decimal `json:"amount"`
	Reason           *string         `json:"reason"`
	SpentDate        time.Time       `json:"spentDate"`
}

func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Title:    user.Title,
	}
}

func NewCompanyResponse(company *models.Company) *CompanyResponse {
	if company == nil {
		return nil
	}

	response := &CompanyResponse{
		ID:     company.ID,
		Name:   company.Name,
		Sector: company.Sector,
		Logo:   company.Logo,
	}

	for _, user := range company.Users {
		response.Users = append(response.Users, NewUserResponse(user))
	}

	return response
}

func NewAuthResponse(user models.User, token string) AuthResponse {
	return AuthResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Company:  NewCompanyResponse(user.Company),
		Token:    token,
	}
}

func NewMeResponse(user models.User) MeResponse {
	return MeResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Title:    user.Title,
		Company:  NewCompanyResponse(user.Company),
	}
}

func NewNotificationResponses(notifications []models.Notification) []NotificationResponse {
	response := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		response = append(response, NewNotificationResponse(n))
	}
	return response
}

func NewNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func NewProjectResponse(project models.Project) ProjectResponse {
	response := ProjectResponse{
		ID:               project.ID,
		UserID:           project.UserID,
		CompanyID:        project.CompanyID,
		Name:             project.Name,
		Description:      project.Description,
		Budget:           project.Budget,
		StartDate:        NewDate(time.Time(project.StartDate)),
		Status:           project.Status,
		CreatedAt:        project.CreatedAt,
		BudgetCategories: make([]BudgetCategoryResponse, 0, len(project.BudgetCategories)),
	}

	if project.EndDate != nil {
		end := NewDate(time.Time(*project.EndDate))
		response.EndDate = &end
	}

	if project.User != nil {
		response.User = &UserSummary{
			ID:       project.User.ID,
			Username: project.User.Username,
			Email:    project.User.Email,
		}
	}

	if project.Company != nil {
		response.Company = &CompanyResponse{ID: project.Company.ID, Name: project.Company.Name, Sector: project.Company.Sector, Logo: project.Company.Logo}
	}

	for _, category := range project.BudgetCategories {
		response.BudgetCategories = append(response.BudgetCategories, NewBudgetCategoryResponse(category))
	}

	return response
}

func NewProjectResponses(projects []models.Project) []ProjectResponse {
	response := make([]ProjectResponse, 0, len(projects))
	for _, project := range projects {
		response = append(response, NewProjectResponse(project))
	}
	return response
}

func NewBudgetCategoryResponse(category models.BudgetCategory) BudgetCategoryResponse {
	response := BudgetCategoryResponse{
		ID:        category.ID,
		ProjectID: category.ProjectID,
		Title:     category.Title,
		Subtitles: make([]BudgetSubtitleResponse, 0, len(category.Subtitles)),
	}

	for _, subtitle := range category.Subtitles {
		response.Subtitles = append(response.Subtitles, NewBudgetSubtitleResponse(subtitle))
	}

	return response
}

func NewBudgetSubtitleResponse(subtitle models.BudgetSubtitle) BudgetSubtitleResponse {
	return BudgetSubtitleResponse{
		ID:               subtitle.ID,
		BudgetCategoryID: subtitle.BudgetCategoryID,
		Name:             subtitle.Name,
		Amount:           subtitle.Amount,
		Spent:            subtitle.Spent,
		SpentDate:        subtitle.SpentDate,
	}
}

func NewSpendingRecordResponses(records []models.SpendingRecord) []SpendingRecordResponse {
	response := make([]SpendingRecordResponse, 0, len(records))
	for _, record := range records {
		response = append(response, SpendingRecordResponse{
			ID:               record.ID,
			BudgetSubtitleID: record.BudgetSubtitleID,
			Amount:           record.Amount,
			Reason:           record.Reason,
			SpentDate:        record.SpentDate,
		})
	}
	return response
}
