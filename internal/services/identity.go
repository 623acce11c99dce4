package services

import (
	"context"
	"strings"

	"github.com/fundtrack/fundtrack/db"
	"github.com/fundtrack/fundtrack/internal/auth"
	"github.com/fundtrack/fundtrack/internal/metrics"
	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/juju/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	passwordCost = 10

	googleProvider = "google"

	welcomeTitle   = "Welcome!"
	welcomeMessage = "Welcome to Grant Management! Start by creating your first project."
)

// AuthResult is a signed-in user with a fresh token.
type AuthResult struct {
	User  models.User
	Token string
}

type IdentityService struct {
	db             *gorm.DB
	tokens         TokenIssuer
	notifier       Notifier
	defaultCompany string
	metrics        *metrics.Metrics
}

// NewIdentityService returns the service. Users signing in through Google
// for the first time join the company named defaultCompany, if it exists.
func NewIdentityService(db *gorm.DB, tokens TokenIssuer, notifier Notifier, defaultCompany string, m *metrics.Metrics) *IdentityService {
	return &IdentityService{
		db:             db,
		tokens:         tokens,
		notifier:       notifier,
		defaultCompany: defaultCompany,
		metrics:        m,
	}
}

func (s *IdentityService) Register(ctx context.Context, email, username, password, companyName string) (*AuthResult, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)
	companyName = strings.TrimSpace(companyName)

	if email == "" || username == "" || password == "" || companyName == "" {
		return nil, errors.NotValidf("registration without email, username, password or company name")
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error

	if err == nil {
		return nil, errors.AlreadyExistsf("email %q", email)
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Annotate(err, "checking existing user")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)

	if err != nil {
		return nil, errors.Annotate(err, "hashing password")
	}

	company, err := s.resolveCompany(ctx, companyName)

	if err != nil {
		return nil, errors.Trace(err)
	}

	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: stringPtr(string(passwordHash)),
		CompanyID:    &company.ID,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errors.AlreadyExistsf("email %q", email)
		}
		return nil, errors.Annotate(err, "creating user")
	}

	logger.Infof("registered user %d in company %d", user.ID, company.ID)
	s.metrics.UserRegistered("password")

	if _, err := s.notifier.CreateNotification(ctx, user.ID, welcomeTitle, welcomeMessage); err != nil {
		return nil, errors.Trace(err)
	}

	return s.issue(user)
}

// resolveCompany finds a company by exact name or creates it. Two
// registrations naming the same new company race on the insert; the loser
// sees a unique violation and reads the winner's row.
func (s *IdentityService) resolveCompany(ctx context.Context, name string) (*models.Company, error) {
	company, err := s.findCompany(ctx, name)

	if err == nil {
		return company, nil
	}

	if !errors.Is(err, errors.NotFound) {
		return nil, errors.Trace(err)
	}

	company = &models.Company{Name: name, Sector: models.DefaultSector}
	err = s.db.WithContext(ctx).Create(company).Error

	if err == nil {
		logger.Infof("created company %d %q", company.ID, name)
		return company, nil
	}

	if !db.IsUniqueViolation(err) {
		return nil, errors.Annotatef(err, "creating company %q", name)
	}

	logger.Debugf("company %q created concurrently, reloading", name)

	company, err = s.findCompany(ctx, name)

	if errors.Is(err, errors.NotFound) {
		return nil, errors.Errorf("failed to create or find company %q", name)
	}

	return company, errors.Trace(err)
}

func (s *IdentityService) findCompany(ctx context.Context, name string) (*models.Company, error) {
	var company models.Company

	err := s.db.WithContext(ctx).Where("name = ?", name).First(&company).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("company %q", name)
	}

	if err != nil {
		return nil, errors.Annotatef(err, "looking up company %q", name)
	}

	return &company, nil
}

// Login accepts either the email or the username of the account.
func (s *IdentityService) Login(ctx context.Context, emailOrUsername, password string) (*AuthResult, error) {
	identifier := strings.TrimSpace(emailOrUsername)

	if identifier == "" || password == "" {
		return nil, errors.NotValidf("login without email/username or password")
	}

	var user models.User

	err := s.db.WithContext(ctx).
		Preload("Company").
		Where("email = ? OR username = ?", normalizeEmail(identifier), identifier).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, errors.Annotate(err, "looking up user")
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ValidateGoogleUser signs in the account linked to the Google subject,
// creating it on first use.
func (s *IdentityService) ValidateGoogleUser(ctx context.Context, profile auth.GoogleProfile) (*AuthResult, error) {
	if profile.ProviderID == "" || profile.Email == "" {
		return nil, errors.NotValidf("google profile without subject or email")
	}

	user, err := s.findByProvider(ctx, profile.ProviderID)

	if err == nil {
		return s.issue(*user)
	}

	if !errors.Is(err, errors.NotFound) {
		return nil, errors.Trace(err)
	}

	var companyID *uint

	company, err := s.findCompany(ctx, s.defaultCompany)

	switch {
	case err == nil:
		companyID = &company.ID
	case errors.Is(err, errors.NotFound):
		logger.Warningf("default company %q does not exist, google user %q has no company", s.defaultCompany, profile.Email)
	default:
		return nil, errors.Trace(err)
	}

	created := models.User{
		Email:      normalizeEmail(profile.Email),
		Username:   profile.Username,
		Provider:   stringPtr(googleProvider),
		ProviderID: stringPtr(profile.ProviderID),
		CompanyID:  companyID,
	}

	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		if !db.IsUniqueViolation(err) {
			return nil, errors.Annotate(err, "creating google user")
		}

		// Either the same subject signed in concurrently, or the email
		// belongs to a password account.
		if user, findErr := s.findByProvider(ctx, profile.ProviderID); findErr == nil {
			return s.issue(*user)
		}

		return nil, errors.AlreadyExistsf("email %q", created.Email)
	}

	logger.Infof("created google user %d", created.ID)
	s.metrics.UserRegistered(googleProvider)

	if _, err := s.notifier.CreateNotification(ctx, created.ID, welcomeTitle, welcomeMessage); err != nil {
		return nil, errors.Trace(err)
	}

	user, err = s.GetUser(ctx, created.ID)

	if err != nil {
		return nil, errors.Trace(err)
	}

	return s.issue(*user)
}

// GetUser loads a user with its company.
func (s *IdentityService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Preload("Company").First(&user, userID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("user %d", userID)
	}

	if err != nil {
		return nil, errors.Annotatef(err, "loading user %d", userID)
	}

	return &user, nil
}

func (s *IdentityService) findByProvider(ctx context.Context, providerID string) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).
		Preload("Company").
		Where("provider = ? AND provider_id = ?", googleProvider, providerID).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("google user %q", providerID)
	}

	if err != nil {
		return nil, errors.Annotate(err, "looking up google user")
	}

	return &user, nil
}

func (s *IdentityService) issue(user models.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateJWT(user.ID, user.Email, user.Username)

	if err != nil {
		return nil, errors.Annotate(err, "generating token")
	}

	return &AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
