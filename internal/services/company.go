package services

import (
	"context"
	"strings"

	"github.com/fundtrack/fundtrack/db"
	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/fundtrack/fundtrack/internal/types"
	"github.com/juju/errors"
	"gorm.io/gorm"
)

// CompanyPatch carries the company fields a client may change.
type CompanyPatch struct {
	Name   types.Optional[string] `json:"name"`
	Sector types.Optional[string] `json:"sector"`
}

type CompanyService struct {
	db *gorm.DB
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

// GetCompany loads a company with its members.
func (s *CompanyService) GetCompany(ctx context.Context, companyID uint) (*models.Company, error) {
	var company models.Company

	err := s.db.WithContext(ctx).
		Preload("Users", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		First(&company, companyID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundf("company %d", companyID)
	}

	if err != nil {
		return nil, errors.Annotatef(err, "loading company %d", companyID)
	}

	return &company, nil
}

// UpdateLogo sets or, with a nil logo, clears the company logo.
func (s *CompanyService) UpdateLogo(ctx context.Context, companyID uint, logo *string) (*models.Company, error) {
	return s.update(ctx, companyID, map[string]interface{}{"logo": logo})
}

func (s *CompanyService) UpdateCompanyInfo(ctx context.Context, companyID uint, patch CompanyPatch) (*models.Company, error) {
	updates := map[string]interface{}{}

	if patch.Name.Set {
		name := strings.TrimSpace(patch.Name.Value)
		if patch.Name.Null || name == "" {
			return nil, errors.NotValidf("empty company name")
		}
		updates["name"] = name
	}

	if patch.Sector.Set {
		sector := strings.TrimSpace(patch.Sector.Value)
		if patch.Sector.Null || sector == "" {
			return nil, errors.NotValidf("empty company sector")
		}
		updates["sector"] = sector
	}

	if len(updates) == 0 {
		return s.GetCompany(ctx, companyID)
	}

	return s.update(ctx, companyID, updates)
}

func (s *CompanyService) update(ctx context.Context, companyID uint, updates map[string]interface{}) (*models.Company, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", companyID).
		Updates(updates)

	if result.Error != nil {
		if db.IsUniqueViolation(result.Error) {
			return nil, errors.AlreadyExistsf("company named %q", updates["name"])
		}
		return nil, errors.Annotatef(result.Error, "updating company %d", companyID)
	}

	logger.Debugf("updated company %d", companyID)

	return s.GetCompany(ctx, companyID)
}
