package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "marketledger/internal/errors"
	"marketledger/internal/models"
	"marketledger/internal/pagination"
)

// marketService serves the read-only query side consumed by the dashboard.
type marketService struct {
	db *gorm.DB
}

// NewMarketService creates a new MarketServicer.
func NewMarketService(db *gorm.DB) MarketServicer {
	return &marketService{db: db}
}

// ListSecurities returns a paginated list of securities ordered by exchange code.
func (s *marketService) ListSecurities(page pagination.PageRequest) (*pagination.PageResponse[models.Security], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Security{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var securities []models.Security
	if err := base.Order("code ASC").Scopes(pagination.Paginate(page)).Find(&securities).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(securities, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListDailyRecords returns the paginated daily records for one security,
// ordered by trade date.
func (s *marketService) ListDailyRecords(code string, page pagination.PageRequest) (*pagination.PageResponse[models.DailyRecord], error) {
	page.Defaults()

	var security models.Security
	if err := s.db.Where("code = ?", code).First(&security).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSecurityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var totalItems int64
	base := s.db.Model(&models.DailyRecord{}).Where("security_id = ?", security.ID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var records []models.DailyRecord
	if err := base.Order("trade_date ASC").Scopes(pagination.Paginate(page)).Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(records, page.Page, page.PageSize, totalItems)
	return &result, nil
}
