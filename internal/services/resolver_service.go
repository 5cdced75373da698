package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "marketledger/internal/errors"
	"marketledger/internal/models"
)

// resolverService maps exchange codes to stable security identifiers.
type resolverService struct{}

// NewResolverService creates a new ResolverServicer.
func NewResolverService() ResolverServicer {
	return &resolverService{}
}

// ResolveOrCreate returns the security for the given exchange code,
// inserting a new one on first sighting. Runs against the caller's
// transaction; the pipeline's single-writer assumption means no locking
// is taken here.
func (s *resolverService) ResolveOrCreate(tx *gorm.DB, code, name string) (*models.Security, bool, error) {
	if strings.TrimSpace(code) == "" {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "Exchange code is required")
	}

	var security models.Security
	err := tx.Where("code = ?", code).First(&security).Error
	if err == nil {
		// Found: the display name is fixed at first insert and not
		// refreshed by later sightings.
		return &security, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	security = models.Security{Code: code, Name: name}
	if err := tx.Create(&security).Error; err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &security, true, nil
}
