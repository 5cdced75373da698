package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "marketledger/internal/errors"
	"marketledger/internal/pagination"
	"marketledger/internal/services"
)

// SecurityHandler handles the read-only security queries consumed by the
// dashboard.
type SecurityHandler struct {
	marketService services.MarketServicer
}

// NewSecurityHandler creates a new SecurityHandler.
func NewSecurityHandler(marketService services.MarketServicer) *SecurityHandler {
	return &SecurityHandler{marketService: marketService}
}

// dailyRecordsURI binds the path parameter for daily record queries.
type dailyRecordsURI struct {
	Code string `uri:"code" binding:"required,stock_code"`
}

// ListSecurities handles listing all securities ordered by exchange code.
func (h *SecurityHandler) ListSecurities(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.marketService.ListSecurities(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListDailyRecords handles listing one security's daily records ordered by
// trade date.
func (h *SecurityHandler) ListDailyRecords(c *gin.Context) {
	var uri dailyRecordsURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid stock code"))
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.marketService.ListDailyRecords(uri.Code, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
