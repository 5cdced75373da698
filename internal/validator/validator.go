// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// stockCodeRegex matches exchange-assigned ticker codes: 4-6 alphanumeric
// characters (e.g. "2330", "00631L").
var stockCodeRegex = regexp.MustCompile(`^[0-9A-Za-z]{4,6}$`)

// reportDateRegex matches trade dates in YYYY-MM-DD form.
var reportDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("stock_code", validateStockCode)
		_ = v.RegisterValidation("report_date", validateReportDate)
	}
}

func validateStockCode(fl validator.FieldLevel) bool {
	return stockCodeRegex.MatchString(fl.Field().String())
}

func validateReportDate(fl validator.FieldLevel) bool {
	return reportDateRegex.MatchString(fl.Field().String())
}
