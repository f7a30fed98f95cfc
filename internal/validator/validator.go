// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency", validateCurrency)
		_ = v.RegisterValidation("asset_kind", validateAssetKind)
		_ = v.RegisterValidation("proposal_action", validateProposalAction)
	}
}

func validateCurrency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "coin", "token":
		return true
	}
	return false
}

func validateAssetKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "whole", "fraction":
		return true
	}
	return false
}

func validateProposalAction(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "transfer", "signal", "update_param", "set_vip":
		return true
	}
	return false
}
