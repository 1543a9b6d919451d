// Package svc holds the few helpers every domain service shares.
package svc

import (
	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/tenant"
)

// Report logs the outcome of a failed operation at a level matching its kind
// and returns err unchanged.
func Report(log logger.Logger, op string, sc tenant.Scope, err error, fields ...logger.Field) error {
	if err == nil {
		return nil
	}
	fields = append(fields,
		logger.String("op", op),
		logger.String("company_id", sc.CompanyID),
		logger.Error(err),
	)
	switch {
	case errs.IsNotFound(err):
		log.Debug("entity not found", fields...)
	case errs.IsBusiness(err):
		log.Warn("business rule rejected request", fields...)
	default:
		log.Error("operation failed", fields...)
	}
	return err
}

// Or returns v when set, def otherwise.
func Or[T comparable](v *T, def T) T {
	var zero T
	if v == nil || *v == zero {
		return def
	}
	return *v
}
