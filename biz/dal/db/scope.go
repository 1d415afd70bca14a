package db

import (
	"errors"
	"strings"

	"github.com/yi-nology/mediahub/biz/dal/model"
	"gorm.io/gorm"
)

// TenantScope restricts a query to exactly one tenant; nil means global rows.
func TenantScope(tenantID *uint) func(*gorm.DB) *gorm.DB {
	tenantID = model.NormalizeTenant(tenantID)
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == nil {
			return db.Where("tenant_id IS NULL")
		}
		return db.Where("tenant_id = ?", *tenantID)
	}
}

// TenantOrGlobalScope matches the tenant's rows plus global rows.
func TenantOrGlobalScope(tenantID *uint) func(*gorm.DB) *gorm.DB {
	tenantID = model.NormalizeTenant(tenantID)
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == nil {
			return db.Where("tenant_id IS NULL")
		}
		return db.Where("(tenant_id = ? OR tenant_id IS NULL)", *tenantID)
	}
}

// Paginate applies a 1-based page with a bounded page size.
func Paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 {
			page = 1
		}
		switch {
		case pageSize <= 0:
			pageSize = 50
		case pageSize > 500:
			pageSize = 500
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// IsUniqueViolation reports whether err is a unique constraint violation.
// Translated errors are matched first; raw driver messages are the fallback
// for connections opened without TranslateError.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
