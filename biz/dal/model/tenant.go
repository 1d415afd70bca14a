package model

import "strconv"

// GlobalScope is the key segment used for rows without a tenant.
const GlobalScope = "g"

// Tenant returns a tenant reference; zero means global and yields nil.
func Tenant(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

// NormalizeTenant maps the legacy zero tenant to NULL.
func NormalizeTenant(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

// SameTenant compares two tenant references after normalization.
func SameTenant(a, b *uint) bool {
	a, b = NormalizeTenant(a), NormalizeTenant(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// TenantKey renders a tenant reference for composite keys.
func TenantKey(id *uint) string {
	id = NormalizeTenant(id)
	if id == nil {
		return GlobalScope
	}
	return strconv.FormatUint(uint64(*id), 10)
}
