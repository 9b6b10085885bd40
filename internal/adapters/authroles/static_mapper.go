package authroles

import (
	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups to marketplace roles by simple string
// membership rules. Admin membership wins over vendor; users in neither
// group act as clients, the marketplace's self-serve default.
type StaticRoleMapper struct {
	AdminGroup  string
	VendorGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if m.VendorGroup != "" && g == m.VendorGroup {
			return domainauth.RoleVendor
		}
	}
	return domainauth.RoleClient
}
