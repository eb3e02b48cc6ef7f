package permission

import "sort"

// Module is a logical grouping of permission codes. Modules exist purely to
// namespace the catalog; they carry no other data and have no storage table.
type Module struct {
	Code        string
	Name        string
	Permissions []Permission
}

// Permission is an atomic capability identified by a namespaced code
// formatted as "module.action".
type Permission struct {
	Code        string
	Description string
}

// The permission catalog, grouped by business module.
var modules = []Module{
	{
		Code: "chatbot",
		Name: "Virtual Assistant",
		Permissions: []Permission{
			{Code: "chatbot.access", Description: "CHATBOT: interact with the assistant"},
			{Code: "chatbot.admin", Description: "CHATBOT: view logs and train"},
		},
	},
	{
		Code: "procurement",
		Name: "Procurement System",
		Permissions: []Permission{
			{Code: "procurement.access", Description: "PROCUREMENT: module access"},
			{Code: "procurement.create_order", Description: "PROCUREMENT: create orders"},
			{Code: "procurement.approve_order", Description: "PROCUREMENT: approve orders (management)"},
			{Code: "procurement.view_reports", Description: "PROCUREMENT: view financial reports"},
		},
	},
	{
		Code: "reports",
		Name: "Reporting",
		Permissions: []Permission{
			{Code: "reports.view", Description: "REPORTS: view dashboards"},
			{Code: "reports.export", Description: "REPORTS: export raw data"},
		},
	},
	{
		Code: "system",
		Name: "Hub Administration",
		Permissions: []Permission{
			{Code: "system.manage_users", Description: "SYSTEM: user management"},
		},
	},
}

var catalogIndex = buildIndex()

func buildIndex() map[string]Permission {
	idx := make(map[string]Permission)
	for _, m := range modules {
		for _, p := range m.Permissions {
			idx[p.Code] = p
		}
	}
	return idx
}

// Exists reports whether the permission code is present in the catalog
func Exists(code string) bool {
	_, ok := catalogIndex[code]
	return ok
}

// Lookup returns the catalog entry for a code
func Lookup(code string) (Permission, bool) {
	p, ok := catalogIndex[code]
	return p, ok
}

// Modules returns the catalog grouped by module
func Modules() []Module {
	return modules
}

// AllCodes returns every permission code in the catalog, sorted
func AllCodes() []string {
	codes := make([]string, 0, len(catalogIndex))
	for code := range catalogIndex {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
