package auth

import "strings"

// Permission constants define the permission catalog.
// Keys follow the resource.action format and are stored in permissions.perm_key.
const (
	// PermDashboardView allows viewing the back office dashboard.
	PermDashboardView = "dashboard.view"

	// PermQuestionRead allows browsing the question bank.
	PermQuestionRead = "question.read"
	// PermQuestionCreate allows adding questions.
	PermQuestionCreate = "question.create"
	// PermQuestionUpdate allows editing questions.
	PermQuestionUpdate = "question.update"
	// PermQuestionDelete allows deleting questions.
	PermQuestionDelete = "question.delete"

	// PermExamRead allows viewing exams.
	PermExamRead = "exam.read"
	// PermExamCreate allows composing exams.
	PermExamCreate = "exam.create"
	// PermExamUpdate allows editing exams.
	PermExamUpdate = "exam.update"
	// PermExamDelete allows deleting exams.
	PermExamDelete = "exam.delete"

	// PermTaxonomyManage allows editing subjects, chapters and tags.
	PermTaxonomyManage = "taxonomy.manage"
	// PermPDFExport allows exporting exams as PDF.
	PermPDFExport = "pdf.export"

	// PermAdminUsers allows managing user accounts and their direct permissions.
	PermAdminUsers = "admin.users"
	// PermAdminRoles allows managing roles and their permissions.
	PermAdminRoles = "admin.roles"
	// PermAdminPermissions allows activating and deactivating catalog entries.
	PermAdminPermissions = "admin.permissions"
	// PermAdminPlans allows managing the plan catalog.
	PermAdminPlans = "admin.plans"
	// PermAdminSubscriptions allows inspecting and removing subscriptions.
	PermAdminSubscriptions = "admin.subscriptions"
)

// Built-in role names.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// CatalogEntry describes one permission of the catalog.
type CatalogEntry struct {
	Key         string
	Description string
}

// Resource returns the part of the key before the first dot.
func (e CatalogEntry) Resource() string {
	resource, _, _ := SplitKey(e.Key)
	return resource
}

// Action returns the part of the key after the first dot.
func (e CatalogEntry) Action() string {
	_, action, _ := SplitKey(e.Key)
	return action
}

// Catalog returns every permission known to the application.
func Catalog() []CatalogEntry {
	return []CatalogEntry{
		{PermDashboardView, "View the dashboard"},
		{PermQuestionRead, "Browse the question bank"},
		{PermQuestionCreate, "Create questions"},
		{PermQuestionUpdate, "Edit questions"},
		{PermQuestionDelete, "Delete questions"},
		{PermExamRead, "View exams"},
		{PermExamCreate, "Compose exams"},
		{PermExamUpdate, "Edit exams"},
		{PermExamDelete, "Delete exams"},
		{PermTaxonomyManage, "Manage subjects, chapters and tags"},
		{PermPDFExport, "Export exams as PDF"},
		{PermAdminUsers, "Manage users"},
		{PermAdminRoles, "Manage roles"},
		{PermAdminPermissions, "Manage the permission catalog"},
		{PermAdminPlans, "Manage plans"},
		{PermAdminSubscriptions, "Manage subscriptions"},
	}
}

// RoleTemplate is a role created by the seed command together with its initial grants.
type RoleTemplate struct {
	Name        string
	Description string
	Permissions []string
}

// DefaultRoles returns the built-in roles. The admin role holds the whole catalog.
func DefaultRoles() []RoleTemplate {
	all := make([]string, 0, len(Catalog()))
	for _, e := range Catalog() {
		all = append(all, e.Key)
	}

	return []RoleTemplate{
		{Name: RoleAdmin, Description: "Full access", Permissions: all},
		{
			Name:        RoleTeacher,
			Description: "Question bank and exam authoring",
			Permissions: []string{
				PermDashboardView,
				PermQuestionRead, PermQuestionCreate, PermQuestionUpdate,
				PermExamRead, PermExamCreate, PermExamUpdate, PermExamDelete,
				PermPDFExport,
			},
		},
		{
			Name:        RoleStudent,
			Description: "Practice access",
			Permissions: []string{PermDashboardView, PermQuestionRead, PermExamRead},
		},
	}
}

// SplitKey splits a permission key into resource and action.
// ok is false unless both parts are non-empty.
func SplitKey(key string) (resource, action string, ok bool) {
	resource, action, found := strings.Cut(key, ".")
	if !found || resource == "" || action == "" {
		return "", "", false
	}

	return resource, action, true
}
