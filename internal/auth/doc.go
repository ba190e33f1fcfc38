// Package auth provides the permission catalog, the authorization resolver and
// the route guards built on it.
//
// # Resolution
//
// A principal's effective permission set is the union of
//   - the granted RolePermission rows of every active role the user is a member of, and
//   - the granted UserPermission rows of the user,
//
// restricted to active permissions. There is no deny layer: a revoked row
// (Granted=false) and a missing row mean the same thing. Roles and permissions
// that are deactivated keep their rows, so re-activating them restores the
// previous grants.
//
// # Guards
//
// Require, RequirePermission and RequireRole are Fiber middleware reading the
// principal attached by the session middleware (SetPrincipal). Failures are
// returned as *ForbiddenError carrying the reason (missing role, missing
// permission or an account gate) so the error handler can report it.
//
// Example usage:
//
//	authService := auth.NewService(db)
//
//	ok, err := authService.HasPermission(ctx, userID, auth.PermQuestionCreate)
//
//	app.Get("/api/admin/roles",
//	    auth.RequirePermission(authService, auth.PermAdminRoles),
//	    handler,
//	)
package auth
