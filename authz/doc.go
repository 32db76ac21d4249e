// Package authz resolves role-based permissions.
//
// Permissions use a "resource:action" format and patterns may use "*" for
// either part:
//
//	checker := authz.NewMapChecker(map[string][]string{
//	    "admin":  {"*:*"},
//	    "editor": {"article:manage"},
//	    "author": {"article:manage_own"},
//	})
//	checker.HasAny([]string{"author"}, "article:manage_own") // true
package authz
