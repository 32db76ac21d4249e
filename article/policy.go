package article

import (
	"github.com/william251082/fileupload/auth"
	"github.com/william251082/fileupload/authz"
	apperrors "github.com/william251082/fileupload/errors"
)

// Permissions checked by Policy.
const (
	PermissionManage    = "article:manage"
	PermissionManageOwn = "article:manage_own"
)

// Policy decides who may manage an article and its files.
type Policy struct {
	checker authz.Checker
}

func NewPolicy(checker authz.Checker) *Policy {
	return &Policy{checker: checker}
}

// CanManage allows holders of article:manage, and authors holding
// article:manage_own on their own articles.
func (p *Policy) CanManage(claims *auth.Claims, a *Article) bool {
	if claims == nil || a == nil {
		return false
	}
	if authz.HasAny(p.checker, claims.Roles, PermissionManage) {
		return true
	}
	return claims.Subject != "" && claims.Subject == a.AuthorID &&
		authz.HasAny(p.checker, claims.Roles, PermissionManageOwn)
}

// Authorize is CanManage as an error.
func (p *Policy) Authorize(claims *auth.Claims, a *Article) error {
	if claims == nil {
		return apperrors.Unauthorized("")
	}
	if !p.CanManage(claims, a) {
		return apperrors.Forbidden("You are not allowed to manage this article.")
	}
	return nil
}

// CanCreate allows anyone who could manage at least their own articles.
func (p *Policy) CanCreate(claims *auth.Claims) bool {
	if claims == nil || claims.Subject == "" {
		return false
	}
	return authz.HasAny(p.checker, claims.Roles, PermissionManage) ||
		authz.HasAny(p.checker, claims.Roles, PermissionManageOwn)
}
