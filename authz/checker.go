package authz

// Checker answers whether a subject (a role name) holds a permission.
type Checker interface {
	HasPermission(subject, permission string) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(subject, permission string) bool

func (f CheckerFunc) HasPermission(subject, permission string) bool {
	return f(subject, permission)
}

// MapChecker is a static role → permission-patterns table.
type MapChecker struct {
	permissions map[string][]string
}

// NewMapChecker copies permissions into a new checker.
func NewMapChecker(permissions map[string][]string) *MapChecker {
	m := make(map[string][]string, len(permissions))
	for role, patterns := range permissions {
		m[role] = append([]string(nil), patterns...)
	}
	return &MapChecker{permissions: m}
}

func (c *MapChecker) HasPermission(subject, required string) bool {
	return MatchAny(c.permissions[subject], required)
}

// HasAny reports whether any of the subjects holds the permission.
func (c *MapChecker) HasAny(subjects []string, required string) bool {
	return HasAny(c, subjects, required)
}

// HasAny reports whether checker grants required to at least one subject.
func HasAny(checker Checker, subjects []string, required string) bool {
	for _, s := range subjects {
		if checker.HasPermission(s, required) {
			return true
		}
	}
	return false
}
