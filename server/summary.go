package server

import (
	"sort"
	"strings"
)

var systemPaths = map[string]bool{
	"/health":  true,
	"/info":    true,
	"/metrics": true,
}

// LogRoutes logs the registered Gin routes, API routes first.
func (s *Server) LogRoutes() {
	routes := s.engine.Routes()
	sort.Slice(routes, func(i, j int) bool {
		iSys, jSys := systemPaths[routes[i].Path], systemPaths[routes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return methodOrder(routes[i].Method) < methodOrder(routes[j].Method)
	})
	for _, r := range routes {
		s.log.Debug("Route", map[string]interface{}{
			"method":  r.Method,
			"path":    r.Path,
			"handler": formatHandlerName(r.Handler),
		})
	}
	s.log.Info("Routes registered", map[string]interface{}{"count": len(routes)})
}

// formatHandlerName shortens Gin's handler names, e.g.
// "github.com/william251082/fileupload/reference/api.(*Handler).Upload-fm" to "Handler.Upload".
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	for len(parts) > 1 && isClosureSegment(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 1 && strings.ToLower(parts[0]) == parts[0] {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

// isClosureSegment matches the "func1" and "1" suffixes of anonymous functions.
func isClosureSegment(s string) bool {
	return strings.HasPrefix(s, "func") || strings.Trim(s, "0123456789") == ""
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
