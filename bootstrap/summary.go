package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/william251082/fileupload/component"
)

// InfrastructureInfo is one started component as printed in the summary.
type InfrastructureInfo struct {
	Name    string
	Type    string
	Details string
	Health  component.HealthStatus
	Message string
}

// BusinessComponentInfo is a domain service wired during the configure phase.
type BusinessComponentInfo struct {
	Name         string
	Type         string
	Dependencies []string
}

// RouteInfo is one mounted HTTP route.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// Summary collects what the service started with and prints it once start-up
// completes.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
	business        []BusinessComponentInfo
	routes          []RouteInfo
	out             io.Writer
}

// NewSummary creates a summary that prints to stdout.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version, out: os.Stdout}
}

// SetStartupDuration records the total start-up time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Collect snapshots every registered component with its current health.
func (s *Summary) Collect(ctx context.Context, registry *component.Registry) {
	if registry == nil {
		return
	}
	s.infrastructure = s.infrastructure[:0]
	for _, r := range registry.Reports(ctx) {
		s.infrastructure = append(s.infrastructure, InfrastructureInfo{
			Name:    r.Description.Name,
			Type:    r.Description.Type,
			Details: r.Description.Details,
			Health:  r.Health.Status,
			Message: r.Health.Message,
		})
	}
}

// TrackBusinessComponent records a domain service and what it depends on.
func (s *Summary) TrackBusinessComponent(name, componentType string, dependencies ...string) {
	s.business = append(s.business, BusinessComponentInfo{
		Name:         name,
		Type:         componentType,
		Dependencies: dependencies,
	})
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{Method: method, Path: path, Handler: handler})
}

// Display prints the summary.
func (s *Summary) Display() {
	w := s.out
	fmt.Fprintf(w, "\n%s v%s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	fmt.Fprintf(w, "\nInfrastructure\n")
	if len(s.infrastructure) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n")
	}
	healthy := 0
	for i, inf := range s.infrastructure {
		line := healthIcon(inf.Health) + " "
		if inf.Type != "" {
			line += "[" + inf.Type + "] "
		}
		line += inf.Name
		if inf.Details != "" {
			line += ": " + inf.Details
		}
		if inf.Message != "" {
			line += " (" + inf.Message + ")"
		}
		fmt.Fprintf(w, "   %s %s\n", treePrefix(i, len(s.infrastructure)), line)
		if inf.Health == component.StatusHealthy {
			healthy++
		}
	}
	if n := len(s.infrastructure); n > 0 {
		if healthy == n {
			fmt.Fprintf(w, "   All components healthy (%d/%d)\n", healthy, n)
		} else {
			fmt.Fprintf(w, "   Some components have issues (%d/%d healthy)\n", healthy, n)
		}
	}

	if len(s.business) > 0 {
		fmt.Fprintf(w, "\nBusiness Layer\n")
		for i, b := range s.business {
			line := fmt.Sprintf("%s [%s]", b.Name, b.Type)
			if len(b.Dependencies) > 0 {
				line += " -> " + strings.Join(b.Dependencies, ", ")
			}
			fmt.Fprintf(w, "   %s %s\n", treePrefix(i, len(s.business)), line)
		}
	}

	if len(s.routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Fprintf(w, "   %s %-7s %s -> %s\n", treePrefix(i, len(s.routes)), r.Method, r.Path, r.Handler)
		}
	}
	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
