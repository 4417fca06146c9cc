package telemetry

import "strings"

// Level is the severity of a telemetry event
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Stacks accepted by the collector
const (
	StackBackend  = "backend"
	StackFrontend = "frontend"
)

// Package tags used by this service
const (
	PackageService    = "service"
	PackageRepository = "repository"
	PackageHandler    = "handler"
	PackageConfig     = "config"
)

// Event is the record the collector accepts
type Event struct {
	Stack   string `json:"stack"`
	Level   string `json:"level"`
	Package string `json:"package"`
	Message string `json:"message"`
}

var (
	levels           = set("debug", "info", "warn", "error", "fatal")
	backendPackages  = set("cache", "controller", "cron_job", "db", "domain", "handler", "repository", "route", "service")
	frontendPackages = set("api", "component", "hook", "page", "state", "style")
	commonPackages   = set("auth", "config", "middleware", "utils")
)

// NewEvent normalizes the fields to lower case and reports whether the collector would accept them
func NewEvent(stack string, level Level, pkg, message string) (Event, bool) {
	ev := Event{
		Stack:   strings.ToLower(stack),
		Level:   strings.ToLower(string(level)),
		Package: strings.ToLower(pkg),
		Message: message,
	}
	return ev, ev.valid()
}

func (e Event) valid() bool {
	if _, ok := levels[e.Level]; !ok {
		return false
	}
	if _, ok := commonPackages[e.Package]; ok {
		return e.Stack == StackBackend || e.Stack == StackFrontend
	}
	switch e.Stack {
	case StackBackend:
		_, ok := backendPackages[e.Package]
		return ok
	case StackFrontend:
		_, ok := frontendPackages[e.Package]
		return ok
	default:
		return false
	}
}

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}
