package errors

import "sort"

// Registered codes.
const (
	CodeInvalidPattern     = "W001"
	CodeConfigNotFound     = "W002"
	CodeConfigInvalid      = "W003"
	CodeNavigationFailed   = "W004"
	CodeRemoteDisconnected = "W005"
	CodeS3Fetch            = "W006"
)

// Template defines a registered error.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]Template{
	CodeInvalidPattern: {
		Category: CategoryRouting,
		Message:  "Invalid route pattern",
		Detail:   "Patterns are \"/\"-separated segments. Dynamic segments are \":name\" with a non-empty name, and a splat (\"*\" or \"*name\") may only be the last segment.",
	},
	CodeConfigNotFound: {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No wayfinder.json was found in the directory or at the given path.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration document could not be parsed or failed validation.",
	},
	CodeNavigationFailed: {
		Category: CategoryNavigation,
		Message:  "Navigation failed",
		Detail:   "The history store rejected the navigation. Targets must be absolute in-app paths without dot segments that climb above the root.",
	},
	CodeRemoteDisconnected: {
		Category: CategoryProtocol,
		Message:  "Remote store disconnected",
		Detail:   "The WebSocket connection to the remote history store closed before the request was acknowledged.",
	},
	CodeS3Fetch: {
		Category: CategoryConfig,
		Message:  "S3 fetch failed",
		Detail:   "The configuration object could not be read from S3. Check the object path and the AWS credentials.",
	},
}

// Codes returns all registered codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces a template. It is not safe for concurrent use
// with New and is meant for init-time extension.
func Register(code string, template Template) {
	registry[code] = template
}
