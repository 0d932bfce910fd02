// Package denylist implements an opt-in, pattern-based resource check
// that a spec's contracts.denylist can layer on top of the name-based
// tool_policy rules in internal/contract: resources (URLs, files, shell
// commands) blocked by pattern regardless of a tool's own allow/deny
// listing. A spec that never sets contracts.denylist.enabled never
// loads or evaluates this package.
package denylist

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Patterns holds the raw pattern strings organized by category.
type Patterns struct {
	URLs     []string `yaml:"urls"`
	Files    []string `yaml:"files"`
	Commands []string `yaml:"commands"`
}

// Denylist holds compiled patterns for fast matching against a resource a
// tool call names (a URL, a file path, or a shell command line) alongside
// the tool_name that produced it.
type Denylist struct {
	urlPatterns     []*regexp.Regexp
	filePatterns    []string // glob-style, matched via containment
	commandPatterns []string // substring matching (case-insensitive)
	raw             Patterns
}

// New creates a Denylist from raw patterns, compiling regexes.
func New(p Patterns) *Denylist {
	d := &Denylist{raw: p}

	for _, u := range p.URLs {
		re := patternToRegex(u)
		if compiled, err := regexp.Compile("(?i)" + re); err == nil {
			d.urlPatterns = append(d.urlPatterns, compiled)
		}
	}

	d.filePatterns = p.Files
	d.commandPatterns = p.Commands

	return d
}

// NewDefault creates a Denylist with the hardcoded default patterns.
func NewDefault() *Denylist {
	return New(DefaultPatterns)
}

// Load reads a denylist from a YAML file. Falls back to defaults if path
// doesn't exist.
func Load(path string) (*Denylist, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return NewDefault(), nil
		}
		path = filepath.Join(home, ".trajectly", "denylist.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefault(), nil
		}
		return nil, err
	}

	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	return New(p), nil
}

// IsBlocked checks whether resource is blocked for a tool call made by
// tool. Returns (blocked, reason).
func (d *Denylist) IsBlocked(resource, tool string) (bool, string) {
	lowerResource := strings.ToLower(resource)
	lowerTool := strings.ToLower(tool)

	if isNetworkTool(lowerTool) || isURL(lowerResource) {
		if isMetadataEndpoint(lowerResource) {
			return true, "cloud metadata endpoint blocked"
		}
		for _, re := range d.urlPatterns {
			if re.MatchString(lowerResource) {
				return true, "URL pattern blocked: " + re.String()
			}
		}
	}

	if isFileTool(lowerTool) || (!isNetworkTool(lowerTool) && !isExecTool(lowerTool)) {
		for _, pattern := range d.filePatterns {
			if matchFilePattern(lowerResource, strings.ToLower(pattern)) {
				return true, "file pattern blocked: " + pattern
			}
		}
	}

	if isExecTool(lowerTool) {
		for _, pattern := range d.commandPatterns {
			if strings.Contains(lowerResource, strings.ToLower(pattern)) {
				return true, "command pattern blocked: " + pattern
			}
		}
		if isPipeToShell(lowerResource) {
			return true, "pipe-to-shell execution detected"
		}
		if name, ok := envVarLeak(lowerResource); ok {
			return true, "credential environment variable exposed: " + name
		}
	}

	return false, ""
}

// AddPattern adds a pattern to the denylist at runtime, e.g. one a spec's
// own contract configuration layers on top of the hardcoded defaults.
func (d *Denylist) AddPattern(category, pattern string) {
	switch category {
	case "urls":
		d.raw.URLs = append(d.raw.URLs, pattern)
		re := patternToRegex(pattern)
		if compiled, err := regexp.Compile("(?i)" + re); err == nil {
			d.urlPatterns = append(d.urlPatterns, compiled)
		}
	case "files":
		d.raw.Files = append(d.raw.Files, pattern)
		d.filePatterns = append(d.filePatterns, pattern)
	case "commands":
		d.raw.Commands = append(d.raw.Commands, pattern)
		d.commandPatterns = append(d.commandPatterns, pattern)
	}
}

// ToMap returns the raw patterns as a map for serialization, e.g. into a
// run's audit record of the boundaries that were in force.
func (d *Denylist) ToMap() map[string]any {
	return map[string]any{
		"urls":     d.raw.URLs,
		"files":    d.raw.Files,
		"commands": d.raw.Commands,
	}
}

// patternToRegex converts a simple glob-like pattern to a regex.
func patternToRegex(pattern string) string {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*\*`, ".*")
	escaped = strings.ReplaceAll(escaped, `\*`, "[^/]*")
	return escaped
}

func matchFilePattern(resource, pattern string) bool {
	expanded := pattern
	if strings.HasPrefix(expanded, "~/") {
		suffix := expanded[2:]
		if strings.Contains(resource, suffix) {
			return true
		}
		if home, err := os.UserHomeDir(); err == nil {
			expanded = filepath.Join(strings.ToLower(home), suffix)
		}
	}

	if strings.Contains(expanded, "**") {
		suffix := strings.ReplaceAll(expanded, "**/", "")
		suffix = strings.ReplaceAll(suffix, "**", "")
		return strings.Contains(resource, suffix)
	}

	return strings.Contains(resource, expanded)
}

// isNetworkTool matches any tool that reaches an outbound endpoint:
// browser automation, raw HTTP, or a fetch-style tool.
func isNetworkTool(tool string) bool {
	return strings.Contains(tool, "browser") || strings.Contains(tool, "http") ||
		strings.Contains(tool, "web") || strings.Contains(tool, "fetch")
}

func isFileTool(tool string) bool {
	return strings.Contains(tool, "file") || strings.Contains(tool, "read") || strings.Contains(tool, "write")
}

// isExecTool matches shell/subprocess-style tools, the ones the
// command-pattern, pipe-to-shell, and env-var checks apply to.
func isExecTool(tool string) bool {
	return strings.Contains(tool, "shell") || strings.Contains(tool, "command") || strings.Contains(tool, "exec")
}

func isURL(resource string) bool {
	return strings.HasPrefix(resource, "http://") || strings.HasPrefix(resource, "https://")
}

// isMetadataEndpoint matches the cloud instance-metadata hosts an agent
// with SSRF-capable tool access could be tricked into reading to
// exfiltrate instance credentials, independent of the operator's own
// URL denylist.
func isMetadataEndpoint(resource string) bool {
	metadataHosts := []string{
		"169.254.169.254",
		"metadata.google.internal",
		"metadata.azure.com",
		"fd00:ec2::254",
	}
	for _, h := range metadataHosts {
		if strings.Contains(resource, h) {
			return true
		}
	}
	return false
}

// isPipeToShell detects piped-to-shell patterns like "curl ... | sh" or
// "wget ... | bash", the classic remote-script-execution shape.
func isPipeToShell(cmd string) bool {
	if !strings.Contains(cmd, "|") {
		return false
	}
	shells := []string{"sh", "bash", "zsh", "fish"}
	downloaders := []string{"curl", "wget"}

	hasDownloader := false
	for _, d := range downloaders {
		if strings.Contains(cmd, d) {
			hasDownloader = true
			break
		}
	}
	if !hasDownloader {
		return false
	}

	parts := strings.Split(cmd, "|")
	for i := 1; i < len(parts); i++ {
		trimmed := strings.TrimSpace(parts[i])
		for _, s := range shells {
			if trimmed == s || strings.HasPrefix(trimmed, s+" ") {
				return true
			}
		}
	}
	return false
}

var envVarKeyRe = regexp.MustCompile(`\$\{?([a-z][a-z0-9_]*_api_key|api_key|[a-z][a-z0-9_]*_token|aws_secret_access_key)\}?\b`)

// envVarLeak reports whether cmd references, via shell expansion ($NAME
// or ${NAME}), an environment variable that plausibly holds a provider
// credential, and if so which one. A bare "printenv NAME" does not
// match here; it is caught by the "printenv" command pattern instead. resource is already lowercased by
// the time IsBlocked calls this.
func envVarLeak(cmd string) (string, bool) {
	if m := envVarKeyRe.FindStringSubmatch(cmd); m != nil {
		return m[1], true
	}
	return "", false
}
