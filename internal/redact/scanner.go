package redact

import (
	"regexp"
	"sort"
	"strings"
)

// PatternType identifies the category of sensitive data.
type PatternType string

const (
	PatternPath   PatternType = "PATH"
	PatternIP     PatternType = "IP"
	PatternHost   PatternType = "HOST"
	PatternCred   PatternType = "CRED"
	PatternEmail  PatternType = "EMAIL"
	PatternAPIKey PatternType = "API_KEY"
)

// Match is a single occurrence of sensitive data in text.
type Match struct {
	Type  PatternType
	Value string
	Start int
	End   int
}

// Compiled patterns for sensitive data detection over tool-call and
// LLM-message text.
var (
	// Paths starting with common Linux directories, capturing until whitespace.
	pathRe = regexp.MustCompile(`(/(?:home|var|etc|root|usr|tmp|opt)/\S+)`)

	// IPv4 addresses (simple: 4 octets, no validation of range).
	ipv4Re = regexp.MustCompile(`\b(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})\b`)

	// Hostnames: FQDN with at least one dot and valid TLD.
	hostRe = regexp.MustCompile(`\b([a-zA-Z0-9][-a-zA-Z0-9]*\.[-a-zA-Z0-9]+\.[a-zA-Z]{2,})\b`)

	// Credentials: key=value pairs where key suggests a secret.
	credKVRe = regexp.MustCompile(`(?i)((?:password|passwd|secret|token|api_key|apikey|auth)[ \t]*[=:][ \t]*\S+)`)

	// Email addresses.
	emailRe = regexp.MustCompile(`\b([a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})\b`)

	// Bearer/authorization header values, as tool calls to LLM and
	// third-party HTTP providers carry them.
	bearerRe = regexp.MustCompile(`(?i)\bBearer\s+([A-Za-z0-9\-_.]{10,})`)

	// Provider API key shapes: OpenAI (sk-...), GitHub PAT/OAuth
	// (ghp_/gho_), Slack (xox[baprs]-), AWS access key ID (AKIA...).
	providerKeyRe = regexp.MustCompile(`\b(sk-[A-Za-z0-9-]{10,}|ghp_[A-Za-z0-9]{20,}|gho_[A-Za-z0-9]{20,}|xox[baprs]-[A-Za-z0-9-]{10,}|AKIA[0-9A-Z]{12,})\b`)
)

// safeHosts are domains that should not be tokenized.
var safeHosts = map[string]bool{
	"example.com":       true,
	"example.org":       true,
	"example.net":       true,
	"localhost":         true,
	"github.com":        true,
	"golang.org":        true,
	"google.com":        true,
	"cloudflare.com":    true,
	"amazonaws.com":     true,
	"ubuntu.com":        true,
	"debian.org":        true,
	"kernel.org":        true,
	"wikipedia.org":     true,
	"stackexchange.com": true,
	"stackoverflow.com": true,
}

// safeIPs are IP addresses that should not be tokenized.
var safeIPs = map[string]bool{
	"127.0.0.1":       true,
	"0.0.0.0":         true,
	"255.255.255.255": true,
}

// scanOptions holds the safe-lists a scan pass consults, so Scan and
// ScanWithConfig share one implementation.
type scanOptions struct {
	safeHosts     map[string]bool
	safeIPs       map[string]bool
	safePathPrefs []string
	literals      []string
	extra         []ExtraPattern
}

// Scan finds all sensitive patterns in text and returns deduplicated matches
// sorted by position (earliest first).
func Scan(text string) []Match {
	return scan(text, scanOptions{safeHosts: safeHosts, safeIPs: safeIPs})
}

// ScanWithConfig is like Scan but additionally consults cfg's safe-lists
// and literal values, and matches extra's custom patterns. A nil cfg and
// nil extra behave identically to Scan.
func ScanWithConfig(text string, cfg *RedactConfig, extra []ExtraPattern) []Match {
	opts := scanOptions{safeHosts: copySet(safeHosts), safeIPs: copySet(safeIPs), extra: extra}
	if cfg != nil {
		for _, h := range cfg.SafeHosts {
			opts.safeHosts[strings.ToLower(h)] = true
		}
		for _, ip := range cfg.SafeIPs {
			opts.safeIPs[ip] = true
		}
		opts.safePathPrefs = cfg.SafePaths
		opts.literals = cfg.Literals
	}
	return scan(text, opts)
}

func copySet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func scan(text string, opts scanOptions) []Match {
	seen := make(map[string]bool)
	var matches []Match

	add := func(typ PatternType, value string, start int) {
		value = strings.TrimRight(value, ".,;:\"'`)}]")
		if value == "" || seen[value] {
			return
		}
		seen[value] = true
		matches = append(matches, Match{Type: typ, Value: value, Start: start, End: start + len(value)})
	}

	// Paths.
	for _, loc := range pathRe.FindAllStringIndex(text, -1) {
		v := text[loc[0]:loc[1]]
		if hasAnyPrefix(v, opts.safePathPrefs) {
			continue
		}
		add(PatternPath, v, loc[0])
	}

	// IPv4.
	for _, loc := range ipv4Re.FindAllStringIndex(text, -1) {
		v := text[loc[0]:loc[1]]
		if !opts.safeIPs[v] {
			add(PatternIP, v, loc[0])
		}
	}

	// Hostnames.
	for _, loc := range hostRe.FindAllStringIndex(text, -1) {
		v := text[loc[0]:loc[1]]
		lower := strings.ToLower(v)
		if !opts.safeHosts[lower] && !isIPLike(v) {
			add(PatternHost, v, loc[0])
		}
	}

	// Credentials.
	for _, loc := range credKVRe.FindAllStringIndex(text, -1) {
		add(PatternCred, text[loc[0]:loc[1]], loc[0])
	}

	// Emails.
	for _, loc := range emailRe.FindAllStringIndex(text, -1) {
		add(PatternEmail, text[loc[0]:loc[1]], loc[0])
	}

	// Bearer tokens.
	for _, sub := range bearerRe.FindAllStringSubmatchIndex(text, -1) {
		if sub[2] >= 0 && sub[3] >= 0 {
			add(PatternAPIKey, text[sub[2]:sub[3]], sub[2])
		}
	}

	// Provider API key shapes.
	for _, loc := range providerKeyRe.FindAllStringIndex(text, -1) {
		add(PatternAPIKey, text[loc[0]:loc[1]], loc[0])
	}

	// Config-declared literals.
	for _, lit := range opts.literals {
		start := 0
		for {
			idx := strings.Index(text[start:], lit)
			if idx < 0 {
				break
			}
			add("LITERAL", lit, start+idx)
			start += idx + len(lit)
		}
	}

	// Operator-declared extra patterns.
	for _, ep := range opts.extra {
		for _, loc := range ep.Regex.FindAllStringIndex(text, -1) {
			add(ep.TokenPrefix, text[loc[0]:loc[1]], loc[0])
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})

	return matches
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// isIPLike returns true if the string looks like an IP address (all digits and dots).
func isIPLike(s string) bool {
	for _, c := range s {
		if c != '.' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
