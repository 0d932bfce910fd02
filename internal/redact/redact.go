package redact

import "strings"

// DefaultPIIKeys are the payload/meta field names automatically masked
// regardless of their value's shape, complementing Scan's content-based
// detectors: a field literally named "password" or "api_key" is masked
// even when its value doesn't happen to match a credential-shaped
// regex. Trajectly trajectories carry both end-customer PII (the
// domain abstraction.Compute's Price/RefundCount predicates assume)
// and tool-provider credentials (API keys, bearer tokens) passed as
// structured tool-call arguments rather than embedded in free text.
var DefaultPIIKeys = []string{
	"name", "email", "phone", "ssn", "social_security",
	"address", "date_of_birth", "dob", "passport",
	"credit_card", "card_number", "cvv", "password",
	"api_key", "apikey", "access_token", "refresh_token",
	"bearer_token", "authorization", "auth_token",
	"session_id", "cookie", "secret", "private_key",
}

// MaskValue replaces a value with "***". Numbers and bools are preserved
// since they're rarely credential-shaped and masking them would corrupt
// numeric predicates (abstraction.Compute's price/amount sums) that read
// straight through the redacted view.
func MaskValue(v any) any {
	switch v.(type) {
	case int, int64, float64, bool:
		return v
	case nil:
		return nil
	default:
		return "***"
	}
}

// RedactKeys walks v (a decoded JSON value: map[string]any, []any, or a
// scalar) and masks every map value whose key matches one in keys,
// recursing into unmasked branches. Unlike a single-level key lookup,
// this reaches secrets nested inside tool_call input/output payloads,
// e.g. {"input":{"kwargs":{"password":"..."}}}.
func RedactKeys(v any, keys []string) any {
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[strings.ToLower(k)] = true
	}
	return redactKeys(v, keySet)
}

func redactKeys(v any, keySet map[string]bool) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			if keySet[strings.ToLower(k)] {
				out[k] = MaskValue(vv)
				continue
			}
			out[k] = redactKeys(vv, keySet)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = redactKeys(vv, keySet)
		}
		return out
	default:
		return v
	}
}

// RedactKeysAuto redacts DefaultPIIKeys plus any extraKeys, recursively.
func RedactKeysAuto(v any, extraKeys []string) any {
	allKeys := append([]string{}, DefaultPIIKeys...)
	allKeys = append(allKeys, extraKeys...)
	return RedactKeys(v, allKeys)
}
