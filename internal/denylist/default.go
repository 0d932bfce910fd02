package denylist

// DefaultPatterns is the built-in set of irreversible or
// credential-exposing boundaries that NewDefault compiles. It is
// checked only for a spec that enables contracts.denylist; a spec that
// leaves it disabled gets no pattern check at all.
var DefaultPatterns = Patterns{
	URLs: []string{
		// Payment rails an unsupervised support or shopping agent
		// should never be able to complete a charge or refund through
		// directly, even if abstraction.Compute's RefundCount predicate
		// would otherwise treat the call as in-domain.
		"/checkout",
		"/payment",
		"stripe.com/v1/charges",
		"stripe.com/v1/payment_intents",
		"stripe.com/v1/refunds",
		"paypal.com/v1/payments",
		"paypal.com/v2/checkout",
		"/oauth/token",
		"/api/keys",
		"/account/delete",
		"/settings/security",
	},
	Files: []string{
		"~/.ssh/id_rsa",
		"~/.ssh/id_ed25519",
		"~/.aws/credentials",
		"**/.env",
		"**/.env.local",
		"**/credentials.json",
		"**/*.kdbx",
		// LLM provider configuration a tool call could exfiltrate to
		// impersonate the run's own model client.
		"**/.openai",
		"**/.anthropic",
		"**/llm_provider_keys.yaml",
	},
	Commands: []string{
		"rm -rf /",
		"rm -rf ~",
		"dd if=/dev/zero",
		":(){ :|:& };:",
		"mkfs.",
		"> /dev/sda",
		"chmod -R 777 /",
		"curl|sh",
		"curl | sh",
		"wget|sh",
		"wget | sh",
		"sudo su",
		"sudo -i",
		"git push --force",
		"git push -f",
		"printenv",
		"/proc/self/environ",
		"/proc/*/environ",
	},
}
