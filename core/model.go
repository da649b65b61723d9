package core

// Effect is the outcome of a permission statement or a whole decision
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// PermissionStatement is one Allow/Deny rule scoping actions to resources.
// Immutable once fetched for the duration of a call.
type PermissionStatement struct {
	Sid        string            `json:"sid"`
	Effect     Effect            `json:"effect"`
	Actions    []string          `json:"actions"`
	Resources  []string          `json:"resources"`
	Conditions map[string]string `json:"conditions,omitempty"`
}

// GroupPolicyRecord is the store value keyed by group identifier
type GroupPolicyRecord struct {
	GroupID    string                `json:"groupId"`
	Statements []PermissionStatement `json:"statements"`
}

// Principal is the authenticated identity derived from a verified token.
// Groups is normalized: lower-case, deduplicated, sorted.
type Principal struct {
	Subject string   `json:"subject"`
	Groups  []string `json:"groups"`
}

// AccessDecision is produced fresh per invocation and never cached
type AccessDecision struct {
	PrincipalID string                `json:"principalId"`
	Effect      Effect                `json:"effect"`
	Statements  []PermissionStatement `json:"statements"`
	Context     map[string]string     `json:"context"`
}

// ProtocolHints carries the gateway identifiers of the current call,
// used only to scope wildcard resources when rendering the response
type ProtocolHints struct {
	GatewayArn string `json:"gatewayArn,omitempty"`
	Method     string `json:"method,omitempty"`
	Path       string `json:"path,omitempty"`
}

// PolicyStatement is one rendered statement of the response document
type PolicyStatement struct {
	Sid      string   `json:"Sid"`
	Effect   string   `json:"Effect"`
	Action   string   `json:"Action"`
	Resource []string `json:"Resource"`
}

// PolicyDocument is the rendered access-policy document
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

// PolicyResponse is the payload returned to the gateway on Allow
type PolicyResponse struct {
	PrincipalID    string            `json:"principalId"`
	PolicyDocument PolicyDocument    `json:"policyDocument"`
	Context        map[string]string `json:"context"`
}

const (
	PolicyDocumentVersion = "2012-10-17"
	PolicyActionInvoke    = "execute-api:Invoke"
	ContextUserIDKey      = "UserId"
)
