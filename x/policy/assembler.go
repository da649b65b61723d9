package policy

import (
	"strings"

	"github.com/gatewarden/gatewarden/core"
)

// Assemble renders a decision into the gateway response payload.
// Pure and deterministic: same decision and hints always yield
// byte-identical output.
func (s *service) Assemble(decision core.AccessDecision, hints core.ProtocolHints) core.PolicyResponse {
	statements := make([]core.PolicyStatement, len(decision.Statements))
	for i, statement := range decision.Statements {
		resources := make([]string, len(statement.Resources))
		for j, resource := range statement.Resources {
			resources[j] = scopeResource(resource, hints)
		}
		statements[i] = core.PolicyStatement{
			Sid:      statement.Sid,
			Effect:   string(statement.Effect),
			Action:   core.PolicyActionInvoke,
			Resource: resources,
		}
	}

	context := make(map[string]string, len(decision.Context))
	for k, v := range decision.Context {
		context[k] = v
	}

	return core.PolicyResponse{
		PrincipalID: decision.PrincipalID,
		PolicyDocument: core.PolicyDocument{
			Version:   core.PolicyDocumentVersion,
			Statement: statements,
		},
		Context: context,
	}
}

// scopeResource anchors generic resources to the current gateway.
// Fully-qualified resources are emitted verbatim, never rewritten.
func scopeResource(resource string, hints core.ProtocolHints) string {
	if hints.GatewayArn == "" || strings.HasPrefix(resource, "arn:") {
		return resource
	}
	if resource == "*" {
		return hints.GatewayArn + "/*"
	}
	return hints.GatewayArn + "/" + strings.TrimPrefix(resource, "/")
}
