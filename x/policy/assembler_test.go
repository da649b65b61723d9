package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatewarden/gatewarden/core"
	"github.com/gatewarden/gatewarden/x/util"
)

func testAssembler() core.PolicyService {
	return NewService(nil, nil, util.Config{})
}

func TestAssembleDocumentShape(t *testing.T) {
	decision := core.AccessDecision{
		PrincipalID: "fake-sub",
		Effect:      core.EffectAllow,
		Statements: []core.PermissionStatement{
			{
				Sid:       "use-case-management-api-admin-policy-statement",
				Effect:    core.EffectAllow,
				Resources: []string{"arn:aws:execute-api:us-east-1:111111111111:fake-api-id/*/*"},
			},
			{
				Sid:       "users-policy-statement",
				Effect:    core.EffectAllow,
				Resources: []string{"arn:aws:execute-api:us-east-1:111111111111:fake-api-id2/*/*"},
			},
		},
		Context: map[string]string{"UserId": "fake-sub"},
	}

	response := testAssembler().Assemble(decision, core.ProtocolHints{})

	assert.Equal(t, "fake-sub", response.PrincipalID)
	assert.Equal(t, "2012-10-17", response.PolicyDocument.Version)
	assert.Len(t, response.PolicyDocument.Statement, 2)
	assert.Equal(t, core.PolicyStatement{
		Sid:      "use-case-management-api-admin-policy-statement",
		Effect:   "Allow",
		Action:   "execute-api:Invoke",
		Resource: []string{"arn:aws:execute-api:us-east-1:111111111111:fake-api-id/*/*"},
	}, response.PolicyDocument.Statement[0])
	assert.Equal(t, map[string]string{"UserId": "fake-sub"}, response.Context)
}

func TestAssembleScopesGenericResources(t *testing.T) {
	decision := core.AccessDecision{
		PrincipalID: "user-123",
		Effect:      core.EffectAllow,
		Statements: []core.PermissionStatement{
			{Sid: "wildcard", Effect: core.EffectAllow, Resources: []string{"*"}},
			{Sid: "relative", Effect: core.EffectAllow, Resources: []string{"api/reports"}},
			{Sid: "absolute", Effect: core.EffectAllow, Resources: []string{"arn:aws:execute-api:eu-west-1:0:other/*"}},
		},
		Context: map[string]string{"UserId": "user-123"},
	}

	hints := core.ProtocolHints{GatewayArn: "arn:aws:execute-api:us-east-1:111111111111:fake-api-id"}
	response := testAssembler().Assemble(decision, hints)

	assert.Equal(t, []string{"arn:aws:execute-api:us-east-1:111111111111:fake-api-id/*"}, response.PolicyDocument.Statement[0].Resource)
	assert.Equal(t, []string{"arn:aws:execute-api:us-east-1:111111111111:fake-api-id/api/reports"}, response.PolicyDocument.Statement[1].Resource)
	// fully qualified resources are never rewritten
	assert.Equal(t, []string{"arn:aws:execute-api:eu-west-1:0:other/*"}, response.PolicyDocument.Statement[2].Resource)
}

func TestAssembleDeterministic(t *testing.T) {
	decision := core.AccessDecision{
		PrincipalID: "user-123",
		Effect:      core.EffectAllow,
		Statements: []core.PermissionStatement{
			{Sid: "a", Effect: core.EffectAllow, Resources: []string{"api/a", "api/b"}},
			{Sid: "b", Effect: core.EffectDeny, Resources: []string{"api/c"}},
		},
		Context: map[string]string{"UserId": "user-123"},
	}
	hints := core.ProtocolHints{GatewayArn: "arn:aws:execute-api:us-east-1:1:api"}

	assembler := testAssembler()
	first, err := json.Marshal(assembler.Assemble(decision, hints))
	assert.NoError(t, err)
	second, err := json.Marshal(assembler.Assemble(decision, hints))
	assert.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}
