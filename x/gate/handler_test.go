package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/gatewarden/gatewarden/core"
	"github.com/gatewarden/gatewarden/core/mock"
	"github.com/gatewarden/gatewarden/internal/testutil"
	"github.com/gatewarden/gatewarden/x/util"
)

const fakeToken = "fake.bearer.token"

func allowDecision() core.AccessDecision {
	return core.AccessDecision{
		PrincipalID: "user-123",
		Effect:      core.EffectAllow,
		Statements: []core.PermissionStatement{
			{Sid: "admins-stmt", Effect: core.EffectAllow, Resources: []string{"api/*"}},
		},
		Context: map[string]string{"UserId": "user-123"},
	}
}

func allowResponse() core.PolicyResponse {
	return core.PolicyResponse{
		PrincipalID: "user-123",
		PolicyDocument: core.PolicyDocument{
			Version: core.PolicyDocumentVersion,
			Statement: []core.PolicyStatement{
				{Sid: "admins-stmt", Effect: "Allow", Action: core.PolicyActionInvoke, Resource: []string{"api/*"}},
			},
		},
		Context: map[string]string{"UserId": "user-123"},
	}
}

func newRequest(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthorizeAllow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hints := core.ProtocolHints{
		GatewayArn: "arn:aws:execute-api:us-east-1:111111111111:fake-api-id",
		Method:     "GET",
		Path:       "/reports",
	}

	mockService := mock_core.NewMockPolicyService(ctrl)
	mockService.EXPECT().Resolve(gomock.Any(), fakeToken).Return(allowDecision(), nil)
	mockService.EXPECT().Assemble(allowDecision(), hints).Return(allowResponse())

	h := NewHandler(mockService, util.Config{})

	c, rec := newRequest("/authorize")
	c.Request().Header.Set("authorization", "Bearer "+fakeToken)
	c.Request().Header.Set(GatewayArnHeader, hints.GatewayArn)
	c.Request().Header.Set(GatewayMethodHeader, hints.Method)
	c.Request().Header.Set(GatewayPathHeader, hints.Path)

	err := h.Authorize(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admins-stmt")
	assert.Contains(t, rec.Body.String(), "2012-10-17")
}

func TestAuthorizeQueryParamToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock_core.NewMockPolicyService(ctrl)
	mockService.EXPECT().Resolve(gomock.Any(), fakeToken).Return(allowDecision(), nil)
	mockService.EXPECT().Assemble(gomock.Any(), gomock.Any()).Return(allowResponse())

	h := NewHandler(mockService, util.Config{})

	c, rec := newRequest("/authorize?authorization=" + fakeToken)

	err := h.Authorize(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorizeMalformedEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no Resolve call: a missing token never reaches the pipeline
	mockService := mock_core.NewMockPolicyService(ctrl)

	h := NewHandler(mockService, util.Config{})

	c, rec := newRequest("/authorize")
	err := h.Authorize(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
}

func TestAuthorizeInvalidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock_core.NewMockPolicyService(ctrl)
	mockService.EXPECT().Resolve(gomock.Any(), fakeToken).Return(core.AccessDecision{}, core.NewErrorInvalidToken())

	h := NewHandler(mockService, util.Config{})

	c, rec := newRequest("/authorize")
	c.Request().Header.Set("authorization", "Bearer "+fakeToken)

	err := h.Authorize(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// externally identical to the malformed-event rejection
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
}

func TestAuthorizeDenyDecision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	denied := allowDecision()
	denied.Effect = core.EffectDeny

	mockService := mock_core.NewMockPolicyService(ctrl)
	mockService.EXPECT().Resolve(gomock.Any(), fakeToken).Return(denied, nil)

	h := NewHandler(mockService, util.Config{})

	c, rec := newRequest("/authorize")
	c.Request().Header.Set("authorization", "Bearer "+fakeToken)

	err := h.Authorize(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorizeRetryExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock_core.NewMockPolicyService(ctrl)
	mockService.EXPECT().Resolve(gomock.Any(), fakeToken).
		Return(core.AccessDecision{}, core.NewErrorStoreUnavailable()).
		Times(2)

	config := util.Config{
		Authorizer: util.Authorizer{
			StoreRetryAttempts: 1,
			StoreRetryInterval: 1,
		},
	}
	h := NewHandler(mockService, config)

	c, rec := newRequest("/authorize")
	c.Request().Header.Set("authorization", "Bearer "+fakeToken)

	err := h.Authorize(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorizeRetryRecovers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock_core.NewMockPolicyService(ctrl)
	first := mockService.EXPECT().Resolve(gomock.Any(), fakeToken).
		Return(core.AccessDecision{}, core.NewErrorStoreUnavailable())
	mockService.EXPECT().Resolve(gomock.Any(), fakeToken).
		Return(allowDecision(), nil).
		After(first)
	mockService.EXPECT().Assemble(gomock.Any(), gomock.Any()).Return(allowResponse())

	config := util.Config{
		Authorizer: util.Authorizer{
			StoreRetryAttempts: 1,
			StoreRetryInterval: 1,
		},
	}
	h := NewHandler(mockService, config)

	c, rec := newRequest("/authorize")
	c.Request().Header.Set("authorization", "Bearer "+fakeToken)

	err := h.Authorize(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorizeSpans(t *testing.T) {
	checker := testutil.SetupMockTraceProvider()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock_core.NewMockPolicyService(ctrl)
	mockService.EXPECT().Resolve(gomock.Any(), fakeToken).Return(allowDecision(), nil)
	mockService.EXPECT().Assemble(gomock.Any(), gomock.Any()).Return(allowResponse())

	h := NewHandler(mockService, util.Config{})

	c, _, rec, traceID := testutil.CreateHttpRequest()
	c.Request().Header.Set("authorization", "Bearer "+fakeToken)

	err := h.Authorize(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	found := false
	for _, span := range checker.GetSpans() {
		if span.SpanContext.TraceID().String() != traceID {
			continue
		}
		if span.Name == "Gate.Handler.Authorize" {
			found = true
		}
	}
	assert.True(t, found, "expected an Authorize span under the request trace")
}

func TestAuthorizeBadHeaderShape(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock_core.NewMockPolicyService(ctrl)
	h := NewHandler(mockService, util.Config{})

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer a b"} {
		c, rec := newRequest("/authorize")
		c.Request().Header.Set("authorization", header)

		err := h.Authorize(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}
