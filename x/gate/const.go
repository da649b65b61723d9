package gate

const (
	// request/response variant: the gateway forwards the protected
	// call's coordinates in these headers
	GatewayArnHeader    = "x-gateway-arn"
	GatewayMethodHeader = "x-gateway-method"
	GatewayPathHeader   = "x-gateway-path"

	// both variants accept the token as a query parameter; the
	// persistent-connection handshake has no usable header surface
	TokenQueryParam = "authorization"
)
