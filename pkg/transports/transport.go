package transports

import "context"

// OutboundDialer places an outbound phone call and returns its call id.
type OutboundDialer interface {
	Dial(ctx context.Context, to, url string) (callSID string, err error)
}

// DialOptions carries optional outbound dial settings.
type DialOptions struct {
	From       string
	SendDigits string
	Timeout    int
}

// OutboundDialerWithOptions extends dialing with optional parameters.
type OutboundDialerWithOptions interface {
	DialWithOptions(ctx context.Context, to, url string, opts DialOptions) (callSID string, err error)
}
