package twilio

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/harunnryd/voicedays/pkg/redact"
	"github.com/harunnryd/voicedays/pkg/resilience"
	"github.com/harunnryd/voicedays/pkg/transports"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

var (
	ErrMissingCredentials = errorsx.New(errorsx.ReasonDial, "missing twilio credentials")
	ErrMissingNumbers     = errorsx.New(errorsx.ReasonInvalidArgument, "to/from required")
	ErrMissingSID         = errorsx.New(errorsx.ReasonDial, "missing call sid")
)

type callCreator interface {
	CreateCall(params *api.CreateCallParams) (*api.ApiV2010Call, error)
}

// Dialer places outbound calls through the Twilio REST API.
type Dialer struct {
	cfg    Config
	client callCreator
	retry  resilience.RetryPolicy
	logger *slog.Logger
}

var _ transports.OutboundDialerWithOptions = (*Dialer)(nil)

func NewDialer(cfg Config, logger *slog.Logger) *Dialer {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Dialer{
		cfg:    cfg,
		retry:  resilience.NewRetryPolicy(cfg.MaxRetries, 500*time.Millisecond),
		logger: logger,
	}
}

// Dial calls to from the configured number. An empty url uses the voice
// webhook.
func (d *Dialer) Dial(ctx context.Context, to, url string) (string, error) {
	return d.DialWithOptions(ctx, to, url, transports.DialOptions{})
}

func (d *Dialer) DialWithOptions(ctx context.Context, to, url string, opts transports.DialOptions) (string, error) {
	from := strings.TrimSpace(opts.From)
	if from == "" {
		from = d.cfg.FromNumber
	}
	to = strings.TrimSpace(to)
	if to == "" || from == "" {
		return "", ErrMissingNumbers
	}
	if !d.cfg.Enabled() {
		return "", ErrMissingCredentials
	}
	if url == "" {
		url = d.cfg.VoiceWebhookURL()
	}
	client := d.client
	if client == nil {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: d.cfg.AccountSID,
			Password: d.cfg.AuthToken,
		})
		client = rest.Api
	}
	params := &api.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetUrl(url)
	if strings.TrimSpace(opts.SendDigits) != "" {
		params.SetSendDigits(opts.SendDigits)
	}
	if opts.Timeout > 0 {
		params.SetTimeout(opts.Timeout)
	}

	var sid string
	attempt := 0
	err := d.retry.Do(ctx, func(context.Context) error {
		attempt++
		resp, err := client.CreateCall(params)
		if err != nil {
			d.logger.WarnContext(ctx, "twilio_dial_failed", "to", redact.Last4(to), "attempt", attempt, "error", err)
			return errorsx.Wrap(err, errorsx.ReasonDial)
		}
		if resp == nil || resp.Sid == nil {
			return ErrMissingSID
		}
		sid = *resp.Sid
		return nil
	})
	if err != nil {
		return "", err
	}
	d.logger.InfoContext(ctx, "twilio_call_created", "call_sid", sid, "to", redact.Last4(to))
	return sid, nil
}
