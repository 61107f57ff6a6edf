package fraud

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/harunnryd/voicedays/pkg/jsonstore"
	"github.com/harunnryd/voicedays/pkg/metrics"
	"github.com/harunnryd/voicedays/pkg/redact"
)

var (
	ErrCaseNotFound  = errorsx.New(errorsx.ReasonCaseNotFound, "fraud case not found")
	ErrInvalidStatus = errorsx.New(errorsx.ReasonInvalidArgument, "invalid fraud case status")
)

// Database is the fraud case table.
type Database struct {
	store    jsonstore.Store[Case]
	observer metrics.Observer
	logger   *slog.Logger
}

func NewDatabase(store jsonstore.Store[Case], observer metrics.Observer, logger *slog.Logger) *Database {
	if observer == nil {
		observer = metrics.NoopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Database{store: store, observer: observer, logger: logger}
}

// EnsureSampleData seeds the sample cases when the table is empty.
func (d *Database) EnsureSampleData(ctx context.Context) (bool, error) {
	seeded := false
	err := d.store.Update(ctx, func(cases []Case) ([]Case, error) {
		if len(cases) > 0 {
			return cases, nil
		}
		seeded = true
		return SampleCases(), nil
	})
	if err != nil {
		return false, err
	}
	if seeded {
		d.logger.InfoContext(ctx, "fraud_cases_seeded", "count", len(SampleCases()))
	}
	return seeded, nil
}

// Reset replaces every case with the samples.
func (d *Database) Reset(ctx context.Context) error {
	return d.store.Update(ctx, func([]Case) ([]Case, error) {
		return SampleCases(), nil
	})
}

func (d *Database) All(ctx context.Context) ([]Case, error) {
	cases, err := d.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cases {
		cases[i] = cases[i].normalized()
	}
	return cases, nil
}

// CaseForUsername returns the first open case for username. Matching ignores
// case and surrounding whitespace.
func (d *Database) CaseForUsername(ctx context.Context, username string) (Case, bool, error) {
	want := strings.ToLower(strings.TrimSpace(username))
	if want == "" {
		return Case{}, false, nil
	}
	cases, err := d.All(ctx)
	if err != nil {
		return Case{}, false, err
	}
	for _, c := range cases {
		if strings.ToLower(strings.TrimSpace(c.Username)) == want && c.Status.Open() {
			return c, true, nil
		}
	}
	return Case{}, false, nil
}

// UpdateStatus sets status and note on the case with the same username,
// security identifier and card digits, and returns the stored result.
func (d *Database) UpdateStatus(ctx context.Context, target Case, status Status, note string) (Case, error) {
	if !status.Valid() {
		return Case{}, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	var updated Case
	found := false
	err := d.store.Update(ctx, func(cases []Case) ([]Case, error) {
		for i := range cases {
			if !sameCase(cases[i], target) {
				continue
			}
			cases[i].Status = status
			n := note
			cases[i].OutcomeNote = &n
			updated = cases[i]
			found = true
		}
		if !found {
			return nil, ErrCaseNotFound
		}
		return cases, nil
	})
	if err != nil {
		return Case{}, err
	}

	d.observer.RecordEvent(metrics.MetricsEvent{
		Name:  metrics.EventCaseUpdated,
		Time:  time.Now(),
		Value: 1,
		Tags:  map[string]string{"status": string(status)},
	})
	d.logger.InfoContext(ctx, "fraud_case_updated",
		"username", updated.Username,
		"security_identifier", redact.Secret(updated.SecurityIdentifier),
		"card_last_4", updated.CardLast4,
		"status", status,
	)
	return updated, nil
}

// Verify checks the security answer. A wrong answer marks the case
// verification_failed; a right one leaves it untouched.
func (d *Database) Verify(ctx context.Context, c Case, answer string) (bool, Case, error) {
	if VerifyAnswer(c, answer) {
		return true, c, nil
	}
	updated, err := d.UpdateStatus(ctx, c, StatusVerificationFailed, "Customer failed the security question.")
	if err != nil {
		return false, c, err
	}
	d.logger.WarnContext(ctx, "fraud_verification_failed",
		"username", c.Username,
		"answer", redact.Secret(answer),
	)
	return false, updated, nil
}

// Resolve records the customer's reply to the transaction question and
// returns the outcome that was stored.
func (d *Database) Resolve(ctx context.Context, c Case, reply string) (Case, error) {
	outcome := ClassifyConfirmation(reply)
	var note string
	switch outcome {
	case StatusConfirmedSafe:
		note = fmt.Sprintf("Customer confirmed the %s transaction at %s as legitimate.", c.Amount, c.TransactionMerchant)
	case StatusConfirmedFraud:
		note = fmt.Sprintf("Customer denied the %s transaction at %s. Card ending %s blocked and dispute raised.", c.Amount, c.TransactionMerchant, c.CardLast4)
	default:
		note = "Customer reply was unclear; case left for manual review."
	}
	return d.UpdateStatus(ctx, c, outcome, note)
}
