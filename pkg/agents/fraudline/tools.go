// Package fraudline runs the fraud alert call: load the flagged case, check
// the security question, then record whether the customer made the purchase.
package fraudline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harunnryd/voicedays/pkg/configutil"
	"github.com/harunnryd/voicedays/pkg/fraud"
	"github.com/harunnryd/voicedays/pkg/llm"
	"github.com/harunnryd/voicedays/pkg/redact"
)

const Instructions = `You are a calm fraud prevention officer calling from the bank's card security team.
Start by asking for the customer's first name and call load_case with it.
Never read out or hint at the security answer. Ask the security question exactly as the tool gives it,
then call verify_identity with the customer's words. If verification fails, apologise, say you cannot
continue and end the call politely.
Once verified, describe the flagged transaction (merchant, amount, location, time, card ending) and ask
whether they made it. Pass their reply verbatim to record_transaction_response and tell them the outcome.
Never ask for full card numbers, PINs or passwords.`

var (
	errNoCase     = errors.New("no case loaded")
	errUnverified = errors.New("identity not verified")
)

type Registry struct {
	*llm.Registry
	db     *fraud.Database
	logger *slog.Logger

	current  fraud.Case
	loaded   bool
	verified bool
}

func NewRegistry(db *fraud.Database, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{Registry: llm.NewRegistry(), db: db, logger: logger}

	r.Register(llm.Tool{
		Name:        "load_case",
		Description: "Load the open fraud case for the customer's first name and get the security question.",
		Schema:      llm.Object(map[string]any{"username": llm.String("Customer's first name.")}, "username"),
	}, r.loadCase)
	r.Register(llm.Tool{
		Name:        "verify_identity",
		Description: "Check the customer's answer to the security question.",
		Schema:      llm.Object(map[string]any{"answer": llm.String("The customer's answer, as spoken.")}, "answer"),
	}, r.verifyIdentity)
	r.Register(llm.Tool{
		Name:        "record_transaction_response",
		Description: "Record whether the customer made the flagged transaction.",
		Schema:      llm.Object(map[string]any{"reply": llm.String("The customer's reply, verbatim.")}, "reply"),
	}, r.recordResponse)
	return r
}

type caseArgs struct {
	Username string `mapstructure:"username"`
	Answer   string `mapstructure:"answer"`
	Reply    string `mapstructure:"reply"`
}

func (r *Registry) loadCase(ctx context.Context, raw map[string]any) (string, error) {
	var args caseArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	c, ok, err := r.db.CaseForUsername(ctx, args.Username)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", llm.UserError(fraud.ErrCaseNotFound, "I don't see any open alert under the name %s.", args.Username)
	}
	r.current, r.loaded, r.verified = c, true, false
	r.logger.InfoContext(ctx, "fraud_case_loaded",
		"username", c.Username,
		"security_identifier", redact.Secret(c.SecurityIdentifier),
	)
	return fmt.Sprintf("Case loaded for %s. Before discussing it, ask the security question: %s",
		c.Username, c.SecurityQuestion), nil
}

func (r *Registry) verifyIdentity(ctx context.Context, raw map[string]any) (string, error) {
	if !r.loaded {
		return "", llm.UserError(errNoCase, "I need the customer's name first.")
	}
	var args caseArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	ok, updated, err := r.db.Verify(ctx, r.current, args.Answer)
	if err != nil {
		return "", err
	}
	r.current = updated
	if !ok {
		r.loaded = false
		return "Verification failed. The case is marked verification_failed. Apologise and end the call without sharing details.", nil
	}
	r.verified = true
	c := r.current
	return fmt.Sprintf("Verified. Flagged transaction: %s at %s in %s on %s, card ending %s. Ask if they made this purchase.",
		c.Amount, c.TransactionMerchant, c.Location, c.Timestamp, c.CardLast4), nil
}

func (r *Registry) recordResponse(ctx context.Context, raw map[string]any) (string, error) {
	if !r.loaded {
		return "", llm.UserError(errNoCase, "I need the customer's name first.")
	}
	if !r.verified {
		return "", llm.UserError(errUnverified, "I need to verify the customer's identity first.")
	}
	var args caseArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	updated, err := r.db.Resolve(ctx, r.current, args.Reply)
	if err != nil {
		return "", err
	}
	r.current = updated
	switch updated.Status {
	case fraud.StatusConfirmedSafe:
		r.loaded = false
		return "Marked safe. " + updated.Note() + " Thank the customer; no further action is needed.", nil
	case fraud.StatusConfirmedFraud:
		r.loaded = false
		return "Marked as fraud. " + updated.Note() + " Tell the customer a replacement card will follow.", nil
	default:
		return "The reply was unclear and the case stays pending review. Ask plainly: did you make this purchase, yes or no?", nil
	}
}

var _ llm.ToolRegistry = (*Registry)(nil)
