package fraudline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harunnryd/voicedays/pkg/fraud"
	"github.com/harunnryd/voicedays/pkg/jsonstore"
	"github.com/harunnryd/voicedays/pkg/llm"
	"github.com/harunnryd/voicedays/pkg/logging"
)

func newTestRegistry(t *testing.T) (*Registry, *fraud.Database) {
	t.Helper()
	store := jsonstore.NewFileStore[fraud.Case](filepath.Join(t.TempDir(), "fraud_cases.json"))
	db := fraud.NewDatabase(store, nil, logging.Discard())
	if _, err := db.EnsureSampleData(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewRegistry(db, logging.Discard()), db
}

func call(t *testing.T, r *Registry, name string, args map[string]any) string {
	t.Helper()
	out, err := r.HandleTool(context.Background(), name, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func storedStatus(t *testing.T, db *fraud.Database, username string) fraud.Status {
	t.Helper()
	cases, err := db.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	for _, c := range cases {
		if c.Username == username {
			return c.Status
		}
	}
	t.Fatalf("no case for %s", username)
	return ""
}

func TestConfirmedFraudFlow(t *testing.T) {
	r, db := newTestRegistry(t)
	out := call(t, r, "load_case", map[string]any{"username": " john "})
	if !strings.Contains(out, "first pet") || strings.Contains(out, "Fluffy") {
		t.Fatalf("unexpected load output: %s", out)
	}
	out = call(t, r, "verify_identity", map[string]any{"answer": "fluffy"})
	if !strings.Contains(out, "ABC Electronics") || !strings.Contains(out, "4242") {
		t.Fatalf("unexpected verify output: %s", out)
	}
	out = call(t, r, "record_transaction_response", map[string]any{"reply": "No, that wasn't me"})
	if !strings.HasPrefix(out, "Marked as fraud.") {
		t.Fatalf("unexpected outcome: %s", out)
	}
	if got := storedStatus(t, db, "John"); got != fraud.StatusConfirmedFraud {
		t.Fatalf("expected confirmed_fraud, got %s", got)
	}
}

func TestAmbiguousReplyStaysPending(t *testing.T) {
	r, db := newTestRegistry(t)
	call(t, r, "load_case", map[string]any{"username": "Sara"})
	call(t, r, "verify_identity", map[string]any{"answer": "Cairo"})
	out := call(t, r, "record_transaction_response", map[string]any{"reply": "hmm, I am not sure"})
	if !strings.Contains(out, "pending review") {
		t.Fatalf("unexpected outcome: %s", out)
	}
	if got := storedStatus(t, db, "Sara"); got != fraud.StatusPendingReview {
		t.Fatalf("expected pending_review, got %s", got)
	}
	out = call(t, r, "record_transaction_response", map[string]any{"reply": "Yes, that was me"})
	if !strings.HasPrefix(out, "Marked safe.") {
		t.Fatalf("unexpected second outcome: %s", out)
	}
}

func TestWrongAnswerFailsVerification(t *testing.T) {
	r, db := newTestRegistry(t)
	call(t, r, "load_case", map[string]any{"username": "John"})
	out := call(t, r, "verify_identity", map[string]any{"answer": "Rex"})
	if !strings.HasPrefix(out, "Verification failed") {
		t.Fatalf("unexpected verify output: %s", out)
	}
	if got := storedStatus(t, db, "John"); got != fraud.StatusVerificationFailed {
		t.Fatalf("expected verification_failed, got %s", got)
	}
	_, err := r.HandleTool(context.Background(), "record_transaction_response", map[string]any{"reply": "yes"})
	if got := llm.UserMessage(err, ""); got != "I need the customer's name first." {
		t.Fatalf("expected case to be unloaded, got %q", got)
	}
}

func TestToolsRequireOrder(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	_, err := r.HandleTool(ctx, "load_case", map[string]any{"username": "Nobody"})
	if got := llm.UserMessage(err, ""); !strings.Contains(got, "Nobody") {
		t.Fatalf("expected unknown user message, got %q", got)
	}
	call(t, r, "load_case", map[string]any{"username": "John"})
	_, err = r.HandleTool(ctx, "record_transaction_response", map[string]any{"reply": "yes"})
	if got := llm.UserMessage(err, ""); !strings.Contains(got, "verify") {
		t.Fatalf("expected verification required, got %q", got)
	}
}
