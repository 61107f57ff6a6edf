// Package fraud holds the fraud alert day: suspicious transaction cases, the
// security question check and the confirmation heuristic.
package fraud

import "strings"

type Status string

const (
	StatusPendingReview      Status = "pending_review"
	StatusConfirmedSafe      Status = "confirmed_safe"
	StatusConfirmedFraud     Status = "confirmed_fraud"
	StatusVerificationFailed Status = "verification_failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingReview, StatusConfirmedSafe, StatusConfirmedFraud, StatusVerificationFailed:
		return true
	}
	return false
}

// Open reports whether the case still needs a call.
func (s Status) Open() bool {
	return s == StatusPendingReview || s == StatusVerificationFailed
}

// Case is one flagged card transaction awaiting customer review.
type Case struct {
	Username            string  `json:"username"`
	SecurityIdentifier  string  `json:"security_identifier"`
	CardLast4           string  `json:"card_last_4"`
	TransactionMerchant string  `json:"transaction_merchant"`
	Amount              string  `json:"amount"`
	Location            string  `json:"location"`
	Timestamp           string  `json:"timestamp"`
	SecurityQuestion    string  `json:"security_question"`
	SecurityAnswer      string  `json:"security_answer"`
	Status              Status  `json:"status"`
	OutcomeNote         *string `json:"outcome_note"`
	// Phone is used for outbound alert calls; absent in older files.
	Phone string `json:"phone,omitempty"`
}

// sameCase compares the identity triple that keys a case.
func sameCase(a, b Case) bool {
	return a.Username == b.Username &&
		a.SecurityIdentifier == b.SecurityIdentifier &&
		a.CardLast4 == b.CardLast4
}

func (c Case) normalized() Case {
	if c.Status == "" {
		c.Status = StatusPendingReview
	}
	return c
}

// Note returns the outcome note or an empty string.
func (c Case) Note() string {
	if c.OutcomeNote == nil {
		return ""
	}
	return *c.OutcomeNote
}

// VerifyAnswer compares a spoken answer to the stored one, ignoring case and
// surrounding whitespace. An empty stored answer never verifies.
func VerifyAnswer(c Case, answer string) bool {
	want := strings.TrimSpace(c.SecurityAnswer)
	if want == "" {
		return false
	}
	return strings.EqualFold(want, strings.TrimSpace(answer))
}

func SampleCases() []Case {
	return []Case{
		{
			Username:            "John",
			SecurityIdentifier:  "12345",
			CardLast4:           "4242",
			TransactionMerchant: "ABC Electronics",
			Amount:              "$999.00",
			Location:            "New York, NY",
			Timestamp:           "2025-11-26 14:32",
			SecurityQuestion:    "What is the name of your first pet?",
			SecurityAnswer:      "Fluffy",
			Status:              StatusPendingReview,
		},
		{
			Username:            "Sara",
			SecurityIdentifier:  "98765",
			CardLast4:           "7788",
			TransactionMerchant: "Global Travel Co",
			Amount:              "$1,250.49",
			Location:            "Paris, France",
			Timestamp:           "2025-11-25 09:10",
			SecurityQuestion:    "What city were you born in?",
			SecurityAnswer:      "Cairo",
			Status:              StatusPendingReview,
		},
	}
}
