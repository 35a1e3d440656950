package identifier

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"time"
)

// Entity identifiers keep the shape <PREFIX>-<unix millis>-<9 char base36 token>
// for compatibility with rows created by the previous system. The token is drawn
// from crypto/rand, so uniqueness is no longer best-effort.
const (
	PrefixCustomer = "CUST"
	PrefixLoan     = "LOAN"
	PrefixPayment  = "PAY"

	tokenLength = 9
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var pattern = regexp.MustCompile(`^(CUST|LOAN|PAY)-\d{13}-[0-9a-z]{9}$`)

func New(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), randomToken(tokenLength))
}

func NewCustomerID() string { return New(PrefixCustomer) }

func NewLoanID() string { return New(PrefixLoan) }

func NewPaymentID() string { return New(PrefixPayment) }

// Valid reports whether id matches the canonical identifier shape.
func Valid(id string) bool {
	return pattern.MatchString(id)
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("identifier: failed to read random bytes: %v", err))
	}
	token := make([]byte, n)
	for i, b := range buf {
		token[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}
	return string(token)
}
