package lending

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order titles embed a 10-digit code laid out as YYMMDDSSAA:
// YYMMDD is the order date (century fixed at 2000), SS a per-day sequence kept
// only for traceability, and AA the principal in thousands. A leading marker
// character flags a new customer; the marked string stays the order id so it
// cannot collide with an otherwise identical returning-customer code.
const NewCustomerMarker = "A"

var (
	newCustomerPattern = regexp.MustCompile(`^` + NewCustomerMarker + `(\d{10})`)
	returningPattern   = regexp.MustCompile(`^(\d{10})`)
)

// OrderCode is the decoded form of a coded chat title.
type OrderCode struct {
	OrderID  string
	Date     time.Time
	Sequence int
	Amount   decimal.Decimal
	Customer CustomerClass
}

// ParseOrderCode decodes a chat title into an OrderCode. The second return
// value is false when the title is not an order title at all; callers must not
// treat that as a failure.
func ParseOrderCode(title string) (OrderCode, bool) {
	var (
		digits   string
		orderID  string
		customer CustomerClass
	)

	if m := newCustomerPattern.FindStringSubmatch(title); m != nil {
		digits = m[1]
		orderID = m[0]
		customer = CustomerNew
	} else if m := returningPattern.FindStringSubmatch(title); m != nil {
		digits = m[1]
		orderID = m[0]
		customer = CustomerReturning
	} else {
		return OrderCode{}, false
	}

	date, err := time.Parse("20060102", "20"+digits[:6])
	if err != nil {
		return OrderCode{}, false
	}

	seq, _ := strconv.Atoi(digits[6:8])
	thousands, _ := strconv.Atoi(digits[8:10])

	return OrderCode{
		OrderID:  orderID,
		Date:     date,
		Sequence: seq,
		Amount:   decimal.NewFromInt(int64(thousands) * 1000),
		Customer: customer,
	}, true
}

// Title state markers. A chat title carries at most one of these; their
// absence means the order runs in the normal state.
const (
	breachMarker  = "❌"
	overdueMarker = "❗️"
)

// StateFromTitle derives the order state signalled by a chat title's markers.
func StateFromTitle(title string) OrderState {
	switch {
	case strings.Contains(title, breachMarker):
		return StateBreach
	case strings.Contains(title, overdueMarker):
		return StateOverdue
	default:
		return StateNormal
	}
}
