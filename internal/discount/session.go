package discount

import (
	"github.com/google/uuid"

	"github.com/noah-isme/promo-engine/internal/money"
)

// Policy selects how order-level rules are prorated. It is fixed when the
// session is built so both behaviours stay testable in isolation.
type Policy int

const (
	// PolicyPerLine prorates every rule across individual lines.
	PolicyPerLine Policy = iota
	// PolicyOrderLevel enables the order-level lump-sum shortcut for percent
	// rules and the remainder-to-shipping step for amount rules.
	PolicyOrderLevel
)

// Outcome accumulates the discounts applied by one rule, in application order.
type Outcome struct {
	RuleID  uuid.UUID
	Code    string
	Amounts []money.Amount
}

// Record appends an applied discount to the outcome.
func (o *Outcome) Record(amount money.Amount) {
	o.Amounts = append(o.Amounts, amount)
}

// Total sums all recorded discounts.
func (o *Outcome) Total() money.Amount {
	total := money.Zero
	for _, a := range o.Amounts {
		total = total.Add(a)
	}
	return total
}

// Session is the aggregate for one price-calculation pass: the lines, the
// shipping fee, the ordered rules and the per-rule outcomes. It is built,
// processed by exactly one caller, and discarded.
type Session struct {
	Currency string
	Policy   Policy
	Lines    []*Line
	Shipping Shipping
	Rules    []Rule

	outcomes map[uuid.UUID]*Outcome
	order    []uuid.UUID
}

// NewSession builds a session over the given lines and shipping fee.
func NewSession(currency string, policy Policy, lines []*Line, shipping money.Amount, rules []Rule) *Session {
	return &Session{
		Currency: currency,
		Policy:   policy,
		Lines:    lines,
		Shipping: Shipping{Initial: shipping},
		Rules:    rules,
		outcomes: make(map[uuid.UUID]*Outcome, len(rules)),
	}
}

// Outcome returns the accumulator for the given rule, creating it on first use.
func (s *Session) Outcome(rule Rule) *Outcome {
	if o, ok := s.outcomes[rule.ID]; ok {
		return o
	}
	o := &Outcome{RuleID: rule.ID, Code: rule.Code}
	s.outcomes[rule.ID] = o
	s.order = append(s.order, rule.ID)
	return o
}

// Outcomes lists the per-rule outcomes in the order rules produced them.
func (s *Session) Outcomes() []*Outcome {
	out := make([]*Outcome, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.outcomes[id])
	}
	return out
}

// ItemsTotal sums the running line totals.
func (s *Session) ItemsTotal() money.Amount {
	total := money.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Total)
	}
	return total
}

// InitialItemsTotal sums line totals as they were before any rule ran.
func (s *Session) InitialItemsTotal() money.Amount {
	total := money.Zero
	for _, l := range s.Lines {
		total = total.Add(l.InitialUnitPrice.MulInt(l.Qty))
	}
	return total
}

// Total is the payable amount after discounts: running line totals plus the
// remaining shipping fee.
func (s *Session) Total() money.Amount {
	return s.ItemsTotal().Add(s.Shipping.Remaining())
}
