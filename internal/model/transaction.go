package model

import "time"

// TransactionKind is income or expense.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// IsValid reports whether k is a known kind.
func (k TransactionKind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is one earnings or expense entry.
type Transaction struct {
	ID       int64           `json:"id"`
	Kind     TransactionKind `json:"type"`
	Amount   float64         `json:"amount"`
	Category string          `json:"category"`
	Notes    string          `json:"notes,omitempty"`
	Date     time.Time       `json:"date"`
	Synced   bool            `json:"synced"`
}

// TransactionInput holds the fields supplied when adding a transaction.
// It doubles as the insert payload.
type TransactionInput struct {
	Kind     TransactionKind `json:"type"`
	Amount   float64         `json:"amount"`
	Category string          `json:"category"`
	Notes    string          `json:"notes,omitempty"`
	Date     time.Time       `json:"date"`
}

// Signed returns the amount with expenses negative.
func (t *Transaction) Signed() float64 {
	if t.Kind == KindExpense {
		return -t.Amount
	}
	return t.Amount
}

// DailySummary totals the transactions dated on one day.
type DailySummary struct {
	Day     time.Time `json:"day"`
	Income  float64   `json:"income"`
	Expense float64   `json:"expense"`
	Balance float64   `json:"balance"`
}

// Summarize totals the transactions that fall on the same local day as day.
func Summarize(day time.Time, txns []Transaction) DailySummary {
	y, m, d := day.Date()
	s := DailySummary{Day: time.Date(y, m, d, 0, 0, 0, 0, day.Location())}
	for _, t := range txns {
		ty, tm, td := t.Date.In(day.Location()).Date()
		if ty != y || tm != m || td != d {
			continue
		}
		switch t.Kind {
		case KindIncome:
			s.Income += t.Amount
		case KindExpense:
			s.Expense += t.Amount
		}
	}
	s.Balance = s.Income - s.Expense
	return s
}
