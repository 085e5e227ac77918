package adapter

import "context"

// BalanceEvent is published after every committed ledger mutation.
// Events for one account are published in commit order; no ordering is
// promised across accounts.
type BalanceEvent struct {
	AccountID     string `json:"account_id"`
	Balance       int64  `json:"balance"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
}

// BalancePublisher pushes balance changes toward subscribed UI sessions.
type BalancePublisher interface {
	PublishBalance(ctx context.Context, ev BalanceEvent) error
}
