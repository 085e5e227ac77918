package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"sodai-platform/internal/domain/ports/adapter"
)

var _ adapter.BalancePublisher = (*BalanceEvents)(nil)

// BalanceEvents publishes per-account balance changes on a dedicated
// channel per account. Redis pub/sub delivers messages on one channel in
// publish order, which is exactly the per-account ordering the UI needs;
// nothing is promised across accounts.
type BalanceEvents struct {
	client *Client
}

func NewBalanceEvents(client *Client) *BalanceEvents {
	return &BalanceEvents{client: client}
}

func BalanceChannel(accountID string) string {
	return fmt.Sprintf("balance:%s", accountID)
}

func (b *BalanceEvents) PublishBalance(ctx context.Context, ev adapter.BalanceEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, BalanceChannel(ev.AccountID), payload)
}
