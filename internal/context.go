package internal

import (
	"context"

	"github.com/apdq/deliver-backend/internal/core/account"
)

type ctxKey string

const ContextAccountKey ctxKey = "account"

func AccountFromContext(ctx context.Context) (account.Account, bool) {
	if ctx == nil {
		return nil, false
	}
	acc, ok := ctx.Value(ContextAccountKey).(account.Account)
	return acc, ok && acc != nil
}

func ContextWithAccount(ctx context.Context, acc account.Account) context.Context {
	return context.WithValue(ctx, ContextAccountKey, acc)
}
