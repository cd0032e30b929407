// Package rewards keeps the persistent coin balance earned from quizzes.
package rewards

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/abhisek/pdfquiz/internal/store"
)

// Key is the storage key of the balance.
const Key = "quiz-coins"

// PerCorrectAnswer is the reward for each correctly answered question.
const PerCorrectAnswer = 10

// ForScore returns the reward for a number of correct answers.
func ForScore(correct int) int {
	if correct <= 0 {
		return 0
	}
	return correct * PerCorrectAnswer
}

// Ledger is the reward balance. It is loaded once and written through on
// every change. Concurrent processes are not coordinated: the last write
// wins.
type Ledger struct {
	kv  store.KVRepo
	log zerolog.Logger

	mu    sync.Mutex
	coins int
}

// Load reads the stored balance. A missing or unreadable value starts at 0.
func Load(ctx context.Context, kv store.KVRepo, log zerolog.Logger) *Ledger {
	l := &Ledger{kv: kv, log: log}

	raw, ok, err := kv.Get(ctx, Key)
	if err != nil {
		log.Warn().Err(err).Msg("coins_load_failed")
		return l
	}
	if !ok {
		return l
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Warn().Str("value", raw).Msg("coins_value_invalid")
		return l
	}
	l.coins = n
	return l
}

// Get returns the current balance.
func (l *Ledger) Get() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.coins
}

// Add credits amount and returns the new balance. Negative amounts are
// rejected. A storage failure is logged; the balance still changes for the
// rest of the session.
func (l *Ledger) Add(ctx context.Context, amount int) (int, error) {
	if amount < 0 {
		return l.Get(), fmt.Errorf("reward amount must not be negative, got %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.coins += amount
	if err := l.kv.Set(ctx, Key, strconv.Itoa(l.coins)); err != nil {
		l.log.Warn().Err(err).Int("coins", l.coins).Msg("coins_save_failed")
	}
	return l.coins, nil
}
