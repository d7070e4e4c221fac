package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nurpe/dispatch-contracts/internal/repository"
)

// NumberGenerator issues contract numbers of the form PREFIX-YYYYMM-NNNN
// with a 4-digit sequence unique within the calendar month. Sequences
// are gap-tolerant: the next number is one past the highest issued so
// far, regardless of deletions in between.
//
// Generation is read-then-write and therefore racy under concurrent
// creation; the unique index on contract_number turns a collision into
// gorm.ErrDuplicatedKey, which Create retries.
type NumberGenerator struct {
	prefix string
}

func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{prefix: prefix}
}

// Next computes the next free number for now's month using the given
// (possibly transaction-bound) repository.
func (g *NumberGenerator) Next(ctx context.Context, contracts *repository.ContractRepository, now time.Time) (string, error) {
	monthPrefix := fmt.Sprintf("%s-%s-", g.prefix, now.Format("200601"))

	maxSequence, err := contracts.MaxSequenceForMonth(ctx, monthPrefix)
	if err != nil {
		return "", fmt.Errorf("scan month sequence: %w", err)
	}
	return fmt.Sprintf("%s%04d", monthPrefix, maxSequence+1), nil
}
