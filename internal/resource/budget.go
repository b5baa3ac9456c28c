// Package resource performs admission control against memory, file-count,
// file-size and wall-clock budgets.
package resource

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	scouterrors "github.com/standardbeagle/scout/internal/errors"
	"github.com/standardbeagle/scout/internal/types"
)

// Budget is the immutable set of ceilings a Monitor enforces.
type Budget struct {
	MaxMemoryMB       int
	MaxFiles          int
	MaxFileSizeBytes  int64
	MaxProcessingTime time.Duration
}

// DefaultBudget returns the built-in limits.
func DefaultBudget() Budget {
	return Budget{
		MaxMemoryMB:       types.DefaultMaxMemoryMB,
		MaxFiles:          types.DefaultMaxFileCount,
		MaxFileSizeBytes:  types.DefaultMaxFileSize,
		MaxProcessingTime: types.DefaultMaxProcessingTime,
	}
}

// NewBudget builds a validated budget.
func NewBudget(maxMemoryMB, maxFiles int, maxFileSizeBytes int64, maxProcessingTime time.Duration) (Budget, error) {
	b := Budget{
		MaxMemoryMB:       maxMemoryMB,
		MaxFiles:          maxFiles,
		MaxFileSizeBytes:  maxFileSizeBytes,
		MaxProcessingTime: maxProcessingTime,
	}
	if err := b.Validate(); err != nil {
		return Budget{}, err
	}
	return b, nil
}

// Validate rejects zero or negative limits.
func (b Budget) Validate() error {
	if b.MaxMemoryMB <= 0 {
		return positive("budget.max_memory_mb", strconv.Itoa(b.MaxMemoryMB))
	}
	if b.MaxFiles <= 0 {
		return positive("budget.max_files", strconv.Itoa(b.MaxFiles))
	}
	if b.MaxFileSizeBytes <= 0 {
		return positive("budget.max_file_size", strconv.FormatInt(b.MaxFileSizeBytes, 10))
	}
	if b.MaxProcessingTime <= 0 {
		return positive("budget.max_processing_time", b.MaxProcessingTime.String())
	}
	return nil
}

func positive(field, value string) error {
	return scouterrors.NewConfigError(field, value, errors.New("must be positive"))
}

// String renders the budget for logs.
func (b Budget) String() string {
	return fmt.Sprintf("memory=%dMB files=%d file_size=%dB time=%s",
		b.MaxMemoryMB, b.MaxFiles, b.MaxFileSizeBytes, b.MaxProcessingTime)
}
