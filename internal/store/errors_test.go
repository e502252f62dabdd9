package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"ErrNotFound", ErrNotFound, true},
		{"wrapped ErrNotFound", fmt.Errorf("lookup: %w", ErrNotFound), true},
		{"ErrAccountNotFound", ErrAccountNotFound, true},
		{"wrapped ErrAccountNotFound", fmt.Errorf("get account: %w", ErrAccountNotFound), true},
		{"unrelated error", errors.New("boom"), false},
		{"ErrDuplicate", ErrDuplicate, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"ErrDuplicate", ErrDuplicate, true},
		{"ErrLoginExists", ErrLoginExists, true},
		{"wrapped ErrLoginExists", fmt.Errorf("create: %w", ErrLoginExists), true},
		{"ErrNotFound", ErrNotFound, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsDuplicateError(tt.err))
		})
	}
}

func TestAccountSentinelsChainToBase(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, ErrAccountNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrLoginExists, ErrDuplicate)
}
