package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", NotFoundf("task %s", "t1"), KindNotFound},
		{"invalid argument", InvalidArgumentf("bad parent"), KindInvalidArgument},
		{"forbidden", Forbiddenf("not admin"), KindForbidden},
		{"conflict", Conflictf("already member"), KindConflict},
		{"wrapped twice", fmt.Errorf("deleting feature: %w", NotFoundf("feature f1")), KindNotFound},
		{"store unavailable", fmt.Errorf("dial: %w", ErrStoreUnavailable), KindStoreUnavailable},
		{"unauthorized", ErrUnauthorized, KindUnauthorized},
		{"plain error", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKindHelpersKeepMessage(t *testing.T) {
	err := NotFoundf("feature %s", "f1")
	assert.EqualError(t, err, "feature f1: not found")
	assert.ErrorIs(t, err, ErrNotFound)
}
