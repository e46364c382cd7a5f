package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("approve leave: %w", NotFound("pending leave %s not found", "abc"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Contains(t, err.Error(), "pending leave abc not found")
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestUpstream_Unwraps(t *testing.T) {
	cause := errors.New("exit status 2")
	err := Upstream(cause, "solver failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "solver failed: exit status 2", err.Error())
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(InvalidArgument("bad")))
	assert.True(t, IsClientError(Conflict("overlap")))
	assert.False(t, IsClientError(Upstream(nil, "timeout")))
	assert.False(t, IsClientError(errors.New("db down")))
}
