package apierr_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentnet/hub/internal/apierr"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, apierr.StatusCode(apierr.NotFound("room %q not found", "lab")))
	assert.Equal(t, http.StatusBadRequest, apierr.StatusCode(apierr.Validation("missing content")))
	assert.Equal(t, http.StatusInternalServerError, apierr.StatusCode(apierr.Store(errors.New("disk full"), "write message")))
	assert.Equal(t, http.StatusInternalServerError, apierr.StatusCode(errors.New("unrelated")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := apierr.Store(cause, "write message")
	assert.ErrorIs(t, err, cause)
}
