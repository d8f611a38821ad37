package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestIsPreconditionFailure(t *testing.T) {
	assert.True(t, isPreconditionFailure(&smithy.GenericAPIError{Code: "PreconditionFailed"}))
	assert.True(t, isPreconditionFailure(fmt.Errorf("put: %w", &smithy.GenericAPIError{Code: "ConditionalRequestConflict"})))
	assert.False(t, isPreconditionFailure(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isPreconditionFailure(errors.New("connection reset")))
}

func TestS3ObjectKeys(t *testing.T) {
	g := &S3Gateway{bucket: "games", prefix: "arena/"}
	assert.Equal(t, "arena/gameData", g.objectKey("gameData"))
	assert.Equal(t, BackendS3, g.Backend())
}
