package chatdb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/curioswitch/modalchat/internal/fault"
)

func TestTranslateErrPermissionDenied(t *testing.T) {
	err := translateErr(status.Error(codes.PermissionDenied, "Missing or insufficient permissions."))
	assert.Equal(t, fault.KindPermission, fault.KindOf(err))
	assert.Contains(t, fault.Message(err), "security rules")
}

func TestTranslateErrPassthrough(t *testing.T) {
	orig := errors.New("connection reset")
	assert.Same(t, orig, translateErr(orig))

	notFound := status.Error(codes.NotFound, "no such document")
	assert.Empty(t, fault.KindOf(translateErr(notFound)))
}
