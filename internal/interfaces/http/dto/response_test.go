package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse_JSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponseWithRequestID(ErrCodeForbidden, "Verification failed", "req-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"FORBIDDEN","message":"Verification failed"},"request_id":"req-1"}`, string(data))
}

func TestSuccessResponse_OmitsError(t *testing.T) {
	data, err := json.Marshal(NewSuccessResponse(map[string]string{"status": "ok"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, string(data))
}
