package cerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskforge/pkg/storage"
)

func TestCode_Mappings(t *testing.T) {
	assert.Equal(t, "FailedPrecondition", FailedPrecondition.String())
	assert.Equal(t, "Code(42)", Code(42).String())
	assert.Equal(t, connect.CodeAborted, Aborted.ConnectCode())
	assert.Equal(t, connect.CodeUnknown, Code(99).ConnectCode())
	assert.Equal(t, http.StatusConflict, Aborted.HTTPCode())
	assert.Equal(t, http.StatusTooManyRequests, ResourceExhausted.HTTPCode())
	assert.Equal(t, http.StatusInternalServerError, Code(-1).HTTPCode())
	assert.Equal(t, NotFound, NewCodeFromConnectError(connect.NewError(connect.CodeNotFound, errors.New("x"))))
	assert.Equal(t, Unknown, NewCodeFromConnectError(errors.New("plain")))
}

func TestError_UnwrapAndKind(t *testing.T) {
	sentinel := errors.New("conflict")
	err := NewKindError(Aborted, "CONFLICT", "task changed", fmt.Errorf("task t1: %w", sentinel))

	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, IsCode(err, Aborted))
	assert.False(t, IsCode(err, NotFound))
	assert.Equal(t, "CONFLICT", KindOf(err))
	assert.Equal(t, "CONFLICT", KindOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, "", KindOf(errors.New("plain")))
}

func TestKindOf_ConnectError(t *testing.T) {
	err := NewKindError(ResourceExhausted, "ATTEMPT_CEILING_EXCEEDED", "too many attempts", nil)
	connectErr := err.ConnectError()

	assert.Equal(t, connect.CodeResourceExhausted, connectErr.Code())
	assert.Equal(t, "ATTEMPT_CEILING_EXCEEDED", KindOf(connectErr))
}

func TestExtractConnectError(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ExtractConnectError(ctx, nil))

	got := ExtractConnectError(ctx, context.Canceled)
	assert.Equal(t, connect.CodeCanceled, connect.CodeOf(got))

	got = ExtractConnectError(ctx, errors.New("boom"))
	assert.Equal(t, connect.CodeUnknown, connect.CodeOf(got))
}

func TestWrapStorageReadError(t *testing.T) {
	err := WrapStorageReadError("task", fmt.Errorf("tasks/x.yaml: %w", storage.ErrNotFound))
	assert.True(t, IsCode(err, NotFound))
	assert.Equal(t, "NOT_FOUND", KindOf(err))

	err = WrapStorageReadError("task", errors.New("disk"))
	assert.True(t, IsCode(err, Internal))
}

func TestChiMiddleware(t *testing.T) {
	mw := NewConvertConnectErrorChiMiddleware()

	t.Run("response", func(t *testing.T) {
		h := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			SetJSONResponse(r.Context(), map[string]string{"id": "t1"})
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":"t1"}`, rec.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		h := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			SetJSONError(r.Context(), NewKindError(Aborted, "CONFLICT", "task changed", nil))
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"code":"Aborted","message":"task changed","kind":"CONFLICT"}`, rec.Body.String())
	})
}
