package infra

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var initPC = caller()

func caller() Frame {
	var PCs [3]uintptr
	n := runtime.Callers(2, PCs[:])
	frames := runtime.CallersFrames(PCs[:n])
	frame, _ := frames.Next()
	return Frame(frame.PC)
}

func TestFrameFormat(t *testing.T) {
	testcases := []struct {
		Frame
		format string
		want   string
	}{
		{initPC, "%s", "err_stack_test.go"},
		{initPC, "%n", "init"},
		{initPC, "%d", "15"},
		{initPC, "%v", "err_stack_test.go:15"},
		{Frame(0), "%s", "unknownFile"},
		{Frame(0), "%n", "unknownFunc"},
		{Frame(0), "%d", "0"},
	}

	for _, tc := range testcases {
		frameRes := fmt.Sprintf(tc.format, tc.Frame)
		require.Equal(t, tc.want, frameRes)
	}

	full := fmt.Sprintf("%+v", initPC)
	require.True(t, strings.HasPrefix(full, "github.com/benz9527/xavl/lib/infra.init\n\t"))
	require.True(t, strings.HasSuffix(full, "err_stack_test.go:15"))
}

func TestFrameMarshal(t *testing.T) {
	text, err := initPC.MarshalText()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(text), "github.com/benz9527/xavl/lib/infra.init "))

	text, err = Frame(0).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "unknownFrame", string(text))

	_bytes, err := json.Marshal(Frame(0))
	require.NoError(t, err)
	require.Equal(t, "{\"frame\":\"unknownFrame\"}", string(_bytes))

	_bytes, err = json.Marshal(initPC)
	require.NoError(t, err)
	m := map[string]string{}
	require.NoError(t, json.Unmarshal(_bytes, &m))
	require.Equal(t, "github.com/benz9527/xavl/lib/infra.init", m["func"])
}

func TestNewErrorStack(t *testing.T) {
	es := NewErrorStack("[test] broken")
	require.Error(t, es)
	require.Equal(t, "[test] broken", es.Error())
	require.Nil(t, es.Unwrap())
	require.NotEmpty(t, es.Frames())
	require.Equal(t, "TestNewErrorStack", fmt.Sprintf("%n", es.Frames()[0]))
	require.Equal(t, "[test] broken", fmt.Sprintf("%s", es))
	require.True(t, strings.HasPrefix(fmt.Sprintf("%+v", es), "[test] broken\n"))
}

func TestWrapErrorStack(t *testing.T) {
	require.Nil(t, WrapErrorStack(nil))
	require.Nil(t, WrapErrorStackWithMessage(nil, "ignored"))

	cause := errors.New("cause")
	es := WrapErrorStack(cause)
	require.ErrorIs(t, es, cause)
	require.Equal(t, "cause", es.Error())

	es = WrapErrorStackWithMessage(cause, "wrapped")
	require.ErrorIs(t, es, cause)
	require.Equal(t, "wrapped: cause", es.Error())

	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, es.MarshalLogObject(enc))
	require.Equal(t, "wrapped: cause", enc.Fields["error"])
	frames, ok := enc.Fields["errorStack"].([]any)
	require.True(t, ok)
	require.Equal(t, len(es.Frames()), len(frames))
}
