package errors

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatErrorPlain(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		err  *CLIError
		want string
	}{
		"nil": {
			err:  nil,
			want: "",
		},
		"message only": {
			err:  NewRuntimeError("poller did not start"),
			want: "Runtime Error: poller did not start\n",
		},
		"usage and remediation": {
			err: NewArgumentErrorWithUsage("employee ID is required", "tasknotify login <employee-id>",
				"pass your CRM employee ID", "or set TASKNOTIFY_EMPLOYEE_ID"),
			want: "Argument Error: employee ID is required\n" +
				"\nUsage: tasknotify login <employee-id>\n" +
				"\nTo fix this:\n" +
				"  1. pass your CRM employee ID\n" +
				"  2. or set TASKNOTIFY_EMPLOYEE_ID\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatErrorPlain(tt.err))
		})
	}
}

func TestFormatError_ContainsParts(t *testing.T) {
	t.Parallel()
	err := NewConfigError("invalid timezone", "use an IANA name such as Asia/Kolkata")
	err.Usage = "tasknotify --config <file>"

	out := FormatError(err)
	for _, part := range []string{"Configuration Error", "invalid timezone", "Usage:", "To fix this:", "Asia/Kolkata"} {
		assert.Contains(t, out, part)
	}
	assert.Empty(t, FormatError(nil))
}

func TestFprintError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	FprintError(&buf, nil)
	assert.Zero(t, buf.Len())

	FprintError(&buf, NewPrerequisiteError("notify-send not found"))
	assert.Contains(t, buf.String(), "notify-send not found")
	assert.Equal(t, 1, strings.Count(buf.String(), "Prerequisite Error"))
}

func TestPrintError_NoPanic(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		PrintError(nil)
	})
}

func TestFormatSimpleError(t *testing.T) {
	t.Parallel()
	assert.Empty(t, FormatSimpleError(nil, Runtime))

	out := FormatSimpleError(errors.New("status 502"), Runtime)
	assert.Contains(t, out, "Runtime Error")
	assert.Contains(t, out, "status 502")
}
