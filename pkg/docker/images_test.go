package docker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuildOutput_CopiesStreamLines(t *testing.T) {
	input := strings.Join([]string{
		`{"stream":"Step 1/4 : FROM ubuntu:22.04\n"}`,
		`{"status":"Pulling from library/ubuntu"}`,
		`{"stream":"Successfully built abc123\n"}`,
	}, "\n")

	var logBuf strings.Builder
	err := parseBuildOutput(strings.NewReader(input), &logBuf)
	require.NoError(t, err)

	assert.Contains(t, logBuf.String(), "Step 1/4 : FROM ubuntu:22.04")
	assert.Contains(t, logBuf.String(), "Successfully built abc123")
}

func TestParseBuildOutput_SurfacesBuildError(t *testing.T) {
	input := strings.Join([]string{
		`{"stream":"Step 2/4 : RUN false\n"}`,
		`{"errorDetail":{"code":1,"message":"The command '/bin/sh -c false' returned a non-zero code: 1"},"error":"The command '/bin/sh -c false' returned a non-zero code: 1"}`,
	}, "\n")

	var logBuf strings.Builder
	err := parseBuildOutput(strings.NewReader(input), &logBuf)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "non-zero code: 1")
	// The failing step and the error both end up in the log.
	assert.Contains(t, logBuf.String(), "RUN false")
	assert.Contains(t, logBuf.String(), "non-zero code: 1")
}

func TestParseBuildOutput_IgnoresMalformedLines(t *testing.T) {
	input := "not-json\n" + `{"stream":"ok\n"}`

	var logBuf strings.Builder
	err := parseBuildOutput(strings.NewReader(input), &logBuf)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", logBuf.String())
}
