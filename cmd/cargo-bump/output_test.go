package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dephub/cargo-bump/providers/versioneer"
	"github.com/dephub/cargo-bump/release"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "usage")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "usage"))))
}

func TestExitError(t *testing.T) {
	err := WrapExitError(ExitFailure, "loading workspace", io.ErrUnexpectedEOF)
	assert.EqualError(t, err, "loading workspace: unexpected EOF")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.EqualError(t, NewExitError(ExitFailure, "plain"), "plain")
}

func TestErrorCode(t *testing.T) {
	_, parseErr := versioneer.ParseVersion("1")
	_, opErr := versioneer.ParseRequirement("~>1.0")

	cases := []struct {
		Name string
		Err  error
		Want string
	}{
		{"op", WrapExitError(ExitFailure, "x", &release.OpError{Op: "release.load", Kind: release.KindInvalidManifest}), "invalid_manifest"},
		{"operator", WrapExitError(ExitCommandError, "x", opErr), "unsupported_operator"},
		{"parse", WrapExitError(ExitCommandError, "x", parseErr), "parse"},
		{"usage", NewExitError(ExitCommandError, "x"), "usage"},
		{"failure", errors.New("x"), "failure"},
	}
	for _, tcase := range cases {
		t.Run(tcase.Name, func(t *testing.T) {
			assert.Equal(t, tcase.Want, errorCode(tcase.Err))
		})
	}
}

func TestOutputFormatter_text(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut}

	require.NoError(t, f.Success(map[string]int{"n": 1}, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello\n")
		return err
	}))
	f.Note("skipped %s", "cli")
	require.NoError(t, f.Error(errors.New("boom")))

	assert.Equal(t, "hello\n", out.String())
	assert.Equal(t, "skipped cli\nError: boom\n", errOut.String())
}

func TestOutputFormatter_json(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out}

	require.NoError(t, f.Success(map[string]int{"n": 1}, nil))
	f.Note("never printed")
	assert.Equal(t, "{\n  \"status\": \"ok\",\n  \"data\": {\n    \"n\": 1\n  }\n}\n", out.String())

	out.Reset()
	require.NoError(t, f.Error(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, CLIError{Code: "usage", Message: "bad"}, decodeError(t, out.String()))
}

func TestOutputFormatter_GetErrWriter(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Writer: &out}
	assert.Same(t, &out, f.GetErrWriter())
}
