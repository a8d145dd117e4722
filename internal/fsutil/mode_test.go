package fsutil

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModeOctalExact(t *testing.T) {
	spec, err := ParseMode("644")
	require.NoError(t, err)
	assert.Equal(t, PermExact, spec.Kind)
	assert.True(t, spec.Match(0644, false))
	assert.False(t, spec.Match(0640, false))
}

func TestParseModeOctalAll(t *testing.T) {
	spec, err := ParseMode("-200")
	require.NoError(t, err)
	assert.Equal(t, PermAll, spec.Kind)
	assert.True(t, spec.Match(0644, false))
	assert.False(t, spec.Match(0400, false))
}

func TestParseModeOctalAny(t *testing.T) {
	spec, err := ParseMode("/222")
	require.NoError(t, err)
	assert.Equal(t, PermAny, spec.Kind)
	assert.True(t, spec.Match(0644, false))
	assert.False(t, spec.Match(0444, false))
}

func TestParseModeOctalAnyZeroMatchesUnconditionally(t *testing.T) {
	spec, err := ParseMode("/000")
	require.NoError(t, err)
	assert.True(t, spec.Match(0, false))
}

func TestParseModeSymbolic(t *testing.T) {
	spec, err := ParseMode("u+x")
	require.NoError(t, err)
	assert.True(t, spec.Match(0100, false))
}

func TestParseModeInvalid(t *testing.T) {
	_, err := ParseMode("999")
	assert.Error(t, err)
	_, err = ParseMode("")
	assert.Error(t, err)
	_, err = ParseMode("z+r")
	assert.Error(t, err)
}

func TestApplySymbolicSetBits(t *testing.T) {
	got, err := ApplySymbolic(0, "u+rwx,g+rx,o+r", false)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0754), got)
}

func TestApplySymbolicEquals(t *testing.T) {
	got, err := ApplySymbolic(0777, "o=", false)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0770), got)
}

func TestApplySymbolicAllWhenOmitted(t *testing.T) {
	got, err := ApplySymbolic(0, "+x", false)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0111), got)
}

func TestApplySymbolicConditionalExecute(t *testing.T) {
	notExec, err := ApplySymbolic(0644, "u+X", false)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0644), notExec)

	dirExec, err := ApplySymbolic(0644, "u+X", true)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0744), dirExec)

	alreadyExec, err := ApplySymbolic(0744, "g+X", false)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0754), alreadyExec)
}

func TestApplySymbolicSetuidSticky(t *testing.T) {
	got, err := ApplySymbolic(0, "u+s,+t", false)
	require.NoError(t, err)
	assert.Equal(t, fs.ModeSetuid|fs.ModeSticky, got)
}

func TestApplySymbolicMissingOperator(t *testing.T) {
	_, err := ApplySymbolic(0, "u", false)
	assert.Error(t, err)
}
