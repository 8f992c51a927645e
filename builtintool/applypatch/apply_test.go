package applypatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApply_EmptyDiffIsNoOp(t *testing.T) {
	original := "line one\nline two\nline three"
	require.Equal(t, original, Apply(original, ""))
}

func TestApply_EmptyDiffOnEmptyOriginalIsNoOp(t *testing.T) {
	require.Equal(t, "", Apply("", ""))
}

func TestApply_BareContentForNewFile(t *testing.T) {
	diff := "--- /dev/null\n+++ b/new.txt\n+hello\n+world"
	require.Equal(t, "hello\nworld", Apply("", diff))
}

func TestApply_SingleHunkReplacesLine(t *testing.T) {
	original := "one\ntwo\nthree"
	diff := "@@ -2,1 +2,1 @@\n-two\n+TWO"
	require.Equal(t, "one\nTWO\nthree", Apply(original, diff))
}

func TestApply_HunkInsertsAndPreservesTail(t *testing.T) {
	original := "a\nb\nc"
	diff := "@@ -1,1 +1,2 @@\n a\n+inserted"
	require.Equal(t, "a\ninserted\nb\nc", Apply(original, diff))
}

func TestParseDiff_EmptyDiffHasZeroHunks(t *testing.T) {
	require.Empty(t, ParseDiff(""))
}
