package vocab

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeDeterminism(t *testing.T) {
	a := []string{"-a", "-l", "--color=auto"}
	b := []string{"-a", "-l", "--color=auto"}

	assert.Equal(t, Canonicalize(a), Canonicalize(b))
	assert.Equal(t, InvocationKey(a), InvocationKey(b))
}

func TestCanonicalizeNoConcatenationCollisions(t *testing.T) {
	// Plain concatenation would make these collide.
	cases := [][2][]string{
		{{"ab", "c"}, {"a", "bc"}},
		{{"abc"}, {"ab", "c"}},
		{{"", "x"}, {"x", ""}},
		{{"a", "b", "c"}, {"a b c"}},
	}
	for _, c := range cases {
		assert.NotEqual(t, Canonicalize(c[0]), Canonicalize(c[1]), "%v vs %v", c[0], c[1])
		assert.NotEqual(t, InvocationKey(c[0]), InvocationKey(c[1]), "%v vs %v", c[0], c[1])
	}
}

func TestCanonicalizeMatchesShellEncoding(t *testing.T) {
	// The replay script streams each argument followed by a NUL byte.
	assert.Equal(t, []byte("ab\x00c\x00"), Canonicalize([]string{"ab", "c"}))
	assert.Equal(t, "629c2f14f654f026086f2aefe1855533d0897f49df86a19073be17b237361b09",
		string(InvocationKey([]string{"ab", "c"})))
}

func TestEmptyArgumentsHashEmptyInput(t *testing.T) {
	// An invocation with no arguments keys on the digest of the empty
	// string, not on an omitted entry.
	require.Empty(t, Canonicalize(nil))
	require.Empty(t, Canonicalize([]string{}))

	emptySum := sha256.Sum256(nil)
	want := Key(hex.EncodeToString(emptySum[:]))
	assert.Equal(t, want, InvocationKey(nil))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", string(want))
}

func TestOutputKey(t *testing.T) {
	one := OutputKey([]byte("hello\n"))
	two := OutputKey([]byte("hello\n"))
	other := OutputKey([]byte("hello"))

	assert.Equal(t, one, two)
	assert.NotEqual(t, one, other)
	assert.Len(t, string(one), 64)
}
