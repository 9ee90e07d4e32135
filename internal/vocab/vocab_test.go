package vocab

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runnerFunc adapts a function to the Runner interface for tests.
type runnerFunc func(invocation []string) ([]byte, error)

func (f runnerFunc) Run(invocation []string) ([]byte, error) { return f(invocation) }

// stableRunner returns a fixed output per joined invocation.
func stableRunner(outputs map[string]string) Runner {
	return runnerFunc(func(invocation []string) ([]byte, error) {
		out, ok := outputs[strings.Join(invocation, " ")]
		if !ok {
			return nil, fmt.Errorf("unexpected invocation %v", invocation)
		}
		return []byte(out), nil
	})
}

func TestAddInvocationRejectsEmpty(t *testing.T) {
	st := New("date", stableRunner(nil), Options{})

	err := st.AddInvocation(nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Root)
}

func TestAddInvocationRejectsWrongRoot(t *testing.T) {
	st := New("date", stableRunner(nil), Options{})

	err := st.AddInvocation([]string{"ls", "-al"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"ls", "-al"}, verr.Invocation)
	assert.Equal(t, Summary{}, st.Summarize(), "failed validation must not mutate the store")
}

func TestAddInvocationAcceptsFullPathRoot(t *testing.T) {
	st := New("date", stableRunner(map[string]string{
		"/usr/bin/date": "Mon Jan  1 00:00:00 UTC 2024\n",
	}), Options{})

	require.NoError(t, st.AddInvocation([]string{"/usr/bin/date"}))
	assert.Equal(t, Summary{Invocations: 1, Outputs: 1, MapEntries: 1}, st.Summarize())
}

func TestAddInvocationRejectsNonPathSuffix(t *testing.T) {
	// "gdate" ends with "date" but is a different command; only a path
	// separator boundary counts.
	st := New("date", stableRunner(nil), Options{})

	err := st.AddInvocation([]string{"gdate"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAddInvocationIdempotent(t *testing.T) {
	run := stableRunner(map[string]string{"ls -al": "total 0\n"})
	st := New("ls", run, Options{})

	require.NoError(t, st.AddInvocation([]string{"ls", "-al"}))
	once := st.Summarize()
	require.NoError(t, st.AddInvocation([]string{"ls", "-al"}))

	assert.Equal(t, once, st.Summarize())
	assert.Equal(t, Summary{Invocations: 1, Outputs: 1, MapEntries: 1}, once)
}

func TestOutputDeduplication(t *testing.T) {
	// Two distinct invocations with byte-identical output share one
	// outputs entry, and both call map entries point at it.
	listing := "total 8\ndrwxr-xr-x  2 root root 4096 Jan  1 00:00 .\n"
	run := stableRunner(map[string]string{
		"ls -al":   listing,
		"ls -a -l": listing,
	})
	st := New("ls", run, Options{})

	require.NoError(t, st.AddInvocation([]string{"ls", "-al"}))
	require.NoError(t, st.AddInvocation([]string{"ls", "-a", "-l"}))

	assert.Equal(t, Summary{Invocations: 2, Outputs: 1, MapEntries: 2}, st.Summarize())

	outKey := OutputKey([]byte(listing))
	callMap := st.CallMap()
	assert.Equal(t, outKey, callMap[InvocationKey([]string{"-al"})])
	assert.Equal(t, outKey, callMap[InvocationKey([]string{"-a", "-l"})])
}

func TestDriftWarnsAndKeepsNewestOutput(t *testing.T) {
	outputs := []string{"12:00:00\n", "12:00:01\n"}
	calls := 0
	run := runnerFunc(func(invocation []string) ([]byte, error) {
		out := outputs[calls]
		calls++
		return []byte(out), nil
	})

	var warnings []string
	st := New("date", run, Options{Logf: func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}})

	require.NoError(t, st.AddInvocation([]string{"date"}))
	require.Empty(t, warnings)
	require.NoError(t, st.AddInvocation([]string{"date"}))

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "equivalent invocation")

	// Newest observation wins in the call map; the older output is kept.
	assert.Equal(t, Summary{Invocations: 1, Outputs: 2, MapEntries: 1}, st.Summarize())
	assert.Equal(t, OutputKey([]byte("12:00:01\n")), st.CallMap()[InvocationKey(nil)])
	assert.Contains(t, st.Outputs(), OutputKey([]byte("12:00:00\n")))
}

func TestRunnerErrorPropagates(t *testing.T) {
	boom := fmt.Errorf("no such binary")
	run := runnerFunc(func(invocation []string) ([]byte, error) { return nil, boom })
	st := New("date", run, Options{})

	err := st.AddInvocation([]string{"date"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Summary{}, st.Summarize())
}

func TestSerializeDeterministicAndSorted(t *testing.T) {
	st := New("ls", nil, Options{})
	st.Record([]string{"-al"}, []byte("b\n"))
	st.Record([]string{"-a", "-l"}, []byte("a\n"))
	st.Record(nil, []byte("c\n"))

	cm1, out1 := st.Serialize()
	cm2, out2 := st.Serialize()
	assert.Equal(t, cm1, cm2)
	assert.Equal(t, out1, out2)

	// One "<key> <value>" entry per line, keys in sorted order.
	cmLines := strings.Split(strings.TrimRight(cm1, "\n"), "\n")
	require.Len(t, cmLines, 3)
	for i := 1; i < len(cmLines); i++ {
		assert.Less(t, cmLines[i-1], cmLines[i])
	}
	outLines := strings.Split(strings.TrimRight(out1, "\n"), "\n")
	require.Len(t, outLines, 3)
	for _, line := range outLines {
		assert.Len(t, strings.Fields(line), 2)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	st := New("ls", nil, Options{})
	st.Record([]string{"-al"}, []byte("total 0\n"))

	inv := st.Invocations()
	for k := range inv {
		inv[k] = []string{"mutated"}
	}
	out := st.Outputs()
	for k := range out {
		out[k][0] = 'X'
	}
	cm := st.CallMap()
	for k := range cm {
		cm[k] = "mutated"
	}

	_, fresh := st.Serialize()
	assert.NotContains(t, fresh, "mutated")
	assert.Equal(t, st.Outputs()[OutputKey([]byte("total 0\n"))], []byte("total 0\n"))
}
