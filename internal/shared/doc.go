// Package shared holds code used by more than one package that belongs to no
// pipeline stage.
//
// The testutil subpackage provides test fixtures. WriteTree lays out export
// shards under a temporary root. NewLogCapture records slog output, including
// attributes bound with Logger.With and the run's trace_id.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    root := t.TempDir()
//	    testutil.WriteTree(t, root, map[string]string{"2024-01/a.csv": "X\n1\n"})
//	    logger, logs := testutil.NewLogCapture(t)
//	    ...
//	    logs.AssertContains(t, slog.LevelWarn, "Skipping")
//	}
package shared
