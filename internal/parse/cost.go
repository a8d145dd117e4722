package parse

// Relative per-evaluation costs the optimizer's O3 pass sorts pure
// AND/OR chains by (§9): a bare name/path comparison is cheap, a stat
// syscall is moderate, and anything that performs I/O of its own
// (writing output, spawning a process) is the most expensive.
const (
	costFast  = 40
	costStat  = 1000
	costPrint = 20000
)
