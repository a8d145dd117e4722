package walk

// Action is what a consumer callback returns for a visited Entry,
// telling the traversal engine how to proceed.
type Action int

const (
	// Continue proceeds normally: recurse into directories, visit
	// the next sibling.
	Continue Action = iota
	// SkipSubtree visits no further descendants of this entry (only
	// meaningful for directories; a no-op otherwise).
	SkipSubtree
	// SkipSiblings abandons the remaining entries in this entry's
	// directory, as if its readdir cursor had been exhausted.
	SkipSiblings
	// Stop halts the whole traversal once in-flight I/O drains.
	Stop
)

// Consumer is invoked once per in-scope Entry (twice, Pre then Post,
// in post-order mode for directories within maxdepth).
type Consumer func(*Entry) Action
