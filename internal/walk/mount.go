package walk

// crossesMount reports whether dev differs from the device the
// traversal root started on, i.e. whether recursing into it would
// leave the root's filesystem.
func crossesMount(rootDev, dev uint64) bool {
	return rootDev != dev
}
