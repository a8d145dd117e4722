package parse

import "github.com/bfswalk/bfs/internal/expr"

// optionTable holds the positional and global options: tokens that
// mutate parser or context state and contribute TRUE to the tree
// rather than a real test.
var optionTable = map[string]func(*Parser) error{}

// testOrActionTable holds every test and action that is looked up by
// exact name (everything except the -newerXY family, matched
// separately by matchNewerXY's prefix rule).
var testOrActionTable = map[string]func(*Parser) (*expr.Node, error){}

// allPredicateNames lists every token the dispatch tables and the
// -newerXY family recognize, for unknownPredicate's typo suggestion.
func allPredicateNames() []string {
	names := make([]string, 0, len(optionTable)+len(testOrActionTable)+len(newerXYChars)*len(newerXYChars))
	for name := range optionTable {
		names = append(names, name)
	}
	for name := range testOrActionTable {
		names = append(names, name)
	}
	for _, x := range newerXYChars {
		for _, y := range newerXYChars {
			names = append(names, "-newer"+string(x)+string(y))
		}
	}
	return names
}
