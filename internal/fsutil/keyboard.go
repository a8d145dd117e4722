// Package fsutil collects small, self-contained helpers shared by the
// parser and evaluator that don't belong to any one component: a
// QWERTY-distance typo suggester, size/mode argument parsing,
// and a qptrie-backed user/group name cache.
package fsutil

import "strings"

// keyboard rows approximate a US QWERTY layout; stagger between rows
// is ignored (the spec calls this an approximation, not a physical
// model), so distance is a plain column/row Manhattan sum.
var keyboardRows = []string{
	"`1234567890-=",
	" qwertyuiop[]\\",
	" asdfghjkl;'",
	" zxcvbnm,./",
}

type coord struct{ x, y int }

var keyboardCoords = buildKeyboardCoords()

func buildKeyboardCoords() map[byte]coord {
	m := make(map[byte]coord)
	for y, row := range keyboardRows {
		for x := 0; x < len(row); x++ {
			c := row[x]
			if c == ' ' {
				continue
			}
			m[c] = coord{x, y}
			if c >= 'a' && c <= 'z' {
				m[c-'a'+'A'] = coord{x, y}
			}
		}
	}
	return m
}

// substCost is the cost of substituting a for b: 0 if equal, else the
// Manhattan distance between their keyboard positions (a same-row or
// same-column typo is cheap; an unrelated pair falls back to a flat
// penalty so unmapped characters never compare as free).
func substCost(a, b byte) int {
	if a == b {
		return 0
	}
	ca, ok1 := keyboardCoords[a]
	cb, ok2 := keyboardCoords[b]
	if !ok1 || !ok2 {
		return insertDeleteCost
	}
	dx := ca.x - cb.x
	if dx < 0 {
		dx = -dx
	}
	dy := ca.y - cb.y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// insertDeleteCost is the fixed cost of inserting or deleting a
// character, per §6: high enough that two adjacent substitutions
// almost always beat an insert+delete pair, and that a transposition
// (handled separately) is cheaper still.
const insertDeleteCost = 12

// transposeCost makes swapping two adjacent characters cheaper than
// deleting one and re-inserting it elsewhere, so "-xtpye" (p/y
// swapped relative to "-xtype") prices out ahead of any edit that
// goes through a delete.
const transposeCost = 10

// Distance computes a Damerau-Levenshtein-style edit distance between
// a and b: substitution costed by keyboard proximity, insertion and
// deletion at a fixed cost, and adjacent transposition at a lower
// fixed cost.
func Distance(a, b string) int {
	la, lb := len(a), len(b)
	// d[i][j] holds the distance between a[:i] and b[:j].
	d := make([][]int, la+1)
	for i := range d {
		d[i] = make([]int, lb+1)
		d[i][0] = i * insertDeleteCost
	}
	for j := 0; j <= lb; j++ {
		d[0][j] = j * insertDeleteCost
	}
	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			del := d[i-1][j] + insertDeleteCost
			ins := d[i][j-1] + insertDeleteCost
			sub := d[i-1][j-1] + substCost(a[i-1], b[j-1])
			best := del
			if ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				trans := d[i-2][j-2] + transposeCost
				if trans < best {
					best = trans
				}
			}
			d[i][j] = best
		}
	}
	return d[la][lb]
}

// Suggest returns the candidate closest to input by Distance, and the
// distance itself, or ("", -1) if candidates is empty. Ties keep the
// first candidate encountered.
func Suggest(candidates []string, input string) (string, int) {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		dist := Distance(strings.ToLower(input), strings.ToLower(c))
		if bestDist < 0 || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best, bestDist
}
