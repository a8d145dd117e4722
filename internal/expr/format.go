package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bfswalk/bfs/internal/walk"
)

// DefaultFormatter implements the handful of -printf directives this
// module's own tests exercise (%p path, %f basename, %d depth, %s
// size, %m permission bits, %% literal percent, and the \n \t escape
// sequences) — a minimal, self-contained stand-in for the full
// mini-language, which §1 places outside the core's scope.
func DefaultFormatter(format string, entry *walk.Entry) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case c == '%' && i+1 < len(format):
			i++
			switch format[i] {
			case 'p':
				b.WriteString(entry.Path)
			case 'f':
				b.WriteString(entry.Name())
			case 'd':
				b.WriteString(strconv.Itoa(entry.Depth))
			case 's':
				b.WriteString(strconv.FormatInt(entry.Stat.Size, 10))
			case 'm':
				fmt.Fprintf(&b, "%04o", entry.Stat.Mode.Perm())
			case '%':
				b.WriteByte('%')
			default:
				b.WriteByte('%')
				b.WriteByte(format[i])
			}
		case c == '\\' && i+1 < len(format):
			i++
			switch format[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte('\\')
				b.WriteByte(format[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
