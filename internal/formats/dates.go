package formats

import (
	"fmt"
	"strings"
)

const DefaultOutputLayout = "2006-01-02 15:04:05"

var DefaultDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"2-Jan-2006",
}

var strftime = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'e': "_2",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'%': "%",
}

// toLayout converts strftime directives ("%Y-%m-%d") to a Go layout.
// Strings without '%' are taken as Go layouts already.
func toLayout(format string) (string, error) {
	if !strings.Contains(format, "%") {
		return format, nil
	}
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			continue
		}
		if i+1 >= len(format) {
			return "", fmt.Errorf("date format %q: dangling %%", format)
		}
		i++
		layout, ok := strftime[format[i]]
		if !ok {
			return "", fmt.Errorf("date format %q: unsupported directive %%%c", format, format[i])
		}
		b.WriteString(layout)
	}
	return b.String(), nil
}
