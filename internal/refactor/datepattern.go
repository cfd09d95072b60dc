package refactor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDateFormat is used for a bare {{date}} token.
const DefaultDateFormat = "YYYYMMDDHHmm"

var dateTokenRe = regexp.MustCompile(`\{\{date:?([^}]*)\}\}`)

// ReplaceDates substitutes every {{date}} and {{date:FORMAT}} token in s
// with now formatted per the moment-style FORMAT.
func ReplaceDates(s string, now time.Time) string {
	return dateTokenRe.ReplaceAllStringFunc(s, func(token string) string {
		format := dateTokenRe.FindStringSubmatch(token)[1]
		if format == "" {
			format = DefaultDateFormat
		}
		return FormatMoment(now, format)
	})
}

// momentTokens is ordered longest first within each leading letter so the
// scanner always takes the longest match.
var momentTokens = []string{
	"YYYY", "YY",
	"Q",
	"MMMM", "MMM", "MM", "M",
	"Do", "DDDD", "DDD", "DD", "D",
	"dddd", "ddd", "dd", "d",
	"E",
	"WW", "W",
	"GGGG",
	"HH", "H",
	"hh", "h",
	"kk", "k",
	"mm", "m",
	"ss", "s",
	"SSS", "SS", "S",
	"A", "a",
	"ZZ", "Z",
	"X", "x",
}

// FormatMoment formats t using a moment.js style layout. Text inside
// square brackets is copied verbatim; characters that are not tokens are
// copied as is.
func FormatMoment(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i+1:], ']')
			if end < 0 {
				b.WriteString(format[i:])
				break
			}
			b.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, tok := range momentTokens {
			if strings.HasPrefix(format[i:], tok) {
				b.WriteString(momentValue(t, tok))
				i += len(tok)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}

func momentValue(t time.Time, tok string) string {
	switch tok {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "Q":
		return strconv.Itoa((int(t.Month())-1)/3 + 1)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "Do":
		return ordinal(t.Day())
	case "DDDD":
		return fmt.Sprintf("%03d", t.YearDay())
	case "DDD":
		return strconv.Itoa(t.YearDay())
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "dddd":
		return t.Weekday().String()
	case "ddd":
		return t.Weekday().String()[:3]
	case "dd":
		return t.Weekday().String()[:2]
	case "d":
		return strconv.Itoa(int(t.Weekday()))
	case "E":
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return strconv.Itoa(wd)
	case "WW":
		_, w := t.ISOWeek()
		return fmt.Sprintf("%02d", w)
	case "W":
		_, w := t.ISOWeek()
		return strconv.Itoa(w)
	case "GGGG":
		y, _ := t.ISOWeek()
		return fmt.Sprintf("%04d", y)
	case "HH":
		return fmt.Sprintf("%02d", t.Hour())
	case "H":
		return strconv.Itoa(t.Hour())
	case "hh":
		return fmt.Sprintf("%02d", hour12(t))
	case "h":
		return strconv.Itoa(hour12(t))
	case "kk":
		return fmt.Sprintf("%02d", hour24From1(t))
	case "k":
		return strconv.Itoa(hour24From1(t))
	case "mm":
		return fmt.Sprintf("%02d", t.Minute())
	case "m":
		return strconv.Itoa(t.Minute())
	case "ss":
		return fmt.Sprintf("%02d", t.Second())
	case "s":
		return strconv.Itoa(t.Second())
	case "SSS":
		return fmt.Sprintf("%03d", t.Nanosecond()/1e6)
	case "SS":
		return fmt.Sprintf("%02d", t.Nanosecond()/1e7)
	case "S":
		return strconv.Itoa(t.Nanosecond() / 1e8)
	case "A":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "a":
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	case "ZZ":
		return t.Format("-0700")
	case "Z":
		return t.Format("-07:00")
	case "X":
		return strconv.FormatInt(t.Unix(), 10)
	case "x":
		return strconv.FormatInt(t.UnixMilli(), 10)
	}
	return tok
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}

func hour24From1(t time.Time) int {
	if t.Hour() == 0 {
		return 24
	}
	return t.Hour()
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
