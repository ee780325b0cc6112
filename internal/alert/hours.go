package alert

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Schedule evaluates whether a point in time falls within configured opening
// hours. It implements a minimal subset of the OSM opening_hours syntax:
//
//   - 24/7
//   - day ranges and lists: Mo-Fr, Sa-Su, Mo,We,Fr
//   - multiple rules separated by ';'
//   - time ranges per rule: HH:MM-HH:MM, comma or space separated
//   - 'off' marks the listed days closed
//
// Days a spec never mentions are closed. An empty spec is always open.
type Schedule struct {
	always bool
	days   [7][]span // 0 = Monday, minutes since midnight, [start,end)
}

type span struct {
	start, end int
}

var (
	timeRangeRe  = regexp.MustCompile(`(\d{1,2}):(\d{2})-(\d{1,2}):(\d{2})`)
	dayIndex     = map[string]int{"Mo": 0, "Tu": 1, "We": 2, "Th": 3, "Fr": 4, "Sa": 5, "Su": 6}
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ParseSchedule builds a Schedule from an opening-hours spec. Unparseable
// fragments are skipped rather than rejected.
func ParseSchedule(spec string) *Schedule {
	spec = strings.TrimSpace(spec)
	s := &Schedule{}
	if spec == "" || strings.EqualFold(spec, "24/7") {
		s.always = true
		return s
	}

	for _, rule := range strings.Split(spec, ";") {
		rule = strings.TrimSpace(whitespaceRe.ReplaceAllString(rule, " "))
		if rule == "" {
			continue
		}
		parts := strings.Split(rule, " ")

		var dayTokens []string
		var timeTokens []string
		if strings.ContainsAny(parts[0], "0123456789") {
			// No day spec: rule applies every day.
			dayTokens = nil
			timeTokens = parts
		} else {
			dayTokens = strings.Split(parts[0], ",")
			timeTokens = parts[1:]
		}

		days := expandDays(dayTokens)

		if containsOff(timeTokens) {
			for _, d := range days {
				s.days[d] = nil
			}
			continue
		}

		joined := strings.Join(timeTokens, ",")
		for _, m := range timeRangeRe.FindAllStringSubmatch(joined, -1) {
			h1, _ := strconv.Atoi(m[1])
			m1, _ := strconv.Atoi(m[2])
			h2, _ := strconv.Atoi(m[3])
			m2, _ := strconv.Atoi(m[4])
			start := h1*60 + m1
			end := h2*60 + m2
			if start >= 0 && start < 24*60 && end > start && end <= 24*60 {
				for _, d := range days {
					s.days[d] = append(s.days[d], span{start, end})
				}
			}
		}
	}

	for d := range s.days {
		s.days[d] = mergeSpans(s.days[d])
	}
	return s
}

// Open reports whether t falls inside the schedule. The caller converts t to
// the display timezone first.
func (s *Schedule) Open(t time.Time) bool {
	if s.always {
		return true
	}
	day := (int(t.Weekday()) + 6) % 7 // Monday = 0
	minute := t.Hour()*60 + t.Minute()
	for _, sp := range s.days[day] {
		if sp.start <= minute && minute < sp.end {
			return true
		}
	}
	return false
}

// expandDays resolves day tokens to Monday-based indexes. nil or unresolvable
// tokens fall back to all days.
func expandDays(tokens []string) []int {
	if tokens == nil {
		return allDays()
	}
	var days []int
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if a, b, found := strings.Cut(tok, "-"); found {
			ai, aok := dayIndex[a]
			bi, bok := dayIndex[b]
			if aok && bok {
				if ai <= bi {
					for d := ai; d <= bi; d++ {
						days = append(days, d)
					}
				} else { // wrap, e.g. Fr-Mo
					for d := ai; d < 7; d++ {
						days = append(days, d)
					}
					for d := 0; d <= bi; d++ {
						days = append(days, d)
					}
				}
			}
		} else if d, ok := dayIndex[tok]; ok {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return allDays()
	}
	return days
}

func allDays() []int {
	return []int{0, 1, 2, 3, 4, 5, 6}
}

func containsOff(tokens []string) bool {
	for _, t := range tokens {
		if strings.EqualFold(strings.TrimSpace(t), "off") {
			return true
		}
	}
	return false
}

func mergeSpans(spans []span) []span {
	if len(spans) < 2 {
		return spans
	}
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].start < sorted[j-1].start; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	merged := sorted[:1]
	for _, sp := range sorted[1:] {
		last := &merged[len(merged)-1]
		if sp.start > last.end {
			merged = append(merged, sp)
		} else if sp.end > last.end {
			last.end = sp.end
		}
	}
	return merged
}
