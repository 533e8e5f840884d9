package search

import (
	"bufio"
	"regexp"
	"strings"
)

// speakerRE matches a leading speaker label such as "AI:", "User:" or "bot :".
var speakerRE = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z ]{0,15})\s*:\s*`)

// SplitTurns splits a transcript into speaker turns with the speaker label
// removed. A line starting with a label opens a new turn; unlabeled lines
// continue the current one. Transcripts without labels are split on blank
// lines instead.
func SplitTurns(transcript string) []string {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}

	var (
		out     []string
		cur     strings.Builder
		labeled bool
	)
	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			out = append(out, t)
		}
		cur.Reset()
	}

	sc := bufio.NewScanner(strings.NewReader(transcript))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if !labeled {
				flush()
			}
			continue
		}
		if loc := speakerRE.FindStringIndex(line); loc != nil {
			labeled = true
			flush()
			line = line[loc[1]:]
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(line)
	}
	flush()
	return out
}
