package settings

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RunSetup runs the interactive first-run wizard, prompting on out and
// reading answers from in. current supplies the defaults shown for each
// prompt. The returned settings are validated but not saved.
func RunSetup(in io.Reader, out io.Writer, current Settings) (Settings, error) {
	r := bufio.NewReader(in)
	eof := false

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return "", err
			}
			eof = true
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	s := current

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │     locus — first-time setup    │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	prompts := []struct {
		name, label string
	}{
		{"session-length", "  Focus session length (e.g. 25m)"},
		{"break-length", "  Break length (e.g. 5m)"},
		{"sessions", "  Sessions per run"},
		{"min-activity", "  Minimum time on a window before it counts (e.g. 5s)"},
		{"accent-color", "  Accent colour (#rrggbb)"},
	}
	for _, p := range prompts {
		def, err := s.Get(p.name)
		if err != nil {
			return current, err
		}
		for {
			ans, err := ask(p.label, def)
			if err != nil {
				return current, err
			}
			candidate := s
			err = candidate.Set(p.name, ans)
			if err == nil {
				err = candidate.Validate()
			}
			if err != nil {
				if eof {
					return current, err
				}
				fmt.Fprintf(out, "  %v\n", err)
				continue
			}
			s = candidate
			break
		}
	}

	fmt.Fprintln(out)
	return s, nil
}
