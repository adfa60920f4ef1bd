package focus

import "strings"

// Icon is the glyph shown next to the focused window in the live view.
type Icon struct {
	Name  string
	Glyph string
}

// FallbackIcon is used when no table entry matches.
var FallbackIcon = Icon{Name: "unknown", Glyph: "◌"}

var customIcons = map[string]Icon{
	"firefox":              {"firefox", "🦊"},
	"google-chrome":        {"chrome", "◉"},
	"alacritty":            {"terminal", "❯"},
	"locus":                {"locus", "◎"},
	"vscode":               {"vscode", "⌨"},
	"obsidian":             {"obsidian", "◆"},
	"zed":                  {"zed", "ℤ"},
	"libreoffice":          {"libreoffice", "▤"},
	"vlc":                  {"vlc", "▶"},
	"gimp":                 {"gimp", "✎"},
	"simplescreenrecorder": {"recorder", "●"},
	"cpu":                  {"cpu", "▦"},
}

// genericIcons are matched by substring, in order.
var genericIcons = []struct {
	needle string
	icon   Icon
}{
	{"code", Icon{"code", "⌨"}},
	{"terminal", Icon{"terminal", "❯"}},
}

// IconFor picks an icon for a window identifier. Only the first three
// words of the lower-cased name are considered; exact word matches win over
// substring matches.
func IconFor(window string) Icon {
	words := strings.Fields(strings.ToLower(window))
	if len(words) > 3 {
		words = words[:3]
	}
	for _, w := range words {
		if icon, ok := customIcons[w]; ok {
			return icon
		}
	}
	name := strings.Join(words, " ")
	for _, g := range genericIcons {
		if strings.Contains(name, g.needle) {
			return g.icon
		}
	}
	return FallbackIcon
}
