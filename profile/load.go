package profile

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	rerrors "github.com/wippyai/retarget/errors"
)

// DefaultBoard is the builtin profile used when none is given.
const DefaultBoard = "ch32f103c8-core"

//go:embed boards
var boards embed.FS

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} with environment values.
// Unset variables without a default expand to the empty string.
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if value, ok := os.LookupEnv(groups[1]); ok && value != "" {
			return value
		}
		if len(groups) >= 3 {
			return groups[2]
		}
		return ""
	})
}

// ParseHeader reads #define lines from an rtconfig.h style header.
// Include guards, other directives and comments are ignored.
func ParseHeader(r io.Reader, name string) (*Profile, error) {
	p := New(name)
	sc := bufio.NewScanner(r)
	inComment := false
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := sc.Text()
		line, inComment = stripComments(line, inComment)
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}

		directive := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if !strings.HasPrefix(directive, "define") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(directive, "define"))
		if len(fields) == 0 {
			return nil, rerrors.InvalidInput(rerrors.PhaseProfile,
				fmt.Sprintf("%s:%d: #define without a symbol", name, lineNo))
		}
		sym := fields[0]
		if strings.HasSuffix(sym, "__") && len(fields) == 1 {
			continue
		}
		p.Define(sym, strings.Join(fields[1:], " "))
	}
	if err := sc.Err(); err != nil {
		return nil, rerrors.Wrap(rerrors.PhaseProfile, rerrors.KindInvalidInput, err, name)
	}
	return p, nil
}

// stripComments removes /* */ and // comments, tracking block comments
// that span lines.
func stripComments(line string, inComment bool) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		if inComment {
			if strings.HasPrefix(line[i:], "*/") {
				inComment = false
				i++
			}
			continue
		}
		if strings.HasPrefix(line[i:], "/*") {
			inComment = true
			i++
			continue
		}
		if strings.HasPrefix(line[i:], "//") {
			break
		}
		b.WriteByte(line[i])
	}
	return b.String(), inComment
}

type yamlProfile struct {
	Name    string         `yaml:"name"`
	Defines map[string]any `yaml:"defines"`
}

// ParseYAML reads a YAML profile after environment expansion.
// A define set to true or null is a flag; false leaves it undefined.
func ParseYAML(data []byte) (*Profile, error) {
	var raw yamlProfile
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), &raw); err != nil {
		return nil, rerrors.Wrap(rerrors.PhaseProfile, rerrors.KindInvalidInput, err, "invalid YAML profile")
	}

	p := New(raw.Name)
	for sym, v := range raw.Defines {
		switch val := v.(type) {
		case nil:
			p.Define(sym, "")
		case bool:
			if val {
				p.Define(sym, "")
			}
		default:
			p.Define(sym, fmt.Sprint(val))
		}
	}
	return p, nil
}

// Load reads a profile file, choosing the format by extension.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, rerrors.NotFound(rerrors.PhaseProfile, "profile", path)
		}
		return nil, fmt.Errorf("cannot read profile %q: %w", path, err)
	}
	return parse(filepath.Base(path), data)
}

func parse(file string, data []byte) (*Profile, error) {
	ext := filepath.Ext(file)
	switch ext {
	case ".yaml", ".yml":
		p, err := ParseYAML(data)
		if err != nil {
			return nil, err
		}
		if p.Name == "" {
			p.Name = strings.TrimSuffix(file, ext)
		}
		return p, nil
	case ".h":
		return ParseHeader(bytes.NewReader(data), strings.TrimSuffix(file, ext))
	default:
		return nil, rerrors.InvalidInput(rerrors.PhaseProfile, "unknown profile format "+file)
	}
}

// Builtins lists the embedded board profiles.
func Builtins() []string {
	entries, err := boards.ReadDir("boards")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Builtin returns an embedded board profile by name.
func Builtin(name string) (*Profile, error) {
	entries, err := boards.ReadDir("boards")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())) != name {
			continue
		}
		data, err := boards.ReadFile("boards/" + e.Name())
		if err != nil {
			return nil, err
		}
		return parse(e.Name(), data)
	}
	return nil, rerrors.NotFound(rerrors.PhaseProfile, "builtin profile", name)
}

// Resolve loads ref as a builtin name or, failing that, as a file path.
// An empty ref selects DefaultBoard.
func Resolve(ref string) (*Profile, error) {
	if ref == "" {
		ref = DefaultBoard
	}
	if p, err := Builtin(ref); err == nil {
		return p, nil
	}
	return Load(ref)
}
