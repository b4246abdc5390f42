package pycat

import (
	_ "embed"
	"strings"
)

//go:embed stdlib/python.txt
var stdlibData string

var stdlibModules = map[string]bool{}

func init() {
	for _, line := range strings.Split(stdlibData, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			stdlibModules[line] = true
		}
	}
}

// IsStdlibModule reports whether the top-level module name ships with the
// interpreter.
func IsStdlibModule(name string) bool {
	return stdlibModules[name]
}
