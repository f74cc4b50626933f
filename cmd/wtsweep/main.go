package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
)

// Set at release build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(Execute())
}

// versionString describes the build. Binaries from `go install` carry no
// ldflags, so their module version and VCS stamp are used instead.
func versionString() string {
	v, c, d := version, commit, date
	if info, ok := debug.ReadBuildInfo(); ok && v == "dev" {
		if mv := info.Main.Version; mv != "" && mv != "(devel)" {
			v = mv
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				c = s.Value
			case "vcs.time":
				d = s.Value
			}
		}
	}
	return fmt.Sprintf("wtsweep %s (%s, %s, %s)", v, c[:min(7, len(c))], d, runtime.Version())
}
