// Package version tells which build of patchbay is running.
package version

import "runtime/debug"

// Version is set at build time, e.g.
// go build -ldflags "-X github.com/vsariola/patchbay/version.Version=$(git describe --dirty)"
var Version string

// VersionOrHash is Version, or when it was not set, the module version of a
// go install build or the short VCS revision of a local build.
var VersionOrHash = func() string {
	info, _ := debug.ReadBuildInfo()
	return resolve(Version, info)
}()

func resolve(version string, info *debug.BuildInfo) string {
	if version != "" {
		return version
	}
	if info == nil {
		return "unknown"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	var revision string
	modified := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision == "" {
		return "devel"
	}
	revision = revision[:min(len(revision), 7)]
	if modified {
		revision += "-dirty"
	}
	return revision
}
