// Package version records versioning information about this module.
package version

import (
	"regexp"
	"runtime/debug"
)

// GitVersion is set at build time with
// -ldflags "-X github.com/sentrytypes/sentrytypes/version.GitVersion=$(git describe --tags --dirty)".
var GitVersion string = "unknown"

// Revision is the vcs revision recorded in the build info, if any.
var Revision string

var reVersion = regexp.MustCompile(`^(v\d+\.\d+.\d+)(?:-)?(.+)?$`)

func init() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for i := range bi.Settings {
		if bi.Settings[i].Key == "vcs.revision" {
			Revision = bi.Settings[i].Value
			break
		}
	}
}

// String formats the version in semver format, see semver.org
func String() string {
	gitVersion := GitVersion
	if gitVersion == "unknown" && Revision != "" {
		gitVersion = Revision
	}
	matches := reVersion.FindStringSubmatch(gitVersion)
	if matches == nil || len(matches) < 3 {
		return "v0.0.0+" + gitVersion
	}

	if matches[2] == "" {
		return matches[1]
	}
	return matches[1] + "+" + matches[2]
}
