package version

import "runtime/debug"

var Revision string

// Modified is true when the binary was built from a dirty tree.
var Modified bool

func init() {
	Revision = "<unknown>"
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			Revision = setting.Value
		case "vcs.modified":
			Modified = setting.Value == "true"
		}
	}
}

// Short - the first 12 characters of the revision, suffixed with "-dirty" for modified builds.
func Short() string {
	rev := Revision
	if len(rev) > 12 && rev != "<unknown>" {
		rev = rev[:12]
	}
	if Modified {
		rev += "-dirty"
	}
	return rev
}
