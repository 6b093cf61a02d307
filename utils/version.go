package utils

import (
	"fmt"
	"runtime"
	"strings"
)

// These are set at build time using -ldflags
var (
	VersionMajor = "0"
	VersionMinor = "0"
	VersionPatch = "1"
	Branch       = "main"
	Commit       = "dev"
	BuildDate    = "unknown"
	BuildHash    = "unknown"
	Arch         = ""
)

// SetVersion overrides the build information. Empty arguments keep the defaults.
// version is expected as "major.minor.patch".
func SetVersion(version, branch, commit, buildDate, buildHash, arch string) {
	if version != "" {
		parts := strings.SplitN(version, ".", 3)
		if len(parts) == 3 {
			VersionMajor, VersionMinor, VersionPatch = parts[0], parts[1], parts[2]
		}
	}
	if branch != "" {
		Branch = branch
	}
	if commit != "" {
		Commit = commit
	}
	if buildDate != "" {
		BuildDate = buildDate
	}
	if buildHash != "" {
		BuildHash = buildHash
	}
	if arch != "" {
		Arch = arch
	}
}

// GetVersion constructs and returns the version information for the service.
func GetVersion() Version {
	commitShort := Commit
	if len(Commit) > 7 {
		commitShort = Commit[:7]
	}

	arch := Arch
	if arch == "" {
		arch = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	}

	vObj := VersionObject{
		Major:     VersionMajor,
		Minor:     VersionMinor,
		Patch:     VersionPatch,
		Branch:    Branch,
		Commit:    commitShort,
		BuildDate: BuildDate,
		Arch:      arch,
		BuildHash: BuildHash,
	}

	tag := fmt.Sprintf("%s.%s.%s", vObj.Major, vObj.Minor, vObj.Patch)
	str := fmt.Sprintf("%s-%s+%s.%s.%s.%s",
		tag,
		vObj.Branch,
		vObj.Commit,
		vObj.BuildDate,
		vObj.Arch,
		vObj.BuildHash,
	)

	return Version{
		Tag: tag,
		Str: str,
		Obj: vObj,
	}
}
