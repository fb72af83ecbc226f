package lunatic

import "fmt"

type Version struct {
	Major, Minor, Patch uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// HostVersion returns the version of the runtime the process runs on.
func HostVersion(inst *Instance) Version {
	return Version{
		Major: inst.abi.VersionMajor(),
		Minor: inst.abi.VersionMinor(),
		Patch: inst.abi.VersionPatch(),
	}
}
