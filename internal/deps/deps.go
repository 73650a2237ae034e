package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// Tool is an external binary podium shells out to.
type Tool struct {
	Name        string
	Bin         string
	VersionArgs []string
	Required    bool
	Purpose     string
}

// Tools lists every binary a rehearsal can use.
var Tools = []Tool{
	{Name: "pw-record", Bin: "pw-record", VersionArgs: []string{"--version"}, Required: true, Purpose: "microphone capture"},
	{Name: "notify-send", Bin: "notify-send", VersionArgs: []string{"--version"}, Purpose: "desktop notifications"},
}

// Check looks bin up on PATH and reads the first line of its version output.
func Check(bin string, versionArgs ...string) Status {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	if len(versionArgs) == 0 {
		return status
	}
	output, err := exec.Command(path, versionArgs...).Output()
	if err == nil {
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}

// CheckPWRecord checks if pw-record is installed and returns its status
func CheckPWRecord() Status {
	return Check("pw-record", "--version")
}

// CheckNotifySend checks if notify-send is installed and returns its status
func CheckNotifySend() Status {
	return Check("notify-send", "--version")
}

// Missing returns the required tools that are not on PATH.
func Missing() []Tool {
	var out []Tool
	for _, t := range Tools {
		if t.Required && !Check(t.Bin).Installed {
			out = append(out, t)
		}
	}
	return out
}
