// Package config loads compiler profiles from TOML files.  A profile carries
// the per-build options that are not derivable from the source itself.
package config

import (
	"io/ioutil"
	"os"
	"runtime"

	"github.com/snowdamiz/mesh-lang-sub005/lower"
	"github.com/snowdamiz/mesh-lang-sub005/report"

	"github.com/pelletier/go-toml"
)

// tomlProfile represents a build profile as it is encoded in TOML.
type tomlProfile struct {
	TargetTriple string `toml:"target"`
	OptLevel     int    `toml:"opt-level"`
	DepthLimit   int    `toml:"depth-limit"`
	EmitObject   bool   `toml:"emit-object"`
}

// Profile is the set of validated build options for one compilation.
type Profile struct {
	// TargetTriple is the LLVM target triple the output is generated for.
	TargetTriple string

	// OptLevel is the optimization level passed through to llc, 0 to 3.
	OptLevel int

	// DepthLimit bounds the lowering recursion depth.
	DepthLimit int

	// EmitObject requests an object file in addition to the textual IR.
	EmitObject bool
}

// DefaultProfile returns the profile used when no profile file is given.
func DefaultProfile() *Profile {
	return &Profile{
		TargetTriple: hostTriple(),
		OptLevel:     0,
		DepthLimit:   lower.DefaultDepthLimit,
	}
}

// LoadProfile loads and validates a profile file.  This function returns the
// deserialized profile and a success boolean.
func LoadProfile(path string) (*Profile, bool) {
	f, err := os.Open(path)
	if err != nil {
		report.ReportFatal("unable to open profile at `%s`: %s", path, err.Error())
		return nil, false
	}
	defer f.Close()

	buff, err := ioutil.ReadAll(f)
	if err != nil {
		report.ReportFatal("error reading profile at `%s`: %s", path, err.Error())
		return nil, false
	}

	tomlProf := &tomlProfile{}
	if err := toml.Unmarshal(buff, tomlProf); err != nil {
		report.ReportFatal("error parsing profile at `%s`: %s", path, err.Error())
		return nil, false
	}

	prof := DefaultProfile()
	if tomlProf.TargetTriple != "" {
		prof.TargetTriple = tomlProf.TargetTriple
	}
	if tomlProf.DepthLimit != 0 {
		prof.DepthLimit = tomlProf.DepthLimit
	}
	prof.OptLevel = tomlProf.OptLevel
	prof.EmitObject = tomlProf.EmitObject

	if !validateProfile(path, prof) {
		return nil, false
	}

	return prof, true
}

// validateProfile checks that the profile contents are usable.
func validateProfile(path string, prof *Profile) bool {
	if prof.OptLevel < 0 || prof.OptLevel > 3 {
		report.ReportFatal("profile `%s`: opt-level must be between 0 and 3, got %d", path, prof.OptLevel)
		return false
	}

	if prof.DepthLimit < 0 {
		report.ReportFatal("profile `%s`: depth-limit must be positive, got %d", path, prof.DepthLimit)
		return false
	}

	return true
}

// hostTriple guesses a target triple for the machine the compiler runs on.
func hostTriple() string {
	switch runtime.GOOS {
	case "windows":
		return "x86_64-pc-windows-msvc"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "arm64-apple-darwin"
		}
		return "x86_64-apple-darwin"
	default:
		return "x86_64-unknown-linux-gnu"
	}
}
