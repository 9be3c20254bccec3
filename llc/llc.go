// Package llc wraps the external LLVM static compiler.  Object file output
// is optional: the primary compiler artifact is textual IR, and this package
// only runs when a profile asks for an object file.
package llc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/llir/llvm/ir"
)

// Tool is a located llc executable.
type Tool struct {
	path string
}

// FindTool locates llc on the system path.  Versioned names are tried after
// the plain one since many distributions only install a suffixed binary.
func FindTool() (*Tool, error) {
	candidates := []string{"llc"}
	for v := 18; v >= 11; v-- {
		candidates = append(candidates, fmt.Sprintf("llc-%d", v))
	}

	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return &Tool{path: path}, nil
		}
	}

	return nil, errors.New("unable to locate `llc` on the system path")
}

// Options carries the llc invocation options taken from the build profile.
type Options struct {
	TargetTriple string
	OptLevel     int
}

// CompileModule writes the module's textual IR next to the object path and
// invokes llc on it.  The IR file is left behind as a build artifact.
func (t *Tool) CompileModule(mod *ir.Module, objPath string, opts Options) error {
	modPath := irPathFor(objPath)
	if err := WriteModule(mod, modPath); err != nil {
		return err
	}

	args := []string{"-filetype", "obj", "-o", objPath}
	if opts.TargetTriple != "" {
		args = append(args, "-mtriple", opts.TargetTriple)
	}
	if opts.OptLevel > 0 {
		args = append(args, fmt.Sprintf("-O%d", opts.OptLevel))
	}
	args = append(args, modPath)

	cmd := exec.Command(t.path, args...)
	stderrBuff := bytes.Buffer{}
	cmd.Stderr = &stderrBuff

	if err := cmd.Run(); err != nil {
		return errors.New(stderrBuff.String())
	}

	return nil
}

// WriteModule writes a module's textual IR to the given path.
func WriteModule(mod *ir.Module, path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(mod.String())
	return err
}

// irPathFor derives the IR file path for an object output path.
func irPathFor(objPath string) string {
	if strings.HasSuffix(objPath, ".o") {
		return objPath[:len(objPath)-2] + ".ll"
	}
	return objPath + ".ll"
}
