package cmd

import (
	"strings"

	"github.com/snowdamiz/mesh-lang-sub005/ast"
	"github.com/snowdamiz/mesh-lang-sub005/common"
	"github.com/snowdamiz/mesh-lang-sub005/config"
	"github.com/snowdamiz/mesh-lang-sub005/generate"
	"github.com/snowdamiz/mesh-lang-sub005/llc"
	"github.com/snowdamiz/mesh-lang-sub005/lower"
	"github.com/snowdamiz/mesh-lang-sub005/report"
	"github.com/snowdamiz/mesh-lang-sub005/typing"

	llvmir "github.com/llir/llvm/ir"
)

// Compiler owns the state of one compilation: a typed program in, LLVM IR
// (and optionally an object file) out.
type Compiler struct {
	// prog is the typed program being compiled.
	prog *ast.Program

	// reg is the program's type registry.
	reg *typing.Registry

	// profile carries the build options.
	profile *config.Profile

	// outPath is the path the textual IR is written to.
	outPath string
}

// NewCompiler creates a compiler for a typed program.  An empty output path
// defaults to the source path with the extension swapped for `.ll`.
func NewCompiler(prog *ast.Program, reg *typing.Registry, profile *config.Profile, outPath string) *Compiler {
	if outPath == "" {
		outPath = strings.TrimSuffix(prog.File, common.MeshFileExt) + ".ll"
	}

	return &Compiler{prog: prog, reg: reg, profile: profile, outPath: outPath}
}

// OutputPath returns the path the textual IR is written to.
func (c *Compiler) OutputPath() string {
	return c.outPath
}

// Compile runs the full backend pipeline.  It returns whether compilation
// succeeded.
func (c *Compiler) Compile() bool {
	defer report.CatchErrors(c.prog.File)

	report.ReportBeginPhase("Lowering")
	mod := lower.NewLowerer(c.reg, c.prog.File, c.profile.DepthLimit).LowerProgram(c.prog)
	report.ReportEndPhase(true)

	report.ReportBeginPhase("Monomorphizing")
	mod = mod.Prune()
	report.ReportEndPhase(true)

	report.ReportBeginPhase("Generating")
	llMod := generate.NewGenerator(mod).Generate()
	report.ReportEndPhase(true)

	return c.emit(llMod)
}

// emit writes the compilation outputs.
func (c *Compiler) emit(llMod *llvmir.Module) bool {
	report.ReportBeginPhase("Emitting")

	if err := llc.WriteModule(llMod, c.outPath); err != nil {
		report.ReportEndPhase(false)
		report.ReportStdError(c.prog.File, err)
		return false
	}

	if c.profile.EmitObject {
		tool, err := llc.FindTool()
		if err != nil {
			report.ReportEndPhase(false)
			report.ReportFatal(err.Error())
			return false
		}

		objPath := strings.TrimSuffix(c.outPath, ".ll") + ".o"
		err = tool.CompileModule(llMod, objPath, llc.Options{
			TargetTriple: c.profile.TargetTriple,
			OptLevel:     c.profile.OptLevel,
		})
		if err != nil {
			report.ReportEndPhase(false)
			report.ReportFatal("failed to run llc on `%s`:\n %s", c.prog.File, err.Error())
			return false
		}
	}

	report.ReportEndPhase(true)
	return true
}
