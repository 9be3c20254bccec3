package cmd

import (
	"os"

	"github.com/snowdamiz/mesh-lang-sub005/ast"
	"github.com/snowdamiz/mesh-lang-sub005/common"
	"github.com/snowdamiz/mesh-lang-sub005/config"
	"github.com/snowdamiz/mesh-lang-sub005/report"
	"github.com/snowdamiz/mesh-lang-sub005/typing"

	"github.com/ComedicChimera/olive"
)

// Execute is the main entry point for the `meshc` backend.  The frontend
// hands over its typed program and registry; everything after that point,
// command line included, is owned here.
func Execute(prog *ast.Program, reg *typing.Registry) {
	cli := olive.NewCLI("meshc", "meshc compiles typed Mesh programs to LLVM", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	buildCmd := cli.AddSubcommand("build", "compile the program", true)
	buildCmd.AddStringArg("profile", "p", "the path to the build profile", false)
	buildCmd.AddStringArg("out", "o", "the output path for the generated IR", false)

	cli.AddSubcommand("version", "print the compiler version", false)

	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.InitReporter(report.LogLevelVerbose)
		report.ReportFatal(err.Error())
	}

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		execBuildCommand(prog, reg, subResult, result.Arguments["loglevel"].(string))
	case "version":
		report.InitReporter(report.LogLevelVerbose)
		report.DisplayInfoMessage("Mesh Version", common.MeshVersion)
	}
}

// execBuildCommand executes the build subcommand and handles all its errors.
func execBuildCommand(prog *ast.Program, reg *typing.Registry, result *olive.ArgParseResult, loglevel string) {
	report.InitReporter(logLevelFromName(loglevel))

	profile := config.DefaultProfile()
	if profPath, ok := result.Arguments["profile"]; ok {
		profile, _ = config.LoadProfile(profPath.(string))
	} else if _, err := os.Stat(common.MeshProfileFileName); err == nil {
		// An unflagged `mesh.toml` in the working directory is picked up
		// automatically, the same way it would be with `-p mesh.toml`.
		profile, _ = config.LoadProfile(common.MeshProfileFileName)
	}

	outPath := ""
	if out, ok := result.Arguments["out"]; ok {
		outPath = out.(string)
	}

	report.ReportCompileHeader(common.MeshVersion, profile.TargetTriple)

	c := NewCompiler(prog, reg, profile, outPath)
	c.Compile()

	report.ReportEndPhase(true)
	report.ReportCompilationFinished(c.OutputPath())
}

// logLevelFromName converts a command-line log level name into a reporter log
// level.
func logLevelFromName(name string) int {
	switch name {
	case "silent":
		return report.LogLevelSilent
	case "error":
		return report.LogLevelError
	case "warn":
		return report.LogLevelWarn
	default:
		return report.LogLevelVerbose
	}
}
