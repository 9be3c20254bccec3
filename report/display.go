package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

const icePostlude = `
This error was not supposed to happen: please open an issue on GitHub at
github.com/snowdamiz/mesh-lang-sub005`

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	fmt.Print("\n\n")
	ErrorStyleBG.Print("Internal Compiler Error ")
	ErrorColorFG.Println(message)
	InfoColorFG.Println(icePostlude)
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	fmt.Print("\n\n")
	ErrorStyleBG.Print("Fatal Error ")
	ErrorColorFG.Println(message)
}

// displayWarning displays a compilation warning.
func displayWarning(file string, span *TextSpan, message string) {
	if span == nil {
		WarnStyleBG.Print("Warning")
		WarnColorFG.Printf(" %s: %s\n", file, message)
	} else {
		WarnStyleBG.Print("Warning")
		WarnColorFG.Printf(" %s:%d:%d: %s\n", file, span.StartLine+1, span.StartCol+1, message)
	}
}

// displayStdError displays a standard Go error.
func displayStdError(reprPath string, err error) {
	ErrorStyleBG.Print("Error")
	ErrorColorFG.Printf(" %s: %s\n", reprPath, err.Error())
}

// -----------------------------------------------------------------------------
// Below are all the "aesthetic" reporting functions that only run if the log
// level is verbose.  These provide additional information about the
// compilation process to the user so as to make the compiler more friendly.

// phaseSpinner stores the current phase spinner.
var phaseSpinner *pterm.SpinnerPrinter
var currentPhase string
var phaseStartTime time.Time

const maxPhaseLength = len("Monomorphizing")

// ReportCompileHeader displays the compiler configuration before compilation
// begins.
func ReportCompileHeader(version, target string) {
	if rep.logLevel == LogLevelVerbose {
		fmt.Print("meshc ")
		InfoColorFG.Print("v" + version)
		fmt.Print(" -- target: ")
		InfoColorFG.Println(target)
	}
}

// ReportBeginPhase displays the beginning of a compilation phase.
func ReportBeginPhase(phase string) {
	if rep.logLevel != LogLevelVerbose {
		return
	}

	currentPhase = phase
	phaseText := phase + "..." + strings.Repeat(" ", maxPhaseLength-len(phase)+2)
	phaseSpinner = pterm.DefaultSpinner.WithStyle(pterm.NewStyle(InfoColorFG))

	phaseSpinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: SuccessStyleBG,
			Text:  "Done",
		},
	}

	phaseSpinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: ErrorStyleBG,
			Text:  "Fail",
		},
	}

	phaseSpinner.Start(phaseText)
	phaseStartTime = time.Now()
}

// ReportEndPhase displays the end of the current compilation phase, if any.
func ReportEndPhase(success bool) {
	if phaseSpinner != nil {
		if success {
			phaseSpinner.Success(
				currentPhase+strings.Repeat(" ", maxPhaseLength-len(currentPhase)+2),
				fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
			)
		} else {
			phaseSpinner.Fail(currentPhase + strings.Repeat(" ", maxPhaseLength-len(currentPhase)+2))
		}

		phaseSpinner = nil
	}
}

// DisplayInfoMessage displays a labeled informational message.
func DisplayInfoMessage(label, message string) {
	InfoStyleBG.Print(label + " ")
	fmt.Println(message)
}

// ReportCompilationFinished displays the concluding message for compilation.
func ReportCompilationFinished(outputPath string) {
	if rep.logLevel != LogLevelVerbose {
		return
	}

	fmt.Print("\n")

	if !AnyErrors() {
		SuccessColorFG.Print("All done! ")
		fmt.Print("Output written to ")
		InfoColorFG.Println(outputPath)
	} else {
		ErrorColorFG.Println("Compilation failed.")
	}

	if rep.warnCount > 0 {
		WarnColorFG.Printf("%d warning(s)\n", rep.warnCount)
	}
}
