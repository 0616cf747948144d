/*
   FpDebug - Main process.

   Copyright 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a copy
   of this software and associated documentation files (the "Software"), to deal
   in the Software without restriction, including without limitation the rights
   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
   copies of the Software, and to permit persons to whom the Software is
   furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
   SOFTWARE.

*/

package main

import (
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"fpdebug/analysis"
	"fpdebug/app"
	"fpdebug/command/console"
	"fpdebug/config"
	"fpdebug/shadow"
	"fpdebug/util/logger"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optVerbose := getopt.BoolLong("verbose", 'v', "Mirror log records to stderr")
	optExe := getopt.StringLong("exe", 'e', "fpdebug", "Executable name prefix for report files")
	optInteractive := getopt.BoolLong("interactive", 'i', "Drop into the operator console after setup")

	optPrecision := getopt.IntLong("precision", 0, int(shadow.DefaultPrecision), "Shadow AP precision in bits")
	optMeanError := getopt.BoolLong("mean-error", 0, "Record mean/max error per IP")
	optIgnoreLibraries := getopt.BoolLong("ignore-libraries", 0, "Skip instrumentation inside shared objects")
	optIgnoreAccurate := getopt.BoolLong("ignore-accurate", 0, "Suppress reports for zero-error entries")
	optSimOriginal := getopt.BoolLong("sim-original", 0, "Shrink shadow precision to native IEEE width")
	optAnalyzeAll := getopt.BoolLong("analyze-all", 0, "Enable handlers at startup")
	optIgnoreEnd := getopt.BoolLong("ignore-end", 0, "Ignore the END client request")
	optErrorLocalize := getopt.BoolLong("error-localization", 0, "Emit large-error localization records")
	optPrintEveryError := getopt.BoolLong("print-every-error", 0, "Log every operation's error")
	optDetectPSO := getopt.BoolLong("detect-pso", 0, "Run the precision-specific-operation detector")
	optGotoShadowBranch := getopt.BoolLong("goto-shadow-branch", 0, "Override F64 compares with the shadow outcome")
	optTrackInt := getopt.BoolLong("track-int", 0, "Propagate shadow across F64->int conversions")

	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	out := os.Stderr
	if *optLogFile != "" {
		var err error
		logFile, err = os.Create(*optLogFile)
		if err == nil {
			out = logFile
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.New(out, programLevel.Level(), *optVerbose))
	slog.SetDefault(Logger)

	Logger.Info("FpDebug started")

	opts := shadow.DefaultOptions()
	if *optConfig != "" {
		loaded, err := config.Load(*optConfig)
		if err != nil {
			Logger.Error("loading configuration file failed", "file", *optConfig, "error", err)
			os.Exit(1)
		}
		opts = loaded
	}

	// CLI flags passed explicitly on the command line override whatever
	// the configuration file set, getopt.IsSet reporting which flags the
	// user actually touched.
	if getopt.IsSet("precision") {
		opts.Precision = uint(*optPrecision)
	}
	if getopt.IsSet("mean-error") {
		opts.MeanError = *optMeanError
	}
	if getopt.IsSet("ignore-libraries") {
		opts.IgnoreLibraries = *optIgnoreLibraries
	}
	if getopt.IsSet("ignore-accurate") {
		opts.IgnoreAccurate = *optIgnoreAccurate
	}
	if getopt.IsSet("sim-original") {
		opts.SimOriginal = *optSimOriginal
	}
	if getopt.IsSet("analyze-all") {
		opts.AnalyzeAll = *optAnalyzeAll
	}
	if getopt.IsSet("ignore-end") {
		opts.IgnoreEnd = *optIgnoreEnd
	}
	if getopt.IsSet("error-localization") {
		opts.ErrorLocalize = *optErrorLocalize
	}
	if getopt.IsSet("print-every-error") {
		opts.PrintEveryError = *optPrintEveryError
	}
	if getopt.IsSet("detect-pso") {
		opts.DetectPSO = *optDetectPSO
	}
	if getopt.IsSet("goto-shadow-branch") {
		opts.GotoShadowBranch = *optGotoShadowBranch
	}
	if getopt.IsSet("track-int") {
		opts.TrackInt = *optTrackInt
	}

	eng := shadow.NewEngine(opts, nil, nil, Logger)
	mean := analysis.NewMeanValueTable(opts.MeanError)
	application := app.New(*optExe, eng, mean, nil, Logger)

	if *optInteractive {
		console.Run(application)
		return
	}

	Logger.Info("FpDebug ready; no translator wired, nothing to instrument without --interactive")
}
