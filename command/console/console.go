/*
   Console: the interactive operator console.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package console

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"fpdebug/request"
)

// commands lists the operator-facing console commands, used both for
// dispatch and for the completer.
var commands = []string{"reset", "stats", "pso", "error", "quit", "help"}

func completeCmd(line string) []string {
	out := []string{}
	for _, c := range commands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// Engine is the narrow surface the console needs: issue a client
// request and read back the instrumentation counters for "stats".
type Engine interface {
	Dispatch(pkt request.Packet) request.Result
	StatsSummary() string
}

// Run drives an interactive liner-based console, grounded on
// command/reader/reader.go's prompt loop: read a line, dispatch it,
// print any error, repeat until the prompt is aborted or "quit" is
// entered.
func Run(eng Engine) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(line string) []string {
		return completeCmd(line)
	})

	for {
		command, err := line.Prompt("fpdebug> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			slog.Error("console: error reading line", "error", err)
			return
		}

		line.AppendHistory(command)
		quit, err := dispatch(strings.TrimSpace(command), eng)
		if err != nil {
			fmt.Println("Error: " + err.Error())
		}
		if quit {
			return
		}
	}
}

func dispatch(command string, eng Engine) (quit bool, err error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "quit", "exit":
		return true, nil

	case "help":
		fmt.Println("commands: " + strings.Join(commands, ", "))
		return false, nil

	case "stats":
		fmt.Println(eng.StatsSummary())
		return false, nil

	case "reset":
		eng.Dispatch(request.Packet{Req: request.Reset})
		return false, nil

	case "pso":
		res := eng.Dispatch(request.Packet{Req: request.IsPSOFinished})
		fmt.Printf("PSO detection finished: %v\n", res.Value != 0)
		return false, nil

	case "error":
		if len(fields) < 2 {
			return false, errors.New("usage: error <addr>")
		}
		addr, perr := strconv.ParseUint(fields[1], 0, 64)
		if perr != nil {
			return false, perr
		}
		eng.Dispatch(request.Packet{Req: request.PrintError, Arg2: addr})
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s", fields[0])
	}
}
