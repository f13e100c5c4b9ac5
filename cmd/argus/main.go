// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/argus-analysis/argus/analysis"
	"github.com/argus-analysis/argus/cmd/argus/annotate"
	"github.com/argus-analysis/argus/cmd/argus/constprop"
	"github.com/argus-analysis/argus/cmd/argus/recursion"
	"github.com/argus-analysis/argus/cmd/argus/taint"
	"github.com/argus-analysis/argus/cmd/argus/tools"
)

const usage = `Argus: interprocedural dataflow analysis tools
Usage:
  argus [tool] [options] <target(s)>
Tools:
  - taint: performs a taint analysis on a given program
  - constprop: runs constant propagation on a program in the textual ir format
  - recursion: reports the recursive functions of a given program
  - annotate: writes taint findings back into the sources as comments
Examples:
  Run the taint analysis: argus taint -config config.yaml main.go
  Run constant propagation: argus constprop -entry main program.ir`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(analysis.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "taint":
		flags, err := tools.NewCommonFlags("taint", args, taint.Usage)
		if err != nil {
			errExit(err)
		}
		if err := taint.Run(flags); err != nil {
			errExit(err)
		}
	case "constprop":
		flags, err := constprop.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := constprop.Run(flags); err != nil {
			errExit(err)
		}
	case "recursion":
		flags, err := tools.NewCommonFlags("recursion", args, recursion.Usage)
		if err != nil {
			errExit(err)
		}
		if err := recursion.Run(flags); err != nil {
			errExit(err)
		}
	case "annotate":
		flags, err := annotate.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := annotate.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unknown subcommand %q\n%s\n", cmd, usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %s\n", err)
	os.Exit(1)
}
