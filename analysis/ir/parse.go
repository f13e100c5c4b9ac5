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

package ir

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads a program in the textual ir format. A program is a sequence of procedures:
//
//	proc main:
//	  x = 1
//	  store s x
//	  a = load s
//	  z = a + x
//	  r = call add(x, z)
//	  if r goto 6 else 7
//	  ret r
//	  ret z
//
//	proc add(a, b):
//	  c = a + b
//	  ret c
//
// Instruction operands are register names, slots for load/store, and literal integers only in
// constant assignments. Branch targets are instruction indices within the procedure. Lines
// starting with # are comments.
func Parse(r io.Reader) (*Program, error) {
	prog := NewProgram()
	var cur *Proc
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if name, params, ok := parseProcHeader(line); ok {
			cur = prog.NewProc(name, params...)
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("line %d: instruction outside a proc", lineno)
		}
		if err := parseInstr(cur, line); err != nil {
			return nil, fmt.Errorf("line %d: %v", lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for _, p := range prog.Procs() {
		if len(p.Instrs) == 0 {
			return nil, fmt.Errorf("proc %s has no instructions", p.Name())
		}
		last := len(p.Instrs) - 1
		for _, i := range p.Instrs {
			switch i.Op {
			case If:
				if i.Then < 0 || i.Else < 0 || i.Then > last || i.Else > last {
					return nil, fmt.Errorf("proc %s: branch target out of range in %q", p.Name(), i)
				}
			case Call:
				// The solver resumes at the instruction after the call.
				if i.Index == last {
					return nil, fmt.Errorf("proc %s: call %q has no return site", p.Name(), i)
				}
			}
		}
	}
	return prog, nil
}

func parseProcHeader(line string) (string, []string, bool) {
	rest, found := strings.CutPrefix(line, "proc ")
	if !found || !strings.HasSuffix(rest, ":") {
		return "", nil, false
	}
	rest = strings.TrimSuffix(rest, ":")
	name, paramList, hasParams := strings.Cut(rest, "(")
	name = strings.TrimSpace(name)
	if !hasParams {
		return name, nil, true
	}
	paramList = strings.TrimSuffix(strings.TrimSpace(paramList), ")")
	var params []string
	for _, p := range strings.Split(paramList, ",") {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, p)
		}
	}
	return name, params, true
}

func parseInstr(p *Proc, line string) error {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	switch {
	case fields[0] == "ret":
		if len(fields) != 2 {
			return fmt.Errorf("malformed ret %q", line)
		}
		p.Ret(fields[1])
		return nil
	case fields[0] == "store":
		if len(fields) != 3 {
			return fmt.Errorf("malformed store %q", line)
		}
		p.Store(fields[1], fields[2])
		return nil
	case fields[0] == "if":
		// if cond goto N else M
		if len(fields) != 6 || fields[2] != "goto" || fields[4] != "else" {
			return fmt.Errorf("malformed branch %q", line)
		}
		then, err1 := strconv.Atoi(fields[3])
		els, err2 := strconv.Atoi(fields[5])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("malformed branch targets in %q", line)
		}
		p.IfGoto(fields[1], then, els)
		return nil
	case len(fields) >= 3 && fields[1] == "=":
		return parseAssign(p, fields[0], fields[2:], line)
	default:
		return fmt.Errorf("unrecognized instruction %q", line)
	}
}

func parseAssign(p *Proc, dst string, rhs []string, line string) error {
	switch {
	case len(rhs) == 1:
		k, err := strconv.ParseInt(rhs[0], 10, 64)
		if err != nil {
			return fmt.Errorf("expected literal in %q", line)
		}
		p.Const(dst, k)
	case rhs[0] == "load" && len(rhs) == 2:
		p.Load(dst, rhs[1])
	case rhs[0] == "call" && len(rhs) >= 2:
		callee, first, hasArgs := strings.Cut(rhs[1], "(")
		args := append([]string{}, rhs[2:]...)
		if hasArgs {
			if first = strings.TrimSuffix(first, ")"); first != "" {
				args = append([]string{first}, args...)
			}
		}
		for j, a := range args {
			args[j] = strings.TrimSuffix(a, ")")
		}
		p.Call(dst, callee, args...)
	case len(rhs) == 3:
		var op ArithOp
		switch rhs[1] {
		case "+":
			op = Add
		case "-":
			op = Sub
		case "*":
			op = Mul
		case "/":
			op = Div
		default:
			return fmt.Errorf("unknown operator %q in %q", rhs[1], line)
		}
		p.Binop(dst, rhs[0], op, rhs[2])
	default:
		return fmt.Errorf("unrecognized assignment %q", line)
	}
	return nil
}
