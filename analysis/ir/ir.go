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

// Package ir provides a small register-based intermediate representation with procedures, direct
// calls, memory slots and conditional branches. A Program implements ifds.Supergraph, so the
// portable client analyses and the solver tests run over hand-built ir programs without loading
// real code.
package ir

import "fmt"

// Op is the operation of an instruction.
type Op int8

const (
	// Const loads the literal K into Dst.
	Const Op = iota + 1
	// Binop computes Dst = X (Arith) Y.
	Binop
	// Load reads the memory slot Slot into Dst.
	Load
	// Store writes the register X into the memory slot Slot.
	Store
	// Call invokes Callee with Args, result in Dst.
	Call
	// If branches on register X to instruction index Then or Else.
	If
	// Ret returns the register X to the caller.
	Ret
)

// ArithOp is the operator of a Binop instruction.
type ArithOp int8

const (
	Add ArithOp = iota + 1
	Sub
	Mul
	Div
)

func (op ArithOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	}
	return "?"
}

// Eval applies the operator to two literals. Division by zero yields zero.
func (op ArithOp) Eval(x, y int64) int64 {
	switch op {
	case Add:
		return x + y
	case Sub:
		return x - y
	case Mul:
		return x * y
	case Div:
		if y == 0 {
			return 0
		}
		return x / y
	}
	return 0
}

// An Instr is one instruction of a procedure. Which fields are meaningful depends on Op.
type Instr struct {
	Parent *Proc
	Index  int
	Op     Op

	Dst    string // result register (Const, Binop, Load, Call)
	X      string // first operand, stored register, condition, or returned register
	Y      string // second operand (Binop)
	Arith  ArithOp
	K      int64  // literal (Const)
	Slot   string // memory slot (Load, Store)
	Callee string // called procedure name (Call)
	Args   []string
	Then   int // branch targets (If)
	Else   int
}

func (i *Instr) String() string {
	loc := fmt.Sprintf("%s.%d", i.Parent.name, i.Index)
	switch i.Op {
	case Const:
		return fmt.Sprintf("%s: %s = %d", loc, i.Dst, i.K)
	case Binop:
		return fmt.Sprintf("%s: %s = %s %s %s", loc, i.Dst, i.X, i.Arith, i.Y)
	case Load:
		return fmt.Sprintf("%s: %s = load %s", loc, i.Dst, i.Slot)
	case Store:
		return fmt.Sprintf("%s: store %s %s", loc, i.Slot, i.X)
	case Call:
		return fmt.Sprintf("%s: %s = %s%v", loc, i.Dst, i.Callee, i.Args)
	case If:
		return fmt.Sprintf("%s: if %s goto %d else %d", loc, i.X, i.Then, i.Else)
	case Ret:
		return fmt.Sprintf("%s: ret %s", loc, i.X)
	}
	return loc + ": invalid"
}

// A Proc is a procedure: an ordered instruction list entered at index 0.
type Proc struct {
	prog   *Program
	name   string
	Params []string
	Instrs []*Instr
}

// Name returns the procedure name.
func (p *Proc) Name() string { return p.name }

// Prog returns the enclosing program.
func (p *Proc) Prog() *Program { return p.prog }

func (p *Proc) add(i *Instr) *Instr {
	i.Parent = p
	i.Index = len(p.Instrs)
	p.Instrs = append(p.Instrs, i)
	return i
}

// Const appends dst = k.
func (p *Proc) Const(dst string, k int64) *Instr {
	return p.add(&Instr{Op: Const, Dst: dst, K: k})
}

// Binop appends dst = x op y.
func (p *Proc) Binop(dst, x string, op ArithOp, y string) *Instr {
	return p.add(&Instr{Op: Binop, Dst: dst, X: x, Arith: op, Y: y})
}

// Load appends dst = load slot.
func (p *Proc) Load(dst, slot string) *Instr {
	return p.add(&Instr{Op: Load, Dst: dst, Slot: slot})
}

// Store appends store slot, src.
func (p *Proc) Store(slot, src string) *Instr {
	return p.add(&Instr{Op: Store, Slot: slot, X: src})
}

// Call appends dst = callee(args...). The callee is looked up by name when the program is
// walked; an unknown name makes the call site unresolvable.
func (p *Proc) Call(dst, callee string, args ...string) *Instr {
	return p.add(&Instr{Op: Call, Dst: dst, Callee: callee, Args: args})
}

// IfGoto appends a conditional branch on cond to instruction index then or els.
func (p *Proc) IfGoto(cond string, then, els int) *Instr {
	return p.add(&Instr{Op: If, X: cond, Then: then, Else: els})
}

// Ret appends a return of register src.
func (p *Proc) Ret(src string) *Instr {
	return p.add(&Instr{Op: Ret, X: src})
}

// HasBranches reports whether the procedure contains any conditional branch.
func (p *Proc) HasBranches() bool {
	for _, i := range p.Instrs {
		if i.Op == If {
			return true
		}
	}
	return false
}

// A Program is a set of named procedures.
type Program struct {
	procs map[string]*Proc
	order []string
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{procs: map[string]*Proc{}}
}

// NewProc adds an empty procedure with the given name and parameter registers.
func (prog *Program) NewProc(name string, params ...string) *Proc {
	p := &Proc{prog: prog, name: name, Params: params}
	prog.procs[name] = p
	prog.order = append(prog.order, name)
	return p
}

// Proc returns the procedure with the given name, or nil.
func (prog *Program) Proc(name string) *Proc {
	return prog.procs[name]
}

// Procs returns all procedures in definition order.
func (prog *Program) Procs() []*Proc {
	out := make([]*Proc, 0, len(prog.order))
	for _, name := range prog.order {
		out = append(out, prog.procs[name])
	}
	return out
}
