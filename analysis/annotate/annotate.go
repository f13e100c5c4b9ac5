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

// Package annotate writes analysis findings back into the analyzed sources as comments, using
// the dst decorated syntax tree so the surrounding formatting and comments survive the rewrite.
package annotate

import (
	"fmt"
	"io"
	"os"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/decorator/resolver/gopackages"
	"github.com/dave/dst/dstutil"
	"golang.org/x/tools/go/packages"

	"github.com/argus-analysis/argus/analysis"
)

// A Mark is one comment to place above the statement at a source position.
type Mark struct {
	File string
	Line int
	Text string
}

type markKey struct {
	file string
	line int
}

// Apply loads the packages matched by patterns under dir, inserts every mark's text as a
// comment above the statement at its position, and renders the modified files. With write set,
// files are rewritten in place; otherwise they are printed to w.
func Apply(dir string, patterns []string, marks []Mark, w io.Writer, write bool) error {
	cfg := &packages.Config{
		Mode:  analysis.PkgLoadMode,
		Dir:   dir,
		Tests: false,
	}
	loaded, err := decorator.Load(cfg, patterns...)
	if err != nil {
		return fmt.Errorf("could not load packages: %w", err)
	}

	byPos := map[markKey][]string{}
	for _, m := range marks {
		k := markKey{m.File, m.Line}
		byPos[k] = append(byPos[k], "// argus: "+m.Text)
	}

	for _, pack := range loaded {
		touched := map[*dst.File]bool{}
		for _, dstFile := range pack.Syntax {
			file := dstFile
			dstutil.Apply(file, func(c *dstutil.Cursor) bool {
				stmt, ok := c.Node().(dst.Stmt)
				if !ok {
					return true
				}
				astNode := pack.Decorator.Ast.Nodes[stmt]
				if astNode == nil {
					return true
				}
				pos := pack.Fset.Position(astNode.Pos())
				texts := byPos[markKey{pos.Filename, pos.Line}]
				if len(texts) == 0 {
					return true
				}
				decs := stmt.Decorations()
				for _, text := range texts {
					decs.Start.Append(text)
				}
				touched[file] = true
				return true
			}, nil)
		}

		if len(touched) == 0 {
			continue
		}
		r := decorator.NewRestorerWithImports(pack.PkgPath, gopackages.New(dir))
		for _, dstFile := range pack.Syntax {
			if !touched[dstFile] {
				continue
			}
			if err := render(r, pack, dstFile, w, write); err != nil {
				return err
			}
		}
	}
	return nil
}

func render(r *decorator.Restorer, pack *decorator.Package, dstFile *dst.File, w io.Writer, write bool) error {
	if !write {
		return r.Fprint(w, dstFile)
	}
	name := pack.Decorator.Filenames[dstFile]
	if name == "" {
		return r.Fprint(w, dstFile)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("could not rewrite %s: %w", name, err)
	}
	defer f.Close()
	return r.Fprint(f, dstFile)
}
