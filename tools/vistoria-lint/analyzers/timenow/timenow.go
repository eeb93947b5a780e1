// Package timenow detects direct wall-clock reads in packages that must use
// an injectable clock.
package timenow

import (
	"go/ast"
	"go/types"
	"path"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports time.Now() calls. Referencing time.Now as a value, as in
// `var timeNow = time.Now`, is allowed.
var Analyzer = &analysis.Analyzer{
	Name:     "timenow",
	Doc:      "detects time.Now() calls in packages that use an injectable clock",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var packages = "services,integrity,canonical"

func init() {
	Analyzer.Flags.StringVar(&packages, "packages", packages,
		"comma-separated package names to check")
}

func run(pass *analysis.Pass) (interface{}, error) {
	if !checked(pass.Pkg.Path()) {
		return nil, nil
	}

	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "Now" {
			return
		}
		ident, ok := sel.X.(*ast.Ident)
		if !ok {
			return
		}
		pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
		if !ok || pkgName.Imported().Path() != "time" {
			return
		}
		if strings.HasSuffix(pass.Fset.File(call.Pos()).Name(), "_test.go") {
			return
		}
		pass.Reportf(call.Pos(), "time.Now() called directly - use the package clock")
	})

	return nil, nil
}

func checked(pkgPath string) bool {
	name := path.Base(strings.TrimSuffix(pkgPath, "_test"))
	for _, p := range strings.Split(packages, ",") {
		if strings.TrimSpace(p) == name {
			return true
		}
	}
	return false
}
