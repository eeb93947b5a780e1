// Package maporder detects output built in map iteration order.
package maporder

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports range loops over maps that append to a slice which is
// never sorted afterwards, or that write to a writer or hash directly.
var Analyzer = &analysis.Analyzer{
	Name:     "maporder",
	Doc:      "detects slices and byte streams built in map iteration order",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var writeMethods = map[string]bool{
	"Write":       true,
	"WriteString": true,
	"WriteByte":   true,
	"WriteRune":   true,
	"Encode":      true,
}

var fmtWriters = map[string]bool{
	"Fprint":   true,
	"Fprintf":  true,
	"Fprintln": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.FuncDecl)(nil),
		(*ast.FuncLit)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch fn := n.(type) {
		case *ast.FuncDecl:
			body = fn.Body
		case *ast.FuncLit:
			body = fn.Body
		}
		if body == nil {
			return
		}

		sorted := sortedSlices(pass, body)

		ast.Inspect(body, func(n ast.Node) bool {
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}
			rng, ok := n.(*ast.RangeStmt)
			if !ok || !isMap(pass, rng.X) {
				return true
			}
			checkLoop(pass, rng, sorted)
			return true
		})
	})

	return nil, nil
}

func checkLoop(pass *analysis.Pass, rng *ast.RangeStmt, sorted map[types.Object]bool) {
	ast.Inspect(rng.Body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.AssignStmt:
			for i, rhs := range node.Rhs {
				call, ok := rhs.(*ast.CallExpr)
				if !ok || !isBuiltin(pass, call.Fun, "append") || i >= len(node.Lhs) {
					continue
				}
				obj := objectOf(pass, node.Lhs[i])
				if obj != nil && !sorted[obj] {
					pass.Reportf(node.Pos(),
						"%s is appended in map iteration order - sort it or iterate sorted keys",
						obj.Name())
				}
			}
		case *ast.CallExpr:
			sel, ok := node.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			if pkg, ok := sel.X.(*ast.Ident); ok && pkg.Name == "fmt" && fmtWriters[sel.Sel.Name] {
				pass.Reportf(node.Pos(),
					"fmt.%s called in map iteration order - iterate sorted keys",
					sel.Sel.Name)
				return true
			}
			if writeMethods[sel.Sel.Name] {
				pass.Reportf(node.Pos(),
					"%s called in map iteration order - iterate sorted keys",
					sel.Sel.Name)
			}
		}
		return true
	})
}

// sortedSlices collects the variables passed as the first argument to a
// sort or slices sorting function anywhere in body.
func sortedSlices(pass *analysis.Pass, body *ast.BlockStmt) map[types.Object]bool {
	sorted := map[types.Object]bool{}
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pkg, ok := sel.X.(*ast.Ident)
		if !ok || (pkg.Name != "sort" && pkg.Name != "slices") {
			return true
		}
		if obj := objectOf(pass, call.Args[0]); obj != nil {
			sorted[obj] = true
		}
		return true
	})
	return sorted
}

func isMap(pass *analysis.Pass, expr ast.Expr) bool {
	t := pass.TypesInfo.TypeOf(expr)
	if t == nil {
		return false
	}
	_, ok := t.Underlying().(*types.Map)
	return ok
}

func isBuiltin(pass *analysis.Pass, fun ast.Expr, name string) bool {
	ident, ok := fun.(*ast.Ident)
	if !ok || ident.Name != name {
		return false
	}
	_, ok = pass.TypesInfo.Uses[ident].(*types.Builtin)
	return ok
}

func objectOf(pass *analysis.Pass, expr ast.Expr) types.Object {
	ident, ok := astutil.Unparen(expr).(*ast.Ident)
	if !ok {
		return nil
	}
	return pass.TypesInfo.ObjectOf(ident)
}
