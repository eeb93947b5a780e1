// Package analyzers provides all custom static analyzers for vistoria-core.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/vistoria/vistoria-core/tools/vistoria-lint/analyzers/maporder"
	"github.com/vistoria/vistoria-core/tools/vistoria-lint/analyzers/timenow"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		maporder.Analyzer,
		timenow.Analyzer,
	}
}
