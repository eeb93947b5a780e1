// vistoria-lint is a custom static analyzer for determinism in vistoria-core.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/vistoria/vistoria-core/tools/vistoria-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
