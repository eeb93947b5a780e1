package timenow_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/vistoria/vistoria-core/tools/vistoria-lint/analyzers/timenow"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, timenow.Analyzer, "services", "other")
}
