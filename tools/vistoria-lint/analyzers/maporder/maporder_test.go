package maporder_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/vistoria/vistoria-core/tools/vistoria-lint/analyzers/maporder"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, maporder.Analyzer, "a")
}
