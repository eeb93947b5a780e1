package a

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

func unsortedKeys(m map[string]int) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k) // want "keys is appended in map iteration order"
	}
	return keys
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func writeDirect(w io.Writer, m map[string]int) {
	for k, v := range m {
		fmt.Fprintf(w, "%s=%d\n", k, v) // want "fmt.Fprintf called in map iteration order"
	}
}

func bufferDirect(m map[string]string) []byte {
	var buf bytes.Buffer
	for k := range m {
		buf.WriteString(k) // want "WriteString called in map iteration order"
	}
	return buf.Bytes()
}

func sliceRange(items []string) []string {
	var out []string
	for _, s := range items {
		out = append(out, s)
	}
	return out
}

func firstError(m map[string]int) error {
	for k, v := range m {
		if v < 0 {
			return fmt.Errorf("negative %s", k)
		}
	}
	return nil
}
