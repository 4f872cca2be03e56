package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

// maxFuzzInput bounds the input handed to a harness.
const maxFuzzInput = 16 << 10

var inlineSeeds = []string{
	"package: demo\n",
	"package: demo\nclasses:\n  - name: A\n    supertypes: [B]\n  - name: B\n    modality: open\n    supertypes: [A]\n",
	"package: demo\nclasses:\n  - name: Box\n    typeParameters: [{name: T, variance: out, bounds: [\"Comparable<T>\"]}]\n",
	"package: demo\nclasses:\n  - name: E\n    kind: enum\n    entries: [{name: A}, {name: B}]\n",
	"package: demo\nfunctions:\n  - {name: f, parameters: [{name: xs, type: Int, vararg: true}], returns: \"List<Int>?\"}\n",
	"package: [unclosed\n",
	"classes: 7\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f, filepath.Join("..", "resolve", "testdata"))
	addTestdataSeeds(f, filepath.Join("..", "shape", "testdata"))
}

// addTestdataSeeds adds every declaration file under root.
func addTestdataSeeds(f *testing.F, root string) {
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
		default:
			return nil
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}

// truncateForLog shortens input for failure messages.
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
