package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// compare reports the difference between the file at outPath and output. A
// missing file compares as empty.
func (cmd *cmdGenerate) compare(output string) error {
	existing, err := os.ReadFile(cmd.outPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if string(existing) == output {
		cmd.log.Debug("declarations are up to date", "output", cmd.outPath)
		return nil
	}

	if isTerminal(cmd.stdout) {
		io.WriteString(cmd.stdout, inlineDiff(string(existing), output))
	} else {
		diff, err := unifiedDiff(cmd.outPath, string(existing), output)
		if err != nil {
			return err
		}
		io.WriteString(cmd.stdout, diff)
	}
	return fmt.Errorf("%s: %w", cmd.outPath, errOutOfDate)
}

func unifiedDiff(path, existing, generated string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(existing),
		B:        difflib.SplitLines(generated),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	})
}

// inlineDiff renders a line-level diff with ANSI colors.
func inlineDiff(existing, generated string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(existing, generated)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	return dmp.DiffPrettyText(diffs)
}
