package kicad

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ecadlab/boardsnap/pkg/errors"
)

// wholeBoardLayerSets is the fallback chain for whole-board exports, broadest
// first. Accepted layer names vary across kicad-cli versions; the first set
// that exports at least one SVG wins.
var wholeBoardLayerSets = []string{
	"F.Cu,B.Cu,F.SilkS,B.SilkS,Edge.Cuts",
	"F.Cu,B.Cu",
	"F.Cu",
}

// exportStep is one export invocation to attempt: a pure argument
// description, so fallback chains stay inspectable and testable.
type exportStep struct {
	args []string
}

// sheetExportPlan builds the single invocation used for schematic export.
func sheetExportPlan(source, outDir string) []exportStep {
	return []exportStep{
		{args: []string{"sch", "export", "svg", source, "-o", outDir}},
	}
}

// boardExportPlan builds the invocation sequence for board export.
// With a specific layer, one scoped invocation; without, the whole-board
// fallback chain. Layer-scoped exports write to a file rather than a
// directory — some kicad-cli versions require file output with --layers.
func boardExportPlan(source, outDir, layer string) []exportStep {
	if layer != "" {
		return []exportStep{
			{args: []string{"pcb", "export", "svg", "--layers", layer, source, "-o", filepath.Join(outDir, "layer.svg")}},
		}
	}
	steps := make([]exportStep, 0, len(wholeBoardLayerSets))
	for _, layers := range wholeBoardLayerSets {
		steps = append(steps, exportStep{
			args: []string{"pcb", "export", "svg", "--layers", layers, source, "-o", filepath.Join(outDir, "board.svg")},
		})
	}
	return steps
}

// ExportSheetSVG exports a schematic to SVG files under outDir and returns
// the sorted SVG paths.
func (c *Client) ExportSheetSVG(ctx context.Context, source, outDir string) ([]string, error) {
	return c.export(ctx, sheetExportPlan(source, outDir), outDir)
}

// ExportBoardSVG exports a board to SVG under outDir. An empty layer means
// "whole board" and walks the fallback layer-set chain; a named layer is a
// single scoped invocation.
func (c *Client) ExportBoardSVG(ctx context.Context, source, outDir, layer string) ([]string, error) {
	return c.export(ctx, boardExportPlan(source, outDir, layer), outDir)
}

// export runs the steps in order until one exits zero AND leaves at least one
// SVG under outDir. When every alternative is exhausted the most recent
// diagnostic text becomes the failure reason.
func (c *Client) export(ctx context.Context, plan []exportStep, outDir string) ([]string, error) {
	lastDiag := ""
	for _, step := range plan {
		_, diag, err := c.run(ctx, c.exportTimeout(), step.args...)
		if err != nil {
			if errors.Is(err, errors.ErrCodeTimeout) {
				return nil, err
			}
			lastDiag = errors.UserMessage(err)
			continue
		}
		svgs := findSVGs(outDir)
		if len(svgs) > 0 {
			return svgs, nil
		}
		lastDiag = "no SVG exported by kicad-cli"
		if diag != "" {
			lastDiag = diag
		}
	}
	if lastDiag == "" {
		lastDiag = "kicad-cli export failed"
	}
	return nil, errors.New(errors.ErrCodeRenderFailed, "%s", lastDiag)
}

func (c *Client) exportTimeout() time.Duration {
	if c.ExportTimeout > 0 {
		return c.ExportTimeout
	}
	return DefaultExportTimeout
}

// findSVGs returns all .svg files under root, sorted for determinism.
func findSVGs(root string) []string {
	var svgs []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".svg") {
			svgs = append(svgs, p)
		}
		return nil
	})
	sort.Strings(svgs)
	return svgs
}
