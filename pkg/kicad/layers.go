package kicad

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ecadlab/boardsnap/pkg/errors"
)

// layerListCommands are the layer-listing invocations to try in order.
// The subcommand was renamed between kicad-cli versions.
var layerListCommands = [][]string{
	{"pcb", "layers", "list"},
	{"pcb", "list-layers"},
}

// ListLayers asks kicad-cli for the layer names of a board file. Output lines
// are parsed as "<name> ..." where a layer name contains a dot (F.Cu,
// B.SilkS, ...). Returns an error when no invocation variant yields layers;
// callers fall back to [ParseBoardLayers].
func (c *Client) ListLayers(ctx context.Context, boardPath string) ([]string, error) {
	var lastErr error
	for _, base := range layerListCommands {
		out, _, err := c.run(ctx, c.probeTimeout(), append(append([]string{}, base...), boardPath)...)
		if err != nil {
			lastErr = err
			continue
		}
		if layers := parseLayerListing(string(out)); len(layers) > 0 {
			return layers, nil
		}
	}
	if lastErr == nil {
		lastErr = errors.New(errors.ErrCodeRenderFailed, "kicad-cli reported no layers for %s", boardPath)
	}
	return nil, lastErr
}

func (c *Client) probeTimeout() time.Duration {
	if c.ProbeTimeout > 0 {
		return c.ProbeTimeout
	}
	return DefaultProbeTimeout
}

// parseLayerListing extracts layer names from tool output, first token per
// line, keeping tokens that contain a dot, deduplicated in first-seen order.
func parseLayerListing(out string) []string {
	var layers []string
	seen := map[string]bool{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		token := fields[0]
		if !strings.Contains(token, ".") || seen[token] {
			continue
		}
		seen[token] = true
		layers = append(layers, token)
	}
	return layers
}

// layerDeclPattern matches board-file layer declarations: (0 "F.Cu" signal)
var layerDeclPattern = regexp.MustCompile(`\(\s*\d+\s+"([^"]+)"\s+`)

// ParseBoardLayers is the best-effort textual fallback used when tool-based
// layer listing is unavailable: scan board-document content for layer
// declarations and return the names deduplicated in first-seen order.
func ParseBoardLayers(data []byte) []string {
	var layers []string
	seen := map[string]bool{}
	for _, m := range layerDeclPattern.FindAllSubmatch(data, -1) {
		name := string(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		layers = append(layers, name)
	}
	return layers
}
