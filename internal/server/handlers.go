package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/yolo-tools/internal/dataset"
	"github.com/ironsheep/yolo-tools/internal/detect"
	"github.com/ironsheep/yolo-tools/internal/imaging"
	"github.com/ironsheep/yolo-tools/internal/report"
)

// errNoValidator is returned by tools that need a model server when none is
// configured.
var errNoValidator = errors.New("no model server configured")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "dataset_merge", "labels_render").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// Dataset configuration errors (no matching class, missing val directory,
// non-empty destination) use the message "Invalid dataset configuration".
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
		if dataset.IsConfigError(err) {
			return s.errorResponse(req.ID, -32000, "Invalid dataset configuration", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Dataset inspection
	case "dataset_classes":
		return s.handleDatasetClasses(args)
	case "dataset_match_class":
		return s.handleDatasetMatchClass(args)
	case "dataset_stats":
		return s.handleDatasetStats(args)

	// Merging
	case "dataset_merge":
		return s.handleDatasetMerge(args)

	// Visualisation
	case "labels_render":
		return s.handleLabelsRender(args)
	case "labels_crop":
		return s.handleLabelsCrop(args)

	// LaTeX
	case "latex_figures":
		return s.handleLatexFigures(args)
	case "latex_table":
		return s.handleLatexTable(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	return json.Unmarshal(args, v)
}

// === Dataset Inspection Handlers ===

type datasetRootArgs struct {
	Root string `json:"root"`
}

// DatasetClassesResult is the result of dataset_classes.
type DatasetClassesResult struct {
	Root  string   `json:"root"`
	Count int      `json:"nc"`
	Names []string `json:"names"`
}

func (s *Server) handleDatasetClasses(args json.RawMessage) (interface{}, error) {
	var a datasetRootArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	m, err := dataset.LoadRootManifest(a.Root)
	if err != nil {
		return nil, err
	}
	return &DatasetClassesResult{Root: a.Root, Count: m.Len(), Names: m.Names}, nil
}

type datasetMatchClassArgs struct {
	Root       string   `json:"root"`
	Candidates []string `json:"candidates"`
}

// MatchResult is the result of dataset_match_class.
type MatchResult struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func (s *Server) handleDatasetMatchClass(args json.RawMessage) (interface{}, error) {
	var a datasetMatchClassArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Candidates) == 0 {
		a.Candidates = dataset.DefaultCandidates
	}
	m, err := dataset.LoadRootManifest(a.Root)
	if err != nil {
		return nil, err
	}
	idx, name, err := dataset.MatchClass(a.Candidates, m.Names)
	if err != nil {
		return nil, err
	}
	return &MatchResult{Index: idx, Name: name}, nil
}

func (s *Server) handleDatasetStats(args json.RawMessage) (interface{}, error) {
	var a datasetRootArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	m, err := dataset.LoadRootManifest(a.Root)
	if err != nil {
		return nil, err
	}
	return dataset.CollectStats(a.Root, m)
}

// === Merge Handler ===

type datasetMergeArgs struct {
	ComponentsRoot string   `json:"components_root"`
	RacecarsRoot   string   `json:"racecars_root"`
	MergedRoot     string   `json:"merged_root"`
	Candidates     []string `json:"candidates"`
	Force          bool     `json:"force"`
	DryRun         bool     `json:"dry_run"`
	WriteManifest  *bool    `json:"write_manifest"`
}

func (s *Server) handleDatasetMerge(args json.RawMessage) (interface{}, error) {
	var a datasetMergeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	opts := dataset.Options{
		ComponentsRoot: a.ComponentsRoot,
		RacecarsRoot:   a.RacecarsRoot,
		MergedRoot:     a.MergedRoot,
		Candidates:     a.Candidates,
		Force:          a.Force,
		WriteManifest:  a.WriteManifest == nil || *a.WriteManifest,
	}
	m := dataset.NewMerger(opts, s.logger)

	if a.DryRun {
		plan, err := m.Plan()
		if err != nil {
			return nil, err
		}
		return plan.Summary(), nil
	}
	return m.Run()
}

// === Visualisation Handlers ===

type labelsRenderArgs struct {
	Root      string `json:"root"`
	Split     string `json:"split"`
	OutDir    string `json:"out_dir"`
	MaxSide   int    `json:"max_side"`
	ShowClass bool   `json:"show_class"`
}

// RenderResult is the result of labels_render.
type RenderResult struct {
	Split   string `json:"split"`
	OutDir  string `json:"out_dir"`
	Written int    `json:"written"`
}

func (s *Server) handleLabelsRender(args json.RawMessage) (interface{}, error) {
	var a labelsRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	split, err := parseSplit(a.Split)
	if err != nil {
		return nil, err
	}

	opts := imaging.RenderOptions{MaxSide: a.MaxSide, ShowClass: a.ShowClass}
	if m, err := dataset.LoadRootManifest(a.Root); err == nil {
		opts.NumClasses = m.Len()
	}

	n, err := imaging.RenderSplit(s.cache, a.Root, split, a.OutDir, opts)
	if err != nil {
		return nil, err
	}
	return &RenderResult{Split: string(split), OutDir: a.OutDir, Written: n}, nil
}

func parseSplit(name string) (dataset.Split, error) {
	if name == "" {
		return dataset.SplitVal, nil
	}
	for _, sp := range dataset.Splits {
		if string(sp) == name {
			return sp, nil
		}
	}
	return "", errors.Errorf("unknown split %q", name)
}

type labelsCropArgs struct {
	Image  string  `json:"image"`
	Labels string  `json:"labels"`
	OutDir string  `json:"out_dir"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleLabelsCrop(args json.RawMessage) (interface{}, error) {
	var a labelsCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	paths, err := imaging.CropObjects(s.cache, a.Image, a.Labels, a.OutDir, a.Scale)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"crops": paths, "count": len(paths)}, nil
}

// === LaTeX Handlers ===

type latexFiguresArgs struct {
	Dir string `json:"dir"`
	Out string `json:"out"`
}

func (s *Server) handleLatexFigures(args json.RawMessage) (interface{}, error) {
	var a latexFiguresArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	n, err := report.WriteLatexFigures(a.Dir, a.Out)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"out": a.Out, "figures": n}, nil
}

type latexTableArgs struct {
	Data string `json:"data"`
	Out  string `json:"out"`
}

// LatexTableResult is the result of latex_table.
type LatexTableResult struct {
	Out     string         `json:"out"`
	MAP50   float64        `json:"map50"`
	MAP5095 float64        `json:"map50_95"`
	Rows    []detect.APRow `json:"rows"`
}

func (s *Server) handleLatexTable(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.validator == nil {
		return nil, errNoValidator
	}
	var a latexTableArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	metrics, err := s.validator.Validate(ctx, detect.ValidateRequest{Data: a.Data})
	if err != nil {
		return nil, err
	}
	if err := report.WriteLatexTable(a.Out, metrics); err != nil {
		return nil, err
	}
	return &LatexTableResult{
		Out:     a.Out,
		MAP50:   metrics.MAP50,
		MAP5095: metrics.MAP50_95,
		Rows:    metrics.Rows(),
	}, nil
}
