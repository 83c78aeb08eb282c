package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns the available tools. latex_table is only
// listed when a validator is configured.
func GetToolDefinitions(withValidator bool) []Tool {
	tools := []Tool{
		// Dataset inspection
		{
			Name:        "dataset_classes",
			Description: "Read the class names of a YOLO dataset from its data.yaml (or merged_data.yaml).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the dataset root",
					},
				},
				"required": []string{"root"},
			},
		},
		{
			Name:        "dataset_match_class",
			Description: "Find the first candidate class name present in a dataset, compared case-insensitively in candidate order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the dataset root",
					},
					"candidates": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Class names to look for, in priority order. Default racecar, car, vehicle",
					},
				},
				"required": []string{"root"},
			},
		},
		{
			Name:        "dataset_stats",
			Description: "Count images, label files, background images and per-class instances in every split of a dataset.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the dataset root",
					},
				},
				"required": []string{"root"},
			},
		},

		// Merging
		{
			Name:        "dataset_merge",
			Description: "Merge a car-components dataset and a racecars dataset into one training tree. The racecar class is appended after the component classes and all other racecar labels are dropped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"components_root": map[string]interface{}{
						"type":        "string",
						"description": "Components dataset root (dataset A)",
					},
					"racecars_root": map[string]interface{}{
						"type":        "string",
						"description": "Racecars dataset root (dataset B)",
					},
					"merged_root": map[string]interface{}{
						"type":        "string",
						"description": "Destination; must be empty or missing unless force is set",
					},
					"candidates": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Racecar class names to look for, in priority order",
					},
					"force": map[string]interface{}{
						"type":        "boolean",
						"description": "Remove the destination before merging. Default false",
						"default":     false,
					},
					"dry_run": map[string]interface{}{
						"type":        "boolean",
						"description": "Validate and count without writing anything. Default false",
						"default":     false,
					},
					"write_manifest": map[string]interface{}{
						"type":        "boolean",
						"description": "Write merged_data.yaml into the destination. Default true",
						"default":     true,
					},
				},
				"required": []string{"components_root", "racecars_root", "merged_root"},
			},
		},

		// Visualisation
		{
			Name:        "labels_render",
			Description: "Draw the ground-truth boxes of one dataset split onto its images and write them as JPEGs.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the dataset root",
					},
					"split": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"train", "val", "test"},
						"description": "Split to render. Default val",
					},
					"out_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory for rendered images",
					},
					"max_side": map[string]interface{}{
						"type":        "integer",
						"description": "Downscale so neither side exceeds this. 0 keeps the size",
					},
					"show_class": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the class index above each box",
					},
				},
				"required": []string{"root", "out_dir"},
			},
		},
		{
			Name:        "labels_crop",
			Description: "Crop every labelled object of one image into its own PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image",
					},
					"labels": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the YOLO label file",
					},
					"out_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory for the crops",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"image", "labels", "out_dir"},
			},
		},

		// LaTeX
		{
			Name:        "latex_figures",
			Description: "Write one LaTeX figure block per .jpg in a directory, sorted by name.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory of rendered predictions",
					},
					"out": map[string]interface{}{
						"type":        "string",
						"description": "Output .tex path",
					},
				},
				"required": []string{"dir", "out"},
			},
		},
	}

	if withValidator {
		tools = append(tools, Tool{
			Name:        "latex_table",
			Description: "Validate the model on a dataset and write a LaTeX table of per-class average precision.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"data": map[string]interface{}{
						"type":        "string",
						"description": "Path to the dataset YAML",
					},
					"out": map[string]interface{}{
						"type":        "string",
						"description": "Output .tex path",
					},
				},
				"required": []string{"data", "out"},
			},
		})
	}
	return tools
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(s.validator != nil),
		},
	}
}
