// Package server implements the MCP (Model Context Protocol) server for the
// dataset tools.
//
// This package provides a JSON-RPC 2.0 server that exposes dataset merging,
// inspection, label rendering and report generation through the MCP
// protocol, so an assistant can prepare a training set and inspect the
// result without shell access.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// Requests are handled one at a time, so two merges never race on the same
// destination.
//
// # Available Tools
//
// Dataset Inspection:
//   - dataset_classes: Class names from data.yaml
//   - dataset_match_class: Resolve the racecar class from candidates
//   - dataset_stats: Per-split image, label and instance counts
//
// Merging:
//   - dataset_merge: Merge components and racecars datasets (supports dry_run)
//
// Visualisation:
//   - labels_render: Draw ground-truth boxes for one split
//   - labels_crop: Crop each labelled object of an image
//
// LaTeX:
//   - latex_figures: Figure blocks for rendered predictions
//   - latex_table: Per-class AP table (only with a model server)
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the process.
// labels_render evicts each image once written so rendering a large split
// does not hold it all in memory.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: "Invalid dataset configuration" for configuration errors,
//     otherwise "Tool execution failed"
//   - data: the Go error string
//
// # Usage
//
//	srv := server.New(logger, server.WithValidator(client))
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal("server error", zap.Error(err))
//	}
package server
