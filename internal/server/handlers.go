package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/image-unshred/internal/detection"
	"github.com/ironsheep/image-unshred/internal/imaging"
	"github.com/ironsheep/image-unshred/internal/pipeline"
	"github.com/ironsheep/image-unshred/internal/unshred"
)

// errInvalidParams marks tool arguments that could not be decoded.
var errInvalidParams = errors.New("invalid params")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_unshred").
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
// Tool execution errors return a JSON-RPC error response with code -32000;
// arguments that do not decode return -32602.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if errors.Is(err, errInvalidParams) {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	if err != nil {
		s.log.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	// Reconstruction
	case "image_unshred":
		return s.handleImageUnshred(args)
	case "image_shred":
		return s.handleImageShred(args)

	// Analysis
	case "image_strip_distances":
		return s.handleImageStripDistances(args)
	case "image_detect_strip_width":
		return s.handleImageDetectStripWidth(args)
	case "image_edge_colors":
		return s.handleImageEdgeColors(args)

	// Visual Inspection
	case "image_crop_strip":
		return s.handleImageCropStrip(args)
	case "image_strip_overlay":
		return s.handleImageStripOverlay(args)
	case "image_compare":
		return s.handleImageCompare(args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments: %w", errInvalidParams)
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

// === Basic Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Reconstruction ===

type imageUnshredArgs struct {
	Path         string `json:"path"`
	Strips       int    `json:"strips"`
	OutputPath   string `json:"output_path"`
	IncludeImage bool   `json:"include_image"`
}

// UnshredResult reports a reconstruction.
type UnshredResult struct {
	Strips     int                         `json:"strips"`
	StripWidth int                         `json:"strip_width"`
	Order      unshred.StripOrder          `json:"order"`
	SeamStrip  int                         `json:"seam_strip"`
	SeamScore  float64                     `json:"seam_score"`
	Junctions  []unshred.Junction          `json:"junctions,omitempty"`
	Detected   *detection.StripWidthResult `json:"detected,omitempty"`
	DurationMS int64                       `json:"duration_ms"`
	RunID      string                      `json:"run_id,omitempty"`
	OutputPath string                      `json:"output_path,omitempty"`
	Image      *imaging.EncodedImage       `json:"image,omitempty"`
}

func (s *Server) handleImageUnshred(args json.RawMessage) (interface{}, error) {
	var a imageUnshredArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	out, err := s.pipeline.Unshred(context.Background(), pipeline.Request{
		Source: a.Path,
		Output: a.OutputPath,
		Frame:  frame,
		Strips: a.Strips,
	})
	if err != nil {
		return nil, err
	}

	result := &UnshredResult{
		Strips:     out.Strips,
		StripWidth: frame.Width / out.Strips,
		Order:      out.Result.Order,
		SeamStrip:  out.Result.SeamStrip,
		SeamScore:  out.Result.SeamScore,
		Junctions:  out.Result.Junctions,
		Detected:   out.Detected,
		DurationMS: out.Duration.Milliseconds(),
		RunID:      out.RunID,
	}

	img := out.Frame.Image()
	if a.OutputPath != "" {
		if err := imaging.Save(a.OutputPath, img); err != nil {
			return nil, err
		}
		// a later load of the same path must see the new file
		s.cache.Evict(a.OutputPath)
		result.OutputPath = a.OutputPath
	}
	if a.IncludeImage {
		if result.Image, err = imaging.EncodeInline(img); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type imageShredArgs struct {
	Path         string `json:"path"`
	Strips       int    `json:"strips"`
	Seed         *int64 `json:"seed"`
	OutputPath   string `json:"output_path"`
	IncludeImage bool   `json:"include_image"`
}

// ShredResult reports a shred.
type ShredResult struct {
	Strips     int                   `json:"strips"`
	Seed       int64                 `json:"seed"`
	Order      unshred.StripOrder    `json:"order"`
	RunID      string                `json:"run_id,omitempty"`
	OutputPath string                `json:"output_path,omitempty"`
	Image      *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleImageShred(args json.RawMessage) (interface{}, error) {
	var a imageShredArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	seed := int64(1)
	if a.Seed != nil {
		seed = *a.Seed
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	out, err := s.pipeline.Shred(context.Background(), pipeline.ShredRequest{
		Source: a.Path,
		Output: a.OutputPath,
		Image:  frame.Image(),
		Strips: a.Strips,
		Seed:   seed,
	})
	if err != nil {
		return nil, err
	}

	result := &ShredResult{
		Strips: a.Strips,
		Seed:   seed,
		Order:  out.Order,
		RunID:  out.RunID,
	}
	if a.OutputPath != "" {
		if err := imaging.Save(a.OutputPath, out.Image); err != nil {
			return nil, err
		}
		s.cache.Evict(a.OutputPath)
		result.OutputPath = a.OutputPath
	}
	if a.IncludeImage {
		if result.Image, err = imaging.EncodeInline(out.Image); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// === Analysis ===

type imageStripsArgs struct {
	Path   string `json:"path"`
	Strips int    `json:"strips"`
}

// StripDistancesResult is the full pairwise scoring of an image's strips.
type StripDistancesResult struct {
	Strips     int         `json:"strips"`
	StripWidth int         `json:"strip_width"`
	Forward    [][]float64 `json:"forward"`
	RightMatch []int       `json:"right_match"`
	LeftMatch  []int       `json:"left_match"`
	Mutual     [][2]int    `json:"mutual_pairs"`
	InputCost  float64     `json:"input_order_cost"`
}

func (s *Server) handleImageStripDistances(args json.RawMessage) (interface{}, error) {
	var a imageStripsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	m, mt, err := s.unshredder.Analyze(frame.Pixels, frame.Width, frame.Height, a.Strips)
	if err != nil {
		return nil, err
	}

	n := m.Len()
	result := &StripDistancesResult{
		Strips:     n,
		StripWidth: frame.Width / n,
		Forward:    make([][]float64, n),
		RightMatch: mt.Right,
		LeftMatch:  mt.Left,
		Mutual:     [][2]int{},
	}
	identity := make(unshred.StripOrder, n)
	for i := 0; i < n; i++ {
		identity[i] = i
		result.Forward[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i != j {
				result.Forward[i][j] = m.Forward(i, j)
			}
		}
		if mt.MutualRight(i) {
			result.Mutual = append(result.Mutual, [2]int{i, mt.Right[i]})
		}
	}
	result.InputCost = unshred.OrderCost(m, identity)
	return result, nil
}

type imageDetectStripWidthArgs struct {
	Path     string `json:"path"`
	MinWidth int    `json:"min_width"`
}

func (s *Server) handleImageDetectStripWidth(args json.RawMessage) (interface{}, error) {
	var a imageDetectStripWidthArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MinWidth == 0 {
		a.MinWidth = s.minWidth
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return detection.DetectStripWidth(frame, a.MinWidth)
}

func (s *Server) handleImageEdgeColors(args json.RawMessage) (interface{}, error) {
	var a imageStripsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeColors(frame, a.Strips)
}

// === Visual Inspection ===

type imageCropStripArgs struct {
	Path   string  `json:"path"`
	Strips int     `json:"strips"`
	Index  int     `json:"index"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleImageCropStrip(args json.RawMessage) (interface{}, error) {
	var a imageCropStripArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropStrip(frame.Image(), a.Strips, a.Index, a.Scale)
}

type imageStripOverlayArgs struct {
	Path       string `json:"path"`
	Strips     int    `json:"strips"`
	Color      string `json:"color"`
	ShowLabels *bool  `json:"show_labels"`
}

func (s *Server) handleImageStripOverlay(args json.RawMessage) (interface{}, error) {
	var a imageStripOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = imaging.DefaultOverlayColor
	}
	showLabels := true
	if a.ShowLabels != nil {
		showLabels = *a.ShowLabels
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.StripOverlay(frame.Image(), a.Strips, a.Color, showLabels)
}

type imageCompareArgs struct {
	Path1 string `json:"path1"`
	Path2 string `json:"path2"`
}

func (s *Server) handleImageCompare(args json.RawMessage) (interface{}, error) {
	var a imageCompareArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	f1, err := s.cache.Load(a.Path1)
	if err != nil {
		return nil, err
	}
	f2, err := s.cache.Load(a.Path2)
	if err != nil {
		return nil, err
	}
	return imaging.CompareFrames(f1, f2)
}
