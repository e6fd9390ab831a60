package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var stripsProperty = map[string]interface{}{
	"type":        "integer",
	"description": "Number of equal-width vertical strips the image was cut into. Must divide the image width.",
	"minimum":     1,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, file size and the strip counts that divide its width evenly.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Reconstruction
		{
			Name:        "image_unshred",
			Description: "Reconstruct an image whose vertical strips were shuffled. Returns the inferred strip order, the seam strip placed last, and the junction scores. Optionally saves the result and returns it inline as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"strips": map[string]interface{}{
						"type":        "integer",
						"description": "Number of strips. Omit or 0 to detect the strip width from the image.",
						"minimum":     0,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the reconstructed image. Format follows the extension (png, jpg, bmp).",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the reconstructed image as base64 PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_shred",
			Description: "Cut an image into equal-width vertical strips and shuffle them with a seeded random order. Useful for producing test input for image_unshred.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"strips": stripsProperty,
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed; the same seed always gives the same order. Default 1",
						"default":     1,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the shredded image.",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the shredded image as base64 PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"path", "strips"},
			},
		},

		// Analysis
		{
			Name:        "image_strip_distances",
			Description: "Score every ordered pair of strips by edge colour distance (lower is a better fit) and report each strip's best right and left neighbour.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"strips": stripsProperty,
				},
				"required": []string{"path", "strips"},
			},
		},
		{
			Name:        "image_detect_strip_width",
			Description: "Estimate how many strips a shredded image was cut into from the colour discontinuities between columns.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"min_width": map[string]interface{}{
						"type":        "integer",
						"description": "Narrowest strip width to consider. Default 2",
						"default":     2,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_edge_colors",
			Description: "Summarize the average left and right edge colour of each strip (hex, RGB, HSL) and the spread between them.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"strips": stripsProperty,
				},
				"required": []string{"path", "strips"},
			},
		},

		// Visual Inspection
		{
			Name:        "image_crop_strip",
			Description: "Extract a single strip as base64-encoded PNG, optionally enlarged for closer inspection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"strips": stripsProperty,
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Strip index (0-based, left to right)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "strips", "index"},
			},
		},
		{
			Name:        "image_strip_overlay",
			Description: "Draw strip boundaries and optional index labels over the image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"strips": stripsProperty,
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Boundary line color as hex. Default \"#ff0000\"",
						"default":     "#ff0000",
					},
					"show_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each strip with its index. Default true",
						"default":     true,
					},
				},
				"required": []string{"path", "strips"},
			},
		},
		{
			Name:        "image_compare",
			Description: "Compare two images of the same size pixel by pixel, e.g. a reconstruction against the original.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path1": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the first image",
					},
					"path2": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the second image",
					},
				},
				"required": []string{"path1", "path2"},
			},
		},
	}
}
