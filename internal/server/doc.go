// Package server implements the MCP (Model Context Protocol) server for the
// strip reconstruction tools.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image, report size and the strip counts that fit
//
// Reconstruction:
//   - image_unshred: Reassemble shuffled strips, optionally saving the result
//   - image_shred: Cut and shuffle strips with a seed, for test input
//
// Analysis:
//   - image_strip_distances: Pairwise edge scores and best neighbours
//   - image_detect_strip_width: Estimate the strip count of a shredded image
//   - image_edge_colors: Mean edge colours per strip
//
// Visual Inspection:
//   - image_crop_strip: Extract one strip
//   - image_strip_overlay: Draw strip boundaries and labels
//   - image_compare: Pixel comparison of two images
//
// # Image Caching
//
// Decoded frames are cached by path for the lifetime of the server. Files the
// server writes itself are evicted so a later load sees the new contents.
//
// # Error Handling
//
// Tool failures are JSON-RPC errors with code -32000 and the Go error text as
// data. Arguments that fail to decode return -32602, unknown methods -32601.
//
// # Usage
//
//	srv := server.New(server.WithPipeline(p), server.WithLogger(log))
//	if err := srv.Run(); err != nil {
//	    return err
//	}
package server
