// ABOUTME: MCP tool-call adapter exposing content operations over POST /mcp
// ABOUTME: Implements initialize, tools/list, tools/call, resources/list and resources/read

// Package mcp implements the MCP-flavored tool-call protocol adapter.
//
// Requests arrive as JSON objects with a string method field; tool calls
// resolve against a fixed registry built at startup. Tool results wrap the
// domain envelope as a single text content block, which is the wire contract
// MCP clients expect.
package mcp
