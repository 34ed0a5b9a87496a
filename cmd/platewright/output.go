package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"platewright/internal/config"
	"platewright/internal/fileutil"
	"platewright/internal/protocol"
)

// writeJSON encodes v as indented JSON to the command's stdout. Unit names
// such as "concentration(molar)" and well references are left unescaped.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeDocument writes the compiled document to stdout, or atomically to
// path when one is given.
func writeDocument(stdout io.Writer, path string, p *protocol.Protocol, indent bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return p.WriteJSON(stdout, indent)
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	return fileutil.WriteAtomic(expanded, 0o644, func(w io.Writer) error {
		return p.WriteJSON(w, indent)
	})
}
