package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/lvillar/pdfmerge/session"
)

// RegisterResources adds the workspace resources to the server.
// Resources use the merge:// scheme.
func RegisterResources(s *Server, ws *session.Workspace) {
	s.AddResource(Resource{
		URI:         "merge://files",
		Name:        "Merge Files",
		Description: "The files of the merge in order, with their page selections.",
		MIMEType:    "application/json",
		Handler: func(uri string) ([]ResourceContent, error) {
			return jsonContent(uri, ws.Files())
		},
	})

	s.AddResource(Resource{
		URI:         "merge://progress",
		Name:        "Merge Progress",
		Description: "Phase, percentage and status message of the latest merge run.",
		MIMEType:    "application/json",
		Handler: func(uri string) ([]ResourceContent, error) {
			return jsonContent(uri, ws.Progress())
		},
	})
}

func jsonContent(uri string, v any) ([]ResourceContent, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(jsonBytes),
	}}, nil
}
