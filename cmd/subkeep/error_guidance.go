package main

import (
	"context"
	"errors"
	"net"
	"strings"

	"subkeep/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: verify SUBKEEP_API_TOKEN matches the server token or api_token_hash.")
		case "resource_exhausted":
			lines = append(lines, "hint: another backup or import is running; retry shortly.")
		case "GIST_TOKEN_NOT_FOUND":
			lines = append(lines, "hint: set a gist token with: subkeep settings set --gist-token <token>")
		case "BACKUP_FAILED":
			if strings.Contains(apiErr.Message, "HTTP 401") {
				lines = append(lines, "hint: GitHub rejected the gist token; set a new one with: subkeep settings set --gist-token <token>")
			}
			lines = append(lines, "hint: check the gist token scope and network access to the GitHub API.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify SUBKEEP_API_URL points to a subkeep server.")
		}
		if apiErr.Status == 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase SUBKEEP_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a subkeep server is running at SUBKEEP_API_URL.",
			"hint: start local server manually with: subkeep srv",
			"hint: you can increase SUBKEEP_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
