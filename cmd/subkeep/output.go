package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"subkeep/internal/api"
	"subkeep/internal/format"
	"subkeep/internal/models"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeLines(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatSubscriptionLine(sub models.Subscription) string {
	target := sub.URL
	if sub.Source == models.SourceLocal {
		target = fmt.Sprintf("(%d bytes inline)", len(sub.Content))
	}
	return fmt.Sprintf("%s [%s] %s", sub.Name, sub.Source, target)
}

func writeSubscriptionDetail(sub models.Subscription) error {
	lines := []string{
		fmt.Sprintf("name: %s", sub.Name),
		fmt.Sprintf("source: %s", sub.Source),
	}
	if sub.DisplayName != "" {
		lines = append(lines, fmt.Sprintf("display_name: %s", sub.DisplayName))
	}
	if sub.URL != "" {
		lines = append(lines, fmt.Sprintf("url: %s", sub.URL))
	}
	if sub.UserAgent != "" {
		lines = append(lines, fmt.Sprintf("ua: %s", sub.UserAgent))
	}
	if len(sub.Tags) > 0 {
		lines = append(lines, fmt.Sprintf("tags: %s", strings.Join(sub.Tags, ", ")))
	}
	lines = append(lines, formatProcess(sub.Process)...)
	return writeLines(lines)
}

func formatCollectionLine(col models.Collection) string {
	return fmt.Sprintf("%s (%d subscriptions)", col.Name, len(col.Subscriptions))
}

func writeCollectionDetail(col models.Collection) error {
	lines := []string{fmt.Sprintf("name: %s", col.Name)}
	if col.DisplayName != "" {
		lines = append(lines, fmt.Sprintf("display_name: %s", col.DisplayName))
	}
	lines = append(lines, fmt.Sprintf("subscriptions: %s", strings.Join(col.Subscriptions, ", ")))
	if len(col.Tags) > 0 {
		lines = append(lines, fmt.Sprintf("tags: %s", strings.Join(col.Tags, ", ")))
	}
	lines = append(lines, formatProcess(col.Process)...)
	return writeLines(lines)
}

func formatArtifactLine(artifact models.Artifact) string {
	sync := " "
	if artifact.Sync {
		sync = "*"
	}
	return fmt.Sprintf("%s %s [%s] <- %s %s", sync, artifact.Name, artifact.Type, artifact.Source, valueOrDash(artifact.Platform))
}

func writeArtifactDetail(artifact models.Artifact) error {
	lines := []string{
		fmt.Sprintf("name: %s", artifact.Name),
		fmt.Sprintf("type: %s", artifact.Type),
		fmt.Sprintf("source: %s", artifact.Source),
		fmt.Sprintf("platform: %s", valueOrDash(artifact.Platform)),
		fmt.Sprintf("sync: %t", artifact.Sync),
	}
	if artifact.URL != "" {
		lines = append(lines, fmt.Sprintf("url: %s", artifact.URL))
	}
	if artifact.Updated > 0 {
		lines = append(lines, fmt.Sprintf("updated: %s", formatMillis(artifact.Updated)))
	}
	return writeLines(lines)
}

func formatProcess(ops []models.Operator) []string {
	if len(ops) == 0 {
		return nil
	}
	lines := []string{"process:"}
	for _, op := range ops {
		line := "  - " + op.Type
		if op.Disabled {
			line += " (disabled)"
		}
		lines = append(lines, line)
	}
	return lines
}

func writeSettings(settings models.Settings) error {
	lines := []string{
		fmt.Sprintf("gist_token: %s", valueOrDash(settings.GistToken)),
		fmt.Sprintf("github_user: %s", valueOrDash(settings.GithubUser)),
		fmt.Sprintf("last_sync: %s", formatMillis(settings.SyncTime)),
		fmt.Sprintf("default_user_agent: %s", valueOrDash(settings.DefaultUserAgent)),
		fmt.Sprintf("default_timeout_ms: %d", settings.DefaultTimeout),
		fmt.Sprintf("data_version: %d", settings.SchemaVersion),
	}
	return writeLines(lines)
}

func writeInfo(info api.InfoResponse) error {
	lines := []string{
		fmt.Sprintf("db_path: %s", info.DBPath),
		fmt.Sprintf("schema_version: %d", info.SchemaVersion),
		fmt.Sprintf("data_version: %d/%d", info.DataVersion, info.LatestDataVersion),
		fmt.Sprintf("subscriptions: %d", info.Subscriptions),
		fmt.Sprintf("collections: %d", info.Collections),
		fmt.Sprintf("artifacts: %d", info.Artifacts),
		fmt.Sprintf("gist_configured: %t", info.GistConfigured),
		fmt.Sprintf("last_sync: %s", formatMillis(info.SyncTime)),
	}
	return writeLines(lines)
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return "never"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
