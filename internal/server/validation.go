package server

import (
	"fmt"
	"net/url"
	"strings"

	"subkeep/internal/models"
)

func normalizeName(value string) (string, error) {
	name, err := models.NormalizeName(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidName)
	}
	return name, nil
}

func normalizeTags(values []string) []string {
	tags := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		tag := strings.TrimSpace(value)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func validateRemoteURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return badRequest(fmt.Errorf("url must be an absolute http(s) url"))
	}
	return nil
}

func validateOperators(ops []models.Operator) error {
	for i, op := range ops {
		if strings.TrimSpace(op.Type) == "" {
			return badRequestCode(fmt.Errorf("process[%d]: type is required", i), ErrCodeMissingRequired)
		}
	}
	return nil
}

// normalizeSubscription validates sub in place and fills defaults.
func normalizeSubscription(sub *models.Subscription) error {
	name, err := normalizeName(sub.Name)
	if err != nil {
		return err
	}
	sub.Name = name
	if sub.Source != "" {
		source, err := models.ParseSource(string(sub.Source))
		if err != nil {
			return badRequestCode(err, ErrCodeInvalidSource)
		}
		sub.Source = source
	}
	models.ApplySubscriptionDefaults(sub)
	switch sub.Source {
	case models.SourceRemote:
		if strings.TrimSpace(sub.URL) == "" {
			return badRequestCode(fmt.Errorf("url is required for a remote subscription"), ErrCodeMissingRequired)
		}
		if err := validateRemoteURL(sub.URL); err != nil {
			return err
		}
	case models.SourceLocal:
		sub.URL = ""
	}
	sub.Tags = normalizeTags(sub.Tags)
	return validateOperators(sub.Process)
}

// normalizeCollection validates col in place and fills defaults.
func normalizeCollection(col *models.Collection) error {
	name, err := normalizeName(col.Name)
	if err != nil {
		return err
	}
	col.Name = name
	models.ApplyCollectionDefaults(col)
	members := make([]string, 0, len(col.Subscriptions))
	seen := map[string]struct{}{}
	for _, raw := range col.Subscriptions {
		member, err := normalizeName(raw)
		if err != nil {
			return err
		}
		if _, ok := seen[member]; ok {
			continue
		}
		seen[member] = struct{}{}
		members = append(members, member)
	}
	col.Subscriptions = members
	col.Tags = normalizeTags(col.Tags)
	return validateOperators(col.Process)
}

// normalizeArtifact validates artifact in place.
func normalizeArtifact(artifact *models.Artifact) error {
	name, err := normalizeName(artifact.Name)
	if err != nil {
		return err
	}
	artifact.Name = name
	artifactType, err := models.ParseArtifactType(string(models.CanonicalArtifactType(models.ArtifactType(strings.ToLower(strings.TrimSpace(string(artifact.Type)))))))
	if err != nil {
		return badRequestCode(err, ErrCodeInvalidType)
	}
	artifact.Type = artifactType
	if strings.TrimSpace(artifact.Source) == "" {
		return badRequestCode(fmt.Errorf("source is required"), ErrCodeMissingRequired)
	}
	source, err := normalizeName(artifact.Source)
	if err != nil {
		return err
	}
	artifact.Source = source
	return nil
}
