package models

import (
	"fmt"
	"regexp"
	"strings"
)

// SubscriptionSource defines where a subscription's node list comes from.
type SubscriptionSource string

const (
	SourceRemote SubscriptionSource = "remote"
	SourceLocal  SubscriptionSource = "local"
)

// ArtifactType defines what an artifact is generated from.
type ArtifactType string

const (
	ArtifactSubscription ArtifactType = "subscription"
	ArtifactCollection   ArtifactType = "collection"
)

const maxNameLength = 128

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var validSources = map[SubscriptionSource]struct{}{
	SourceRemote: {},
	SourceLocal:  {},
}

var validArtifactTypes = map[ArtifactType]struct{}{
	ArtifactSubscription: {},
	ArtifactCollection:   {},
}

func IsValidSource(source SubscriptionSource) bool {
	_, ok := validSources[source]
	return ok
}

func IsValidArtifactType(artifactType ArtifactType) bool {
	_, ok := validArtifactTypes[artifactType]
	return ok
}

func ParseSource(raw string) (SubscriptionSource, error) {
	value := SubscriptionSource(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("source is required")
	}
	if !IsValidSource(value) {
		return "", fmt.Errorf("invalid source: %s", value)
	}
	return value, nil
}

func ParseArtifactType(raw string) (ArtifactType, error) {
	value := ArtifactType(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("type is required")
	}
	if !IsValidArtifactType(value) {
		return "", fmt.Errorf("invalid type: %s", value)
	}
	return value, nil
}

// NormalizeName trims and validates a resource name used as a primary key.
func NormalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("name too long")
	}
	if !namePattern.MatchString(name) {
		return "", fmt.Errorf("invalid name: %s", name)
	}
	return name, nil
}
