package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"subkeep/internal/api"
	"subkeep/internal/models"
)

type manifest struct {
	Subscriptions []manifestSubscription `yaml:"subscriptions"`
	Collections   []manifestCollection   `yaml:"collections"`
}

type manifestSubscription struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	URL         string   `yaml:"url"`
	Content     string   `yaml:"content"`
	UserAgent   string   `yaml:"ua"`
	Tags        []string `yaml:"tags"`
}

type manifestCollection struct {
	Name          string   `yaml:"name"`
	DisplayName   string   `yaml:"display_name"`
	Subscriptions []string `yaml:"subscriptions"`
	Tags          []string `yaml:"tags"`
}

type manifestResult struct {
	Created  int `json:"created"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
}

// manifestClient is the slice of the API client the importer needs.
type manifestClient interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	DeleteSubscription(ctx context.Context, name string) error
	CreateCollection(ctx context.Context, col models.Collection) (models.Collection, error)
	DeleteCollection(ctx context.Context, name string) error
}

func readManifest(path string) (manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest{}, err
	}
	return parseManifest(data)
}

func parseManifest(data []byte) (manifest, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	seen := make(map[string]struct{}, len(m.Subscriptions))
	for i, sub := range m.Subscriptions {
		name := strings.TrimSpace(sub.Name)
		if name == "" {
			return manifest{}, fmt.Errorf("subscriptions[%d]: name is required", i)
		}
		if _, ok := seen[name]; ok {
			return manifest{}, fmt.Errorf("subscriptions[%d]: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}
		if sub.URL == "" && sub.Content == "" {
			return manifest{}, fmt.Errorf("subscription %q: url or content is required", name)
		}
	}
	for i, col := range m.Collections {
		if strings.TrimSpace(col.Name) == "" {
			return manifest{}, fmt.Errorf("collections[%d]: name is required", i)
		}
	}
	if len(m.Subscriptions) == 0 && len(m.Collections) == 0 {
		return manifest{}, fmt.Errorf("manifest is empty")
	}
	return m, nil
}

func (s manifestSubscription) model() models.Subscription {
	sub := models.Subscription{
		Name:        strings.TrimSpace(s.Name),
		DisplayName: s.DisplayName,
		URL:         strings.TrimSpace(s.URL),
		Content:     s.Content,
		UserAgent:   s.UserAgent,
		Tags:        s.Tags,
	}
	models.ApplySubscriptionDefaults(&sub)
	return sub
}

func (c manifestCollection) model() models.Collection {
	col := models.Collection{
		Name:          strings.TrimSpace(c.Name),
		DisplayName:   c.DisplayName,
		Subscriptions: c.Subscriptions,
		Tags:          c.Tags,
	}
	models.ApplyCollectionDefaults(&col)
	return col
}

// applyManifest creates subscriptions before collections so references resolve.
// Existing names are skipped unless replace is set.
func applyManifest(ctx context.Context, client manifestClient, m manifest, replace bool) (manifestResult, error) {
	var result manifestResult

	for _, entry := range m.Subscriptions {
		sub := entry.model()
		err := upsert(replace, &result,
			func() error { _, err := client.CreateSubscription(ctx, sub); return err },
			func() error { return client.DeleteSubscription(ctx, sub.Name) },
		)
		if err != nil {
			return result, fmt.Errorf("subscription %q: %w", sub.Name, err)
		}
	}

	for _, entry := range m.Collections {
		col := entry.model()
		err := upsert(replace, &result,
			func() error { _, err := client.CreateCollection(ctx, col); return err },
			func() error { return client.DeleteCollection(ctx, col.Name) },
		)
		if err != nil {
			return result, fmt.Errorf("collection %q: %w", col.Name, err)
		}
	}

	return result, nil
}

func upsert(replace bool, result *manifestResult, create, remove func() error) error {
	err := create()
	if err == nil {
		result.Created++
		return nil
	}
	if api.StatusOf(err) != http.StatusConflict {
		return err
	}
	if !replace {
		result.Skipped++
		return nil
	}
	if err := remove(); err != nil {
		return err
	}
	if err := create(); err != nil {
		return err
	}
	result.Replaced++
	return nil
}
