package models

// ApplySubscriptionDefaults fills fields that older records may lack.
func ApplySubscriptionDefaults(sub *Subscription) {
	if sub.Source == "" {
		if sub.URL != "" {
			sub.Source = SourceRemote
		} else {
			sub.Source = SourceLocal
		}
	}
	if sub.Tags == nil {
		sub.Tags = []string{}
	}
	if sub.Process == nil {
		sub.Process = []Operator{}
	}
}

// ApplyCollectionDefaults fills fields that older records may lack.
func ApplyCollectionDefaults(col *Collection) {
	if col.Subscriptions == nil {
		col.Subscriptions = []string{}
	}
	if col.Tags == nil {
		col.Tags = []string{}
	}
	if col.Process == nil {
		col.Process = []Operator{}
	}
}

var legacyArtifactTypes = map[ArtifactType]ArtifactType{
	"sub":  ArtifactSubscription,
	"col":  ArtifactCollection,
	"subs": ArtifactSubscription,
}

// CanonicalArtifactType maps legacy short type names to current ones.
func CanonicalArtifactType(t ArtifactType) ArtifactType {
	if mapped, ok := legacyArtifactTypes[t]; ok {
		return mapped
	}
	return t
}
