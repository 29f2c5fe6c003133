package eventstore

import (
	"context"
	"encoding/json"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// Event types written by the build service.
const (
	TypeBuildStarted   = "BuildStarted"
	TypePageChanged    = "PageChanged"
	TypeBuildCompleted = "BuildCompleted"
)

// BuildStarted is recorded once the configuration is known.
type BuildStarted struct {
	ModelPath     string   `json:"model_path"`
	ModelRevision string   `json:"model_revision,omitempty"`
	Languages     []string `json:"languages"`
}

// PageChanged is recorded for every ledger entry of the pages category.
type PageChanged struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// BuildCompleted is recorded when a build reaches a terminal status.
type BuildCompleted struct {
	Status        string `json:"status"`
	DurationMS    int64  `json:"duration_ms"`
	Skipped       bool   `json:"skipped,omitempty"`
	Pages         int    `json:"pages"`
	Added         int    `json:"added"`
	Modified      int    `json:"modified"`
	Removed       int    `json:"removed"`
	ContentFailed int    `json:"content_failed"`
	Error         string `json:"error,omitempty"`
}

// AppendJSON encodes payload and appends it as one event.
func AppendJSON(ctx context.Context, store Store, buildID, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.EventStoreError("failed to marshal event payload").
			WithCause(err).
			WithContext("build_id", buildID).
			WithContext("type", eventType).
			Build()
	}
	return store.Append(ctx, buildID, eventType, data, nil)
}

// Decode unmarshals the payload of e into out.
func Decode[T any](e Event) (T, error) {
	var out T
	if err := json.Unmarshal(e.Payload, &out); err != nil {
		return out, errors.EventStoreError("failed to decode event payload").
			WithCause(err).
			WithContext("id", e.ID).
			WithContext("type", e.Type).
			Build()
	}
	return out, nil
}
