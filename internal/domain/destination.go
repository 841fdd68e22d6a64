package domain

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

//go:generate mockgen -destination mocks/mock_destination_repository.go -package mocks github.com/signalforge/signalforge/internal/domain DestinationRepository
//go:generate mockgen -destination mocks/mock_klaviyo_client.go -package mocks github.com/signalforge/signalforge/internal/domain KlaviyoClient

// DestinationKindKlaviyo is the one supported destination contract.
const DestinationKindKlaviyo = "klaviyo"

// DestinationSettings is the credentials blob for one destination.
type DestinationSettings struct {
	APIKey string `json:"api_key"`
	ListID string `json:"list_id,omitempty"`
}

// Value implements the driver.Valuer interface
func (s DestinationSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface
func (s *DestinationSettings) Scan(value interface{}) error {
	if value == nil {
		*s = DestinationSettings{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	cloned := bytes.Clone(b)
	return json.Unmarshal(cloned, s)
}

// Destination is the configuration for one outbound integration. Consumed
// read-only by the sync worker except for sync status bookkeeping.
type Destination struct {
	ID          string              `json:"id"`
	WorkspaceID string              `json:"workspace_id"`
	Kind        string              `json:"kind"`
	Enabled     bool                `json:"enabled"`
	Settings    DestinationSettings `json:"settings"`
	LastSyncAt  *time.Time          `json:"last_sync_at,omitempty"`
	LastError   *string             `json:"last_error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Misconfigured reports whether the destination cannot be called at all.
func (d *Destination) Misconfigured() string {
	if !d.Enabled {
		return "destination is disabled"
	}
	if d.Kind != DestinationKindKlaviyo {
		return "unsupported destination kind: " + d.Kind
	}
	if d.Settings.APIKey == "" {
		return "missing API key"
	}
	return ""
}

// ScanDestination scans a destination row
func ScanDestination(scanner interface {
	Scan(dest ...interface{}) error
}) (*Destination, error) {
	var (
		d          Destination
		lastSyncAt sql.NullTime
		lastError  sql.NullString
	)
	if err := scanner.Scan(
		&d.ID,
		&d.WorkspaceID,
		&d.Kind,
		&d.Enabled,
		&d.Settings,
		&lastSyncAt,
		&lastError,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastSyncAt.Valid {
		t := lastSyncAt.Time
		d.LastSyncAt = &t
	}
	if lastError.Valid {
		d.LastError = &lastError.String
	}
	return &d, nil
}

// DestinationRepository reads destination config and records sync health.
type DestinationRepository interface {
	GetByID(ctx context.Context, workspaceID, id string) (*Destination, error)
	// GetEnabled returns the enabled destination of the given kind for a
	// workspace, or ErrNotFound.
	GetEnabled(ctx context.Context, workspaceID, kind string) (*Destination, error)
	// List returns every destination across workspaces, for worker loops.
	List(ctx context.Context) ([]*Destination, error)
	Upsert(ctx context.Context, destination *Destination) error
	// UpdateSyncStatus records the outcome of the latest sync: a nil
	// lastError clears the stored error.
	UpdateSyncStatus(ctx context.Context, workspaceID, id string, lastSyncAt *time.Time, lastError *string) error
}

// DestinationProfile is the profile upsert payload: identity reference plus
// the full behavioral property set.
type DestinationProfile struct {
	Email      string                 `json:"email"`
	ExternalID string                 `json:"external_id"`
	Properties map[string]interface{} `json:"properties"`
}

// DestinationEvent is the event track payload. UniqueID is derived from the
// source event id so the destination can deduplicate redelivery.
type DestinationEvent struct {
	MetricName string                 `json:"metric"`
	Email      string                 `json:"email"`
	ExternalID string                 `json:"external_id"`
	Properties map[string]interface{} `json:"properties"`
	Time       time.Time              `json:"time"`
	UniqueID   string                 `json:"unique_id"`
}

// EngagementEvent is an inbound engagement record polled back from the
// destination (opens/clicks/subscribes).
type EngagementEvent struct {
	Email      string    `json:"email"`
	Kind       string    `json:"kind"` // "open", "click", "subscribe"
	OccurredAt time.Time `json:"occurred_at"`
}

// KlaviyoClient is the destination API: profile upsert and event track,
// both idempotent by identifier.
type KlaviyoClient interface {
	// UpsertProfile creates the profile, falling back to update-in-place
	// when the destination reports a duplicate. Returns the destination
	// profile id.
	UpsertProfile(ctx context.Context, settings DestinationSettings, profile *DestinationProfile) (string, error)
	TrackEvent(ctx context.Context, settings DestinationSettings, event *DestinationEvent) error
	// ListEngagement returns engagement events recorded since the given
	// time, for the maintenance poll.
	ListEngagement(ctx context.Context, settings DestinationSettings, since time.Time) ([]*EngagementEvent, error)
}

// destinationMetricNames maps forwardable event types to the destination
// metric names. Everything absent from this map is blocked: the profile is
// still updated but no event call is made.
var destinationMetricNames = map[string]string{
	EventTypeCart:              "Added to Cart",
	EventTypeCheckout:          "Started Checkout",
	EventTypeOrder:             "Placed Order",
	EventTypeCartAbandoned:     "Cart Abandoned",
	EventTypeCheckoutAbandoned: "Checkout Abandoned",
}

// MetricForEvent applies the high-value event allow-list. ok=false means
// blocked, which is an expected outcome, not an error.
func MetricForEvent(eventType string) (string, bool) {
	name, ok := destinationMetricNames[eventType]
	return name, ok
}

// DestinationProperties builds the full behavioral property set for a
// profile upsert. Every field in the allow-list is always present, null
// when unset, so the destination's schema stays stable.
func DestinationProperties(identity *UnifiedIdentity) map[string]interface{} {
	c := identity.Computed
	props := map[string]interface{}{
		"sf_intent_score":           c.IntentScore,
		"sf_drop_off_stage":         orBrowsing(c.DropOffStage),
		"sf_cart_abandoned_at":      timeOrNil(c.CartAbandonedAt),
		"sf_checkout_abandoned_at":  timeOrNil(c.CheckoutAbandonedAt),
		"sf_last_product_viewed_at": timeOrNil(c.LastProductViewedAt),
		"sf_last_cart_at":           timeOrNil(c.LastCartAt),
		"sf_last_order_at":          timeOrNil(c.LastOrderAt),
		"sf_session_count_30d":      c.SessionCount30d,
		"sf_unique_products_viewed": c.UniqueProductsViewed,
		"sf_email_opens_30d":        c.EmailOpens30d,
		"sf_email_clicks_30d":       c.EmailClicks30d,
		"sf_first_seen_at":          identity.FirstSeenAt.UTC().Format(time.RFC3339),
		"sf_last_seen_at":           identity.LastSeenAt.UTC().Format(time.RFC3339),
	}
	return props
}

func orBrowsing(stage string) string {
	if stage == "" {
		return StageBrowsing
	}
	return stage
}

func timeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
