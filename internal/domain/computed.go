package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Drop-off funnel stages, ordered from least to most engaged. The stage is a
// pure function of (current computed state, current event) — see the signal
// service.
const (
	StageBrowsing          = "browsing"
	StageEngaged           = "engaged"
	StageCartAbandoned     = "cart_abandoned"
	StageCheckoutAbandoned = "checkout_abandoned"
	StagePurchased         = "purchased"
)

// Intent score bounds and the engagement threshold for the "engaged" stage.
const (
	IntentScoreMin        = 0
	IntentScoreMax        = 100
	EngagedIntentMinScore = 40
)

// SyncFlags are idempotence markers written only by the sync scheduler and
// worker. The signal computer reads them but never resets them.
type SyncFlags struct {
	CheckoutAbandonedSynced bool `json:"checkout_abandoned_synced,omitempty"`
	CartSynced              bool `json:"cart_synced,omitempty"`
	CartAbandonedSynced     bool `json:"cart_abandoned_synced,omitempty"`
	ProductViewSynced       bool `json:"product_view_synced,omitempty"`
	FirstSyncCompleted      bool `json:"first_sync_completed,omitempty"`
}

// ComputedTraits is the derived behavioral state of a unified identity.
// Unknown keys read from storage survive a read-modify-write cycle so newer
// writers can add fields without older instances dropping them.
type ComputedTraits struct {
	IntentScore  int    `json:"intent_score"`
	DropOffStage string `json:"drop_off_stage,omitempty"`

	// First-write-wins timestamps; cleared only by explicit forward
	// progress (a purchase clears abandonment framing).
	CartAbandonedAt     *time.Time `json:"cart_abandoned_at,omitempty"`
	CheckoutAbandonedAt *time.Time `json:"checkout_abandoned_at,omitempty"`
	LastProductViewedAt *time.Time `json:"last_product_viewed_at,omitempty"`
	LastCartAt          *time.Time `json:"last_cart_at,omitempty"`
	LastOrderAt         *time.Time `json:"last_order_at,omitempty"`

	// Rolling 30-day engagement counters, reset by the maintenance pass.
	SessionCount30d      int        `json:"session_count_30d,omitempty"`
	UniqueProductsViewed int        `json:"unique_products_viewed,omitempty"`
	EmailOpens30d        int        `json:"email_opens_30d,omitempty"`
	EmailClicks30d       int        `json:"email_clicks_30d,omitempty"`
	CountersResetAt      *time.Time `json:"counters_reset_at,omitempty"`
	LastDecayAt          *time.Time `json:"last_decay_at,omitempty"`

	Flags SyncFlags `json:"flags"`

	// SyncedSnapshot is the property set last delivered to the destination,
	// persisted on successful profile sync so recomputation diffs against
	// what the destination actually has.
	SyncedSnapshot JSONMap    `json:"synced_snapshot,omitempty"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`

	// Unknown holds keys this version does not recognize.
	Unknown map[string]json.RawMessage `json:"-"`
}

// computedTraitsAlias avoids recursing into the custom (un)marshalers.
type computedTraitsAlias ComputedTraits

var computedTraitsKnownKeys = []string{
	"intent_score", "drop_off_stage",
	"cart_abandoned_at", "checkout_abandoned_at",
	"last_product_viewed_at", "last_cart_at", "last_order_at",
	"session_count_30d", "unique_products_viewed",
	"email_opens_30d", "email_clicks_30d",
	"counters_reset_at", "last_decay_at",
	"flags", "synced_snapshot", "last_synced_at",
}

// UnmarshalJSON decodes known fields and retains unrecognized keys.
func (c *ComputedTraits) UnmarshalJSON(data []byte) error {
	var alias computedTraitsAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range computedTraitsKnownKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		alias.Unknown = raw
	}

	*c = ComputedTraits(alias)
	return nil
}

// MarshalJSON emits known fields plus any retained unknown keys.
func (c ComputedTraits) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(computedTraitsAlias(c))
	if err != nil {
		return nil, err
	}
	if len(c.Unknown) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, value := range c.Unknown {
		if _, exists := merged[key]; !exists {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// Value implements the driver.Valuer interface
func (c ComputedTraits) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface
func (c *ComputedTraits) Scan(value interface{}) error {
	if value == nil {
		*c = ComputedTraits{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	cloned := bytes.Clone(b)
	return json.Unmarshal(cloned, c)
}

// ClampIntentScore bounds a candidate score to [IntentScoreMin, IntentScoreMax].
func ClampIntentScore(score int) int {
	if score < IntentScoreMin {
		return IntentScoreMin
	}
	if score > IntentScoreMax {
		return IntentScoreMax
	}
	return score
}
