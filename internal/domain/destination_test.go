package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricForEventAllowList(t *testing.T) {
	allowed := map[string]string{
		EventTypeCart:              "Added to Cart",
		EventTypeCheckout:          "Started Checkout",
		EventTypeOrder:             "Placed Order",
		EventTypeCartAbandoned:     "Cart Abandoned",
		EventTypeCheckoutAbandoned: "Checkout Abandoned",
	}
	for eventType, want := range allowed {
		name, ok := MetricForEvent(eventType)
		assert.True(t, ok, eventType)
		assert.Equal(t, want, name)
	}

	for _, blocked := range []string{EventTypePageView, EventTypeProductView, EventTypeEmailOpen, EventTypeCustom, "anything_else"} {
		_, ok := MetricForEvent(blocked)
		assert.False(t, ok, blocked)
	}
}

func TestDestinationPropertiesSchemaStable(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	email := "u@x.com"
	identity := &UnifiedIdentity{
		ID:           "uid1",
		WorkspaceID:  "ws1",
		PrimaryEmail: &email,
		FirstSeenAt:  now.Add(-48 * time.Hour),
		LastSeenAt:   now,
		Computed: ComputedTraits{
			IntentScore: 64,
			LastCartAt:  &now,
		},
	}

	props := DestinationProperties(identity)

	// Every allow-listed field is present even when unset
	for _, key := range []string{
		"sf_intent_score", "sf_drop_off_stage",
		"sf_cart_abandoned_at", "sf_checkout_abandoned_at",
		"sf_last_product_viewed_at", "sf_last_cart_at", "sf_last_order_at",
		"sf_session_count_30d", "sf_unique_products_viewed",
		"sf_email_opens_30d", "sf_email_clicks_30d",
		"sf_first_seen_at", "sf_last_seen_at",
	} {
		_, present := props[key]
		assert.True(t, present, key)
	}

	assert.Equal(t, 64, props["sf_intent_score"])
	assert.Equal(t, StageBrowsing, props["sf_drop_off_stage"], "empty stage reads as browsing")
	assert.Nil(t, props["sf_cart_abandoned_at"])
	assert.Equal(t, now.Format(time.RFC3339), props["sf_last_cart_at"])
}

func TestDestinationMisconfigured(t *testing.T) {
	d := &Destination{Kind: DestinationKindKlaviyo, Enabled: true, Settings: DestinationSettings{APIKey: "pk"}}
	assert.Empty(t, d.Misconfigured())

	d.Enabled = false
	assert.NotEmpty(t, d.Misconfigured())

	d.Enabled = true
	d.Settings.APIKey = ""
	assert.NotEmpty(t, d.Misconfigured())

	d.Settings.APIKey = "pk"
	d.Kind = "mailchimp"
	assert.NotEmpty(t, d.Misconfigured())
}

func TestScanDestination(t *testing.T) {
	// Settings round-trip through the Valuer/Scanner pair
	settings := DestinationSettings{APIKey: "pk_test", ListID: "L1"}
	v, err := settings.Value()
	require.NoError(t, err)

	var scanned DestinationSettings
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, settings, scanned)
}
