package domain

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

//go:generate mockgen -destination mocks/mock_event_repository.go -package mocks github.com/signalforge/signalforge/internal/domain EventRepository
//go:generate mockgen -destination mocks/mock_ingest_service.go -package mocks github.com/signalforge/signalforge/internal/domain IngestService

// Event types recognized by the signal computer. Anything else is carried
// as EventTypeCustom and contributes nothing to intent.
const (
	EventTypePageView    = "page_view"
	EventTypeProductView = "product_view"
	EventTypeCart        = "cart"
	EventTypeCheckout    = "checkout"
	EventTypeOrder       = "order"
	EventTypeEmailOpen   = "email_open"
	EventTypeEmailClick  = "email_click"
	EventTypeCustom      = "custom"

	// Derived abandonment events, synthesized by the maintenance pass and
	// forwarded to the destination like first-class events.
	EventTypeCartAbandoned     = "cart_abandoned"
	EventTypeCheckoutAbandoned = "checkout_abandoned"
)

// Event lifecycle: pending → processed → synced, or → failed.
const (
	EventStatusPending   = "pending"
	EventStatusProcessed = "processed"
	EventStatusFailed    = "failed"
	EventStatusSynced    = "synced"
)

// Event is one tracked occurrence. UnifiedUserID may be back-filled after
// the fact when an anonymous visitor is later identified.
type Event struct {
	ID            string    `json:"id"`
	WorkspaceID   string    `json:"workspace_id"`
	UnifiedUserID *string   `json:"unified_user_id,omitempty"`
	AnonymousID   *string   `json:"anonymous_id,omitempty"`
	EventType     string    `json:"event_type"`
	EventName     string    `json:"event_name"`
	Properties    JSONMap   `json:"properties"`
	EventTime     time.Time `json:"event_time"`
	Source        string    `json:"source"`
	DedupeKey     string    `json:"dedupe_key"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// For database scanning
type dbEvent struct {
	ID            string
	WorkspaceID   string
	UnifiedUserID sql.NullString
	AnonymousID   sql.NullString
	EventType     string
	EventName     string
	Properties    JSONMap
	EventTime     time.Time
	Source        string
	DedupeKey     string
	Status        string
	CreatedAt     time.Time
}

// ScanEvent scans an event row
func ScanEvent(scanner interface {
	Scan(dest ...interface{}) error
}) (*Event, error) {
	var dbe dbEvent
	if err := scanner.Scan(
		&dbe.ID,
		&dbe.WorkspaceID,
		&dbe.UnifiedUserID,
		&dbe.AnonymousID,
		&dbe.EventType,
		&dbe.EventName,
		&dbe.Properties,
		&dbe.EventTime,
		&dbe.Source,
		&dbe.DedupeKey,
		&dbe.Status,
		&dbe.CreatedAt,
	); err != nil {
		return nil, err
	}

	event := &Event{
		ID:          dbe.ID,
		WorkspaceID: dbe.WorkspaceID,
		EventType:   dbe.EventType,
		EventName:   dbe.EventName,
		Properties:  dbe.Properties,
		EventTime:   dbe.EventTime,
		Source:      dbe.Source,
		DedupeKey:   dbe.DedupeKey,
		Status:      dbe.Status,
		CreatedAt:   dbe.CreatedAt,
	}
	if dbe.UnifiedUserID.Valid {
		event.UnifiedUserID = &dbe.UnifiedUserID.String
	}
	if dbe.AnonymousID.Valid {
		event.AnonymousID = &dbe.AnonymousID.String
	}
	return event, nil
}

// Fingerprint derives a stable pseudo-identifier from client IP and user
// agent so cookieless server-side tracking still resolves to one visitor
// per IP/UA combination.
func Fingerprint(clientIP, userAgent string) string {
	sum := sha256.Sum256([]byte(clientIP + "|" + userAgent))
	return "fp_" + hex.EncodeToString(sum[:])[:16]
}

// ComputeDedupeKey derives the workspace-unique dedupe key for an event
// when the caller did not supply one.
func ComputeDedupeKey(workspaceID, eventType, eventName string, eventTime time.Time, anonymousID, email, customerID string, properties json.RawMessage) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%s|%s|%s|", workspaceID, eventType, eventName, eventTime.UnixNano(), anonymousID, email, customerID)
	h.Write(properties)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// TrackRequest is the inbound server-track body.
type TrackRequest struct {
	WorkspaceID string          `json:"workspace_id"`
	EventType   string          `json:"event_type"`
	EventName   string          `json:"event_name"`
	Properties  json.RawMessage `json:"properties,omitempty"`
	AnonymousID string          `json:"anonymous_id,omitempty"`
	Email       string          `json:"email,omitempty"`
	CustomerID  string          `json:"customer_id,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	ClientIP    string          `json:"client_ip,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty"`
	Source      string          `json:"source,omitempty"`
	Timestamp   *time.Time      `json:"timestamp,omitempty"`
	DedupeKey   string          `json:"dedupe_key,omitempty"`
}

// Validate bounds the payload and builds the Event plus the resolver input.
// When no anonymous id is supplied a fingerprint is derived from IP + user
// agent so the event still gets a stable pseudo-identifier.
func (r *TrackRequest) Validate(maxBytes, maxDepth int) (*Event, ResolveInput, error) {
	if r.WorkspaceID == "" {
		return nil, ResolveInput{}, NewValidationError("workspace_id is required")
	}
	if r.EventType == "" {
		return nil, ResolveInput{}, NewValidationError("event_type is required")
	}
	if r.EventName == "" {
		return nil, ResolveInput{}, NewValidationError("event_name is required")
	}
	if err := ValidatePropertyBag(r.Properties, maxBytes, maxDepth); err != nil {
		return nil, ResolveInput{}, err
	}

	anonymousID := r.AnonymousID
	if anonymousID == "" && (r.ClientIP != "" || r.UserAgent != "") {
		anonymousID = Fingerprint(r.ClientIP, r.UserAgent)
	}

	input := ResolveInput{
		AnonymousID: anonymousID,
		Email:       r.Email,
		Phone:       r.Phone,
		CustomerID:  r.CustomerID,
		Source:      r.Source,
	}
	if input.Source == "" {
		input.Source = "server"
	}
	if err := input.Validate(); err != nil {
		return nil, ResolveInput{}, err
	}

	eventTime := time.Now().UTC()
	if r.Timestamp != nil {
		eventTime = r.Timestamp.UTC()
	}

	var properties JSONMap
	if len(r.Properties) > 0 {
		if err := json.Unmarshal(r.Properties, &properties); err != nil {
			return nil, ResolveInput{}, NewValidationError(fmt.Sprintf("invalid properties: %v", err))
		}
	}

	dedupeKey := r.DedupeKey
	if dedupeKey == "" {
		dedupeKey = ComputeDedupeKey(r.WorkspaceID, r.EventType, r.EventName, eventTime, anonymousID, r.Email, r.CustomerID, r.Properties)
	}

	event := &Event{
		WorkspaceID: r.WorkspaceID,
		EventType:   r.EventType,
		EventName:   r.EventName,
		Properties:  properties,
		EventTime:   eventTime,
		Source:      input.Source,
		DedupeKey:   dedupeKey,
		Status:      EventStatusPending,
	}
	if anonymousID != "" {
		event.AnonymousID = &anonymousID
	}
	return event, input, nil
}

// TrackResponse is the flat tri-state result callers see: success,
// duplicate, or a validation error. Duplicate is success, not an error.
type TrackResponse struct {
	EventID        string `json:"event_id"`
	UnifiedUserID  string `json:"unified_user_id"`
	IsNewUser      bool   `json:"is_new_user"`
	IdentityMerged bool   `json:"identity_merged"`
	Duplicate      bool   `json:"duplicate,omitempty"`
}

// EventRepository persists events.
type EventRepository interface {
	// Insert stores the event. When the (workspace, dedupe key) constraint
	// is violated it reports duplicate=true with no other side effects.
	Insert(ctx context.Context, event *Event) (duplicate bool, err error)

	GetByID(ctx context.Context, workspaceID, id string) (*Event, error)
	ListByUser(ctx context.Context, workspaceID, unifiedUserID string, limit int) ([]*Event, error)

	// RelinkAnonymousEvents reassigns prior events carrying anonymousID
	// whose unified user is null or stale, returning the count relinked.
	RelinkAnonymousEvents(ctx context.Context, tx *sql.Tx, workspaceID, anonymousID, unifiedUserID string) (int64, error)

	UpdateStatus(ctx context.Context, workspaceID, id, status string) error

	// AssignUser attaches an already-stored event to its resolved
	// identity.
	AssignUser(ctx context.Context, workspaceID, id, unifiedUserID string) error

	// ListAbandonmentCandidates returns unified user ids whose most recent
	// event of the given type is older than cutoff with no later order.
	ListAbandonmentCandidates(ctx context.Context, workspaceID, eventType string, cutoff time.Time, limit int) ([]string, error)

	// BackfillUnlinkedEvents links events that still carry only an
	// anonymous id to identities that have since claimed that id.
	BackfillUnlinkedEvents(ctx context.Context, workspaceID string, since time.Time) (int64, error)
}

// IngestService accepts raw events and identify calls.
type IngestService interface {
	Identify(ctx context.Context, req *IdentifyRequest) (*IdentifyResponse, error)
	Track(ctx context.Context, req *TrackRequest) (*TrackResponse, error)
}
