package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/pkg/logger"
)

const (
	klaviyoBaseURL  = "https://a.klaviyo.com/api"
	klaviyoRevision = "2024-10-15"
)

// KlaviyoService implements the domain.KlaviyoClient interface
type KlaviyoService struct {
	httpClient domain.HTTPClient
	logger     logger.Logger
}

// NewKlaviyoService creates a new instance of KlaviyoService
func NewKlaviyoService(httpClient domain.HTTPClient, logger logger.Logger) *KlaviyoService {
	return &KlaviyoService{
		httpClient: httpClient,
		logger:     logger,
	}
}

type klaviyoProfilePayload struct {
	Data klaviyoProfileData `json:"data"`
}

type klaviyoProfileData struct {
	Type       string                   `json:"type"`
	ID         string                   `json:"id,omitempty"`
	Attributes klaviyoProfileAttributes `json:"attributes"`
}

type klaviyoProfileAttributes struct {
	Email      string                 `json:"email"`
	ExternalID string                 `json:"external_id,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

type klaviyoErrorResponse struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
		Meta   struct {
			DuplicateProfileID string `json:"duplicate_profile_id"`
		} `json:"meta"`
	} `json:"errors"`
}

// UpsertProfile creates the profile, falling back to an update in place when
// Klaviyo reports the email already has one.
func (s *KlaviyoService) UpsertProfile(ctx context.Context, settings domain.DestinationSettings, profile *domain.DestinationProfile) (string, error) {
	payload := klaviyoProfilePayload{
		Data: klaviyoProfileData{
			Type: "profile",
			Attributes: klaviyoProfileAttributes{
				Email:      profile.Email,
				ExternalID: profile.ExternalID,
				Properties: profile.Properties,
			},
		},
	}

	resp, err := s.send(ctx, settings, http.MethodPost, "/profiles", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		existingID, err := duplicateProfileID(resp.Body)
		if err != nil {
			return "", err
		}
		return existingID, s.updateProfile(ctx, settings, existingID, profile)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", s.apiError("create profile", resp)
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode profile response: %w", err)
	}
	return result.Data.ID, nil
}

func (s *KlaviyoService) updateProfile(ctx context.Context, settings domain.DestinationSettings, profileID string, profile *domain.DestinationProfile) error {
	payload := klaviyoProfilePayload{
		Data: klaviyoProfileData{
			Type: "profile",
			ID:   profileID,
			Attributes: klaviyoProfileAttributes{
				Email:      profile.Email,
				ExternalID: profile.ExternalID,
				Properties: profile.Properties,
			},
		},
	}

	resp, err := s.send(ctx, settings, http.MethodPatch, "/profiles/"+profileID, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s.apiError("update profile", resp)
	}
	return nil
}

// TrackEvent sends one event. The unique_id makes redelivery safe: Klaviyo
// drops events it has already seen.
func (s *KlaviyoService) TrackEvent(ctx context.Context, settings domain.DestinationSettings, event *domain.DestinationEvent) error {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"type": "event",
			"attributes": map[string]interface{}{
				"properties": event.Properties,
				"time":       event.Time.UTC().Format(time.RFC3339),
				"unique_id":  event.UniqueID,
				"metric": map[string]interface{}{
					"data": map[string]interface{}{
						"type": "metric",
						"attributes": map[string]interface{}{
							"name": event.MetricName,
						},
					},
				},
				"profile": map[string]interface{}{
					"data": map[string]interface{}{
						"type": "profile",
						"attributes": map[string]interface{}{
							"email":       event.Email,
							"external_id": event.ExternalID,
						},
					},
				},
			},
		},
	}

	resp, err := s.send(ctx, settings, http.MethodPost, "/events", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusCreated {
		return s.apiError("track event", resp)
	}
	return nil
}

// ListEngagement polls engagement metrics recorded since the given time.
func (s *KlaviyoService) ListEngagement(ctx context.Context, settings domain.DestinationSettings, since time.Time) ([]*domain.EngagementEvent, error) {
	filter := fmt.Sprintf("greater-than(datetime,%s)", since.UTC().Format(time.RFC3339))
	path := "/events?include=profile&filter=" + url.QueryEscape(filter)

	resp, err := s.send(ctx, settings, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.apiError("list engagement", resp)
	}

	var result struct {
		Data []struct {
			Attributes struct {
				Datetime time.Time `json:"datetime"`
				Metric   struct {
					Name string `json:"name"`
				} `json:"metric"`
			} `json:"attributes"`
		} `json:"data"`
		Included []struct {
			Type       string `json:"type"`
			Attributes struct {
				Email string `json:"email"`
			} `json:"attributes"`
		} `json:"included"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode engagement response: %w", err)
	}

	// Klaviyo's sideloaded profile list applies to the whole page; the
	// poll only needs (email, kind, time) tuples so the first profile's
	// email is taken when present.
	email := ""
	for _, inc := range result.Included {
		if inc.Type == "profile" {
			email = inc.Attributes.Email
			break
		}
	}

	kinds := map[string]string{
		"Opened Email":  "open",
		"Clicked Email": "click",
		"Subscribed":    "subscribe",
	}

	var events []*domain.EngagementEvent
	for _, item := range result.Data {
		kind, ok := kinds[item.Attributes.Metric.Name]
		if !ok {
			continue
		}
		events = append(events, &domain.EngagementEvent{
			Email:      email,
			Kind:       kind,
			OccurredAt: item.Attributes.Datetime,
		})
	}
	return events, nil
}

func (s *KlaviyoService) send(ctx context.Context, settings domain.DestinationSettings, method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, klaviyoBaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Revision", klaviyoRevision)
	req.Header.Set("Authorization", "Klaviyo-API-Key "+settings.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp, nil
}

func (s *KlaviyoService) apiError(action string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	s.logger.Error(fmt.Sprintf("Klaviyo API returned status %d for %s: %s", resp.StatusCode, action, string(body)))
	return fmt.Errorf("klaviyo %s: status %d", action, resp.StatusCode)
}

func duplicateProfileID(body io.Reader) (string, error) {
	var errResp klaviyoErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return "", fmt.Errorf("failed to decode conflict response: %w", err)
	}
	for _, e := range errResp.Errors {
		if e.Meta.DuplicateProfileID != "" {
			return e.Meta.DuplicateProfileID, nil
		}
	}
	return "", fmt.Errorf("conflict response missing duplicate profile id")
}
