// ABOUTME: Google People API client for contacts import
// ABOUTME: Creates an authenticated People service and pages through connections
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

const personFields = "names,emailAddresses,phoneNumbers,organizations,urls,addresses"

// PersonSource yields pages of Google people.
type PersonSource interface {
	ListPeople(ctx context.Context, pageToken string) ([]*people.Person, string, error)
}

// PeopleAPI is a PersonSource backed by the Google People API.
type PeopleAPI struct {
	svc      *people.Service
	pageSize int64
}

// NewPeopleClient creates a People API source authenticated with token.
func NewPeopleClient(ctx context.Context, token *oauth2.Token) (*PeopleAPI, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	client := NewOAuthConfig().Client(ctx, token)
	service, err := people.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}
	return &PeopleAPI{svc: service, pageSize: 1000}, nil
}

// NewPeopleAPI wraps an existing service.
func NewPeopleAPI(svc *people.Service) *PeopleAPI {
	return &PeopleAPI{svc: svc, pageSize: 1000}
}

func (p *PeopleAPI) ListPeople(ctx context.Context, pageToken string) ([]*people.Person, string, error) {
	call := p.svc.People.Connections.List("people/me").
		PageSize(p.pageSize).
		PersonFields(personFields).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch contacts: %w", err)
	}
	if resp == nil {
		return nil, "", nil
	}
	return resp.Connections, resp.NextPageToken, nil
}
