// Package abr is a ports.Registry backed by the Australian Business Register
// JSON web services (AbnDetails and MatchingNames).
package abr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/loanflow/internal/logging"
	"github.com/aretw0/loanflow/pkg/abn"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
)

// DefaultBaseURL is the public ABR JSON endpoint.
const DefaultBaseURL = "https://abr.business.gov.au/json"

// DefaultTimeout bounds each registry call.
const DefaultTimeout = 10 * time.Second

// dateLayout is how the register renders dates.
const dateLayout = "2006-01-02"

// ErrMalformed is returned when the register answers with an unreadable payload.
var ErrMalformed = errors.New("malformed registry response")

var _ ports.Registry = (*Client)(nil)

// Client calls the register over HTTP. A GUID is issued by the ABR on registration.
type Client struct {
	baseURL string
	guid    string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client authenticated by guid.
func New(guid string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		guid:    guid,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type detailsResponse struct {
	Abn                    string   `json:"Abn"`
	AbnStatus              string   `json:"AbnStatus"`
	AbnStatusEffectiveFrom string   `json:"AbnStatusEffectiveFrom"`
	AddressPostcode        string   `json:"AddressPostcode"`
	AddressState           string   `json:"AddressState"`
	BusinessName           []string `json:"BusinessName"`
	EntityName             string   `json:"EntityName"`
	EntityTypeCode         string   `json:"EntityTypeCode"`
	Gst                    *string  `json:"Gst"`
	Message                string   `json:"Message"`
}

type namesResponse struct {
	Message string `json:"Message"`
	Names   []struct {
		Abn       string `json:"Abn"`
		AbnStatus string `json:"AbnStatus"`
		IsCurrent bool   `json:"IsCurrent"`
		Name      string `json:"Name"`
		Postcode  string `json:"Postcode"`
		Score     int    `json:"Score"`
		State     string `json:"State"`
	} `json:"Names"`
}

// Lookup fetches AbnDetails for id.
func (c *Client) Lookup(ctx context.Context, id string) (*domain.RegistryEntry, error) {
	id = abn.Normalize(id)
	if !abn.IsValid(id) {
		return nil, ports.ErrNotFound
	}

	var resp detailsResponse
	if err := c.get(ctx, "AbnDetails.aspx", url.Values{"abn": {id}}, &resp); err != nil {
		return nil, err
	}
	if abn.Normalize(resp.Abn) != id {
		c.logger.Debug("Registry lookup missed", "abn", id, "message", resp.Message)
		return nil, ports.ErrNotFound
	}

	entry := &domain.RegistryEntry{
		ABN:          id,
		Status:       resp.AbnStatus,
		LegalName:    resp.EntityName,
		EntityClass:  EntityClass(resp.EntityTypeCode),
		Jurisdiction: resp.AddressState,
		Postcode:     resp.AddressPostcode,
	}
	if t, err := time.Parse(dateLayout, resp.AbnStatusEffectiveFrom); err == nil {
		entry.RegistrationDate = t
	}
	if resp.Gst != nil && *resp.Gst != "" {
		entry.GSTRegistered = true
		if t, err := time.Parse(dateLayout, *resp.Gst); err == nil {
			entry.GSTDate = t
		}
	}
	return entry, nil
}

// SearchByName calls MatchingNames and keeps current, active names.
func (c *Client) SearchByName(ctx context.Context, name string, maxResults int) ([]domain.RegistryMatch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	var resp namesResponse
	q := url.Values{"name": {name}, "maxResults": {strconv.Itoa(maxResults)}}
	if err := c.get(ctx, "MatchingNames.aspx", q, &resp); err != nil {
		return nil, err
	}

	matches := make([]domain.RegistryMatch, 0, len(resp.Names))
	seen := make(map[string]bool)
	for _, n := range resp.Names {
		id := abn.Normalize(n.Abn)
		if seen[id] || !n.IsCurrent || !activeStatus(n.AbnStatus) {
			continue
		}
		seen[id] = true
		matches = append(matches, domain.RegistryMatch{
			ABN:          id,
			LegalName:    n.Name,
			Jurisdiction: n.State,
			Postcode:     n.Postcode,
			Score:        n.Score,
		})
		if len(matches) == maxResults {
			break
		}
	}
	return matches, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	q.Set("guid", c.guid)
	q.Set("callback", "callback")
	u := c.baseURL + "/" + endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read registry response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(unwrapJSONP(body), out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// activeStatus accepts the textual and coded forms the register uses.
func activeStatus(s string) bool {
	return s == "" || strings.EqualFold(s, "Active") || s == "0000000001"
}

// unwrapJSONP strips a "callback(...)" wrapper if present.
func unwrapJSONP(body []byte) []byte {
	body = bytes.TrimSpace(body)
	open := bytes.IndexByte(body, '(')
	if open < 0 || bytes.HasPrefix(body, []byte("{")) {
		return body
	}
	body = bytes.TrimSuffix(bytes.TrimSpace(body[open+1:]), []byte(";"))
	return bytes.TrimSuffix(body, []byte(")"))
}

// EntityClass maps an ABR entity type code onto the record classification.
func EntityClass(code string) domain.EntityClass {
	switch strings.ToUpper(code) {
	case "IND":
		return domain.EntitySoleTrader
	case "PRV", "PUB", "APTY", "CCC", "STA":
		return domain.EntityCompany
	case "PTR", "LPT", "FPT":
		return domain.EntityPartnership
	case "DIT", "DTT", "FXT", "HYT", "UIT", "DST", "FUT":
		return domain.EntityTrust
	case "":
		return ""
	}
	return domain.EntityOther
}
