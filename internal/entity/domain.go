package entity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	dErrors "asset-registry/pkg/domain-errors"
)

// HTTPGetter is the transport collaborator for challenge protocols. One
// synchronous GET per verification; timeouts belong to the implementation.
type HTTPGetter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// httpClient adapts net/http to HTTPGetter.
type httpClient struct {
	client *http.Client
}

// NewHTTPGetter returns an HTTPGetter backed by net/http with the given
// request timeout.
func NewHTTPGetter(timeout time.Duration) HTTPGetter {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

func (c *httpClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

// DomainName proves ownership of a DNS domain by hosting a well-known proof
// page.
type DomainName string

const wellKnownPrefix = "/.well-known/liquid-asset-proof-"

func (d DomainName) String() string {
	return "domain:" + string(d)
}

// Validate checks DNS-name syntax. Hidden-service names (.onion) follow the
// same label rules.
func (d DomainName) Validate() error {
	if d == "" {
		return dErrors.New(dErrors.CodeDomainLink, "empty domain name")
	}
	if !govalidator.IsDNSName(string(d)) {
		return dErrors.Newf(dErrors.CodeDomainLink, "invalid domain name %q", string(d))
	}
	return nil
}

// ChallengeURL builds the proof page location. Onion domains cannot carry
// certificates, so they use plaintext transport; everything else must be
// served over TLS.
func (d DomainName) ChallengeURL(assetID string) string {
	scheme := "https"
	if strings.HasSuffix(string(d), ".onion") {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s%s%s", scheme, string(d), wellKnownPrefix, assetID)
}

// ExpectedProof is the exact body the proof page must serve, up to trailing
// whitespace.
func (d DomainName) ExpectedProof(assetID string) string {
	return fmt.Sprintf("Authorize linking the domain name %s to the Liquid asset %s", string(d), assetID)
}

// VerifyLink fetches the proof page and requires a byte-exact match of the
// authorization sentence. No retries; callers re-run the whole write if they
// want another attempt.
func (d DomainName) VerifyLink(ctx context.Context, client HTTPGetter, assetID string) error {
	if err := d.Validate(); err != nil {
		return err
	}

	url := d.ChallengeURL(assetID)
	resp, err := client.Get(ctx, url)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeDomainLink, fmt.Sprintf("failed fetching %s", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return dErrors.Newf(dErrors.CodeDomainLink, "proof page %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeDomainLink, "invalid page contents", err)
	}

	if strings.TrimRight(string(body), " \t\r\n") != d.ExpectedProof(assetID) {
		return dErrors.New(dErrors.CodeDomainLink, "verification page contents mismatch")
	}
	return nil
}
