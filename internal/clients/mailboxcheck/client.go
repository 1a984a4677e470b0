// Package mailboxcheck wraps the MailboxValidator single-address validation
// API and reduces its response to a tri-state verdict. The provider transmits
// its boolean fields as the literal strings "True" and "False" (and "-" when
// it cannot assess an address); those quirks are matched exactly here and
// never leak past this package.
package mailboxcheck

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Status is the reduced outcome of a validation call.
type Status int

const (
	// Validated: the address is verified, not suppressed, and not high risk.
	Validated Status = iota
	// NotApplicable: the provider cannot assess the address (e.g. role accounts).
	NotApplicable
	// Rejected: everything else; Verdict.Code carries the reason.
	Rejected
)

// Well-known verdict codes produced locally (provider error codes pass
// through as-is).
const (
	// CodeAPIError is used when the validation call itself fails (transport
	// or parse); the address is treated as rejected rather than letting the
	// failure escape to the caller.
	CodeAPIError = "ValidationAPIError"
	// CodeUnknown is used when the provider rejects without an error code.
	CodeUnknown = "UnknownError"
	// CodeNotApplicable is carried by NotApplicable verdicts so the client
	// response still has a stable code to show.
	CodeNotApplicable = "NotApplicable"
)

// Verdict is the tri-state result of validating one address. It is derived
// once per submission and never persisted or cached.
type Verdict struct {
	Status Status
	Code   string
}

// singleResult mirrors the provider response shape. The three is_* fields
// are string-booleans by provider contract.
type singleResult struct {
	EmailAddress string `json:"email_address"`
	IsVerified   string `json:"is_verified"`
	IsSuppressed string `json:"is_suppressed"`
	IsHighRisk   string `json:"is_high_risk"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

const defaultBaseURL = "https://api.mailboxvalidator.com"

// Client calls the validation API with a pre-shared key. One outbound call
// per Validate; no retry.
type Client struct {
	http *resty.Client
	key  string
}

// New returns a Client authenticated with key. baseURL overrides the
// production endpoint when non-empty (tests point it at a local server).
func New(key, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
		key: key,
	}
}

// Validate looks up a single address and reduces the response to a Verdict.
// It never returns an error: transport and parse failures collapse to
// Rejected(ValidationAPIError) so a flaky validator cannot take the contact
// form down with it.
func (c *Client) Validate(ctx context.Context, email string) Verdict {
	var res singleResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"email": email,
			"key":   c.key,
		}).
		SetResult(&res).
		Get("/v1/validation/single")
	if err != nil || resp.IsError() {
		return Verdict{Status: Rejected, Code: CodeAPIError}
	}

	// Order matters: a fully clean result wins, then the provider's "cannot
	// assess" sentinel, then rejection with whatever code was given.
	switch {
	case res.IsVerified == "True" && res.IsSuppressed == "False" && res.IsHighRisk == "False":
		return Verdict{Status: Validated}
	case res.IsVerified == "-":
		return Verdict{Status: NotApplicable, Code: CodeNotApplicable}
	default:
		code := res.ErrorCode
		if code == "" {
			code = CodeUnknown
		}
		return Verdict{Status: Rejected, Code: code}
	}
}
