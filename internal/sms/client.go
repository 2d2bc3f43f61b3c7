// Package sms wraps the REST API of the SMS provider used to deliver
// one-time codes.  Delivery failures surface as errors so the caller
// can decide whether the enclosing operation should fail.
package sms

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"
    "time"
)

// Sender delivers a text message to a phone number and returns the
// provider's message id.
type Sender interface {
    Send(ctx context.Context, to, body string) (string, error)
}

// Client talks to the Twilio Messages API over plain HTTP.
type Client struct {
    accountSID string
    authToken  string
    from       string
    http       *http.Client
}

// New returns a Client for the given account.  from is the provisioned
// sending number in E.164 form.
func New(accountSID, authToken, from string) *Client {
    return &Client{
        accountSID: accountSID,
        authToken:  authToken,
        from:       from,
        http: &http.Client{
            Timeout: 15 * time.Second,
        },
    }
}

type messageResponse struct {
    SID          string `json:"sid"`
    Status       string `json:"status"`
    ErrorMessage string `json:"message,omitempty"`
}

// Send posts one outbound message and returns the provider-assigned
// message SID.
func (c *Client) Send(ctx context.Context, to, body string) (string, error) {
    if c.accountSID == "" || c.authToken == "" {
        return "", errors.New("missing sms provider credentials")
    }

    form := url.Values{}
    form.Set("To", to)
    form.Set("From", c.from)
    form.Set("Body", body)

    endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", c.accountSID)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
    if err != nil {
        return "", err
    }
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
    req.SetBasicAuth(c.accountSID, c.authToken)

    resp, err := c.http.Do(req)
    if err != nil {
        return "", err
    }
    defer resp.Body.Close()

    raw, _ := io.ReadAll(resp.Body)

    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        var e messageResponse
        if json.Unmarshal(raw, &e) == nil && e.ErrorMessage != "" {
            return "", fmt.Errorf("sms provider error (%d): %s", resp.StatusCode, e.ErrorMessage)
        }
        return "", fmt.Errorf("sms provider http error (%d): %s", resp.StatusCode, string(raw))
    }

    var out messageResponse
    if err := json.Unmarshal(raw, &out); err != nil {
        return "", err
    }
    return out.SID, nil
}
