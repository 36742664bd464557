package weback

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultLoginURL = "https://www.weback-login.com/WeBack/WeBack_Login_Ats_V3"
	AppVersion      = "android_3.9.3"

	// Token extra fields set by LoginSource.
	ExtraIdentityID = "identity_id"
	ExtraRegion     = "region"
	ExtraEndpoint   = "endpoint"
)

var ErrLoginFailed = errors.New("weback login failed")

// HTTPStatusError reports a non-2xx response from the login service.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("weback login: status %d: %s", e.StatusCode, e.Body)
}

type loginRequest struct {
	AppVersion  string `json:"App_Version"`
	Password    string `json:"Password"`
	UserAccount string `json:"User_Account"`
}

type loginResponse struct {
	RequestResult string `json:"Request_Result"`
	FailReason    string `json:"Fail_Reason"`
	IdentityID    string `json:"Identity_Id"`
	Token         string `json:"Token"`
	RegionInfo    string `json:"Region_Info"`
	EndPoint      string `json:"End_Point"`
	TokenDuration int64  `json:"Token_Duration"`
}

// LoginSource logs in to the Weback account service. The returned token
// carries the Cognito developer token plus identity, region and IoT
// endpoint as extra fields.
type LoginSource struct {
	URL        string
	Login      string
	Password   string
	HTTPClient *http.Client
}

func (s *LoginSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.login(ctx)
}

func (s *LoginSource) login(ctx context.Context) (*oauth2.Token, error) {
	url := s.URL
	if url == "" {
		url = DefaultLoginURL
	}
	body, err := json.Marshal(loginRequest{
		AppVersion:  AppVersion,
		Password:    md5Hex(s.Password),
		UserAccount: s.Login,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var out loginResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if out.RequestResult != "success" {
		reason := out.FailReason
		if reason == "" {
			reason = out.RequestResult
		}
		return nil, fmt.Errorf("%w: %s", ErrLoginFailed, reason)
	}
	if out.Token == "" || out.IdentityID == "" || out.RegionInfo == "" {
		return nil, fmt.Errorf("%w: incomplete session", ErrLoginFailed)
	}

	token := &oauth2.Token{AccessToken: out.Token, TokenType: "Cognito"}
	if out.TokenDuration > 0 {
		token.Expiry = time.Now().Add(time.Duration(out.TokenDuration) * time.Second)
	}
	return token.WithExtra(map[string]any{
		ExtraIdentityID: out.IdentityID,
		ExtraRegion:     out.RegionInfo,
		ExtraEndpoint:   out.EndPoint,
	}), nil
}

func md5Hex(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}

func extraString(token *oauth2.Token, key string) string {
	if token == nil {
		return ""
	}
	value, _ := token.Extra(key).(string)
	return value
}
