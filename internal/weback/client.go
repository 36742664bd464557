package weback

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	"golang.org/x/oauth2"
)

const (
	TransportHTTPS = "https"
	TransportMQTT  = "mqtt"
)

// Options configures a Client.
type Options struct {
	// Session supplies the Weback login token. Typically a session.Manager
	// wrapping LoginSource.
	Session oauth2.TokenSource
	// Transport is https (default) or mqtt.
	Transport string
	// Endpoint overrides the IoT endpoint returned by login.
	Endpoint string
	// Region overrides the region returned by login.
	Region string
	// Credentials replaces the Cognito exchange when set.
	Credentials aws.CredentialsProvider

	HTTPClient     *http.Client
	CognitoOptions []func(*cognitoidentity.Options)
}

// Client reads and updates device shadows of Weback things.
type Client struct {
	opts  Options
	creds aws.CredentialsProvider

	mu        sync.Mutex
	transport Transport
}

func New(opts Options) (*Client, error) {
	if opts.Session == nil && (opts.Credentials == nil || opts.Region == "") {
		return nil, fmt.Errorf("weback session is required")
	}
	switch opts.Transport {
	case "":
		opts.Transport = TransportHTTPS
	case TransportHTTPS, TransportMQTT:
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Transport)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	provider := opts.Credentials
	if provider == nil {
		cognitoOpts := append([]func(*cognitoidentity.Options){func(o *cognitoidentity.Options) {
			o.HTTPClient = opts.HTTPClient
		}}, opts.CognitoOptions...)
		provider = NewCognitoProvider(opts.Session, cognitoOpts...)
	}
	return &Client{opts: opts, creds: aws.NewCredentialsCache(provider)}, nil
}

func (c *Client) GetThingShadow(ctx context.Context, thingName string) ([]byte, error) {
	transport, err := c.ensureTransport()
	if err != nil {
		return nil, err
	}
	return transport.GetThingShadow(ctx, thingName)
}

func (c *Client) Publish(ctx context.Context, topic string, qos int32, payload []byte) (int, error) {
	transport, err := c.ensureTransport()
	if err != nil {
		return 0, err
	}
	return transport.Publish(ctx, topic, qos, payload)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return nil
	}
	err := c.transport.Close()
	c.transport = nil
	return err
}

// ensureTransport builds the transport on first use, once login has told
// us the account's region and endpoint.
func (c *Client) ensureTransport() (Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport != nil {
		return c.transport, nil
	}

	region, endpoint := c.opts.Region, c.opts.Endpoint
	if region == "" || (endpoint == "" && c.opts.Transport == TransportMQTT) {
		token, err := c.opts.Session.Token()
		if err != nil {
			return nil, fmt.Errorf("weback session: %w", err)
		}
		if region == "" {
			region = extraString(token, ExtraRegion)
		}
		if endpoint == "" {
			endpoint = extraString(token, ExtraEndpoint)
		}
	}
	if region == "" {
		return nil, fmt.Errorf("weback session has no region")
	}

	switch c.opts.Transport {
	case TransportMQTT:
		t, err := newMQTTTransport(region, endpoint, c.creds)
		if err != nil {
			return nil, err
		}
		c.transport = t
	default:
		// The data plane endpoint is resolved from the region unless overridden.
		c.transport = newHTTPSTransport(region, c.opts.Endpoint, c.creds, c.opts.HTTPClient)
	}
	return c.transport, nil
}
