package weback

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	iotGatewayService = "iotdevicegateway"
	emptyPayloadHash  = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	mqttWaitTimeout   = 10 * time.Second
)

// mqttTransport talks to the AWS IoT device gateway over a SigV4
// presigned websocket. Presigned URLs expire, so a lost connection is
// rebuilt on next use instead of auto-reconnecting.
type mqttTransport struct {
	endpoint string
	region   string
	creds    aws.CredentialsProvider
	signer   *v4.Signer

	mu     sync.Mutex
	client mqtt.Client

	getMu sync.Mutex
}

func newMQTTTransport(region, endpoint string, creds aws.CredentialsProvider) (*mqttTransport, error) {
	host := strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "wss://")
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		return nil, fmt.Errorf("mqtt transport requires an IoT endpoint")
	}
	return &mqttTransport{
		endpoint: host,
		region:   region,
		creds:    creds,
		signer:   v4.NewSigner(),
	}, nil
}

func (t *mqttTransport) session(ctx context.Context) (mqtt.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil && t.client.IsConnectionOpen() {
		return t.client, nil
	}

	broker, err := t.presign(ctx)
	if err != nil {
		return nil, err
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(randomClientID())
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(mqttWaitTimeout)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("endpoint", t.endpoint).Msg("weback mqtt connection lost")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttWaitTimeout) {
		return nil, fmt.Errorf("mqtt connect timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	t.client = client
	return client, nil
}

func (t *mqttTransport) presign(ctx context.Context) (string, error) {
	creds, err := t.creds.Retrieve(ctx)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+t.endpoint+"/mqtt", nil)
	if err != nil {
		return "", err
	}

	// The device gateway rejects signatures that cover the session token.
	signing := creds
	signing.SessionToken = ""
	signed, _, err := t.signer.PresignHTTP(ctx, signing, req, emptyPayloadHash, iotGatewayService, t.region, time.Now())
	if err != nil {
		return "", fmt.Errorf("presign mqtt url: %w", err)
	}

	broker := "wss://" + strings.TrimPrefix(signed, "https://")
	if creds.SessionToken != "" {
		broker += "&X-Amz-Security-Token=" + url.QueryEscape(creds.SessionToken)
	}
	return broker, nil
}

func (t *mqttTransport) GetThingShadow(ctx context.Context, thingName string) ([]byte, error) {
	t.getMu.Lock()
	defer t.getMu.Unlock()

	client, err := t.session(ctx)
	if err != nil {
		return nil, err
	}

	base := shadowTopic(thingName, "get")
	accepted := base + "/accepted"
	rejected := base + "/rejected"

	respCh := make(chan []byte, 1)
	errCh := make(chan error, 1)
	filters := map[string]byte{accepted: 0, rejected: 0}
	sub := client.SubscribeMultiple(filters, func(_ mqtt.Client, msg mqtt.Message) {
		switch msg.Topic() {
		case accepted:
			select {
			case respCh <- msg.Payload():
			default:
			}
		case rejected:
			select {
			case errCh <- fmt.Errorf("shadow get rejected: %s", msg.Payload()):
			default:
			}
		}
	})
	if err := waitToken(sub); err != nil {
		return nil, fmt.Errorf("subscribe shadow: %w", err)
	}
	defer func() {
		_ = waitToken(client.Unsubscribe(accepted, rejected))
	}()

	if err := waitToken(client.Publish(base, 0, false, []byte{})); err != nil {
		return nil, fmt.Errorf("request shadow: %w", err)
	}

	return awaitShadow(ctx, respCh, errCh, mqttWaitTimeout)
}

// awaitShadow waits for the get/accepted or get/rejected reply. A dropped
// connection delivers neither, so the wait is bounded.
func awaitShadow(ctx context.Context, respCh <-chan []byte, errCh <-chan error, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("shadow get timed out after %s", timeout)
	case err := <-errCh:
		return nil, err
	case payload := <-respCh:
		return payload, nil
	}
}

func (t *mqttTransport) Publish(ctx context.Context, topic string, qos int32, payload []byte) (int, error) {
	client, err := t.session(ctx)
	if err != nil {
		return 0, err
	}
	if err := waitToken(client.Publish(topic, byte(qos), false, payload)); err != nil {
		return 0, err
	}
	return http.StatusOK, nil
}

func (t *mqttTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		t.client.Disconnect(250)
		t.client = nil
	}
	return nil
}

func waitToken(token mqtt.Token) error {
	if !token.WaitTimeout(mqttWaitTimeout) {
		return fmt.Errorf("mqtt operation timed out")
	}
	return token.Error()
}

func shadowTopic(thingName, action string) string {
	return "$aws/things/" + thingName + "/shadow/" + action
}

func randomClientID() string {
	nonce := make([]byte, 8)
	_, _ = rand.Read(nonce)
	return "gohome-" + base64.RawURLEncoding.EncodeToString(nonce)
}
