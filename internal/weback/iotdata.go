package weback

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Transport moves shadow documents between the host and AWS IoT.
type Transport interface {
	GetThingShadow(ctx context.Context, thingName string) ([]byte, error)
	// Publish returns the HTTP status of the data plane response.
	Publish(ctx context.Context, topic string, qos int32, payload []byte) (int, error)
	Close() error
}

type httpsTransport struct {
	client *iotdataplane.Client
}

func newHTTPSTransport(region, endpoint string, creds aws.CredentialsProvider, httpClient *http.Client) *httpsTransport {
	opts := iotdataplane.Options{
		Region:      region,
		Credentials: creds,
		Retryer:     aws.NopRetryer{},
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	}
	if httpClient != nil {
		opts.HTTPClient = httpClient
	}
	return &httpsTransport{client: iotdataplane.New(opts)}
}

func (t *httpsTransport) GetThingShadow(ctx context.Context, thingName string) ([]byte, error) {
	out, err := t.client.GetThingShadow(ctx, &iotdataplane.GetThingShadowInput{
		ThingName: aws.String(thingName),
	})
	if err != nil {
		return nil, err
	}
	return out.Payload, nil
}

func (t *httpsTransport) Publish(ctx context.Context, topic string, qos int32, payload []byte) (int, error) {
	out, err := t.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     qos,
		Payload: payload,
	})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			return respErr.HTTPStatusCode(), err
		}
		return 0, err
	}
	if raw, ok := awsmiddleware.GetRawResponse(out.ResultMetadata).(*smithyhttp.Response); ok {
		return raw.StatusCode, nil
	}
	return http.StatusOK, nil
}

func (t *httpsTransport) Close() error { return nil }
