package weback

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity/types"
	"golang.org/x/oauth2"
)

const cognitoLoginProvider = "cognito-identity.amazonaws.com"

// Invalidator is implemented by session caches that can drop a rejected token.
type Invalidator interface {
	Invalidate()
}

// CognitoProvider exchanges the Weback session for temporary AWS credentials.
type CognitoProvider struct {
	tokens  oauth2.TokenSource
	optFns  []func(*cognitoidentity.Options)
	invalid Invalidator
}

func NewCognitoProvider(tokens oauth2.TokenSource, optFns ...func(*cognitoidentity.Options)) *CognitoProvider {
	p := &CognitoProvider{tokens: tokens, optFns: optFns}
	if inv, ok := tokens.(Invalidator); ok {
		p.invalid = inv
	}
	return p
}

func (p *CognitoProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	token, err := p.tokens.Token()
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("weback session: %w", err)
	}
	identity := extraString(token, ExtraIdentityID)
	region := extraString(token, ExtraRegion)
	if identity == "" || region == "" {
		return aws.Credentials{}, fmt.Errorf("weback session missing identity or region")
	}

	client := cognitoidentity.New(cognitoidentity.Options{
		Region:  region,
		Retryer: aws.NopRetryer{},
	}, p.optFns...)

	out, err := client.GetCredentialsForIdentity(ctx, &cognitoidentity.GetCredentialsForIdentityInput{
		IdentityId: aws.String(identity),
		Logins:     map[string]string{cognitoLoginProvider: token.AccessToken},
	})
	if err != nil {
		var notAuthorized *types.NotAuthorizedException
		if errors.As(err, &notAuthorized) && p.invalid != nil {
			p.invalid.Invalidate()
		}
		return aws.Credentials{}, fmt.Errorf("cognito credentials: %w", err)
	}
	if out.Credentials == nil {
		return aws.Credentials{}, fmt.Errorf("cognito returned no credentials")
	}

	creds := aws.Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Source:          "WebackCognito",
	}
	if out.Credentials.Expiration != nil {
		creds.CanExpire = true
		creds.Expires = *out.Credentials.Expiration
	}
	return creds, nil
}
