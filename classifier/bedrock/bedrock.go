// SPDX-License-Identifier: GPL-3.0-or-later
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/CrawX/go-imap-triage/classifier"
	"github.com/CrawX/go-imap-triage/classifier/anthropic"
	"github.com/CrawX/go-imap-triage/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const AnthropicVersion = "bedrock-2023-05-31"

type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Bedrock asks an Anthropic model hosted on Amazon Bedrock. Credentials come from the default AWS
// credential chain.
type Bedrock struct {
	client invoker
}

func NewBedrock(ctx context.Context, region string) (*Bedrock, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, domain.NewConfigurationFailure(fmt.Errorf("could not load aws configuration: %w", err))
	}

	return &Bedrock{client: bedrockruntime.NewFromConfig(awsCfg)}, nil
}

func (b *Bedrock) Ask(ctx context.Context, req *classifier.Request) (string, error) {
	body := anthropic.NewMessagesRequest(req)
	body.AnthropicVersion = AnthropicVersion
	// the model is addressed by ModelId, bedrock rejects it in the body
	body.Model = ""

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("could not serialize bedrock request: %w", err)
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(req.Model),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", domain.NewTransportFailure(statusCode(err), fmt.Errorf("could not invoke bedrock model: %w", err))
	}

	return anthropic.ReplyText(resp.Body)
}

func statusCode(err error) int {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}
