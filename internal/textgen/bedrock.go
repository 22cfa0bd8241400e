package textgen

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/rs/zerolog"
)

const (
	providerBedrock = "bedrock"

	defaultBedrockMaxTokens = 1024
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient generates text with the Bedrock Converse API.
type BedrockClient struct {
	brc       bedrockRuntimeClient
	maxTokens int32
}

func NewBedrockClient(brc bedrockRuntimeClient) *BedrockClient {
	return &BedrockClient{brc: brc, maxTokens: defaultBedrockMaxTokens}
}

func (c *BedrockClient) Generate(ctx context.Context, req Request) (string, error) {
	system, turns := splitSystem(req.Messages)

	var sys []types.SystemContentBlock
	for _, s := range system {
		sys = append(sys, &types.SystemContentBlockMemberText{Value: s})
	}

	msgs := make([]types.Message, 0, len(turns))
	for _, m := range turns {
		role := types.ConversationRoleUser
		if m.Role == RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		msgs = append(msgs, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}

	out, err := c.brc.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:  aws.String(req.Model),
		System:   sys,
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.maxTokens),
			Temperature: aws.Float32(float32(req.Temperature)),
		},
	})
	if err != nil {
		return "", &ServiceError{Provider: providerBedrock, Err: err}
	}

	if out.Usage != nil {
		zerolog.Ctx(ctx).Debug().
			Int32("input_tokens", aws.ToInt32(out.Usage.InputTokens)).
			Int32("output_tokens", aws.ToInt32(out.Usage.OutputTokens)).
			Msg("Bedrock converse succeeded")
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", serviceErr(providerBedrock, "unexpected output type %T", out.Output)
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	if sb.Len() == 0 {
		return "", serviceErr(providerBedrock, "no text content in response")
	}
	return strings.TrimSpace(sb.String()), nil
}
