package aws

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeSQS inventories SQS queues
func (p *Provider) probeSQS(ctx context.Context) (types.ServiceSummary, error) {
	count := 0
	fifo := 0

	paginator := sqs.NewListQueuesPaginator(p.sqsClient, &sqs.ListQueuesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		count += len(output.QueueUrls)
		for _, url := range output.QueueUrls {
			if strings.HasSuffix(url, ".fifo") {
				fifo++
			}
		}
	}

	return types.ServiceSummary{
		Count: count,
		Metadata: map[string]any{
			"fifo": fifo,
		},
	}, nil
}
