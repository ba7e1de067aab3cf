package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeDynamoDB inventories DynamoDB tables
func (p *Provider) probeDynamoDB(ctx context.Context) (types.ServiceSummary, error) {
	var tables []string

	paginator := dynamodb.NewListTablesPaginator(p.dynamoClient, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}
		tables = append(tables, output.TableNames...)
	}

	return types.ServiceSummary{
		Count: len(tables),
		Metadata: map[string]any{
			"tables": tables,
		},
	}, nil
}
