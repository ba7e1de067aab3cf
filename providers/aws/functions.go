package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeLambda inventories Lambda functions
func (p *Provider) probeLambda(ctx context.Context) (types.ServiceSummary, error) {
	var functions []map[string]any
	runtimes := map[string]int{}

	paginator := lambda.NewListFunctionsPaginator(p.lambdaClient, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}

		for _, function := range output.Functions {
			runtime := string(function.Runtime)
			runtimes[runtime]++

			functions = append(functions, map[string]any{
				"name":    aws.ToString(function.FunctionName),
				"runtime": runtime,
				"memory":  int(aws.ToInt32(function.MemorySize)),
				"timeout": int(aws.ToInt32(function.Timeout)),
			})
		}
	}

	return types.ServiceSummary{
		Count: len(functions),
		Metadata: map[string]any{
			"functions": functions,
			"runtimes":  runtimes,
		},
	}, nil
}
