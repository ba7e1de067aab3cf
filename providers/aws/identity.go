package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/cloudpillar/cloudpillar/types"
)

// probeIAM inventories IAM users and roles. IAM is a global service,
// so this probe runs once from us-east-1.
func (p *Provider) probeIAM(ctx context.Context) (types.ServiceSummary, error) {
	users := 0
	usersPaginator := iam.NewListUsersPaginator(p.iamClient, &iam.ListUsersInput{})
	for usersPaginator.HasMorePages() {
		output, err := usersPaginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}
		users += len(output.Users)
	}

	roles := 0
	rolesPaginator := iam.NewListRolesPaginator(p.iamClient, &iam.ListRolesInput{})
	for rolesPaginator.HasMorePages() {
		output, err := rolesPaginator.NextPage(ctx)
		if err != nil {
			return types.ServiceSummary{}, classify(err)
		}
		roles += len(output.Roles)
	}

	return types.ServiceSummary{
		Count: users + roles,
		Metadata: map[string]any{
			"users": users,
			"roles": roles,
		},
	}, nil
}
