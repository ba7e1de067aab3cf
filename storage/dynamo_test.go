package storage

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudpillar/cloudpillar/types"
)

// fakeDynamo captures inputs and plays back canned outputs.
type fakeDynamo struct {
	putInput    *dynamodb.PutItemInput
	getInput    *dynamodb.GetItemInput
	updateInput *dynamodb.UpdateItemInput
	deleteInput *dynamodb.DeleteItemInput

	getOutput    *dynamodb.GetItemOutput
	deleteOutput *dynamodb.DeleteItemOutput
	updateErr    error
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putInput = params
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getInput = params
	if f.getOutput != nil {
		return f.getOutput, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateInput = params
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deleteInput = params
	if f.deleteOutput != nil {
		return f.deleteOutput, nil
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoStore_CreateKeyScheme(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewDynamoStore(fake, "CloudPillar")

	scan, err := types.NewScan("user-1", "audit", "cred-1", nil)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), scan))

	require.NotNil(t, fake.putInput)
	assert.Equal(t, "CloudPillar", *fake.putInput.TableName)
	assert.Equal(t, "attribute_not_exists(SK)", *fake.putInput.ConditionExpression)

	pk := fake.putInput.Item["PK"].(*ddbtypes.AttributeValueMemberS)
	sk := fake.putInput.Item["SK"].(*ddbtypes.AttributeValueMemberS)
	gsi := fake.putInput.Item["GSI1PK"].(*ddbtypes.AttributeValueMemberS)
	assert.Equal(t, "USER#user-1", pk.Value)
	assert.Equal(t, "SCAN#"+scan.ID, sk.Value)
	assert.Equal(t, "SCAN#"+scan.ID, gsi.Value)
}

func TestDynamoStore_GetNotFound(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewDynamoStore(fake, "CloudPillar")

	_, err := store.Get(context.Background(), "user-1", "missing")
	assert.True(t, IsNotFound(err))

	pk := fake.getInput.Key["PK"].(*ddbtypes.AttributeValueMemberS)
	assert.Equal(t, "USER#user-1", pk.Value)
}

func TestDynamoStore_UpdateGuardsExistence(t *testing.T) {
	fake := &fakeDynamo{updateErr: &ddbtypes.ConditionalCheckFailedException{}}
	store := NewDynamoStore(fake, "CloudPillar")

	err := store.UpdateProgress(context.Background(), "user-1", "scan-1", []string{"us-east-1"}, 50)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "attribute_exists(SK)", *fake.updateInput.ConditionExpression)
}

func TestDynamoStore_AppendRegionResultExpression(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewDynamoStore(fake, "CloudPillar")

	err := store.AppendRegionResult(context.Background(), "user-1", "scan-1", types.RegionResult{
		Region:   "eu-west-1",
		Services: map[string]types.ServiceSummary{"s3": {Count: 2}},
	})
	require.NoError(t, err)

	// Region name must go through an expression name, it contains "-".
	assert.Equal(t, "eu-west-1", fake.updateInput.ExpressionAttributeNames["#region"])
	assert.Contains(t, *fake.updateInput.UpdateExpression, "#results.#region")
}

func TestDynamoStore_DeleteNotFound(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewDynamoStore(fake, "CloudPillar")

	err := store.Delete(context.Background(), "user-1", "missing")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ddbtypes.ReturnValueAllOld, fake.deleteInput.ReturnValues)
}
