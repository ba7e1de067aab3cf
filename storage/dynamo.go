package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cloudpillar/cloudpillar/types"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore keeps scan records in a single DynamoDB table:
// PK=USER#<owner> SK=SCAN#<id>, with GSI1 keyed by scan id for
// ops tooling lookups without the owner.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore creates a DynamoDB-backed scan store.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

type scanItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`

	ScanID         string                        `dynamodbav:"scan_id"`
	OwnerID        string                        `dynamodbav:"owner_id"`
	Name           string                        `dynamodbav:"scan_name"`
	CredentialID   string                        `dynamodbav:"credential_id"`
	Regions        []string                      `dynamodbav:"regions,omitempty"`
	Status         string                        `dynamodbav:"status"`
	Progress       int                           `dynamodbav:"progress"`
	RegionsScanned []string                      `dynamodbav:"regions_scanned"`
	Results        map[string]types.RegionResult `dynamodbav:"results"`
	Recommendation string                        `dynamodbav:"recommendation"`
	Warning        string                        `dynamodbav:"warning"`
	ErrorMessage   string                        `dynamodbav:"error_message"`
	CreatedAt      time.Time                     `dynamodbav:"created_at"`
	UpdatedAt      time.Time                     `dynamodbav:"updated_at"`
	StartedAt      *time.Time                    `dynamodbav:"started_at,omitempty"`
	CompletedAt    *time.Time                    `dynamodbav:"completed_at,omitempty"`
}

func userPK(owner string) string { return "USER#" + owner }
func scanSK(id string) string    { return "SCAN#" + id }

func toItem(scan *types.Scan) scanItem {
	results := scan.Results
	if results == nil {
		results = map[string]types.RegionResult{}
	}
	return scanItem{
		PK:             userPK(scan.OwnerID),
		SK:             scanSK(scan.ID),
		GSI1PK:         scanSK(scan.ID),
		GSI1SK:         "TIMESTAMP#" + scan.CreatedAt.Format(time.RFC3339),
		ScanID:         scan.ID,
		OwnerID:        scan.OwnerID,
		Name:           scan.Name,
		CredentialID:   scan.CredentialID,
		Regions:        scan.Regions,
		Status:         scan.Status.String(),
		Progress:       scan.Progress,
		RegionsScanned: scan.RegionsScanned,
		Results:        results,
		Recommendation: scan.Recommendation,
		Warning:        scan.Warning,
		ErrorMessage:   scan.ErrorMessage,
		CreatedAt:      scan.CreatedAt,
		UpdatedAt:      scan.UpdatedAt,
		StartedAt:      scan.StartedAt,
		CompletedAt:    scan.CompletedAt,
	}
}

func (i scanItem) toScan() *types.Scan {
	regionsScanned := i.RegionsScanned
	if regionsScanned == nil {
		regionsScanned = []string{}
	}
	return &types.Scan{
		ID:             i.ScanID,
		OwnerID:        i.OwnerID,
		Name:           i.Name,
		CredentialID:   i.CredentialID,
		Regions:        i.Regions,
		Status:         types.Status(i.Status),
		Progress:       i.Progress,
		RegionsScanned: regionsScanned,
		Results:        i.Results,
		Recommendation: i.Recommendation,
		Warning:        i.Warning,
		ErrorMessage:   i.ErrorMessage,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
		StartedAt:      i.StartedAt,
		CompletedAt:    i.CompletedAt,
	}
}

// Create writes a new scan record, refusing to overwrite an existing one.
func (s *DynamoStore) Create(ctx context.Context, scan *types.Scan) error {
	item, err := attributevalue.MarshalMap(toItem(scan))
	if err != nil {
		return fmt.Errorf("failed to marshal scan: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("failed to create scan %s: %w", scan.ID, err)
	}
	return nil
}

// Get returns the scan, scoped to its owner.
func (s *DynamoStore) Get(ctx context.Context, owner, id string) (*types.Scan, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(owner, id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get scan %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var item scanItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan %s: %w", id, err)
	}
	return item.toScan(), nil
}

// List returns the owner's scans, newest first.
func (s *DynamoStore) List(ctx context.Context, owner string) ([]*types.Scan, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk": &ddbtypes.AttributeValueMemberS{Value: userPK(owner)},
			":sk": &ddbtypes.AttributeValueMemberS{Value: "SCAN#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scans for %s: %w", owner, err)
	}

	scans := make([]*types.Scan, 0, len(out.Items))
	for _, raw := range out.Items {
		var item scanItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scan item: %w", err)
		}
		scans = append(scans, item.toScan())
	}

	sort.Slice(scans, func(i, j int) bool {
		return scans[i].CreatedAt.After(scans[j].CreatedAt)
	})
	return scans, nil
}

// MarkRunning transitions a pending scan to running.
func (s *DynamoStore) MarkRunning(ctx context.Context, owner, id string) error {
	now := time.Now().UTC()
	return s.update(ctx, owner, id, &dynamodb.UpdateItemInput{
		UpdateExpression: aws.String("SET #status = :status, started_at = :now, updated_at = :now"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":status": &ddbtypes.AttributeValueMemberS{Value: types.StatusRunning.String()},
			":now":    &ddbtypes.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
	})
}

// UpdateProgress persists forward progress for a polling reader.
func (s *DynamoStore) UpdateProgress(ctx context.Context, owner, id string, regionsScanned []string, progress int) error {
	scanned, err := attributevalue.Marshal(regionsScanned)
	if err != nil {
		return fmt.Errorf("failed to marshal regions scanned: %w", err)
	}
	return s.update(ctx, owner, id, &dynamodb.UpdateItemInput{
		UpdateExpression: aws.String("SET progress = :progress, regions_scanned = :scanned, updated_at = :now"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":progress": &ddbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", progress)},
			":scanned":  scanned,
			":now":      &ddbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
}

// AppendRegionResult merges one finished region into the results map.
func (s *DynamoStore) AppendRegionResult(ctx context.Context, owner, id string, result types.RegionResult) error {
	value, err := attributevalue.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal region result: %w", err)
	}
	return s.update(ctx, owner, id, &dynamodb.UpdateItemInput{
		UpdateExpression: aws.String("SET #results.#region = :result, updated_at = :now"),
		ExpressionAttributeNames: map[string]string{
			"#results": "results",
			"#region":  result.Region,
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":result": value,
			":now":    &ddbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
}

// Finalize moves the scan to a terminal state.
func (s *DynamoStore) Finalize(ctx context.Context, owner, id string, fin Finalization) error {
	now := time.Now().UTC()
	return s.update(ctx, owner, id, &dynamodb.UpdateItemInput{
		UpdateExpression: aws.String(
			"SET #status = :status, recommendation = :rec, warning = :warn, error_message = :errmsg, completed_at = :now, updated_at = :now"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":status": &ddbtypes.AttributeValueMemberS{Value: fin.Status.String()},
			":rec":    &ddbtypes.AttributeValueMemberS{Value: fin.Recommendation},
			":warn":   &ddbtypes.AttributeValueMemberS{Value: fin.Warning},
			":errmsg": &ddbtypes.AttributeValueMemberS{Value: fin.ErrorMessage},
			":now":    &ddbtypes.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
	})
}

// Delete removes the record.
func (s *DynamoStore) Delete(ctx context.Context, owner, id string) error {
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.table),
		Key:          s.key(owner, id),
		ReturnValues: ddbtypes.ReturnValueAllOld,
	})
	if err != nil {
		return fmt.Errorf("failed to delete scan %s: %w", id, err)
	}
	if len(out.Attributes) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DynamoStore) key(owner, id string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"PK": &ddbtypes.AttributeValueMemberS{Value: userPK(owner)},
		"SK": &ddbtypes.AttributeValueMemberS{Value: scanSK(id)},
	}
}

// update runs an UpdateItem guarded on record existence, so updates
// against a deleted record surface as ErrNotFound instead of resurrecting
// a partial item.
func (s *DynamoStore) update(ctx context.Context, owner, id string, input *dynamodb.UpdateItemInput) error {
	input.TableName = aws.String(s.table)
	input.Key = s.key(owner, id)
	input.ConditionExpression = aws.String("attribute_exists(SK)")

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cond *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update scan %s: %w", id, err)
	}
	return nil
}
