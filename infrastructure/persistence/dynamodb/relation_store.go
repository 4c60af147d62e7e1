package dynamodb

import (
	"context"
	"fmt"
	"time"

	"carddeps/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// API is the subset of the DynamoDB client used by this package
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// RelationStore implements ports.RelationStore on a single DynamoDB table
//
// Key layout:
//
//	PK = ITEM#<itemID>
//	SK = SLOT#shared#<key> | SLOT#private#<viewer>#<key>
type RelationStore struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// slotItem represents the DynamoDB item structure for one slot
type slotItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	EntityType string   `dynamodbav:"EntityType"`
	ItemID     string   `dynamodbav:"ItemID"`
	Scope      string   `dynamodbav:"Scope"`
	Key        string   `dynamodbav:"Key"`
	Values     []string `dynamodbav:"Values"`
	UpdatedAt  string   `dynamodbav:"UpdatedAt"`
}

const slotEntityType = "SLOT"

// NewRelationStore creates a DynamoDB backed relation store
func NewRelationStore(client API, tableName string, logger *zap.Logger) *RelationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelationStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// Get reads one slot with a strongly consistent read
func (s *RelationStore) Get(ctx context.Context, key ports.SlotKey) ([]string, bool, error) {
	if err := key.Validate(); err != nil {
		return nil, false, err
	}

	proj := expression.NamesList(expression.Name("Values"))
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build projection: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      slotKey(key),
		ConsistentRead:           aws.Bool(true),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get slot %s: %w", key, err)
	}
	if len(result.Item) == 0 {
		return nil, false, nil
	}

	var item slotItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal slot %s: %w", key, err)
	}
	if item.Values == nil {
		item.Values = []string{}
	}
	return item.Values, true, nil
}

// Put replaces the whole slot
func (s *RelationStore) Put(ctx context.Context, key ports.SlotKey, values []string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if values == nil {
		values = []string{}
	}

	pk, sk := slotKeyParts(key)
	item, err := attributevalue.MarshalMap(slotItem{
		PK:         pk,
		SK:         sk,
		EntityType: slotEntityType,
		ItemID:     key.ItemID,
		Scope:      string(key.Scope),
		Key:        key.Key,
		Values:     values,
		UpdatedAt:  s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal slot %s: %w", key, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to put slot %s: %w", key, err)
	}

	s.logger.Debug("Slot written",
		zap.String("slot", key.String()),
		zap.Int("values", len(values)),
	)
	return nil
}

// Ping checks that the table is reachable
func (s *RelationStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", s.tableName, err)
	}
	return nil
}

func slotKeyParts(key ports.SlotKey) (pk, sk string) {
	pk = "ITEM#" + key.ItemID
	if key.Scope == ports.ScopePrivate {
		return pk, fmt.Sprintf("SLOT#%s#%s#%s", key.Scope, key.Viewer, key.Key)
	}
	return pk, fmt.Sprintf("SLOT#%s#%s", key.Scope, key.Key)
}

func slotKey(key ports.SlotKey) map[string]types.AttributeValue {
	pk, sk := slotKeyParts(key)
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}
