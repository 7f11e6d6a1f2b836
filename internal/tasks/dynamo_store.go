package tasks

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const completionPK = "TASKS#completions"

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore keeps one item per completion under a shared partition key.
type DynamoStore struct {
	db        DynamoAPI
	tableName string
}

// dynamoCompletion is the stored item shape.
type dynamoCompletion struct {
	PK string `dynamodbav:"PK"`
	Completion
}

// NewDynamoStore creates a DynamoStore over an existing client.
func NewDynamoStore(db DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{db: db, tableName: tableName}
}

// Complete records a completion.
func (s *DynamoStore) Complete(ctx context.Context, c Completion) error {
	av, err := attributevalue.MarshalMap(dynamoCompletion{PK: completionPK, Completion: c})
	if err != nil {
		return fmt.Errorf("marshaling completion: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting completion to DynamoDB: %w", err)
	}
	return nil
}

// Reopen deletes a completion.
func (s *DynamoStore) Reopen(ctx context.Context, taskID string) error {
	_, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: completionPK},
			"SK": &types.AttributeValueMemberS{Value: taskID},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting completion from DynamoDB: %w", err)
	}
	return nil
}

// Completions queries every completion, following pagination.
func (s *DynamoStore) Completions(ctx context.Context) (map[string]Completion, error) {
	out := make(map[string]Completion)
	var startKey map[string]types.AttributeValue

	for {
		res, err := s.db.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: completionPK},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("querying completions from DynamoDB: %w", err)
		}

		var items []dynamoCompletion
		if err := attributevalue.UnmarshalListOfMaps(res.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshaling completions: %w", err)
		}
		for _, it := range items {
			out[it.TaskID] = it.Completion
		}

		if len(res.LastEvaluatedKey) == 0 {
			return out, nil
		}
		startKey = res.LastEvaluatedKey
	}
}
