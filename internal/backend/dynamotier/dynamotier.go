// Package dynamotier implements tier1.Backend against an Amazon DynamoDB
// table, with the artifact's purgeAt timestamp stored in the table's TTL
// attribute so the service never needs its own sweeper.
package dynamotier

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ionlayer/tiercache/internal/tier1"
)

// item is the DynamoDB row shape backing tier1.Record. Field names are
// kept short and lowercase to match a hand-authored table schema rather
// than reusing Record's Go field names verbatim.
type item struct {
	Fingerprint string            `dynamodbav:"fingerprint"`
	Inline      []byte            `dynamodbav:"inline,omitempty"`
	Pointer     string            `dynamodbav:"pointer,omitempty"`
	Alg         string            `dynamodbav:"alg"`
	IV          []byte            `dynamodbav:"iv,omitempty"`
	Headers     map[string]string `dynamodbav:"headers,omitempty"`
	StatusCode  string            `dynamodbav:"status_code"`
	ExpiresAt   int64             `dynamodbav:"expires_at"`
	PurgeAt     int64             `dynamodbav:"purge_at"`
	TTL         int64             `dynamodbav:"ttl"` // seconds since epoch; DynamoDB's native TTL unit
	CreatedAt   int64             `dynamodbav:"created_at"`
	HitCount    int64             `dynamodbav:"hit_count"`
}

// dynamoClient is the slice of *dynamodb.Client that Backend needs. Tests
// substitute a fake satisfying this interface instead of talking to a real
// table.
type dynamoClient interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Backend is a tier1.Backend backed by a single DynamoDB table keyed by
// fingerprint (partition key "fingerprint", no sort key).
type Backend struct {
	client    dynamoClient
	tableName string
}

// New returns a Backend against tableName using client.
func New(client *dynamodb.Client, tableName string) *Backend {
	return &Backend{client: client, tableName: tableName}
}

var _ tier1.Backend = (*Backend)(nil)

func (b *Backend) Get(ctx context.Context, fingerprint string) (tier1.Record, error) {
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(b.tableName),
		Key: map[string]types.AttributeValue{
			"fingerprint": &types.AttributeValueMemberS{Value: fingerprint},
		},
	})
	if err != nil {
		return tier1.Record{}, fmt.Errorf("dynamotier: get item: %w", err)
	}
	if out.Item == nil {
		return tier1.Record{}, tier1.ErrNotFound
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return tier1.Record{}, fmt.Errorf("dynamotier: unmarshal item: %w", err)
	}

	return item2record(it), nil
}

func (b *Backend) Put(ctx context.Context, rec tier1.Record) error {
	it := record2item(rec)

	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return fmt.Errorf("dynamotier: marshal item: %w", err)
	}

	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("dynamotier: put item: %w", err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, fingerprint string) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.tableName),
		Key: map[string]types.AttributeValue{
			"fingerprint": &types.AttributeValueMemberS{Value: fingerprint},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamotier: delete item: %w", err)
	}
	return nil
}

// hitCountUpdate builds the conditional "increment or initialize hit_count"
// expression once via the expression builder rather than hand-assembling
// the UpdateExpression/ConditionExpression strings and their placeholder
// maps by hand.
func hitCountUpdate() (expression.Expression, error) {
	update := expression.Set(
		expression.Name("hit_count"),
		expression.IfNotExists(expression.Name("hit_count"), expression.Value(0)).Plus(expression.Value(1)),
	)
	cond := expression.AttributeExists(expression.Name("fingerprint"))
	return expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
}

func (b *Backend) IncrementHitCount(ctx context.Context, fingerprint string) error {
	expr, err := hitCountUpdate()
	if err != nil {
		return fmt.Errorf("dynamotier: building hit count expression: %w", err)
	}

	_, err = b.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(b.tableName),
		Key: map[string]types.AttributeValue{
			"fingerprint": &types.AttributeValueMemberS{Value: fingerprint},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return tier1.ErrNotFound
		}
		return fmt.Errorf("dynamotier: increment hit count: %w", err)
	}
	return nil
}

func item2record(it item) tier1.Record {
	return tier1.Record{
		Fingerprint:     it.Fingerprint,
		Inline:          it.Inline,
		Pointer:         it.Pointer,
		Alg:             it.Alg,
		IV:              it.IV,
		Headers:         it.Headers,
		StatusCode:      it.StatusCode,
		ExpiresAtMillis: it.ExpiresAt,
		PurgeAtMillis:   it.PurgeAt,
		CreatedAtMillis: it.CreatedAt,
		HitCount:        it.HitCount,
	}
}

func record2item(rec tier1.Record) item {
	return item{
		Fingerprint: rec.Fingerprint,
		Inline:      rec.Inline,
		Pointer:     rec.Pointer,
		Alg:         rec.Alg,
		IV:          rec.IV,
		Headers:     rec.Headers,
		StatusCode:  rec.StatusCode,
		ExpiresAt:   rec.ExpiresAtMillis,
		PurgeAt:     rec.PurgeAtMillis,
		TTL:         rec.PurgeAtMillis / 1000,
		CreatedAt:   rec.CreatedAtMillis,
		HitCount:    rec.HitCount,
	}
}
