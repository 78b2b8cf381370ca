package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"chathello/internal/domain"
)

const (
	pkPrefixActivity = "ACTIVITY#"
	dayLayout        = "2006-01-02"
	ttlDuration      = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStore.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore keeps activity entries in a DynamoDB table partitioned by UTC day.
type DynamoStore struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// NewDynamoStore creates a DynamoStore for tableName.
func NewDynamoStore(api dynamodbAPI, tableName string) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &DynamoStore{api: api, tableName: tableName, now: time.Now}, nil
}

// dayPK returns the partition key for all activity recorded on ts's UTC day.
func dayPK(ts time.Time) string {
	return pkPrefixActivity + ts.UTC().Format(dayLayout)
}

// activitySK orders entries chronologically within a day; the id breaks ties.
func activitySK(ts time.Time, id string) string {
	return ts.UTC().Format(time.RFC3339Nano) + "#" + id
}

// Record writes a. Entries are immutable so the put is conditional.
func (s *DynamoStore) Record(ctx context.Context, a domain.Activity) error {
	if a.ID == "" {
		return errors.New("repository: Record: activity id is required")
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                activityItem(a, s.now().Add(ttlDuration).Unix()),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: Record: %w", err)
	}
	return nil
}

// List returns up to limit entries recorded on day, newest first.
func (s *DynamoStore) List(ctx context.Context, day time.Time, limit int) ([]domain.Activity, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: dayPK(day)},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := s.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: List query: %w", err)
	}

	activities := make([]domain.Activity, 0, len(out.Items))
	for _, item := range out.Items {
		a, err := itemToActivity(item)
		if err != nil {
			return nil, fmt.Errorf("repository: List unmarshal: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, nil
}

func activityItem(a domain.Activity, ttl int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":               &types.AttributeValueMemberS{Value: dayPK(a.Timestamp)},
		"SK":               &types.AttributeValueMemberS{Value: activitySK(a.Timestamp, a.ID)},
		"id":               &types.AttributeValueMemberS{Value: a.ID},
		"timestamp":        &types.AttributeValueMemberS{Value: a.Timestamp.UTC().Format(time.RFC3339Nano)},
		"provider":         &types.AttributeValueMemberS{Value: a.Provider},
		"model":            &types.AttributeValueMemberS{Value: a.Model},
		"promptTokens":     &types.AttributeValueMemberN{Value: strconv.Itoa(a.PromptTokens)},
		"completionTokens": &types.AttributeValueMemberN{Value: strconv.Itoa(a.CompletionTokens)},
		"totalTokens":      &types.AttributeValueMemberN{Value: strconv.Itoa(a.TotalTokens)},
		"responseTimeMs":   &types.AttributeValueMemberN{Value: strconv.FormatFloat(a.ResponseTimeMs, 'f', -1, 64)},
		"status":           &types.AttributeValueMemberS{Value: a.Status},
		"errorCode":        &types.AttributeValueMemberS{Value: a.ErrorCode},
		"ttl":              &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)},
	}
}

func itemToActivity(item map[string]types.AttributeValue) (domain.Activity, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return domain.Activity{}, err
	}
	tsRaw, err := strAttr(item, "timestamp")
	if err != nil {
		return domain.Activity{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("repository: parse timestamp: %w", err)
	}
	a := domain.Activity{ID: id, Timestamp: ts}
	a.Provider, _ = strAttr(item, "provider")
	a.Model, _ = strAttr(item, "model")
	a.Status, _ = strAttr(item, "status")
	a.ErrorCode, _ = strAttr(item, "errorCode") // allow empty

	if a.PromptTokens, err = intAttr(item, "promptTokens"); err != nil {
		return domain.Activity{}, err
	}
	if a.CompletionTokens, err = intAttr(item, "completionTokens"); err != nil {
		return domain.Activity{}, err
	}
	if a.TotalTokens, err = intAttr(item, "totalTokens"); err != nil {
		return domain.Activity{}, err
	}
	if a.ResponseTimeMs, err = floatAttr(item, "responseTimeMs"); err != nil {
		return domain.Activity{}, err
	}
	return a, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func numAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a number", key)
	}
	return n.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	raw, err := numAttr(item, key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func floatAttr(item map[string]types.AttributeValue, key string) (float64, error) {
	raw, err := numAttr(item, key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
