package store

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// DynamoStore maps each collection to a DynamoDB table keyed by "id".
// Tables are provisioned outside the application. With a name configured,
// table names are "<name>_<collection>" and only tables carrying that
// prefix are reported as collections.
type DynamoStore struct {
	api    DynamoAPI
	name   string
	prefix string
}

// NewDynamo builds a DynamoStore from a URL of the form
// dynamodb://<region>[?endpoint=<url>]. Credentials come from the default
// AWS provider chain.
func NewDynamo(ctx context.Context, rawURL, name string) (*DynamoStore, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DynamoDB URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("DynamoDB URL must name a region, e.g. dynamodb://us-east-1")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(u.Host))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := u.Query().Get("endpoint")
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := NewDynamoFromAPI(client, name)

	if err := s.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach DynamoDB: %w", err)
	}

	return s, nil
}

// NewDynamoFromAPI wraps an existing client.
func NewDynamoFromAPI(api DynamoAPI, name string) *DynamoStore {
	prefix := ""
	if name != "" {
		prefix = name + "_"
	} else {
		name = DriverDynamoDB
	}
	return &DynamoStore{api: api, name: name, prefix: prefix}
}

// Create puts the document as a new item.
func (s *DynamoStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}

	id := NewID()
	doc := stamp(fields, time.Now())
	doc["id"] = id

	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.prefix + collection),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put item into %s: %w", collection, err)
	}

	return id, nil
}

// ListCollections returns the tables carrying the store prefix, with the
// prefix removed.
func (s *DynamoStore) ListCollections(ctx context.Context) ([]string, error) {
	names := []string{}

	paginator := dynamodb.NewListTablesPaginator(s.api, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
		for _, table := range page.TableNames {
			if !strings.HasPrefix(table, s.prefix) {
				continue
			}
			names = append(names, strings.TrimPrefix(table, s.prefix))
		}
	}

	sort.Strings(names)
	return names, nil
}

// Name returns the configured name.
func (s *DynamoStore) Name() string {
	return s.name
}

// Ping issues a minimal ListTables call.
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.api.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	return err
}

// Close is a no-op; the SDK client holds no connections that need closing.
func (s *DynamoStore) Close() error {
	return nil
}
