package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	lru "github.com/hashicorp/golang-lru"
)

// childMarkerPrefix namespaces the partitions holding child markers so they
// never collide with a data path.
const childMarkerPrefix = "#children:"

// dynamoItem is the attribute layout of every item in the table. PK is the
// joined path and SK the entry key, so a Query on PK with a BETWEEN
// condition on SK is an ordered range scan.
type dynamoItem struct {
	PK     string            `dynamodbav:"PK"`
	SK     string            `dynamodbav:"SK"`
	Fields map[string]string `dynamodbav:"fields,omitempty"`
}

// DynamoStore implements KeyRangeStore on a DynamoDB table with a string
// partition key "PK" and a string sort key "SK".
//
// DynamoDB cannot list partitions cheaply, so every Put also records a
// marker item per path level; Children queries those markers. Markers
// already written by this process are remembered in an LRU cache.
type DynamoStore struct {
	api     dynamodbiface.DynamoDBAPI
	table   string
	markers *lru.Cache
}

// DynamoConfig holds the connection settings of a DynamoStore.
type DynamoConfig struct {
	Table    string
	Region   string
	Endpoint string // optional, for DynamoDB Local
}

// NewDynamoStore creates a store backed by a fresh AWS session.
func NewDynamoStore(cfg DynamoConfig, markerCacheSize int) (*DynamoStore, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return NewDynamoStoreWithClient(dynamodb.New(sess), cfg.Table, markerCacheSize)
}

// NewDynamoStoreWithClient creates a store on an existing client.
func NewDynamoStoreWithClient(api dynamodbiface.DynamoDBAPI, table string, markerCacheSize int) (*DynamoStore, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}
	markers, err := lru.New(markerCacheSize)
	if err != nil {
		return nil, err
	}
	return &DynamoStore{api: api, table: table, markers: markers}, nil
}

func (s *DynamoStore) Put(ctx context.Context, path []string, key string, fields map[string]string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if !ValidSegment(key) {
		return fmt.Errorf("invalid key %q", key)
	}

	if err := s.putItem(ctx, dynamoItem{PK: JoinPath(path), SK: key, Fields: fields}); err != nil {
		return err
	}

	for i := 1; i < len(path); i++ {
		marker := dynamoItem{PK: childMarkerPrefix + JoinPath(path[:i]), SK: path[i]}
		cacheKey := marker.PK + "/" + marker.SK
		if s.markers.Contains(cacheKey) {
			continue
		}
		if err := s.putItem(ctx, marker); err != nil {
			return fmt.Errorf("failed to record child marker: %w", err)
		}
		s.markers.Add(cacheKey, struct{}{})
	}
	return nil
}

func (s *DynamoStore) putItem(ctx context.Context, item dynamoItem) error {
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	_, err = s.api.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	return err
}

func (s *DynamoStore) Range(ctx context.Context, path []string, fromKey, toKey string) ([]Entry, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	// BETWEEN rejects inverted bounds; an inverted range is simply empty.
	if fromKey > toKey {
		return nil, nil
	}

	items, err := s.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND SK BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk":   {S: aws.String(JoinPath(path))},
			":from": {S: aws.String(fromKey)},
			":to":   {S: aws.String(toKey)},
		},
		ConsistentRead:   aws.Bool(true),
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		fields := it.Fields
		if fields == nil {
			fields = map[string]string{}
		}
		entries = append(entries, Entry{Key: it.SK, Fields: fields})
	}
	return entries, nil
}

func (s *DynamoStore) Children(ctx context.Context, path []string) ([]string, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	items, err := s.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(childMarkerPrefix + JoinPath(path))},
		},
		ProjectionExpression: aws.String("PK, SK"),
		ScanIndexForward:     aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	children := make([]string, 0, len(items))
	for _, it := range items {
		children = append(children, it.SK)
	}
	return children, nil
}

// query collects every page of a Query. A failure on any page discards the
// pages read so far.
func (s *DynamoStore) query(ctx context.Context, input *dynamodb.QueryInput) ([]dynamoItem, error) {
	var (
		items     []dynamoItem
		decodeErr error
	)
	err := s.api.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, lastPage bool) bool {
		var batch []dynamoItem
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			decodeErr = fmt.Errorf("failed to unmarshal items: %w", err)
			return false
		}
		items = append(items, batch...)
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return items, nil
}

// Close is a no-op; the AWS client holds no resources that need releasing.
func (s *DynamoStore) Close() error {
	return nil
}

var _ KeyRangeStore = (*DynamoStore)(nil)
