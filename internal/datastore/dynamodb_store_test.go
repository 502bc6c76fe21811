package datastore

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamoDB keeps items of a single table in memory.
type fakeDynamoDB struct {
	exists          bool
	created         bool
	items           map[string]map[string]types.AttributeValue
	pageSize        int
	unprocessedOnce bool
	batchCalls      int
}

func newFakeDynamoDB(exists bool) *fakeDynamoDB {
	return &fakeDynamoDB{exists: exists, items: map[string]map[string]types.AttributeValue{}, pageSize: 1000}
}

func (f *fakeDynamoDB) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if !f.exists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: in.TableName, TableStatus: types.TableStatusActive}}, nil
}

func (f *fakeDynamoDB) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.exists = true
	f.created = true
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := in.Item["scan_date"].(*types.AttributeValueMemberS).Value
	if _, ok := f.items[key]; ok && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	var keys []string
	cutoff, hasCutoff := in.ExpressionAttributeValues[":cutoff"].(*types.AttributeValueMemberS)
	for k := range f.items {
		if hasCutoff && k >= cutoff.Value {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if in.ScanIndexForward != nil && !*in.ScanIndexForward {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	}

	if in.ExclusiveStartKey != nil {
		start := in.ExclusiveStartKey["scan_date"].(*types.AttributeValueMemberS).Value
		for i, k := range keys {
			if k == start {
				keys = keys[i+1:]
				break
			}
		}
	}

	limit := f.pageSize
	if in.Limit != nil && int(*in.Limit) < limit {
		limit = int(*in.Limit)
	}

	out := &dynamodb.QueryOutput{}
	for i, k := range keys {
		if i == limit {
			out.LastEvaluatedKey = map[string]types.AttributeValue{"scan_date": &types.AttributeValueMemberS{Value: keys[i-1]}}
			break
		}
		out.Items = append(out.Items, f.items[k])
	}
	return out, nil
}

func (f *fakeDynamoDB) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.batchCalls++
	out := &dynamodb.BatchWriteItemOutput{}
	for table, requests := range in.RequestItems {
		if len(requests) > PruneBatchSize {
			return nil, &types.ProvisionedThroughputExceededException{Message: aws.String("too many items")}
		}
		for i, req := range requests {
			if f.unprocessedOnce && i == len(requests)-1 {
				f.unprocessedOnce = false
				out.UnprocessedItems = map[string][]types.WriteRequest{table: {req}}
				continue
			}
			delete(f.items, req.DeleteRequest.Key["scan_date"].(*types.AttributeValueMemberS).Value)
		}
	}
	return out, nil
}

func newTestDynamoStore(t *testing.T, client *fakeDynamoDB) *DynamoDBStore {
	t.Helper()
	store, err := NewDynamoDBStore(context.Background(), client, "xiaomi_eu_files", zerolog.Nop())
	require.NoError(t, err)
	store.retryWait = time.Millisecond
	return store
}

func TestDynamoDBStore_CreatesMissingTable(t *testing.T) {
	client := newFakeDynamoDB(false)
	newTestDynamoStore(t, client)
	assert.True(t, client.created)

	existing := newFakeDynamoDB(true)
	newTestDynamoStore(t, existing)
	assert.False(t, existing.created)
}

func TestDynamoDBStore_RequiresTableName(t *testing.T) {
	_, err := NewDynamoDBStore(context.Background(), newFakeDynamoDB(true), "", zerolog.Nop())
	assert.Error(t, err)
}

func TestDynamoDBStore_AppendAndLatest(t *testing.T) {
	client := newFakeDynamoDB(true)
	client.pageSize = 1
	store := newTestDynamoStore(t, client)
	ctx := context.Background()

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, latest.IsEmpty())

	base := time.Date(2024, time.October, 24, 9, 0, 0, 0, time.Local)
	require.NoError(t, store.Append(ctx, snapshotAt(base, "a.apk")))
	require.NoError(t, store.Append(ctx, snapshotAt(base.Add(time.Minute), "b.apk")))
	require.NoError(t, store.Append(ctx, snapshotAt(base.Add(2*time.Minute), "c.apk")))

	item := client.items["2024-10-24-09-00-00"]
	assert.Equal(t, RecordTypeScanResult, item["record_type"].(*types.AttributeValueMemberS).Value)
	assert.JSONEq(t, `[{"filename":"a.apk","url":"https://example.com/a.apk","date":"2024.10.24"}]`, item["files"].(*types.AttributeValueMemberS).Value)

	latest, err = store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c.apk", latest.Files[0].Filename)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "pages are followed")

	assert.ErrorIs(t, store.Append(ctx, snapshotAt(base, "z.apk")), ErrDuplicateScan)
}

func TestDynamoDBStore_PruneBeforeBatchesAndRetries(t *testing.T) {
	client := newFakeDynamoDB(true)
	store := newTestDynamoStore(t, client)
	ctx := context.Background()

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < 30; i++ {
		require.NoError(t, store.Append(ctx, snapshotAt(start.Add(time.Duration(i)*time.Hour), "old.apk")))
	}
	cutoff := start.AddDate(0, 1, 0)
	require.NoError(t, store.Append(ctx, snapshotAt(cutoff, "keep.apk")))

	client.unprocessedOnce = true
	deleted, err := store.PruneBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 30, deleted)
	assert.Equal(t, 3, client.batchCalls, "two batches plus one retry of unprocessed items")
	assert.Len(t, client.items, 1)
}
