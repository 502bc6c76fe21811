package datastore

import (
	"context"
	"errors"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

const (
	dynamoTableWaitTimeout = 5 * time.Minute
	maxUnprocessedRetries  = 5
)

// DynamoDBAPI is the subset of the DynamoDB client used by the store.
type DynamoDBAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoDBStore keeps snapshots in a DynamoDB table keyed by
// (record_type, scan_date).
type DynamoDBStore struct {
	client    DynamoDBAPI
	tableName string
	logger    zerolog.Logger
	retryWait time.Duration
}

// NewDynamoDBStore creates the store and the table if it does not exist yet.
func NewDynamoDBStore(ctx context.Context, client DynamoDBAPI, tableName string, logger zerolog.Logger) (*DynamoDBStore, error) {
	if tableName == "" {
		return nil, common.NewValidationError("table_name", tableName, "DynamoDB table name is required")
	}

	store := &DynamoDBStore{
		client:    client,
		tableName: tableName,
		logger:    logger.With().Str("module", "DynamoDBStore").Str("table", tableName).Logger(),
		retryWait: 200 * time.Millisecond,
	}
	if err := store.ensureTable(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *DynamoDBStore) ensureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return common.WrapError(err, "failed to describe table")
	}

	s.logger.Info().Msg("Table does not exist, creating it")
	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("record_type"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("scan_date"), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("record_type"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("scan_date"), AttributeType: types.ScalarAttributeTypeS},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(5),
			WriteCapacityUnits: aws.Int64(5),
		},
	})
	if err != nil {
		return common.WrapError(err, "failed to create table")
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)}, dynamoTableWaitTimeout); err != nil {
		return common.WrapError(err, "table did not become active")
	}
	s.logger.Info().Msg("Table created")
	return nil
}

// Append implements SnapshotStore.
func (s *DynamoDBStore) Append(ctx context.Context, snapshot models.Snapshot) error {
	files, err := encodeFiles(snapshot.Files)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"record_type": &types.AttributeValueMemberS{Value: RecordTypeScanResult},
			"scan_date":   &types.AttributeValueMemberS{Value: snapshot.ScanDate},
			"files":       &types.AttributeValueMemberS{Value: files},
		},
		ConditionExpression: aws.String("attribute_not_exists(scan_date)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrDuplicateScan
		}
		return common.WrapErrorf(err, "failed to put snapshot %s", snapshot.ScanDate)
	}

	s.logger.Info().Str("scan_date", snapshot.ScanDate).Int("files", len(snapshot.Files)).Msg("Snapshot saved")
	return nil
}

// Latest implements SnapshotStore.
func (s *DynamoDBStore) Latest(ctx context.Context) (models.Snapshot, error) {
	snapshots, err := s.List(ctx, 1)
	if err != nil {
		return models.Snapshot{}, err
	}
	if len(snapshots) == 0 {
		s.logger.Info().Msg("No previous snapshot found")
		return models.Snapshot{}, nil
	}
	return snapshots[0], nil
}

// List implements SnapshotStore.
func (s *DynamoDBStore) List(ctx context.Context, limit int) ([]models.Snapshot, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("record_type = :rt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rt": &types.AttributeValueMemberS{Value: RecordTypeScanResult},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	var snapshots []models.Snapshot
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, common.WrapError(err, "failed to query snapshots")
		}
		for _, item := range out.Items {
			snapshot, err := snapshotFromItem(item)
			if err != nil {
				return nil, err
			}
			snapshots = append(snapshots, snapshot)
		}

		if len(out.LastEvaluatedKey) == 0 || (limit > 0 && len(snapshots) >= limit) {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	if limit > 0 && len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	return snapshots, nil
}

// PruneBefore implements SnapshotStore.
func (s *DynamoDBStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	cutoffKey := models.FormatScanDate(cutoff)
	keys, err := s.keysBefore(ctx, cutoffKey)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, batch := range chunk(keys, PruneBatchSize) {
		if err := s.deleteBatch(ctx, batch); err != nil {
			return deleted, err
		}
		deleted += len(batch)
	}

	s.logger.Info().Int("deleted", deleted).Str("cutoff", cutoffKey).Msg("Pruned old snapshots")
	return deleted, nil
}

func (s *DynamoDBStore) keysBefore(ctx context.Context, cutoffKey string) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("record_type = :rt AND scan_date < :cutoff"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rt":     &types.AttributeValueMemberS{Value: RecordTypeScanResult},
			":cutoff": &types.AttributeValueMemberS{Value: cutoffKey},
		},
		ProjectionExpression: aws.String("scan_date"),
	}

	var scanDates []string
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, common.WrapError(err, "failed to query old snapshots")
		}
		for _, item := range out.Items {
			if v, ok := item["scan_date"].(*types.AttributeValueMemberS); ok {
				scanDates = append(scanDates, v.Value)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return scanDates, nil
}

func (s *DynamoDBStore) deleteBatch(ctx context.Context, scanDates []string) error {
	requests := make([]types.WriteRequest, 0, len(scanDates))
	for _, scanDate := range scanDates {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					"record_type": &types.AttributeValueMemberS{Value: RecordTypeScanResult},
					"scan_date":   &types.AttributeValueMemberS{Value: scanDate},
				},
			},
		})
	}

	pending := map[string][]types.WriteRequest{s.tableName: requests}
	for attempt := 0; len(pending[s.tableName]) > 0; attempt++ {
		if attempt > maxUnprocessedRetries {
			return common.NewError("giving up on %d unprocessed deletes", len(pending[s.tableName]))
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryWait * time.Duration(attempt)):
			}
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return common.WrapError(err, "failed to delete snapshot batch")
		}
		pending = out.UnprocessedItems
		if pending == nil {
			break
		}
	}
	return nil
}

// Close implements SnapshotStore.
func (s *DynamoDBStore) Close() error {
	return nil
}

func snapshotFromItem(item map[string]types.AttributeValue) (models.Snapshot, error) {
	scanDate, ok := item["scan_date"].(*types.AttributeValueMemberS)
	if !ok {
		return models.Snapshot{}, common.NewError("item is missing scan_date")
	}
	filesAttr, ok := item["files"].(*types.AttributeValueMemberS)
	if !ok {
		return models.Snapshot{}, common.NewError("snapshot %s is missing files", scanDate.Value)
	}

	files, err := decodeFiles(filesAttr.Value)
	if err != nil {
		return models.Snapshot{}, common.WrapErrorf(err, "snapshot %s", scanDate.Value)
	}
	return models.Snapshot{ScanDate: scanDate.Value, Files: files}, nil
}
