package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"committrack/internal/model"
	"committrack/internal/store"
	"committrack/pkg/metrics"
)

const driverName = "dynamodb"

// Config holds DynamoDB settings. Table and UserIndex are required; static
// credentials and a custom endpoint are optional (the endpoint is for
// dynamodb-local style setups).
type Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Table     string `yaml:"table"`
	UserIndex string `yaml:"user_index"`
}

// Store implements store.GoalStore on a DynamoDB table keyed by GoalID with a
// global secondary index on UserID.
type Store struct {
	client    *dynamodb.Client
	table     string
	userIndex string
}

func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Table == "" {
		return nil, errors.New("dynamodb table name is required")
	}
	if cfg.UserIndex == "" {
		return nil, errors.New("dynamodb user index name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info("DynamoDB goal store initialized",
		zap.String("table", cfg.Table),
		zap.String("user_index", cfg.UserIndex),
		zap.String("region", cfg.Region),
	)

	return &Store{client: client, table: cfg.Table, userIndex: cfg.UserIndex}, nil
}

func (s *Store) key(goalID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		model.AttrGoalID: &types.AttributeValueMemberS{Value: goalID},
	}
}

// ListAll scans the whole table, following LastEvaluatedKey pages.
func (s *Store) ListAll(ctx context.Context) ([]model.Goal, error) {
	defer metrics.ObserveStoreOp("list_all", driverName, time.Now())

	var goals []model.Goal
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan goals: %w", err)
		}

		var page []model.Goal
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal goals: %w", err)
		}
		goals = append(goals, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return goals, nil
}

func (s *Store) Get(ctx context.Context, goalID string) (*model.Goal, error) {
	defer metrics.ObserveStoreOp("get", driverName, time.Now())

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(goalID),
	})
	if err != nil {
		return nil, fmt.Errorf("get goal %s: %w", goalID, err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrNotFound
	}

	var g model.Goal
	if err := attributevalue.UnmarshalMap(out.Item, &g); err != nil {
		return nil, fmt.Errorf("unmarshal goal %s: %w", goalID, err)
	}
	return &g, nil
}

func (s *Store) Put(ctx context.Context, goal *model.Goal) error {
	defer metrics.ObserveStoreOp("put", driverName, time.Now())

	item, err := attributevalue.MarshalMap(goal)
	if err != nil {
		return fmt.Errorf("marshal goal %s: %w", goal.GoalID, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put goal %s: %w", goal.GoalID, err)
	}
	return nil
}

// UpdateFields issues a single UpdateItem touching only the named attributes.
// The attribute_exists condition turns an update racing a delete into
// store.ErrNotFound instead of resurrecting the record.
func (s *Store) UpdateFields(ctx context.Context, goalID string, fields store.Fields) error {
	defer metrics.ObserveStoreOp("update_fields", driverName, time.Now())

	if len(fields) == 0 {
		return nil
	}

	names := make(map[string]string, len(fields))
	values := make(map[string]types.AttributeValue, len(fields))
	sets := make([]string, 0, len(fields))

	i := 0
	for attr, value := range fields {
		if attr == model.AttrGoalID {
			return fmt.Errorf("attribute %s is immutable", attr)
		}
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal attribute %s: %w", attr, err)
		}
		// placeholders keep reserved words like Status and Priority usable
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		names[nameKey] = attr
		values[valueKey] = av
		sets = append(sets, nameKey+" = "+valueKey)
		i++
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(goalID),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(" + model.AttrGoalID + ")"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return store.ErrNotFound
		}
		return fmt.Errorf("update goal %s: %w", goalID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, goalID string) error {
	defer metrics.ObserveStoreOp("delete", driverName, time.Now())

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 s.key(goalID),
		ConditionExpression: aws.String("attribute_exists(" + model.AttrGoalID + ")"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return store.ErrNotFound
		}
		return fmt.Errorf("delete goal %s: %w", goalID, err)
	}
	return nil
}

// QueryByUser reads the UserID global secondary index.
func (s *Store) QueryByUser(ctx context.Context, userID string) ([]model.Goal, error) {
	defer metrics.ObserveStoreOp("query_by_user", driverName, time.Now())

	var goals []model.Goal
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			IndexName:              aws.String(s.userIndex),
			KeyConditionExpression: aws.String("#uid = :uid"),
			ExpressionAttributeNames: map[string]string{
				"#uid": model.AttrUserID,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: userID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query goals for user %s: %w", userID, err)
		}

		var page []model.Goal
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal goals for user %s: %w", userID, err)
		}
		goals = append(goals, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return goals, nil
}
