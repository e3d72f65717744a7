//nolint:nilnil
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/slackmgr/todo/todo"
)

const (
	// PartitionKey is the DynamoDB partition key attribute name. The table has
	// a simple primary key; there is no sort key.
	PartitionKey = todo.FieldID

	// partitionKeyName is the expression attribute name placeholder for the
	// partition key in condition and projection expressions.
	partitionKeyName = "#pk"

	// batchWriteLimit is the maximum number of requests in a BatchWriteItem call.
	batchWriteLimit = 25

	// maxBackoff is the maximum backoff duration for retry loops.
	maxBackoff = 2 * time.Second
)

var errNotConnected = errors.New("client is not connected")

// Client is a DynamoDB-backed implementation of [todo.Store]. Each item is
// stored as one DynamoDB item keyed by its id.
//
// Use [New] to create a Client, [Client.Connect] to initialize the underlying
// DynamoDB connection, and [Client.Init] to validate the table schema.
type Client struct {
	client    API
	tableName string
	awsCfg    *aws.Config
	opts      *Options
}

var _ todo.Store = (*Client)(nil)

// New creates a new Client configured with the given AWS config, table name,
// and optional options. Call [Client.Connect] on the returned client before use.
func New(awsCfg *aws.Config, tableName string, opts ...Option) *Client {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	return &Client{
		awsCfg:    awsCfg,
		tableName: tableName,
		opts:      options,
	}
}

// Connect initializes the DynamoDB client from the AWS config provided to [New].
// It must be called before any other Client methods, and must complete before
// the Client is used concurrently.
func (c *Client) Connect() error {
	if c.tableName == "" {
		return errors.New("table name cannot be empty")
	}

	if err := c.opts.validate(); err != nil {
		return fmt.Errorf("invalid DynamoDB options: %w", err)
	}

	// Use injected DynamoDB API if provided (useful for testing).
	if c.opts.dynamoDBAPI != nil {
		c.client = c.opts.dynamoDBAPI
		return nil
	}

	if c.awsCfg == nil {
		return errors.New("AWS config cannot be nil")
	}

	c.client = dynamodb.NewFromConfig(*c.awsCfg, func(o *dynamodb.Options) {
		o.Retryer = retry.AddWithMaxAttempts(o.Retryer, c.opts.maxRetryAttempts)
		o.Retryer = retry.AddWithMaxBackoffDelay(o.Retryer, c.opts.maxRetryBackoffDelay)
	})

	return nil
}

// TableName returns the DynamoDB table name supplied to [New].
func (c *Client) TableName() string {
	return c.tableName
}

// Init validates the DynamoDB table schema. It checks that the table exists,
// is active, and has a simple primary key on the string attribute id.
//
// Pass skipSchemaValidation true to skip all checks and return immediately,
// which is useful when schema validation is managed separately.
func (c *Client) Init(ctx context.Context, skipSchemaValidation bool) error {
	if c.client == nil {
		return errNotConnected
	}

	if skipSchemaValidation {
		return nil
	}

	input := &dynamodb.DescribeTableInput{
		TableName: aws.String(c.tableName),
	}

	response, err := c.client.DescribeTable(ctx, input)
	if err != nil {
		var notFoundError *dynamodbtypes.ResourceNotFoundException
		if errors.As(err, &notFoundError) {
			return fmt.Errorf("table %s does not exist", c.tableName)
		}
		return fmt.Errorf("failed to describe table %s: %w", c.tableName, err)
	}

	if response.Table == nil {
		return fmt.Errorf("table %s has no description", c.tableName)
	}

	if len(response.Table.KeySchema) < 1 {
		return fmt.Errorf("table %s has no key schema", c.tableName)
	}

	if aws.ToString(response.Table.KeySchema[0].AttributeName) != PartitionKey {
		return fmt.Errorf("table %s has partition key %s, expected %s", c.tableName, aws.ToString(response.Table.KeySchema[0].AttributeName), PartitionKey)
	}

	if len(response.Table.KeySchema) > 1 {
		return fmt.Errorf("table %s has a composite primary key, expected simple", c.tableName)
	}

	if err := verifyAttributeType(response.Table, PartitionKey, dynamodbtypes.ScalarAttributeTypeS); err != nil {
		return err
	}

	if response.Table.TableStatus != dynamodbtypes.TableStatusActive {
		return fmt.Errorf("table %s is not active (status: %s)", c.tableName, response.Table.TableStatus)
	}

	return nil
}

// DropAllData deletes every item from the DynamoDB table. It scans the table
// in pages and removes each page using BatchWriteItem with exponential backoff
// for unprocessed items.
//
// This method is intended for use in tests only. Do not call it in production.
func (c *Client) DropAllData(ctx context.Context) error {
	if c.client == nil {
		return errNotConnected
	}

	input := &dynamodb.ScanInput{
		TableName:                aws.String(c.tableName),
		ProjectionExpression:     aws.String(partitionKeyName),
		ExpressionAttributeNames: map[string]string{partitionKeyName: PartitionKey},
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		output, err := c.client.Scan(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to scan DynamoDB table %s: %w", c.tableName, err)
		}

		for i := 0; i < len(output.Items); i += batchWriteLimit {
			end := min(i+batchWriteLimit, len(output.Items))
			batch := output.Items[i:end]

			requestItems := make([]dynamodbtypes.WriteRequest, 0, len(batch))

			for _, item := range batch {
				requestItems = append(requestItems, dynamodbtypes.WriteRequest{
					DeleteRequest: &dynamodbtypes.DeleteRequest{
						Key: map[string]dynamodbtypes.AttributeValue{
							PartitionKey: item[PartitionKey],
						},
					},
				})
			}

			if err := c.batchWrite(ctx, requestItems); err != nil {
				return err
			}
		}

		if output.LastEvaluatedKey == nil {
			break
		}

		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	return nil
}

// Probe issues a count-only Scan limited to a single item. It fails if the
// table cannot be read.
func (c *Client) Probe(ctx context.Context) error {
	if c.client == nil {
		return errNotConnected
	}

	input := &dynamodb.ScanInput{
		TableName: aws.String(c.tableName),
		Select:    dynamodbtypes.SelectCount,
		Limit:     aws.Int32(1),
	}

	if _, err := c.client.Scan(ctx, input); err != nil {
		return fmt.Errorf("failed to scan DynamoDB table %s: %w", c.tableName, err)
	}

	return nil
}

// ScanItems returns every item in the table, following Scan pagination until
// the last page. Returns an empty slice if the table is empty.
func (c *Client) ScanItems(ctx context.Context) ([]todo.Item, error) {
	if c.client == nil {
		return nil, errNotConnected
	}

	input := &dynamodb.ScanInput{
		TableName:      aws.String(c.tableName),
		ConsistentRead: aws.Bool(c.opts.consistentReads),
	}

	if c.opts.scanPageSize > 0 {
		input.Limit = aws.Int32(c.opts.scanPageSize)
	}

	items := []todo.Item{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		output, err := c.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan DynamoDB table %s: %w", c.tableName, err)
		}

		var page []todo.Item

		if err := attributevalue.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items from DynamoDB table %s: %w", c.tableName, err)
		}

		items = append(items, page...)

		if output.LastEvaluatedKey == nil {
			break
		}

		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	return items, nil
}

// PutItem writes the item, replacing any existing item with the same id.
func (c *Client) PutItem(ctx context.Context, item todo.Item) error {
	if c.client == nil {
		return errNotConnected
	}

	if item.ID == "" {
		return errors.New("item ID cannot be empty")
	}

	attributes, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: &c.tableName,
		Item:      attributes,
	}

	if _, err := c.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to write item to DynamoDB table %s: %w", c.tableName, err)
	}

	return nil
}

// UpdateItem sets the given fields on an existing item. The update is
// conditional on the item existing; if it does not, UpdateItem returns an
// error wrapping [todo.ErrItemNotFound] and nothing is written.
func (c *Client) UpdateItem(ctx context.Context, id string, fields []todo.Field) error {
	if c.client == nil {
		return errNotConnected
	}

	if id == "" {
		return errors.New("item ID cannot be empty")
	}

	input, err := buildUpdateItemInput(c.tableName, id, fields)
	if err != nil {
		return err
	}

	if _, err := c.client.UpdateItem(ctx, input); err != nil {
		var conditionFailed *dynamodbtypes.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return fmt.Errorf("item %s: %w", id, todo.ErrItemNotFound)
		}

		return fmt.Errorf("failed to update item in DynamoDB table %s: %w", c.tableName, err)
	}

	return nil
}

// GetItem returns the item with the given id. Returns (nil, nil) if the item
// does not exist.
func (c *Client) GetItem(ctx context.Context, id string) (*todo.Item, error) {
	if c.client == nil {
		return nil, errNotConnected
	}

	if id == "" {
		return nil, errors.New("item ID cannot be empty")
	}

	input := &dynamodb.GetItemInput{
		TableName:      &c.tableName,
		Key:            itemKey(id),
		ConsistentRead: aws.Bool(c.opts.consistentReads),
	}

	output, err := c.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get item from DynamoDB table %s: %w", c.tableName, err)
	}

	if len(output.Item) == 0 {
		return nil, nil
	}

	var item todo.Item

	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item %s: %w", id, err)
	}

	return &item, nil
}

// DeleteItem removes the item with the given id. It is a no-op if the item
// does not exist.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	if c.client == nil {
		return errNotConnected
	}

	if id == "" {
		return errors.New("item ID cannot be empty")
	}

	input := &dynamodb.DeleteItemInput{
		TableName: &c.tableName,
		Key:       itemKey(id),
	}

	if _, err := c.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete item from DynamoDB table %s: %w", c.tableName, err)
	}

	return nil
}

func (c *Client) batchWrite(ctx context.Context, requestItems []dynamodbtypes.WriteRequest) error {
	input := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]dynamodbtypes.WriteRequest{
			c.tableName: requestItems,
		},
	}

	// Retry with exponential backoff for unprocessed items.
	const maxRetries = 5
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		batchResult, err := c.client.BatchWriteItem(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to batch write to DynamoDB table %s: %w", c.tableName, err)
		}

		if len(batchResult.UnprocessedItems) == 0 {
			return nil
		}

		if attempt == maxRetries {
			return fmt.Errorf("%d unprocessed items after %d retries", len(batchResult.UnprocessedItems[c.tableName]), maxRetries)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
		input.RequestItems = batchResult.UnprocessedItems
	}

	return nil
}

// buildUpdateItemInput builds a conditional UpdateItem request that sets
// exactly the given fields. Fields are zipped to #k<i> name and :v<i> value
// placeholders in enumeration order and joined into a single SET clause:
//
//	SET #k0 = :v0, #k1 = :v1
func buildUpdateItemInput(tableName, id string, fields []todo.Field) (*dynamodb.UpdateItemInput, error) {
	if len(fields) == 0 {
		return nil, errors.New("at least one field must be updated")
	}

	names := map[string]string{partitionKeyName: PartitionKey}
	values := make(map[string]dynamodbtypes.AttributeValue, len(fields))
	clauses := make([]string, 0, len(fields))

	for i, f := range fields {
		if f.Name == PartitionKey {
			return nil, fmt.Errorf("field %s cannot be updated", f.Name)
		}

		nameKey := fmt.Sprintf("#k%d", i)
		valueKey := fmt.Sprintf(":v%d", i)

		value, err := attributevalue.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal value of field %s: %w", f.Name, err)
		}

		names[nameKey] = f.Name
		values[valueKey] = value
		clauses = append(clauses, nameKey+" = "+valueKey)
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableName),
		Key:                       itemKey(id),
		UpdateExpression:          aws.String("SET " + strings.Join(clauses, ", ")),
		ConditionExpression:       aws.String("attribute_exists(" + partitionKeyName + ")"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}, nil
}

func itemKey(id string) map[string]dynamodbtypes.AttributeValue {
	return map[string]dynamodbtypes.AttributeValue{
		PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: id},
	}
}

func verifyAttributeType(table *dynamodbtypes.TableDescription, name string, expected dynamodbtypes.ScalarAttributeType) error {
	for _, def := range table.AttributeDefinitions {
		if aws.ToString(def.AttributeName) != name {
			continue
		}

		if def.AttributeType != expected {
			return fmt.Errorf("attribute %s has type %s, expected %s", name, def.AttributeType, expected)
		}

		return nil
	}

	return fmt.Errorf("attribute definition for %s not found", name)
}
