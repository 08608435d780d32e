package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/storacha/todos/pkg/store"
	"github.com/storacha/todos/pkg/store/todostore"
	"github.com/storacha/todos/pkg/store/todostore/todo"
)

// DynamoTodoStore implements the TodoStore interface on dynamodb. Items are
// keyed by userId (hash) and todoId (range). When an index name is configured,
// listing queries that index instead of the table, so items are returned in
// the index sort order.
type DynamoTodoStore struct {
	tableName      string
	indexName      string
	dynamoDbClient *dynamodb.Client
}

// NewDynamoTodoStore returns a TodoStore connected to a AWS DynamoDB table.
// The indexName parameter is optional.
func NewDynamoTodoStore(cfg aws.Config, tableName string, indexName string, opts ...func(*dynamodb.Options)) *DynamoTodoStore {
	return &DynamoTodoStore{
		tableName:      tableName,
		indexName:      indexName,
		dynamoDbClient: dynamodb.NewFromConfig(cfg, opts...),
	}
}

// List implements todostore.TodoStore.
func (d *DynamoTodoStore) List(ctx context.Context, userID string) ([]todo.Item, error) {
	if userID == "" {
		return nil, store.ErrMissingUserID
	}

	keyEx := expression.Key("userId").Equal(expression.Value(userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		KeyConditionExpression:    expr.KeyCondition(),
	}
	if d.indexName != "" {
		input.IndexName = aws.String(d.indexName)
	}

	items := []todo.Item{}
	queryPaginator := dynamodb.NewQueryPaginator(d.dynamoDbClient, input)
	for queryPaginator.HasMorePages() {
		response, err := queryPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying todos: %w", err)
		}
		var page []todoItem
		err = attributevalue.UnmarshalListOfMaps(response.Items, &page)
		if err != nil {
			return nil, fmt.Errorf("parsing query responses: %w", err)
		}
		for _, item := range page {
			items = append(items, item.toItem())
		}
	}
	return items, nil
}

// Get implements todostore.TodoStore.
func (d *DynamoTodoStore) Get(ctx context.Context, userID string, todoID string) (todo.Item, error) {
	if userID == "" {
		return todo.Item{}, store.ErrMissingUserID
	}

	key, err := itemKey(userID, todoID)
	if err != nil {
		return todo.Item{}, err
	}
	response, err := d.dynamoDbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       key,
	})
	if err != nil {
		return todo.Item{}, fmt.Errorf("retrieving item: %w", err)
	}
	if response.Item == nil {
		return todo.Item{}, store.ErrNotFound
	}

	var item todoItem
	if err := attributevalue.UnmarshalMap(response.Item, &item); err != nil {
		return todo.Item{}, fmt.Errorf("deserializing item: %w", err)
	}
	return item.toItem(), nil
}

// Put implements todostore.TodoStore.
func (d *DynamoTodoStore) Put(ctx context.Context, t todo.Item) error {
	if t.UserID == "" {
		return store.ErrMissingUserID
	}

	item, err := attributevalue.MarshalMap(fromItem(t))
	if err != nil {
		return fmt.Errorf("serializing item: %w", err)
	}
	_, err = d.dynamoDbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName), Item: item,
	})
	if err != nil {
		return fmt.Errorf("storing item: %w", err)
	}
	return nil
}

// Update implements todostore.TodoStore. The write is conditional on the item
// existing so an update never creates a partial item.
func (d *DynamoTodoStore) Update(ctx context.Context, userID string, todoID string, update todo.Update) error {
	if userID == "" {
		return store.ErrMissingUserID
	}

	key, err := itemKey(userID, todoID)
	if err != nil {
		return err
	}

	updateEx := expression.
		Set(expression.Name("name"), expression.Value(update.Name)).
		Set(expression.Name("dueDate"), expression.Value(update.DueDate)).
		Set(expression.Name("done"), expression.Value(update.Done))
	condEx := expression.AttributeExists(expression.Name("todoId"))
	expr, err := expression.NewBuilder().WithUpdate(updateEx).WithCondition(condEx).Build()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}

	_, err = d.dynamoDbClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.tableName),
		Key:                       key,
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return store.ErrNotFound
		}
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// Delete implements todostore.TodoStore.
func (d *DynamoTodoStore) Delete(ctx context.Context, userID string, todoID string) error {
	if userID == "" {
		return store.ErrMissingUserID
	}

	key, err := itemKey(userID, todoID)
	if err != nil {
		return err
	}
	_, err = d.dynamoDbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

func itemKey(userID string, todoID string) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(todoItemKey{UserID: userID, TodoID: todoID})
	if err != nil {
		return nil, fmt.Errorf("serializing item key: %w", err)
	}
	return key, nil
}

type todoItemKey struct {
	UserID string `dynamodbav:"userId"`
	TodoID string `dynamodbav:"todoId"`
}

type todoItem struct {
	UserID        string `dynamodbav:"userId"`
	TodoID        string `dynamodbav:"todoId"`
	CreatedAt     string `dynamodbav:"createdAt"`
	Name          string `dynamodbav:"name"`
	DueDate       string `dynamodbav:"dueDate"`
	Done          bool   `dynamodbav:"done"`
	AttachmentURL string `dynamodbav:"attachmentUrl,omitempty"`
}

func fromItem(t todo.Item) todoItem {
	return todoItem(t)
}

func (i todoItem) toItem() todo.Item {
	return todo.Item(i)
}

var _ todostore.TodoStore = (*DynamoTodoStore)(nil)
