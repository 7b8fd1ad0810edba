package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"medication-refill-tracker/internal/models"
	"medication-refill-tracker/internal/storage"
)

// API is the part of *dynamodb.Client the store uses.
type API interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// MedicationRepo keeps medications in a single table keyed by id.
type MedicationRepo struct {
	client    API
	tableName string
}

func NewMedicationRepo(client API, tableName string) *MedicationRepo {
	return &MedicationRepo{client: client, tableName: tableName}
}

// List scans the whole table. Items come back ordered by id, which for
// ULIDs is creation order.
func (r *MedicationRepo) List(ctx context.Context) ([]models.Medication, error) {
	var meds []models.Medication
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan medications: %w", err)
		}
		var page []models.Medication
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal medications: %w", err)
		}
		meds = append(meds, page...)
	}
	sort.Slice(meds, func(i, j int) bool { return meds[i].ID < meds[j].ID })
	return meds, nil
}

func (r *MedicationRepo) Insert(ctx context.Context, m models.Medication) (models.Medication, error) {
	if m.ID == "" {
		m.ID = storage.NewID()
	}
	if m.Schedule == nil {
		m.Schedule = []string{}
	}
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return m, fmt.Errorf("marshal medication: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return m, fmt.Errorf("put medication: %w", err)
	}
	return m, nil
}

func (r *MedicationRepo) Update(ctx context.Context, id string, patch models.MedicationPatch) error {
	ue, err := buildUpdateExpr(patchUpdates(patch))
	if err != nil {
		return err
	}
	ue.Names["#id"] = "id"
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("id", id),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFound(err, "update", id)
}

func (r *MedicationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("id", id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	return notFound(err, "delete", id)
}

// notFound turns a failed existence condition into models.ErrNotFound.
func notFound(err error, op, id string) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return models.ErrNotFound
	}
	return fmt.Errorf("%s medication %s: %w", op, id, err)
}

// Bootstrap creates the table if it does not exist yet.
func Bootstrap(ctx context.Context, client API, tableName string, logger *zap.Logger) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
	})
	if err != nil {
		var riue *types.ResourceInUseException
		if errors.As(err, &riue) {
			return nil
		}
		return fmt.Errorf("create table %s: %w", tableName, err)
	}
	logger.Info("created table", zap.String("table", tableName))
	return nil
}
