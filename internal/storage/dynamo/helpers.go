package dynamo

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"medication-refill-tracker/internal/models"
)

func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts field->value pairs into a SET expression. Fields
// are sorted so the same updates always give the same expression.
func buildUpdateExpr(updates map[string]any) (updateExpr, error) {
	if len(updates) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update: %w", models.ErrBadRequest)
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ue := updateExpr{
		Expr:   "SET ",
		Names:  make(map[string]string, len(keys)),
		Values: make(map[string]types.AttributeValue, len(keys)),
	}
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		if i > 0 {
			ue.Expr += ", "
		}
		ue.Expr += nameKey + " = " + valueKey
	}
	return ue, nil
}

// patchUpdates maps a patch onto item attribute names.
func patchUpdates(p models.MedicationPatch) map[string]any {
	u := map[string]any{}
	if p.Name != nil {
		u["name"] = *p.Name
	}
	if p.Dosage != nil {
		u["dosage"] = *p.Dosage
	}
	if p.Schedule != nil {
		u["schedule"] = p.Schedule
	}
	if p.Stock != nil {
		u["stock"] = *p.Stock
	}
	if p.RefillThreshold != nil {
		u["refill_threshold"] = *p.RefillThreshold
	}
	if p.ExpiresOn != nil {
		u["expires_on"] = p.ExpiresOn.UTC()
	}
	if p.LastTaken != nil {
		u["last_taken"] = p.LastTaken.UTC()
	}
	if p.ImageURL != nil {
		u["image_url"] = *p.ImageURL
	}
	return u
}
