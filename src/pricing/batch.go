package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iconzrus/marketplace-helper/backend/src/models"
)

// RoundingRule names how a requested price is snapped before validation.
type RoundingRule string

const (
	RoundingNone      RoundingRule = "NONE"
	RoundingNearest1  RoundingRule = "NEAREST_1"
	RoundingNearest5  RoundingRule = "NEAREST_5"
	RoundingNearest10 RoundingRule = "NEAREST_10"
)

// BatchUpdateItem is one requested price write, addressed by local product id
// or WB product id.
type BatchUpdateItem struct {
	ProductID   *int64           `json:"productId,omitempty"`
	WbProductID *int64           `json:"wbProductId,omitempty"`
	WbArticle   string           `json:"wbArticle,omitempty"`
	NewPrice    *decimal.Decimal `json:"newPrice,omitempty"`
}

// BatchUpdateRequest carries the items plus the guard rails applied to every
// one of them. A zero-value request rounds to 2 digits and applies no bounds.
type BatchUpdateRequest struct {
	Items           []BatchUpdateItem `json:"items"`
	Rounding        RoundingRule      `json:"rounding,omitempty"`
	FloorPrice      *decimal.Decimal  `json:"floorPrice,omitempty"`
	CeilingPrice    *decimal.Decimal  `json:"ceilingPrice,omitempty"`
	MaxDeltaPercent *decimal.Decimal  `json:"maxDeltaPercent,omitempty"`
	DryRun          bool              `json:"dryRun,omitempty"`
}

// BatchItemResult reports the outcome for one item. AppliedPrice is the
// post-rounding, post-clamping price that was (or would be) written.
type BatchItemResult struct {
	ProductID    *int64           `json:"productId,omitempty"`
	WbProductID  *int64           `json:"wbProductId,omitempty"`
	WbArticle    string           `json:"wbArticle,omitempty"`
	AppliedPrice *decimal.Decimal `json:"appliedPrice,omitempty"`
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
}

// BatchUpdateResult aggregates per-item outcomes. A rejected item never
// aborts the rest of the batch.
type BatchUpdateResult struct {
	Updated int               `json:"updated"`
	Failed  int               `json:"failed"`
	DryRun  bool              `json:"dryRun"`
	Items   []BatchItemResult `json:"items"`
}

// ApplyBatchUpdate validates every requested price and writes the accepted
// ones, unless the request is a dry run.
func (s *Service) ApplyBatchUpdate(req *BatchUpdateRequest) *BatchUpdateResult {
	result := &BatchUpdateResult{DryRun: req.DryRun, Items: []BatchItemResult{}}
	for i := range req.Items {
		item := &req.Items[i]
		r := BatchItemResult{
			ProductID:   item.ProductID,
			WbProductID: item.WbProductID,
			WbArticle:   item.WbArticle,
		}
		applied, err := s.applyOne(item, req)
		if err != nil {
			r.Success = false
			r.Message = err.Error()
			result.Failed++
		} else {
			r.Success = true
			r.AppliedPrice = applied
			if req.DryRun {
				r.Message = "validated"
			} else {
				r.Message = "OK"
			}
			result.Updated++
		}
		result.Items = append(result.Items, r)
	}
	return result
}

func (s *Service) applyOne(item *BatchUpdateItem, req *BatchUpdateRequest) (*decimal.Decimal, error) {
	if item.NewPrice == nil {
		return nil, fmt.Errorf("no new price specified")
	}

	var currentPrice *decimal.Decimal
	switch {
	case item.ProductID != nil:
		p, err := models.GetProductByID(s.DB, *item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %d not found", *item.ProductID)
		}
		price := p.Price
		currentPrice = &price
	case item.WbProductID != nil:
		wb, err := models.GetWbProductByID(s.DB, *item.WbProductID)
		if err != nil {
			return nil, fmt.Errorf("wb product %d not found", *item.WbProductID)
		}
		currentPrice = wb.Price
	default:
		return nil, fmt.Errorf("no product identifier specified")
	}

	price, err := ValidatePrice(*item.NewPrice, currentPrice, req)
	if err != nil {
		return nil, err
	}

	if !req.DryRun {
		if item.ProductID != nil {
			err = models.UpdateProductPrice(s.DB, *item.ProductID, price)
		} else {
			err = models.UpdateWbProductPrice(s.DB, *item.WbProductID, price)
		}
		if err != nil {
			return nil, fmt.Errorf("writing price: %w", err)
		}
	}
	return &price, nil
}

// ValidatePrice snaps the candidate per the rounding rule, clamps it to the
// floor and ceiling, and rejects it when the change against the current price
// exceeds the delta guard.
func ValidatePrice(candidate decimal.Decimal, currentPrice *decimal.Decimal, req *BatchUpdateRequest) (decimal.Decimal, error) {
	price, err := applyRounding(candidate, req.Rounding)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if req.FloorPrice != nil && price.LessThan(*req.FloorPrice) {
		price = *req.FloorPrice
	}
	if req.CeilingPrice != nil && price.GreaterThan(*req.CeilingPrice) {
		price = *req.CeilingPrice
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price must be positive, got %s", price.String())
	}

	if req.MaxDeltaPercent != nil && currentPrice != nil && currentPrice.IsPositive() {
		deltaPercent := price.Sub(*currentPrice).Abs().DivRound(*currentPrice, 4).Mul(oneHundred)
		if deltaPercent.GreaterThan(*req.MaxDeltaPercent) {
			return decimal.Decimal{}, fmt.Errorf("price change of %s%% exceeds the %s%% limit",
				deltaPercent.Round(2).String(), req.MaxDeltaPercent.String())
		}
	}
	return price, nil
}

func applyRounding(price decimal.Decimal, rule RoundingRule) (decimal.Decimal, error) {
	switch rule {
	case RoundingNone, "":
		return price.Round(2), nil
	case RoundingNearest1:
		return price.Round(0), nil
	case RoundingNearest5:
		return roundToMultiple(price, 5), nil
	case RoundingNearest10:
		return roundToMultiple(price, 10), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unknown rounding rule %q", rule)
	}
}

func roundToMultiple(price decimal.Decimal, multiple int64) decimal.Decimal {
	m := decimal.NewFromInt(multiple)
	return price.Div(m).Round(0).Mul(m)
}
