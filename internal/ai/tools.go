package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-billing/internal/database"
	"go-pos-billing/internal/report"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
)

const (
	ToolCheckInventory   = "check_inventory"
	ToolUpdateStockPrice = "update_stock_price"
	ToolGetSalesReport   = "get_sales_report"
)

// Tools runs the function calls the model asks for against the ledger.
type Tools struct {
	store database.Store
	loc   *time.Location
}

func NewTools(store database.Store, loc *time.Location) *Tools {
	if loc == nil {
		loc = time.Local
	}
	return &Tools{store: store, loc: loc}
}

func (t *Tools) Declarations() []*genai.Tool {
	return []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        ToolCheckInventory,
					Description: "Get the inventory list. Use this to find ANY stock item details like ID, Name, Variant, Price or Quantity.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"name": {Type: genai.TypeString, Description: "Optional part of the item name to search for"},
						},
					},
				},
				{
					Name:        ToolUpdateStockPrice,
					Description: "Update the price of a specific stock item using its ID",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"item_id":   {Type: genai.TypeInteger, Description: "ID of the stock item"},
							"new_price": {Type: genai.TypeNumber, Description: "New price in rupees"},
						},
						Required: []string{"item_id", "new_price"},
					},
				},
				{
					Name:        ToolGetSalesReport,
					Description: "Get total sales, bill count, average, highest and lowest bill for a date range (inclusive).",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
							"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
						},
						Required: []string{"start_date", "end_date"},
					},
				},
			},
		},
	}
}

type inventoryRow struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Variant  string `json:"variant,omitempty"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Execute never fails: problems are reported back to the model in the response.
func (t *Tools) Execute(ctx context.Context, call genai.FunctionCall) genai.FunctionResponse {
	var (
		out map[string]any
		err error
	)
	switch call.Name {
	case ToolCheckInventory:
		out, err = t.checkInventory(ctx, call.Args)
	case ToolUpdateStockPrice:
		out, err = t.updatePrice(ctx, call.Args)
	case ToolGetSalesReport:
		out, err = t.salesReport(ctx, call.Args)
	default:
		err = fmt.Errorf("unknown tool %q", call.Name)
	}
	if err != nil {
		out = map[string]any{"error": err.Error()}
	}
	return genai.FunctionResponse{Name: call.Name, Response: out}
}

func (t *Tools) checkInventory(ctx context.Context, args map[string]any) (map[string]any, error) {
	name, _ := args["name"].(string)
	items, err := t.store.ListStock(ctx, database.StockFilter{Query: name})
	if err != nil {
		return nil, err
	}

	rows := make([]inventoryRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, inventoryRow{
			ID:       it.ID,
			Name:     it.Name,
			Variant:  it.Variant,
			Quantity: it.Quantity,
			Price:    it.Price.StringFixed(2),
		})
	}
	return map[string]any{"inventory": rows}, nil
}

func (t *Tools) updatePrice(ctx context.Context, args map[string]any) (map[string]any, error) {
	id, err := numberArg(args, "item_id")
	if err != nil {
		return nil, err
	}
	raw, err := numberArg(args, "new_price")
	if err != nil {
		return nil, err
	}
	price := decimal.NewFromFloat(raw).Round(2)
	if id < 1 || price.IsNegative() {
		return nil, errors.New("item_id must be positive and new_price cannot be negative")
	}

	item, err := t.store.UpdateStock(ctx, uint(id), database.StockUpdate{Price: &price})
	if errors.Is(err, database.ErrNotFound) {
		return map[string]any{"status": "Item ID not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": "Success", "name": item.Name, "new_price": item.Price.StringFixed(2)}, nil
}

func (t *Tools) salesReport(ctx context.Context, args map[string]any) (map[string]any, error) {
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)

	start, err1 := time.ParseInLocation("2006-01-02", startStr, t.loc)
	end, err2 := time.ParseInLocation("2006-01-02", endStr, t.loc)
	if err1 != nil || err2 != nil {
		return nil, errors.New("dates must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		start, end = end, start
	}

	// end date is inclusive, so read up to the start of the following day
	from, _ := report.DayRange(start, t.loc)
	_, to := report.DayRange(end, t.loc)

	bills, err := t.store.ListBillsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s := report.Summarize(bills)
	return map[string]any{
		"revenue":     s.Total.StringFixed(2),
		"sales_count": s.Count,
		"average":     s.Average.StringFixed(2),
		"highest":     s.Max.StringFixed(2),
		"lowest":      s.Min.StringFixed(2),
	}, nil
}

func numberArg(args map[string]any, key string) (float64, error) {
	switch v := args[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}
