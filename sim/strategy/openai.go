package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"github.com/inference-sim/supply-sim/sim"
)

// OpenAIAdvisor asks an OpenAI model for structured ORDER/WAIT advice.
type OpenAIAdvisor struct {
	client *openai.Client
	model  string
	schema map[string]any
}

// NewOpenAIAdvisor creates an advisor. An empty model selects gpt-4o.
func NewOpenAIAdvisor(apiKey, model string) (*OpenAIAdvisor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the llm-agent strategy")
	}
	if model == "" {
		model = string(shared.ChatModelGPT4o)
	}
	schema, err := adviceSchema()
	if err != nil {
		return nil, err
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIAdvisor{client: &client, model: model, schema: schema}, nil
}

func (o *OpenAIAdvisor) Advise(ctx context.Context, req AdviceRequest) (Advice, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(o.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(BuildPrompt(req)),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "replenishment_advice",
					Strict:      param.NewOpt(true),
					Schema:      o.schema,
					Description: param.NewOpt("Whether to reorder one product at one warehouse today"),
				},
			},
		},
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return Advice{}, fmt.Errorf("openai responses error: %w", err)
	}
	content := resp.OutputText()
	if content == "" {
		return Advice{}, fmt.Errorf("empty response content")
	}
	return ParseAdvice(content)
}

// ParseAdvice decodes a model reply, tolerating a markdown code fence.
func ParseAdvice(content string) (Advice, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var advice Advice
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &advice); err != nil {
		return Advice{}, fmt.Errorf("failed to parse advice JSON: %w", err)
	}
	advice.Decision = strings.ToUpper(advice.Decision)
	if advice.Decision != "ORDER" && advice.Decision != "WAIT" {
		return Advice{}, fmt.Errorf("unexpected decision %q", advice.Decision)
	}
	return advice, nil
}

// BuildPrompt renders the advisor prompt for one position.
func BuildPrompt(req AdviceRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert supply-chain manager.
Your job is to avoid stockouts while keeping procurement, shipping and holding costs low.

Date: %s

Inventory for product %s at warehouse %s:
- on hand: %d units
- on order: %d units
- reorder point: %d units
- lost sales so far: %d units

Product:
- unit cost: %s, unit price: %s
- case pack: %d
- typical daily demand: %.1f units, target days of supply: %d
- preferred supplier: %s
`,
		req.Date.Format(sim.DateLayout), req.Product.ID, req.WarehouseID,
		req.Record.OnHand, req.Record.OnOrder, req.Product.ReorderPoint, req.Record.LostSalesUnits,
		req.Product.UnitCost, req.Product.UnitPrice, req.Product.CasePack,
		req.Product.BaseDemandDaily, req.Product.SupplyDaysTarget, req.Product.SupplierID)

	if len(req.Product.DiscountTiers) > 0 {
		b.WriteString("- volume discounts:")
		for _, t := range req.Product.DiscountTiers {
			fmt.Fprintf(&b, " %d+ units → %s off;", t.MinQuantity, t.Fraction.Shift(2).String()+"%")
		}
		b.WriteString("\n")
	}
	if req.Capped {
		fmt.Fprintf(&b, "- remaining warehouse capacity: %d units\n", req.RemainingCapacity)
	}

	b.WriteString("\nSuppliers:\n")
	for _, s := range req.Suppliers {
		fmt.Fprintf(&b, "- %s: lead time %d days, reliability %.0f%%, cost multiplier %s, shipping %s per kg\n",
			s.ID, s.LeadTimeDays, s.Reliability*100, s.CostMultiplier, s.ShippingCostPerKg)
	}

	b.WriteString(`
Rules:
1. If units are already on order, answer WAIT.
2. Order only when on-hand stock will not cover demand over the supplier lead time.
3. Never exceed the remaining warehouse capacity.
4. Answer with decision ORDER or WAIT, a quantity, a supplier_id and brief reasoning.
`)
	return b.String()
}

func adviceSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(&Advice{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}
