package gatewayhttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/compose-market/agentgate/internal/payment"
	"github.com/compose-market/agentgate/internal/registry"
	"github.com/compose-market/agentgate/internal/router"
)

// registerInferenceRoutes wires POST /api/inference and
// POST /api/inference/:modelId, bracketing the router dispatch inside
// the payment gate per spec.md §4.1/§4.6.
func registerInferenceRoutes(r *gin.Engine, deps Deps) {
	handle := func(c *gin.Context) {
		modelID := c.Param("modelId")
		runInference(c, deps, modelID)
	}
	r.POST("/api/inference", handle)
	r.POST("/api/inference/:modelId", handle)
}

func runInference(c *gin.Context, deps Deps, modelID string) {
	if deps.Dispatcher == nil {
		writeError(c, http.StatusServiceUnavailable, "inference router not configured")
		return
	}

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, http.StatusBadRequest, "failed to read request body")
		return
	}
	var parsedBody map[string]interface{}
	if len(rawBody) > 0 {
		if err := json.Unmarshal(rawBody, &parsedBody); err != nil {
			writeError(c, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if parsedBody == nil {
		parsedBody = map[string]interface{}{}
	}
	if modelID == "" {
		if id, ok := parsedBody["model"].(string); ok {
			modelID = id
		}
	}

	var model *registry.ModelInfo
	if deps.RegistryCache != nil && modelID != "" {
		if reg, err := deps.RegistryCache.Get(c.Request.Context()); err == nil {
			if m, ok := reg.GetModelInfo(modelID); ok {
				model = &m
			}
		}
	}

	req := router.Request{Ctx: c.Request.Context(), Model: model, Body: parsedBody, RawBody: rawBody}
	task := router.DetectTask(req)

	if deps.Gate == nil || !deps.Gate.Enabled() {
		outcome, err := deps.Dispatcher.Dispatch(req, c.Writer)
		if err != nil {
			writeError(c, http.StatusBadGateway, err.Error())
		}
		_ = outcome
		return
	}

	args := payment.PaymentArgs{
		Method:          c.Request.Method,
		ResourceURL:     c.Request.URL.String(),
		Network:         deps.PaymentNetwork,
		Scheme:          payment.SchemeUpto,
		MaxAmountAtomic: priceForTask(task),
		Asset:           deps.PaymentAsset,
		PayTo:           deps.PaymentPayTo,
	}
	paymentData := c.GetHeader(payment.HeaderPayment)

	result, gerr := deps.Gate.Bracket(c.Request.Context(), paymentData, args, rawBody, func(ctx context.Context) (json.RawMessage, string, error) {
		outcome, err := deps.Dispatcher.Dispatch(req, c.Writer)
		if err != nil {
			return nil, "0", err
		}
		cost := payment.CalculateInferenceCost(outcome.Usage.InputTokens, outcome.Usage.OutputTokens, pricingFor(model))
		actual := payment.CapAtCeiling(cost.TotalAtomic, args.MaxAmountAtomic)
		summary, _ := json.Marshal(map[string]interface{}{"task": task, "usage": outcome.Usage})
		return summary, strconv.FormatInt(actual, 10), nil
	})
	if gerr != nil {
		writeGateError(c, gerr)
		return
	}
	_ = result
}

func priceForTask(task registry.Task) string {
	switch task {
	case registry.TaskTextToImage, registry.TaskImageToImage:
		return payment.PriceImageGenFlux
	case registry.TaskTextToSpeech:
		return payment.PriceAudioTTS
	case registry.TaskAutomaticSpeechRecog:
		return payment.PriceAudioASR
	case registry.TaskTextToVideo:
		return payment.PriceVideoGen
	default:
		return payment.PriceAgentChat
	}
}

// pricingFor converts a registry.Pricing entry (dollars per million
// tokens) into atomic units (1e6 atomic == $1, per spec.md §4.1's
// 6-decimal stablecoin asset).
func pricingFor(model *registry.ModelInfo) payment.ProviderPricing {
	if model == nil || model.Pricing == nil {
		return payment.ProviderPricing{}
	}
	return payment.ProviderPricing{
		InputPerMillion:  int64(model.Pricing.InputPerMillionTokens * 1_000_000),
		OutputPerMillion: int64(model.Pricing.OutputPerMillionTokens * 1_000_000),
	}
}

func writeGateError(c *gin.Context, gerr *payment.GateError) {
	status := gerr.StatusCode()
	if gerr.IncludeChallenge && gerr.Challenge != nil {
		c.Header(payment.HeaderPaymentRequired, challengeHeaderValue(*gerr.Challenge))
		c.JSON(status, gerr.Challenge)
		return
	}
	writeError(c, status, gerr.Message)
}

func challengeHeaderValue(chal payment.Challenge) string {
	b, err := json.Marshal(chal)
	if err != nil {
		return ""
	}
	return string(b)
}
