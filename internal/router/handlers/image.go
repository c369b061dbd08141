package handlers

import (
	"net/http"

	"github.com/compose-market/agentgate/internal/registry"
	"github.com/compose-market/agentgate/internal/router"
)

// imageChains holds the documented fallback order per spec.md §4.3.
var imageChains = map[registry.Task][]string{
	registry.TaskTextToImage:  {"hf-inference", "wavespeed", "replicate", "novita"},
	registry.TaskImageToImage: {"wavespeed", "hf-inference", "replicate", "novita"},
}

// ImageHandler builds a text-to-image/image-to-image handler that walks
// the task's provider chain, classifying errors per spec.md §9: a
// "loading/503" response short-circuits with a retry-shortly message
// instead of rotating providers, since the provider will be hot next
// time; "PRO required"/"not supported"/"not available"/404 rotate to
// the next provider.
func ImageHandler(call func(provider string, req router.Request) ([]byte, string, error)) router.Handler {
	return func(req router.Request, w http.ResponseWriter) (router.Outcome, error) {
		task := router.DetectTask(req)
		providers, ok := imageChains[task]
		if !ok {
			providers = imageChains[registry.TaskTextToImage]
		}

		chain := router.FallbackChain{
			Task:      string(task),
			Providers: providers,
			Call: func(provider string) ([]byte, string, error) {
				return call(provider, req)
			},
		}

		modelID := ""
		if req.Model != nil {
			modelID = req.Model.ID
		}
		image, contentType, _, err := chain.Run(modelID, router.SubstituteModelFor(task))
		if err != nil {
			return router.Outcome{}, err
		}
		if contentType == "" {
			contentType = "image/png"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(image)
		return router.Outcome{ContentType: contentType}, nil
	}
}
