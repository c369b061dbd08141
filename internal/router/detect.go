package router

import (
	"strings"

	"github.com/compose-market/agentgate/internal/registry"
)

// taskRule is one (predicate, task) pair in the model-id heuristics
// chain. Order matters — the first match wins (spec.md §9: "Encode as
// an ordered list of (predicate, task) pairs, not scattered branches").
type taskRule struct {
	predicate func(id string) bool
	task      registry.Task
}

func contains(substrs ...string) func(string) bool {
	return func(id string) bool {
		lower := strings.ToLower(id)
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

func hasSuffix(suffix string) func(string) bool {
	return func(id string) bool { return strings.HasSuffix(strings.ToLower(id), suffix) }
}

// modelIDRules is the exact precedence chain from spec.md §4.3 step 3,
// checked top to bottom; must be preserved exactly since the same model
// id can appear in more than one source with inconsistent task tags.
var modelIDRules = []taskRule{
	{contains("flux", "stable-diffusion", "sdxl", "dall"), registry.TaskTextToImage},
	{contains("whisper", "speech-to-text"), registry.TaskAutomaticSpeechRecog},
	{contains("tts", "text-to-speech", "bark", "speecht5"), registry.TaskTextToSpeech},
	{contains("embed", "e5", "bge", "minilm", "sentence-transformer"), registry.TaskFeatureExtraction},
	{contains("veo"), registry.TaskTextToVideo},
	{contains("lyria"), registry.TaskTextToAudio},
	{func(id string) bool { return contains("imagen")(id) || hasSuffix("-image")(id) }, registry.TaskTextToImage},
}

// DetectTask implements spec.md §4.3's precedence chain:
// explicit request task > registry task > model-id heuristics > default
// text-generation > image-upgrade rule.
func DetectTask(req Request) registry.Task {
	if req.ExplicitTask != "" {
		return applyImageUpgrade(req, req.ExplicitTask)
	}
	if req.Model != nil && req.Model.Task != "" {
		return applyImageUpgrade(req, req.Model.Task)
	}
	if req.Model != nil {
		for _, rule := range modelIDRules {
			if rule.predicate(req.Model.ID) {
				return applyImageUpgrade(req, rule.task)
			}
		}
	}
	return applyImageUpgrade(req, registry.TaskTextGeneration)
}

// applyImageUpgrade implements spec.md §4.3 step 5: if the task is
// text-to-image or text-generation AND the body carries an image,
// upgrade to image-to-image.
func applyImageUpgrade(req Request, task registry.Task) registry.Task {
	if !req.HasImage() {
		return task
	}
	if task == registry.TaskTextToImage || task == registry.TaskTextGeneration {
		return registry.TaskImageToImage
	}
	return task
}
