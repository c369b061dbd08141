package router

import (
	"fmt"
	"net/http"

	"github.com/compose-market/agentgate/internal/registry"
)

// Dispatcher routes a Request to the Handler registered for its detected
// task.
type Dispatcher struct {
	handlers map[registry.Task]Handler
}

// NewDispatcher builds a Dispatcher from a task->handler table. Tasks not
// present in the table fail closed with an error naming the task, rather
// than silently falling back to a default handler.
func NewDispatcher(handlers map[registry.Task]Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers}
}

// Dispatch detects the task for req and invokes its handler.
func (d *Dispatcher) Dispatch(req Request, w http.ResponseWriter) (Outcome, error) {
	task := DetectTask(req)
	h, ok := d.handlers[task]
	if !ok {
		return Outcome{}, fmt.Errorf("router: no handler registered for task %q", task)
	}
	return h(req, w)
}
